package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateLayouts is the accepted order for sale_date values. ISO forms first,
// then the slash and dot forms spreadsheet exports tend to use.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006",
	"02.01.2006",
}

// ProductRecord is a validated products row ready for reconciliation.
type ProductRecord struct {
	Row         int
	SKU         string
	Name        string
	Description string
	Category    string
	Brand       string
	UnitCost    *float64
	UnitPrice   *float64
	Weight      *float64
	Dimensions  string
}

// InventoryRecord is a validated inventory row. Numeric fields default to
// zero when the column is absent or the cell empty.
type InventoryRecord struct {
	Row          int
	SKU          string
	CurrentStock float64
	MinStock     float64
	MaxStock     float64
	ReorderPoint float64
	SafetyStock  float64
	LeadTimeDays int
}

// SaleRecord is a validated sales row.
type SaleRecord struct {
	Row           int
	SKU           string
	SaleDate      time.Time
	Quantity      float64
	Revenue       float64
	Cost          *float64
	CustomerID    string
	TransactionID string
}

// ValidateProducts checks every row of a products table and splits the rows
// into typed records and per-row issues. Rows with issues are dropped.
func ValidateProducts(t *Table) ([]ProductRecord, []RowIssue) {
	var records []ProductRecord
	var issues []RowIssue

	for _, row := range t.Rows {
		v := rowValidator{row: row, schema: productSchema}

		rec := ProductRecord{
			Row:         row.Num,
			SKU:         v.required("sku"),
			Name:        v.required("name"),
			Description: row.Get("description"),
			Category:    row.Get("category"),
			Brand:       row.Get("brand"),
			UnitCost:    v.optionalNumber("unit_cost"),
			UnitPrice:   v.optionalNumber("unit_price"),
			Weight:      v.optionalNumber("weight"),
			Dimensions:  row.Get("dimensions"),
		}

		if len(v.issues) > 0 {
			issues = append(issues, v.issues...)
			continue
		}
		records = append(records, rec)
	}
	return records, issues
}

// ValidateInventory checks every row of an inventory table. Negative stock
// values are rejected here, before any store work happens.
func ValidateInventory(t *Table) ([]InventoryRecord, []RowIssue) {
	var records []InventoryRecord
	var issues []RowIssue

	for _, row := range t.Rows {
		v := rowValidator{row: row, schema: inventorySchema}

		rec := InventoryRecord{
			Row:          row.Num,
			SKU:          v.required("sku"),
			CurrentStock: v.number("current_stock"),
			MinStock:     v.number("min_stock"),
			MaxStock:     v.number("max_stock"),
			ReorderPoint: v.number("reorder_point"),
			SafetyStock:  v.number("safety_stock"),
			LeadTimeDays: v.integer("lead_time_days"),
		}

		if rec.CurrentStock < 0 {
			v.add("current_stock", CodeInvalidValue, "current_stock must not be negative")
		}

		if len(v.issues) > 0 {
			issues = append(issues, v.issues...)
			continue
		}
		records = append(records, rec)
	}
	return records, issues
}

// ValidateSales checks every row of a sales table.
func ValidateSales(t *Table) ([]SaleRecord, []RowIssue) {
	var records []SaleRecord
	var issues []RowIssue

	for _, row := range t.Rows {
		v := rowValidator{row: row, schema: salesSchema}

		rec := SaleRecord{
			Row:           row.Num,
			SKU:           v.required("sku"),
			SaleDate:      v.requiredDate("sale_date"),
			Quantity:      v.requiredNumber("quantity"),
			Revenue:       v.number("revenue"),
			Cost:          v.optionalNumber("cost"),
			CustomerID:    row.Get("customer_id"),
			TransactionID: row.Get("transaction_id"),
		}

		if len(v.issues) > 0 {
			issues = append(issues, v.issues...)
			continue
		}
		records = append(records, rec)
	}
	return records, issues
}

// rowValidator accumulates issues for one row while fields are pulled out.
type rowValidator struct {
	row    Row
	schema Schema
	issues []RowIssue
}

func (v *rowValidator) add(column, code, message string) {
	v.issues = append(v.issues, RowIssue{Row: v.row.Num, Column: column, Code: code, Message: message})
}

func (v *rowValidator) required(name string) string {
	val := v.row.Get(name)
	if val == "" {
		v.add(name, CodeRequiredField, fmt.Sprintf("%s is required", name))
	}
	return val
}

func (v *rowValidator) requiredNumber(name string) float64 {
	if v.row.Get(name) == "" {
		v.add(name, CodeRequiredField, fmt.Sprintf("%s is required", name))
		return 0
	}
	return v.number(name)
}

func (v *rowValidator) requiredDate(name string) time.Time {
	if v.row.Get(name) == "" {
		v.add(name, CodeRequiredField, fmt.Sprintf("%s is required", name))
		return time.Time{}
	}
	return v.date(name)
}

// number coerces a numeric cell, substituting the schema default for empty
// cells. An uncoercible cell records an issue and yields zero.
func (v *rowValidator) number(name string) float64 {
	val := v.row.Get(name)
	if val == "" {
		col, _ := v.schema.Column(name)
		if col.Default == "" {
			return 0
		}
		val = col.Default
	}
	f, err := parseNumber(val)
	if err != nil {
		v.add(name, CodeInvalidValue, fmt.Sprintf("%s is not a number: %q", name, v.row.Get(name)))
		return 0
	}
	return f
}

func (v *rowValidator) optionalNumber(name string) *float64 {
	val := v.row.Get(name)
	if val == "" {
		return nil
	}
	f, err := parseNumber(val)
	if err != nil {
		v.add(name, CodeInvalidValue, fmt.Sprintf("%s is not a number: %q", name, val))
		return nil
	}
	return &f
}

func (v *rowValidator) integer(name string) int {
	return int(v.number(name))
}

func (v *rowValidator) date(name string) time.Time {
	val := v.row.Get(name)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, val); err == nil {
			return t
		}
	}
	v.add(name, CodeInvalidValue, fmt.Sprintf("%s is not a recognized date: %q", name, val))
	return time.Time{}
}

// parseNumber accepts both dot and comma decimal separators.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}
