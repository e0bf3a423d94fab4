package ingest

import "ainventory-service/internal/models"

// ColumnType drives value coercion during validation.
type ColumnType string

const (
	ColumnString  ColumnType = "string"
	ColumnNumber  ColumnType = "number"
	ColumnInteger ColumnType = "integer"
	ColumnDate    ColumnType = "date"
)

// Column describes one expected column of an upload kind.
type Column struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Required    bool       `json:"required"`
	Type        ColumnType `json:"type"`
	Example     string     `json:"example"`
	// Default is substituted for empty numeric cells before coercion.
	Default string `json:"default,omitempty"`
}

// Schema is the full column contract for one upload kind.
type Schema struct {
	Kind    models.DataKind `json:"kind"`
	Columns []Column        `json:"columns"`
}

// Column returns the declaration for a column name.
func (s Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

var productSchema = Schema{
	Kind: models.DataKindProducts,
	Columns: []Column{
		{Name: "sku", Description: "Unique product SKU", Required: true, Type: ColumnString, Example: "SKU-0001"},
		{Name: "name", Description: "Product name", Required: true, Type: ColumnString, Example: "Steel Bolt M8"},
		{Name: "description", Description: "Free-text description", Type: ColumnString, Example: "Zinc plated"},
		{Name: "category", Description: "Category name, created when missing", Type: ColumnString, Example: "Fasteners"},
		{Name: "brand", Description: "Brand name, created when missing", Type: ColumnString, Example: "Acme"},
		{Name: "unit_cost", Description: "Purchase cost per unit", Type: ColumnNumber, Example: "1.25"},
		{Name: "unit_price", Description: "Sale price per unit", Type: ColumnNumber, Example: "2.50"},
		{Name: "weight", Description: "Unit weight, kg", Type: ColumnNumber, Example: "0.012"},
		{Name: "dimensions", Description: "Packaging dimensions", Type: ColumnString, Example: "10x10x2 cm"},
	},
}

var inventorySchema = Schema{
	Kind: models.DataKindInventory,
	Columns: []Column{
		{Name: "sku", Description: "SKU of an existing product", Required: true, Type: ColumnString, Example: "SKU-0001"},
		{Name: "current_stock", Description: "Units on hand", Type: ColumnNumber, Example: "140", Default: "0"},
		{Name: "min_stock", Description: "Minimum stock level", Type: ColumnNumber, Example: "20", Default: "0"},
		{Name: "max_stock", Description: "Maximum stock level", Type: ColumnNumber, Example: "500", Default: "0"},
		{Name: "reorder_point", Description: "Reorder trigger level", Type: ColumnNumber, Example: "40", Default: "0"},
		{Name: "safety_stock", Description: "Safety stock buffer", Type: ColumnNumber, Example: "10", Default: "0"},
		{Name: "lead_time_days", Description: "Supplier lead time in days", Type: ColumnInteger, Example: "7", Default: "0"},
	},
}

var salesSchema = Schema{
	Kind: models.DataKindSales,
	Columns: []Column{
		{Name: "sku", Description: "SKU of an existing product", Required: true, Type: ColumnString, Example: "SKU-0001"},
		{Name: "sale_date", Description: "Date of sale", Required: true, Type: ColumnDate, Example: "2025-11-03"},
		{Name: "quantity", Description: "Units sold", Required: true, Type: ColumnNumber, Example: "3"},
		{Name: "revenue", Description: "Total revenue for the line", Type: ColumnNumber, Example: "7.50", Default: "0"},
		{Name: "cost", Description: "Total cost for the line", Type: ColumnNumber, Example: "3.75"},
		{Name: "customer_id", Description: "External customer reference", Type: ColumnString, Example: "C-1042"},
		{Name: "transaction_id", Description: "External transaction reference, used for de-duplication", Type: ColumnString, Example: "TX-99817"},
	},
}

// SchemaFor returns the column contract for an upload kind.
func SchemaFor(kind models.DataKind) (Schema, bool) {
	switch kind {
	case models.DataKindProducts:
		return productSchema, true
	case models.DataKindInventory:
		return inventorySchema, true
	case models.DataKindSales:
		return salesSchema, true
	}
	return Schema{}, false
}
