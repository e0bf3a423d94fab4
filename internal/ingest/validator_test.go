package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, csvData string) *Table {
	t.Helper()
	table, err := Read(strings.NewReader(csvData), "data.csv")
	require.NoError(t, err)
	return table
}

func TestValidateProducts_RequiredFields(t *testing.T) {
	table := mustTable(t, "sku,name\nA1,Widget\n,NoSku\nA3,\n")

	records, issues := ValidateProducts(table)
	require.Len(t, records, 1)
	require.Equal(t, "A1", records[0].SKU)

	require.Len(t, issues, 2)
	require.Equal(t, 2, issues[0].Row)
	require.Equal(t, "sku", issues[0].Column)
	require.Equal(t, CodeRequiredField, issues[0].Code)
	require.Equal(t, 3, issues[1].Row)
	require.Equal(t, "name", issues[1].Column)
}

func TestValidateProducts_NumericCoercion(t *testing.T) {
	table := mustTable(t, "sku,name,unit_cost,unit_price\nA1,Widget,\"1,50\",not-a-number\n")

	records, issues := ValidateProducts(table)
	require.Empty(t, records)
	require.Len(t, issues, 1)
	require.Equal(t, "unit_price", issues[0].Column)
	require.Equal(t, CodeInvalidValue, issues[0].Code)
}

func TestValidateProducts_CommaDecimal(t *testing.T) {
	table := mustTable(t, "sku,name,unit_cost\nA1,Widget,\"1,50\"\n")

	records, issues := ValidateProducts(table)
	require.Empty(t, issues)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].UnitCost)
	require.InDelta(t, 1.5, *records[0].UnitCost, 1e-9)
}

func TestValidateInventory_DefaultsAndNegatives(t *testing.T) {
	table := mustTable(t, "sku,current_stock,reorder_point\nA1,10,\nA2,-5,3\n")

	records, issues := ValidateInventory(table)
	require.Len(t, records, 1)
	require.Equal(t, "A1", records[0].SKU)
	require.Equal(t, 10.0, records[0].CurrentStock)
	require.Equal(t, 0.0, records[0].ReorderPoint)
	require.Equal(t, 0, records[0].LeadTimeDays)

	require.Len(t, issues, 1)
	require.Equal(t, 2, issues[0].Row)
	require.Equal(t, "current_stock", issues[0].Column)
	require.Equal(t, CodeInvalidValue, issues[0].Code)
}

func TestValidateSales_DateFormats(t *testing.T) {
	table := mustTable(t, "sku,sale_date,quantity\nA1,2025-11-03,2\nA2,03.11.2025,1\nA3,11/03/2025,4\nA4,yesterday,1\n")

	records, issues := ValidateSales(table)
	require.Len(t, records, 3)
	want := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	for _, rec := range records {
		require.True(t, rec.SaleDate.Equal(want), "row %d parsed %v", rec.Row, rec.SaleDate)
	}

	require.Len(t, issues, 1)
	require.Equal(t, 4, issues[0].Row)
	require.Equal(t, "sale_date", issues[0].Column)
	require.Equal(t, CodeInvalidValue, issues[0].Code)
}

func TestValidateSales_MissingRequired(t *testing.T) {
	table := mustTable(t, "sku,sale_date,quantity\nA1,2025-11-03,\n")

	records, issues := ValidateSales(table)
	require.Empty(t, records)
	require.Len(t, issues, 1)
	require.Equal(t, "quantity", issues[0].Column)
	require.Equal(t, CodeRequiredField, issues[0].Code)
}

func TestValidateSales_AbsentRequiredColumnErrorsEveryRow(t *testing.T) {
	table := mustTable(t, "sku,quantity\nA1,2\nA1,3\n")

	records, issues := ValidateSales(table)
	require.Empty(t, records)
	require.Len(t, issues, 2)
	for i, issue := range issues {
		require.Equal(t, i+1, issue.Row)
		require.Equal(t, "sale_date", issue.Column)
		require.Equal(t, CodeRequiredField, issue.Code)
	}
}
