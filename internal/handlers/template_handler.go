package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"ainventory-service/internal/ingest"
	"ainventory-service/internal/models"
)

type TemplateHandler struct{}

func NewTemplateHandler() *TemplateHandler {
	return &TemplateHandler{}
}

// GetTemplate returns the upload template for a data kind, as JSON column
// metadata or as a downloadable CSV/XLSX skeleton
// GET /api/v1/data/templates/:kind
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	kind := models.DataKind(c.Param("kind"))
	schema, ok := ingest.SchemaFor(kind)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_DATA_KIND",
				Message: "Template kind must be one of: products, inventory, sales",
			},
		})
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "csv":
		h.generateCSVTemplate(c, schema)
	case "xlsx":
		h.generateXLSXTemplate(c, schema)
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "template": schema})
	}
}

func (h *TemplateHandler) generateCSVTemplate(c *gin.Context, schema ingest.Schema) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_upload_template.csv", schema.Kind))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(schema.Columns))
	examples := make([]string, len(schema.Columns))
	for i, col := range schema.Columns {
		headers[i] = col.Name
		examples[i] = col.Example
	}
	writer.Write(headers)
	writer.Write(examples)
}

func (h *TemplateHandler) generateXLSXTemplate(c *gin.Context, schema ingest.Schema) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := string(schema.Kind)
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})

	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
	})

	for i, col := range schema.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		if col.Required {
			headerText = col.Name + " *"
		}
		f.SetCellValue(sheetName, cell, headerText)

		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 18)

		dataCell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheetName, dataCell, col.Example)
	}

	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_upload_template.xlsx", schema.Kind))

	f.Write(c.Writer)
}
