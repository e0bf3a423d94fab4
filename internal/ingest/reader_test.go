package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

func TestRead_CSVNormalizesHeaders(t *testing.T) {
	csvData := "SKU *, Name ,unit_cost\nA1,Widget,1.50\n"

	table, err := Read(strings.NewReader(csvData), "products.csv")
	require.NoError(t, err)
	require.Equal(t, []string{"sku", "name", "unit_cost"}, table.Columns)
	require.Len(t, table.Rows, 1)
	require.Equal(t, 1, table.Rows[0].Num)
	require.Equal(t, "A1", table.Rows[0].Get("sku"))
	require.Equal(t, "Widget", table.Rows[0].Get("name"))
}

func TestRead_CSVDropsEmptyRowsAndColumns(t *testing.T) {
	csvData := "sku,name,unused\nA1,Widget,\n,,\nA2,Gadget,\n"

	table, err := Read(strings.NewReader(csvData), "data.csv")
	require.NoError(t, err)
	require.Equal(t, []string{"sku", "name"}, table.Columns)
	require.Len(t, table.Rows, 2)
	// The empty second row still consumes a row number.
	require.Equal(t, 1, table.Rows[0].Num)
	require.Equal(t, 3, table.Rows[1].Num)
}

func TestRead_CSVStripsBOM(t *testing.T) {
	csvData := append([]byte{0xEF, 0xBB, 0xBF}, []byte("sku\nA1\n")...)

	table, err := Read(bytes.NewReader(csvData), "data.csv")
	require.NoError(t, err)
	require.Equal(t, []string{"sku"}, table.Columns)
}

func TestRead_CSVDecodesCP1251(t *testing.T) {
	enc := charmap.Windows1251.NewEncoder()
	raw, err := enc.Bytes([]byte("sku,name\nA1,Гайка\n"))
	require.NoError(t, err)
	require.False(t, bytes.Equal(raw, []byte("sku,name\nA1,Гайка\n")))

	table, err := Read(bytes.NewReader(raw), "data.csv")
	require.NoError(t, err)
	require.Equal(t, "Гайка", table.Rows[0].Get("name"))
}

func TestRead_UnsupportedExtension(t *testing.T) {
	_, err := Read(strings.NewReader("sku\nA1\n"), "data.txt")
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Read(strings.NewReader(""), "data.xls")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRead_GarbageXLSX(t *testing.T) {
	_, err := Read(strings.NewReader("not a zip archive"), "data.xlsx")
	require.ErrorIs(t, err, ErrUnreadableFile)
}

func TestRead_XLSXFirstSheetOnly(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]string{"sku", "name"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]string{"A1", "Widget"}))
	_, err := f.NewSheet("Other")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Other", "A1", &[]string{"ignored"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())

	table, err := Read(&buf, "data.xlsx")
	require.NoError(t, err)
	require.Equal(t, []string{"sku", "name"}, table.Columns)
	require.Len(t, table.Rows, 1)
	require.Equal(t, "Widget", table.Rows[0].Get("name"))
}

func TestReadFile_MissingFile(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.csv"))
	require.ErrorIs(t, err, ErrUnreadableFile)
}

func TestReadFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("sku,name\nA1,Widget\n"), 0o644))

	table, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
}
