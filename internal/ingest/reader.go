package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// Row is one data row of an uploaded file. Num is 1-based over data rows,
// the header row is not counted.
type Row struct {
	Num    int
	Values map[string]string
}

// Get returns the trimmed cell value for a column, or "" when absent.
func (r Row) Get(column string) string {
	return r.Values[column]
}

// Table is the normalized form of an uploaded file: lowercased headers,
// trimmed cells, fully empty rows and columns dropped.
type Table struct {
	Columns []string
	Rows    []Row
}

// ReadFile parses the file at path into a Table. The format is chosen by
// extension; anything but .csv and .xlsx fails with ErrUnsupportedFormat.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer f.Close()
	return Read(f, filepath.Base(path))
}

// Read parses an uploaded file from r, using the filename extension to pick
// the format.
func Read(r io.Reader, filename string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return readCSV(r)
	case ".xlsx":
		return readXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// csvEncodings is the fallback order for non-UTF-8 CSV exports. Spreadsheet
// tools on Windows commonly emit cp1251 or latin-1.
var csvEncodings = []*charmap.Charmap{charmap.Windows1251, charmap.ISO8859_1}

func decodeCSVBytes(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	for _, cm := range csvEncodings {
		if out, err := cm.NewDecoder().Bytes(raw); err == nil {
			return string(out), nil
		}
	}
	return "", fmt.Errorf("%w: undecodable text encoding", ErrUnreadableFile)
}

func readCSV(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	text, err := decodeCSVBytes(raw)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrUnreadableFile)
	}

	return buildTable(records[0], records[1:]), nil
}

func readXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrUnreadableFile)
	}

	// Only the first sheet is ingested.
	excelRows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	if len(excelRows) == 0 {
		return nil, fmt.Errorf("%w: empty sheet", ErrUnreadableFile)
	}

	return buildTable(excelRows[0], excelRows[1:]), nil
}

// buildTable normalizes headers, maps records into rows and drops rows and
// columns that are entirely empty.
func buildTable(header []string, records [][]string) *Table {
	headers := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.ToLower(h))
		h = strings.TrimSuffix(h, " *")
		headers[i] = h
	}

	nonEmpty := make(map[string]bool, len(headers))
	var rows []Row
	num := 0
	for _, record := range records {
		values := make(map[string]string, len(headers))
		empty := true
		for i, value := range record {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			value = strings.TrimSpace(value)
			values[headers[i]] = value
			if value != "" {
				nonEmpty[headers[i]] = true
				empty = false
			}
		}
		num++
		if empty {
			continue
		}
		rows = append(rows, Row{Num: num, Values: values})
	}

	var columns []string
	for _, h := range headers {
		if h != "" && nonEmpty[h] {
			columns = append(columns, h)
		}
	}
	for i := range rows {
		for col, v := range rows[i].Values {
			if v == "" && !nonEmpty[col] {
				delete(rows[i].Values, col)
			}
		}
	}

	return &Table{Columns: columns, Rows: rows}
}
