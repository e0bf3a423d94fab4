package ingest

import "errors"

// Fatal errors abort the whole batch and fail the upload job.
var (
	ErrUnsupportedFormat     = errors.New("unsupported file format")
	ErrUnreadableFile        = errors.New("file could not be read")
	ErrUnknownDataKind       = errors.New("unknown data kind")
	ErrNoWarehouseConfigured = errors.New("no warehouse configured")
	ErrJobNotRetryable       = errors.New("upload is not in a retryable state")
)

// Row issue codes. Errors reject the row, warnings record a skip that is
// expected behavior (duplicates).
const (
	CodeRequiredField        = "REQUIRED_FIELD"
	CodeInvalidValue         = "INVALID_VALUE"
	CodeSKUNotFound          = "SKU_NOT_FOUND"
	CodeDuplicateSKU         = "DUPLICATE_SKU"
	CodeDuplicateTransaction = "DUPLICATE_TRANSACTION"
	CodeRowRejected          = "ROW_REJECTED"
)

// RowIssue pins a problem to a 1-based data row (the header row is not
// counted) and, where known, a column.
type RowIssue struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result summarizes one processed file. Committed rows, rejected rows and
// skipped duplicates always add up to TotalRows.
type Result struct {
	TotalRows        int        `json:"totalRows"`
	RecordsProcessed int        `json:"recordsProcessed"`
	Errors           []RowIssue `json:"errors,omitempty"`
	Warnings         []RowIssue `json:"warnings,omitempty"`
}

func (r *Result) addError(row int, column, code, message string) {
	r.Errors = append(r.Errors, RowIssue{Row: row, Column: column, Code: code, Message: message})
}

func (r *Result) addWarning(row int, column, code, message string) {
	r.Warnings = append(r.Warnings, RowIssue{Row: row, Column: column, Code: code, Message: message})
}
