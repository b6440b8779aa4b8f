// Package transfer moves books and the reading log in and out of the tracker
// as CSV files and XLSX workbooks.
package transfer

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"readtracker/internal/models"
)

var (
	// ErrCSVSingleDataset is returned when both datasets are requested as CSV
	ErrCSVSingleDataset = fmt.Errorf("%w: a CSV export holds one dataset; export books and logs separately", models.ErrValidation)
	// ErrMissingColumns is returned when a CSV lacks a required column with both delimiters
	ErrMissingColumns = fmt.Errorf("%w: missing required columns", models.ErrValidation)
)

// Format is an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Dataset selects what an export contains
type Dataset string

const (
	DatasetBooks Dataset = "books"
	DatasetLogs  Dataset = "logs"
	DatasetBoth  Dataset = "both"
)

// ParseFormat parses an export format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	case "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unknown export format %q (csv or xlsx): %w", s, models.ErrValidation)
	}
}

// ParseDataset parses an export dataset name
func ParseDataset(s string) (Dataset, error) {
	switch d := Dataset(strings.ToLower(strings.TrimSpace(s))); d {
	case DatasetBooks, DatasetLogs, DatasetBoth:
		return d, nil
	default:
		return "", fmt.Errorf("unknown dataset %q (books, logs or both): %w", s, models.ErrValidation)
	}
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// FileName suggests a download name for the export
func FileName(format Format, dataset Dataset) string {
	if format == FormatXLSX {
		return "reading_tracker_export.xlsx"
	}
	if dataset == DatasetLogs {
		return "reading_log_export.csv"
	}
	return "books_export.csv"
}

// ImportRow is a parsed CSV row ready to be stored
type ImportRow struct {
	Line int
	Book models.Book
}

// RowError explains why a CSV row was not imported
type RowError struct {
	Line   int    `json:"line"`
	Title  string `json:"title,omitempty"`
	Reason string `json:"reason"`
}

func (e RowError) String() string {
	if e.Title != "" {
		return fmt.Sprintf("line %d (%s): %s", e.Line, e.Title, e.Reason)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// StatusError rejects a whole file because some rows carry an unknown status
type StatusError struct {
	Lines []int
}

func (e *StatusError) Error() string {
	lines := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		lines = append(lines, fmt.Sprint(l))
	}
	valid := make([]string, 0, len(models.Statuses))
	for _, s := range models.Statuses {
		valid = append(valid, string(s))
	}
	return fmt.Sprintf("invalid status on lines %s; valid statuses are %s",
		strings.Join(lines, ", "), strings.Join(valid, ", "))
}

// Unwrap lets callers treat the error as a validation failure
func (e *StatusError) Unwrap() error {
	return models.ErrValidation
}

// ImportReport summarises a CSV import
type ImportReport struct {
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Failed   int        `json:"failed"`
	Errors   []RowError `json:"errors,omitempty"`
}

// Fail records a rejected row
func (r *ImportReport) Fail(e RowError) {
	r.Failed++
	r.Errors = append(r.Errors, e)
	sort.SliceStable(r.Errors, func(i, j int) bool { return r.Errors[i].Line < r.Errors[j].Line })
}

// DuplicateKey identifies a book for duplicate detection: title and author
// compared without regard to case
func DuplicateKey(title, author string) string {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(title)) + "\x00" + fold.String(strings.TrimSpace(author))
}
