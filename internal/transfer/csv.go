package transfer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"readtracker/internal/models"
)

var requiredColumns = []string{"title", "author", "total_pages", "status"}

var (
	bookHeader = []string{"id", "title", "author", "genre", "total_pages", "status", "start_date", "end_date"}
	logHeader  = []string{"id", "book_id", "book_title", "log_date", "pages_read", "notes"}
)

// ParseResult holds the rows of a book CSV that parsed, and the ones that did not
type ParseResult struct {
	Rows   []ImportRow
	Errors []RowError
}

// ReadBooksCSV parses a book CSV with a header row. The delimiter is ','
// unless the required columns are only found with ';'. Any row with an
// unknown status rejects the file with a *StatusError; other bad rows are
// reported in ParseResult.Errors. Line numbers count the header as line 1.
func ReadBooksCSV(r io.Reader) (ParseResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ParseResult{}, fmt.Errorf("failed to read CSV: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	var (
		records  [][]string
		columns  map[string]int
		missing  []string
		parseErr error
	)
	for _, delim := range []rune{',', ';'} {
		recs, err := readRecords(data, delim)
		if err != nil {
			parseErr = err
			continue
		}
		cols, miss := headerColumns(recs)
		if records == nil || len(miss) < len(missing) {
			records, columns, missing = recs, cols, miss
		}
		if len(missing) == 0 {
			break
		}
	}
	if records == nil {
		return ParseResult{}, fmt.Errorf("%w: failed to parse CSV (use ',' or ';' as delimiter): %v", models.ErrValidation, parseErr)
	}
	if len(missing) > 0 {
		return ParseResult{}, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	rows := records[1:]
	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var badStatus []int
	for i, record := range rows {
		if _, ok := models.ParseStatus(field(record, "status")); !ok {
			badStatus = append(badStatus, i+2)
		}
	}
	if len(badStatus) > 0 {
		return ParseResult{}, &StatusError{Lines: badStatus}
	}

	result := ParseResult{Rows: []ImportRow{}}
	for i, record := range rows {
		line := i + 2
		title := field(record, "title")

		pages, err := parsePages(field(record, "total_pages"))
		if err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Title: title, Reason: err.Error()})
			continue
		}

		status, _ := models.ParseStatus(field(record, "status"))
		book := models.Book{
			Title:      title,
			Author:     field(record, "author"),
			Genre:      field(record, "genre"),
			TotalPages: pages,
			Status:     status,
			StartDate:  models.ParseOptionalDate(field(record, "start_date")),
			EndDate:    models.ParseOptionalDate(field(record, "end_date")),
		}
		if err := book.Validate(); err != nil {
			result.Errors = append(result.Errors, RowError{Line: line, Title: title, Reason: err.Error()})
			continue
		}
		result.Rows = append(result.Rows, ImportRow{Line: line, Book: book})
	}
	return result, nil
}

func readRecords(data []byte, delim rune) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("empty file")
	}
	return records, nil
}

func headerColumns(records [][]string) (map[string]int, []string) {
	columns := make(map[string]int)
	for i, name := range records[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	return columns, missing
}

// parsePages accepts whole numbers, including spreadsheet floats like "320.0"
func parsePages(s string) (int, error) {
	if s == "" {
		return 0, errors.New("total_pages is empty")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n <= 0 {
			return 0, errors.New("total_pages must be greater than 0")
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("total_pages %q is not a whole number", s)
	}
	if f <= 0 {
		return 0, errors.New("total_pages must be greater than 0")
	}
	return int(f), nil
}

// WriteBooksCSV writes books with a header row
func WriteBooksCSV(w io.Writer, books []models.Book) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(bookHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, book := range books {
		if err := cw.Write(bookRecord(book)); err != nil {
			return fmt.Errorf("failed to write book %d: %w", book.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteLogsCSV writes log entries with a header row
func WriteLogsCSV(w io.Writer, entries []models.LogEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(logHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, entry := range entries {
		if err := cw.Write(logRecord(entry)); err != nil {
			return fmt.Errorf("failed to write log entry %d: %w", entry.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func bookRecord(book models.Book) []string {
	return []string{
		strconv.FormatInt(book.ID, 10),
		book.Title,
		book.Author,
		book.Genre,
		strconv.Itoa(book.TotalPages),
		string(book.Status),
		models.FormatOptionalDate(book.StartDate),
		models.FormatOptionalDate(book.EndDate),
	}
}

func logRecord(entry models.LogEntry) []string {
	return []string{
		strconv.FormatInt(entry.ID, 10),
		strconv.FormatInt(entry.BookID, 10),
		entry.BookTitle,
		models.FormatDate(entry.LogDate),
		strconv.Itoa(entry.PagesRead),
		entry.Notes,
	}
}
