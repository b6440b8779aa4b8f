package transfer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"readtracker/internal/models"
)

// Workbook sheet names
const (
	SheetBooks = "Books"
	SheetLogs  = "ReadingLog"
)

// Export writes the requested dataset in format. CSV holds a single dataset,
// so DatasetBoth with FormatCSV returns ErrCSVSingleDataset.
func Export(w io.Writer, format Format, dataset Dataset, books []models.Book, entries []models.LogEntry) error {
	switch format {
	case FormatCSV:
		switch dataset {
		case DatasetBooks:
			return WriteBooksCSV(w, books)
		case DatasetLogs:
			return WriteLogsCSV(w, entries)
		case DatasetBoth:
			return ErrCSVSingleDataset
		}
	case FormatXLSX:
		return WriteXLSX(w, dataset, books, entries)
	default:
		return fmt.Errorf("unknown export format %q: %w", format, models.ErrValidation)
	}
	return fmt.Errorf("unknown dataset %q: %w", dataset, models.ErrValidation)
}

// WriteXLSX writes a workbook with a Books sheet, a ReadingLog sheet, or both
func WriteXLSX(w io.Writer, dataset Dataset, books []models.Book, entries []models.LogEntry) error {
	type sheet struct {
		name   string
		header []string
		rows   [][]string
	}

	var sheets []sheet
	if dataset == DatasetBooks || dataset == DatasetBoth {
		rows := make([][]string, 0, len(books))
		for _, book := range books {
			rows = append(rows, bookRecord(book))
		}
		sheets = append(sheets, sheet{name: SheetBooks, header: bookHeader, rows: rows})
	}
	if dataset == DatasetLogs || dataset == DatasetBoth {
		rows := make([][]string, 0, len(entries))
		for _, entry := range entries {
			rows = append(rows, logRecord(entry))
		}
		sheets = append(sheets, sheet{name: SheetLogs, header: logHeader, rows: rows})
	}
	if len(sheets) == 0 {
		return fmt.Errorf("unknown dataset %q: %w", dataset, models.ErrValidation)
	}

	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, s.name); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", s.name, err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", s.name, err)
		}

		if err := writeSheetRow(f, s.name, 1, s.header); err != nil {
			return err
		}
		for r, row := range s.rows {
			if err := writeSheetRow(f, s.name, r+2, row); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}
