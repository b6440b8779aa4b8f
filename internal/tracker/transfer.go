package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"readtracker/internal/storage"
	"readtracker/internal/transfer"
)

// Import adds the books of a CSV file. Rows matching a book that was already
// stored before the import (same title and author, ignoring case) are
// skipped; repeats within the file are all added. A file with an unknown
// status is rejected before anything is stored.
func (s *Service) Import(ctx context.Context, r io.Reader) (transfer.ImportReport, error) {
	parsed, err := transfer.ReadBooksCSV(r)
	if err != nil {
		return transfer.ImportReport{}, err
	}

	existing, err := s.db.ListBooks(ctx)
	if err != nil {
		return transfer.ImportReport{}, fmt.Errorf("failed to load books: %w", err)
	}
	stored := make(map[string]bool, len(existing))
	for _, book := range existing {
		stored[transfer.DuplicateKey(book.Title, book.Author)] = true
	}

	var report transfer.ImportReport
	for _, rowErr := range parsed.Errors {
		report.Fail(rowErr)
	}

	for _, row := range parsed.Rows {
		if stored[transfer.DuplicateKey(row.Book.Title, row.Book.Author)] {
			report.Skipped++
			continue
		}

		if _, err := s.AddBook(ctx, row.Book); err != nil {
			report.Fail(transfer.RowError{Line: row.Line, Title: row.Book.Title, Reason: err.Error()})
			continue
		}
		report.Imported++
	}

	s.logger.Info("CSV import finished",
		zap.Int("imported", report.Imported),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	return report, nil
}

// Export writes the requested dataset to w
func (s *Service) Export(ctx context.Context, w io.Writer, format transfer.Format, dataset transfer.Dataset) error {
	if format == transfer.FormatCSV && dataset == transfer.DatasetBoth {
		return transfer.ErrCSVSingleDataset
	}

	books, err := s.db.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("failed to load books: %w", err)
	}
	logs, err := s.db.ListLogEntries(ctx, storage.LogFilter{})
	if err != nil {
		return fmt.Errorf("failed to load reading log: %w", err)
	}

	if err := transfer.Export(w, format, dataset, books, logs); err != nil {
		if !errors.Is(err, transfer.ErrCSVSingleDataset) {
			s.logger.Error("Export failed", zap.Error(err), zap.String("format", string(format)))
		}
		return err
	}
	return nil
}
