// Package tracker is the application service behind every presentation
// layer. It validates input, talks to storage and feeds storage snapshots to
// the stats engine.
package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"readtracker/internal/models"
	"readtracker/internal/stats"
	"readtracker/internal/storage"
)

// Clock returns the current time
type Clock func() time.Time

// Option configures a Service
type Option func(*Service)

// WithClock replaces the wall clock, mostly for tests
func WithClock(clock Clock) Option {
	return func(s *Service) {
		s.now = clock
	}
}

// Service coordinates storage and statistics
type Service struct {
	db     storage.Storage
	logger *zap.Logger
	now    Clock
}

// New creates a Service on top of an initialized store
func New(db storage.Storage, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the reference date of every statistic
func (s *Service) Today() time.Time {
	return models.Day(s.now())
}

// AddBook validates and stores a new book
func (s *Service) AddBook(ctx context.Context, book models.Book) (models.Book, error) {
	book = cleanBook(book)
	if err := book.Validate(); err != nil {
		return models.Book{}, err
	}

	id, err := s.db.CreateBook(ctx, book)
	if err != nil {
		s.logger.Error("Failed to create book", zap.Error(err), zap.String("title", book.Title))
		return models.Book{}, fmt.Errorf("failed to create book: %w", err)
	}
	book.ID = id

	s.logger.Info("Book created",
		zap.Int64("book_id", id),
		zap.String("title", book.Title),
		zap.String("status", string(book.Status)),
	)
	return book, nil
}

// UpdateBook validates and replaces an existing book
func (s *Service) UpdateBook(ctx context.Context, book models.Book) (models.Book, error) {
	book = cleanBook(book)
	if err := book.Validate(); err != nil {
		return models.Book{}, err
	}

	if err := s.db.UpdateBook(ctx, book); err != nil {
		return models.Book{}, fmt.Errorf("failed to update book: %w", err)
	}

	s.logger.Info("Book updated", zap.Int64("book_id", book.ID), zap.String("status", string(book.Status)))
	return book, nil
}

// DeleteBook removes a book and every log entry that refers to it
func (s *Service) DeleteBook(ctx context.Context, id int64) error {
	if err := s.db.DeleteBook(ctx, id); err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	s.logger.Info("Book deleted", zap.Int64("book_id", id))
	return nil
}

// Book returns a single book
func (s *Service) Book(ctx context.Context, id int64) (models.Book, error) {
	return s.db.GetBook(ctx, id)
}

// Books returns every book ordered by title
func (s *Service) Books(ctx context.Context) ([]models.Book, error) {
	return s.db.ListBooks(ctx)
}

// BooksByStatus returns the books in status ordered by title
func (s *Service) BooksByStatus(ctx context.Context, status models.Status) ([]models.Book, error) {
	return s.db.ListBooksByStatus(ctx, status)
}

// LogResult is the outcome of logging a reading session
type LogResult struct {
	Entry    models.LogEntry `json:"entry"`
	Progress stats.Progress  `json:"progress"`
	// MarkCompleted is set when the logged pages reached the book's total
	// while the book is not yet marked completed
	MarkCompleted bool `json:"mark_completed"`
}

// LogReading stores a reading session and reports the book's progress after it
func (s *Service) LogReading(ctx context.Context, entry models.LogEntry) (LogResult, error) {
	entry.LogDate = models.Day(entry.LogDate)
	entry.Notes = strings.TrimSpace(entry.Notes)
	if err := entry.Validate(); err != nil {
		return LogResult{}, err
	}

	book, err := s.db.GetBook(ctx, entry.BookID)
	if err != nil {
		return LogResult{}, err
	}

	id, err := s.db.AddLogEntry(ctx, entry)
	if err != nil {
		s.logger.Error("Failed to add log entry",
			zap.Error(err),
			zap.Int64("book_id", entry.BookID),
			zap.Time("log_date", entry.LogDate),
		)
		return LogResult{}, fmt.Errorf("failed to add log entry: %w", err)
	}
	entry.ID = id
	entry.BookTitle = book.Title

	pagesRead, err := s.db.SumPagesForBook(ctx, book.ID)
	if err != nil {
		return LogResult{}, fmt.Errorf("failed to sum logged pages: %w", err)
	}
	progress := stats.ProgressFromPages(book, pagesRead)

	s.logger.Info("Reading logged",
		zap.Int64("book_id", book.ID),
		zap.Int("pages_read", entry.PagesRead),
		zap.Int("total_read", progress.PagesRead),
		zap.Bool("finished", progress.Finished),
	)

	return LogResult{
		Entry:         entry,
		Progress:      progress,
		MarkCompleted: progress.Finished && book.Status != models.StatusCompleted,
	}, nil
}

// Logs returns the filtered reading log, newest first
func (s *Service) Logs(ctx context.Context, filter storage.LogFilter) ([]models.LogEntry, error) {
	return s.db.ListLogEntries(ctx, filter)
}

// RecentLogs returns the newest n log entries, or all of them when n <= 0
func (s *Service) RecentLogs(ctx context.Context, n int) ([]models.LogEntry, error) {
	logs, err := s.db.ListLogEntries(ctx, storage.LogFilter{})
	if err != nil {
		return nil, err
	}
	if n > 0 && len(logs) > n {
		logs = logs[:n]
	}
	return logs, nil
}

// BookProgress reports how far a single book has been read
func (s *Service) BookProgress(ctx context.Context, id int64) (stats.Progress, error) {
	book, err := s.db.GetBook(ctx, id)
	if err != nil {
		return stats.Progress{}, err
	}
	pagesRead, err := s.db.SumPagesForBook(ctx, id)
	if err != nil {
		return stats.Progress{}, fmt.Errorf("failed to sum logged pages: %w", err)
	}
	return stats.ProgressFromPages(book, pagesRead), nil
}

// snapshot loads the full ledger and log for one statistics pass
func (s *Service) snapshot(ctx context.Context) ([]models.Book, []models.LogEntry, error) {
	books, err := s.db.ListBooks(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load books: %w", err)
	}
	logs, err := s.db.ListLogEntries(ctx, storage.LogFilter{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load reading log: %w", err)
	}
	return books, logs, nil
}

func cleanBook(book models.Book) models.Book {
	book.Title = strings.TrimSpace(book.Title)
	book.Author = strings.TrimSpace(book.Author)
	book.Genre = strings.TrimSpace(book.Genre)
	book.NormalizeDates()
	return book
}
