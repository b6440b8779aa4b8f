package storage

import (
	"context"
	"errors"
	"time"

	"readtracker/internal/models"
)

// ErrNotFound is returned when a book or log entry does not exist
var ErrNotFound = errors.New("not found")

// LogFilter narrows ListLogEntries. Zero fields are not applied;
// From and To are inclusive.
type LogFilter struct {
	BookID int64
	From   *time.Time
	To     *time.Time
}

// Storage defines the interface for data storage operations
type Storage interface {
	// Book operations

	// CreateBook stores a new book and returns its assigned ID
	CreateBook(ctx context.Context, book models.Book) (int64, error)
	// UpdateBook replaces every field of an existing book
	UpdateBook(ctx context.Context, book models.Book) error
	// DeleteBook removes a book together with its log entries
	DeleteBook(ctx context.Context, id int64) error
	GetBook(ctx context.Context, id int64) (models.Book, error)
	// ListBooks returns every book ordered by title
	ListBooks(ctx context.Context) ([]models.Book, error)
	// ListBooksByStatus returns the books in status ordered by title
	ListBooksByStatus(ctx context.Context, status models.Status) ([]models.Book, error)

	// Reading log operations

	// AddLogEntry stores a reading session. It returns ErrNotFound when the
	// book does not exist.
	AddLogEntry(ctx context.Context, entry models.LogEntry) (int64, error)
	// ListLogEntries returns entries newest first (log date, then ID),
	// with BookTitle filled in
	ListLogEntries(ctx context.Context, filter LogFilter) ([]models.LogEntry, error)
	// SumPagesForBook returns the pages logged for a book, 0 when none
	SumPagesForBook(ctx context.Context, bookID int64) (int, error)

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}

// Matches reports whether entry passes the filter
func (f LogFilter) Matches(entry models.LogEntry) bool {
	if f.BookID != 0 && entry.BookID != f.BookID {
		return false
	}
	if f.From != nil && entry.LogDate.Before(models.Day(*f.From)) {
		return false
	}
	if f.To != nil && entry.LogDate.After(models.Day(*f.To)) {
		return false
	}
	return true
}
