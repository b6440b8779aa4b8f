package stubs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"readtracker/internal/models"
	"readtracker/internal/storage"
)

// MockDB is an in-memory implementation of the Storage interface for testing
type MockDB struct {
	mu         sync.RWMutex
	books      map[int64]models.Book
	logs       []models.LogEntry
	nextBookID int64
	nextLogID  int64
}

var _ storage.Storage = (*MockDB)(nil)

// NewMockDB creates a new mock database
func NewMockDB() *MockDB {
	return &MockDB{
		books:      make(map[int64]models.Book),
		logs:       make([]models.LogEntry, 0),
		nextBookID: 1,
		nextLogID:  1,
	}
}

// Initialize does nothing for the mock DB; it starts empty
func (m *MockDB) Initialize(ctx context.Context) error {
	return nil
}

// Seed fills the mock with a small demo library relative to today
func (m *MockDB) Seed(ctx context.Context, today time.Time) error {
	day := func(offset int) *time.Time {
		d := models.Day(today).AddDate(0, 0, offset)
		return &d
	}

	books := []models.Book{
		{Title: "The Hobbit", Author: "J. R. R. Tolkien", Genre: "Fantasy", TotalPages: 310, Status: models.StatusCompleted, StartDate: day(-40), EndDate: day(-30)},
		{Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", TotalPages: 412, Status: models.StatusReading, StartDate: day(-6)},
		{Title: "The Name of the Wind", Author: "Patrick Rothfuss", Genre: "Fantasy", TotalPages: 662, Status: models.StatusWishlist},
		{Title: "Neuromancer", Author: "William Gibson", Genre: "Sci-Fi", TotalPages: 271, Status: models.StatusWishlist},
	}
	ids := make([]int64, 0, len(books))
	for _, b := range books {
		id, err := m.CreateBook(ctx, b)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	for offset := -6; offset <= -1; offset++ {
		entry := models.LogEntry{BookID: ids[1], LogDate: *day(offset), PagesRead: 25}
		if _, err := m.AddLogEntry(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// CreateBook stores a copy of the book under a new ID
func (m *MockDB) CreateBook(ctx context.Context, book models.Book) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	book.ID = m.nextBookID
	m.nextBookID++
	m.books[book.ID] = book
	return book.ID, nil
}

// UpdateBook replaces an existing book
func (m *MockDB) UpdateBook(ctx context.Context, book models.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[book.ID]; !ok {
		return fmt.Errorf("book %d: %w", book.ID, storage.ErrNotFound)
	}
	m.books[book.ID] = book
	return nil
}

// DeleteBook removes a book and its log entries
func (m *MockDB) DeleteBook(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[id]; !ok {
		return fmt.Errorf("book %d: %w", id, storage.ErrNotFound)
	}
	delete(m.books, id)

	kept := m.logs[:0]
	for _, entry := range m.logs {
		if entry.BookID != id {
			kept = append(kept, entry)
		}
	}
	m.logs = kept
	return nil
}

// GetBook returns a single book
func (m *MockDB) GetBook(ctx context.Context, id int64) (models.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	book, ok := m.books[id]
	if !ok {
		return models.Book{}, fmt.Errorf("book %d: %w", id, storage.ErrNotFound)
	}
	return book, nil
}

// ListBooks returns all books sorted by title
func (m *MockDB) ListBooks(ctx context.Context) ([]models.Book, error) {
	return m.listBooks(func(models.Book) bool { return true }), nil
}

// ListBooksByStatus returns the books in the given status sorted by title
func (m *MockDB) ListBooksByStatus(ctx context.Context, status models.Status) ([]models.Book, error) {
	return m.listBooks(func(b models.Book) bool { return b.Status == status }), nil
}

func (m *MockDB) listBooks(keep func(models.Book) bool) []models.Book {
	m.mu.RLock()
	defer m.mu.RUnlock()

	books := make([]models.Book, 0, len(m.books))
	for _, book := range m.books {
		if keep(book) {
			books = append(books, book)
		}
	}

	// Sort by title
	sort.Slice(books, func(i, j int) bool {
		if books[i].Title != books[j].Title {
			return books[i].Title < books[j].Title
		}
		return books[i].ID < books[j].ID
	})

	return books
}

// AddLogEntry records a reading session for an existing book
func (m *MockDB) AddLogEntry(ctx context.Context, entry models.LogEntry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	book, ok := m.books[entry.BookID]
	if !ok {
		return 0, fmt.Errorf("book %d: %w", entry.BookID, storage.ErrNotFound)
	}

	entry.ID = m.nextLogID
	m.nextLogID++
	entry.LogDate = models.Day(entry.LogDate)
	entry.BookTitle = book.Title
	entry.Notes = strings.TrimSpace(entry.Notes)
	m.logs = append(m.logs, entry)
	return entry.ID, nil
}

// ListLogEntries returns the filtered entries, newest first
func (m *MockDB) ListLogEntries(ctx context.Context, filter storage.LogFilter) ([]models.LogEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]models.LogEntry, 0, len(m.logs))
	for _, entry := range m.logs {
		if !filter.Matches(entry) {
			continue
		}
		entry.BookTitle = m.books[entry.BookID].Title
		entries = append(entries, entry)
	}

	// Sort by date descending, then by ID descending
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].LogDate.Equal(entries[j].LogDate) {
			return entries[i].LogDate.After(entries[j].LogDate)
		}
		return entries[i].ID > entries[j].ID
	})

	return entries, nil
}

// SumPagesForBook returns the total pages logged for a book
func (m *MockDB) SumPagesForBook(ctx context.Context, bookID int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0
	for _, entry := range m.logs {
		if entry.BookID == bookID {
			total += entry.PagesRead
		}
	}
	return total, nil
}

// Close does nothing for mock DB
func (m *MockDB) Close() error {
	return nil
}
