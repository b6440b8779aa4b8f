// Package storagetest holds the behaviour every storage.Storage backend must
// share. Backend tests call Run with a factory returning an initialized,
// empty store.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readtracker/internal/models"
	"readtracker/internal/storage"
)

// Factory returns an initialized, empty store. Cleanup is registered on t.
type Factory func(t *testing.T) storage.Storage

// Run executes the shared storage tests against stores built by newStore
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateAndGetBook", func(t *testing.T) { testCreateAndGetBook(t, newStore(t)) })
	t.Run("ListBooksOrderedByTitle", func(t *testing.T) { testListBooks(t, newStore(t)) })
	t.Run("UpdateBook", func(t *testing.T) { testUpdateBook(t, newStore(t)) })
	t.Run("DeleteBookCascades", func(t *testing.T) { testDeleteBook(t, newStore(t)) })
	t.Run("MissingRows", func(t *testing.T) { testMissingRows(t, newStore(t)) })
	t.Run("ReadingLog", func(t *testing.T) { testReadingLog(t, newStore(t)) })
	t.Run("LogFilter", func(t *testing.T) { testLogFilter(t, newStore(t)) })
}

// Date parses a YYYY-MM-DD literal and panics on bad input
func Date(s string) time.Time {
	t, ok := models.ParseDate(s)
	if !ok {
		panic("storagetest: bad date " + s)
	}
	return t
}

// DatePtr is Date returning a pointer
func DatePtr(s string) *time.Time {
	t := Date(s)
	return &t
}

func testCreateAndGetBook(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	book := models.Book{
		Title:      "Dune",
		Author:     "Frank Herbert",
		Genre:      "Sci-Fi",
		TotalPages: 412,
		Status:     models.StatusCompleted,
		StartDate:  DatePtr("2024-01-02"),
		EndDate:    DatePtr("2024-01-20"),
	}
	id, err := s.CreateBook(ctx, book)
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := s.GetBook(ctx, id)
	require.NoError(t, err)
	book.ID = id
	assert.Equal(t, book, got)

	wish := models.Book{Title: "Emma", Author: "Jane Austen", TotalPages: 474, Status: models.StatusWishlist}
	wishID, err := s.CreateBook(ctx, wish)
	require.NoError(t, err)
	assert.NotEqual(t, id, wishID)

	got, err = s.GetBook(ctx, wishID)
	require.NoError(t, err)
	assert.Nil(t, got.StartDate)
	assert.Nil(t, got.EndDate)
	assert.Empty(t, got.Genre)
}

func testListBooks(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	books, err := s.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)

	for _, b := range []models.Book{
		{Title: "Book C", Author: "A", TotalPages: 10, Status: models.StatusReading},
		{Title: "Book A", Author: "A", TotalPages: 10, Status: models.StatusWishlist},
		{Title: "Book B", Author: "A", TotalPages: 10, Status: models.StatusReading},
	} {
		_, err := s.CreateBook(ctx, b)
		require.NoError(t, err)
	}

	books, err = s.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, []string{"Book A", "Book B", "Book C"}, titles(books))

	reading, err := s.ListBooksByStatus(ctx, models.StatusReading)
	require.NoError(t, err)
	assert.Equal(t, []string{"Book B", "Book C"}, titles(reading))

	abandoned, err := s.ListBooksByStatus(ctx, models.StatusAbandoned)
	require.NoError(t, err)
	assert.Empty(t, abandoned)
}

func testUpdateBook(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	id, err := s.CreateBook(ctx, models.Book{Title: "Dune", Author: "Herbert", TotalPages: 400, Status: models.StatusReading, StartDate: DatePtr("2024-03-01")})
	require.NoError(t, err)

	updated := models.Book{
		ID:         id,
		Title:      "Dune",
		Author:     "Frank Herbert",
		Genre:      "Sci-Fi",
		TotalPages: 412,
		Status:     models.StatusCompleted,
		StartDate:  DatePtr("2024-03-01"),
		EndDate:    DatePtr("2024-03-15"),
	}
	require.NoError(t, s.UpdateBook(ctx, updated))

	got, err := s.GetBook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	// Clearing a date persists as absent
	updated.EndDate = nil
	updated.Status = models.StatusReading
	require.NoError(t, s.UpdateBook(ctx, updated))
	got, err = s.GetBook(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.EndDate)
}

func testDeleteBook(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	keep, err := s.CreateBook(ctx, models.Book{Title: "Keep", Author: "A", TotalPages: 100, Status: models.StatusReading})
	require.NoError(t, err)
	drop, err := s.CreateBook(ctx, models.Book{Title: "Drop", Author: "A", TotalPages: 100, Status: models.StatusReading})
	require.NoError(t, err)

	_, err = s.AddLogEntry(ctx, models.LogEntry{BookID: keep, LogDate: Date("2024-05-01"), PagesRead: 10})
	require.NoError(t, err)
	_, err = s.AddLogEntry(ctx, models.LogEntry{BookID: drop, LogDate: Date("2024-05-02"), PagesRead: 20})
	require.NoError(t, err)

	require.NoError(t, s.DeleteBook(ctx, drop))

	_, err = s.GetBook(ctx, drop)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	entries, err := s.ListLogEntries(ctx, storage.LogFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, keep, entries[0].BookID)

	pages, err := s.SumPagesForBook(ctx, drop)
	require.NoError(t, err)
	assert.Zero(t, pages)
}

func testMissingRows(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	_, err := s.GetBook(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = s.UpdateBook(ctx, models.Book{ID: 999, Title: "X", Author: "Y", TotalPages: 1, Status: models.StatusWishlist})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = s.DeleteBook(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.AddLogEntry(ctx, models.LogEntry{BookID: 999, LogDate: Date("2024-01-01"), PagesRead: 5})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testReadingLog(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	id, err := s.CreateBook(ctx, models.Book{Title: "Dune", Author: "Herbert", TotalPages: 400, Status: models.StatusReading})
	require.NoError(t, err)

	pages, err := s.SumPagesForBook(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, pages)

	first, err := s.AddLogEntry(ctx, models.LogEntry{BookID: id, LogDate: Date("2024-05-01"), PagesRead: 30, Notes: "prologue"})
	require.NoError(t, err)
	second, err := s.AddLogEntry(ctx, models.LogEntry{BookID: id, LogDate: Date("2024-05-03"), PagesRead: 20})
	require.NoError(t, err)
	third, err := s.AddLogEntry(ctx, models.LogEntry{BookID: id, LogDate: Date("2024-05-01"), PagesRead: 15})
	require.NoError(t, err)

	entries, err := s.ListLogEntries(ctx, storage.LogFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest date first, then newest ID within a day
	assert.Equal(t, []int64{second, third, first}, entryIDs(entries))
	assert.Equal(t, "Dune", entries[0].BookTitle)
	assert.Equal(t, Date("2024-05-03"), entries[0].LogDate)
	assert.Equal(t, "prologue", entries[2].Notes)

	pages, err = s.SumPagesForBook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 65, pages)
}

func testLogFilter(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	a, err := s.CreateBook(ctx, models.Book{Title: "A", Author: "X", TotalPages: 100, Status: models.StatusReading})
	require.NoError(t, err)
	b, err := s.CreateBook(ctx, models.Book{Title: "B", Author: "X", TotalPages: 100, Status: models.StatusReading})
	require.NoError(t, err)

	for _, e := range []models.LogEntry{
		{BookID: a, LogDate: Date("2024-04-30"), PagesRead: 1},
		{BookID: a, LogDate: Date("2024-05-01"), PagesRead: 2},
		{BookID: b, LogDate: Date("2024-05-15"), PagesRead: 3},
		{BookID: a, LogDate: Date("2024-05-31"), PagesRead: 4},
		{BookID: b, LogDate: Date("2024-06-01"), PagesRead: 5},
	} {
		_, err := s.AddLogEntry(ctx, e)
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		filter storage.LogFilter
		pages  []int
	}{
		{name: "no filter", filter: storage.LogFilter{}, pages: []int{5, 4, 3, 2, 1}},
		{name: "by book", filter: storage.LogFilter{BookID: b}, pages: []int{5, 3}},
		{name: "inclusive range", filter: storage.LogFilter{From: DatePtr("2024-05-01"), To: DatePtr("2024-05-31")}, pages: []int{4, 3, 2}},
		{name: "from only", filter: storage.LogFilter{From: DatePtr("2024-05-31")}, pages: []int{5, 4}},
		{name: "book and range", filter: storage.LogFilter{BookID: a, To: DatePtr("2024-05-01")}, pages: []int{2, 1}},
		{name: "empty range", filter: storage.LogFilter{From: DatePtr("2025-01-01")}, pages: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := s.ListLogEntries(ctx, tt.filter)
			require.NoError(t, err)
			got := make([]int, 0, len(entries))
			for _, e := range entries {
				got = append(got, e.PagesRead)
			}
			assert.Equal(t, tt.pages, got)
		})
	}
}

func titles(books []models.Book) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.Title)
	}
	return out
}

func entryIDs(entries []models.LogEntry) []int64 {
	out := make([]int64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}
