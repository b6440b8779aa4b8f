package stats

import (
	"testing"
	"time"

	"readtracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, ok := models.ParseDate(s)
	if !ok {
		panic("bad test date " + s)
	}
	return t
}

func datePtr(s string) *time.Time {
	t := date(s)
	return &t
}

func entry(bookID int64, day string, pages int) models.LogEntry {
	return models.LogEntry{BookID: bookID, LogDate: date(day), PagesRead: pages}
}

func TestYearSummary(t *testing.T) {
	today := date("2024-07-15")
	books := []models.Book{
		{ID: 1, Title: "A", Status: models.StatusCompleted, Genre: "Fantasy", EndDate: datePtr("2024-02-01")},
		{ID: 2, Title: "B", Status: models.StatusCompleted, Genre: "Sci-Fi", EndDate: datePtr("2024-03-01")},
		{ID: 3, Title: "C", Status: models.StatusCompleted, Genre: "Fantasy", EndDate: datePtr("2024-04-01")},
		{ID: 4, Title: "D", Status: models.StatusCompleted, Genre: "", EndDate: datePtr("2024-05-01")},
		{ID: 5, Title: "E", Status: models.StatusCompleted, Genre: "Fantasy", EndDate: datePtr("2023-12-31")},
		{ID: 6, Title: "F", Status: models.StatusCompleted, Genre: "Fantasy", EndDate: nil},
		{ID: 7, Title: "G", Status: models.StatusReading},
		{ID: 8, Title: "H", Status: models.StatusReading},
		{ID: 9, Title: "I", Status: models.StatusAbandoned, EndDate: datePtr("2024-01-10")},
	}
	logs := []models.LogEntry{
		entry(7, "2024-01-01", 30),
		entry(7, "2024-01-01", 20),
		entry(8, "2024-01-02", 50),
		entry(8, "2023-12-31", 999),
		{BookID: 8, PagesRead: 500},
	}

	summary := YearSummary(books, logs, 2024, today)

	assert.Equal(t, 2024, summary.Year)
	assert.Equal(t, 4, summary.CompletedCount)
	assert.Equal(t, 2, summary.ReadingCount)
	assert.Equal(t, 100, summary.PagesRead)
	assert.InDelta(t, 50.0, summary.AvgPagesPerReadingDay, 1e-9)
	assert.Equal(t, []GenreCount{
		{Genre: "Fantasy", Count: 2},
		{Genre: "Sci-Fi", Count: 1},
		{Genre: UnspecifiedGenre, Count: 1},
	}, summary.Genres)
}

func TestYearSummary_DefaultsToTodayAndEmptyLog(t *testing.T) {
	summary := YearSummary(nil, nil, 0, date("2025-03-01"))

	assert.Equal(t, 2025, summary.Year)
	assert.Zero(t, summary.CompletedCount)
	assert.Zero(t, summary.PagesRead)
	assert.Zero(t, summary.AvgPagesPerReadingDay)
	assert.Empty(t, summary.Genres)
}

func TestYearSummary_CompletedCountMatchesFilter(t *testing.T) {
	books := []models.Book{
		{Status: models.StatusCompleted, EndDate: datePtr("2022-06-01")},
		{Status: models.StatusCompleted, EndDate: datePtr("2023-06-01")},
		{Status: models.StatusCompleted, EndDate: nil},
		{Status: models.StatusReading, EndDate: datePtr("2023-06-01")},
	}

	for _, year := range []int{2021, 2022, 2023} {
		expected := 0
		for _, b := range books {
			if b.Status == models.StatusCompleted && b.EndDate != nil && b.EndDate.Year() == year {
				expected++
			}
		}
		assert.Equal(t, expected, YearSummary(books, nil, year, time.Now()).CompletedCount, "year %d", year)
	}
}

func TestGenreDistribution(t *testing.T) {
	testCases := []struct {
		name     string
		books    []models.Book
		ok       bool
		expected []GenreCount
	}{
		{
			name:  "no completed books",
			books: []models.Book{{Status: models.StatusReading, Genre: "Horror"}},
			ok:    false,
		},
		{
			name: "completed books without genre",
			books: []models.Book{
				{Status: models.StatusCompleted, EndDate: datePtr("2024-01-05")},
				{Status: models.StatusCompleted, Genre: "  ", EndDate: datePtr("2024-01-06")},
			},
			ok: false,
		},
		{
			name: "genre outside the year only",
			books: []models.Book{
				{Status: models.StatusCompleted, Genre: "Horror", EndDate: datePtr("2023-01-05")},
			},
			ok: false,
		},
		{
			name: "mixed with unspecified",
			books: []models.Book{
				{Status: models.StatusCompleted, EndDate: datePtr("2024-01-05")},
				{Status: models.StatusCompleted, Genre: "Horror", EndDate: datePtr("2024-02-05")},
				{Status: models.StatusCompleted, Genre: "", EndDate: datePtr("2024-03-05")},
			},
			ok: true,
			expected: []GenreCount{
				{Genre: UnspecifiedGenre, Count: 2},
				{Genre: "Horror", Count: 1},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			genres, ok := GenreDistribution(tc.books, 2024)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.expected, genres)
			} else {
				assert.Nil(t, genres)
			}
		})
	}
}

func TestMonthlySeries(t *testing.T) {
	logs := []models.LogEntry{
		entry(1, "2024-03-02", 40),
		entry(1, "2024-03-20", 10),
		entry(2, "2024-06-01", 70),
		entry(2, "2024-08-01", 500),
		entry(2, "2023-03-01", 999),
	}

	series := MonthlySeries(logs, 2024, time.June)

	assert.Equal(t, []MonthTotal{
		{Month: time.January, Pages: 0},
		{Month: time.February, Pages: 0},
		{Month: time.March, Pages: 50},
		{Month: time.April, Pages: 0},
		{Month: time.May, Pages: 0},
		{Month: time.June, Pages: 70},
	}, series)
}

func TestMonthlySeries_Bounds(t *testing.T) {
	assert.Empty(t, MonthlySeries(nil, 2024, 0))
	assert.Len(t, MonthlySeries(nil, 2024, 13), 12)

	for month := time.January; month <= time.December; month++ {
		series := MonthlySeries(nil, 2024, month)
		require.Len(t, series, int(month))
		for i, total := range series {
			assert.Equal(t, time.Month(i+1), total.Month)
			assert.Zero(t, total.Pages)
		}
	}
}

func TestWeekdaySeries(t *testing.T) {
	// 2024-01-01 is a Monday, 2024-01-07 a Sunday
	logs := []models.LogEntry{
		entry(1, "2024-01-07", 15),
		entry(1, "2024-01-01", 10),
		entry(1, "2024-01-08", 5),
		entry(1, "2019-01-06", 1),
		{BookID: 1, PagesRead: 100},
	}

	series := WeekdaySeries(logs)

	require.Len(t, series, 7)
	assert.Equal(t, time.Monday, series[0].Weekday)
	assert.Equal(t, 15, series[0].Pages)
	assert.Equal(t, time.Sunday, series[6].Weekday)
	assert.Equal(t, 16, series[6].Pages)
	for _, total := range series[1:6] {
		assert.Zero(t, total.Pages)
	}

	assert.Len(t, WeekdaySeries(nil), 7)
}

func TestCumulativeSeries(t *testing.T) {
	logs := []models.LogEntry{
		{ID: 3, BookID: 1, LogDate: date("2024-01-03"), PagesRead: 5},
		{ID: 2, BookID: 2, LogDate: date("2024-01-01"), PagesRead: 20},
		{ID: 1, BookID: 1, LogDate: date("2024-01-01"), PagesRead: 10},
		{ID: 4, BookID: 1, PagesRead: 99},
	}
	original := append([]models.LogEntry(nil), logs...)

	points := CumulativeSeries(logs)

	require.Len(t, points, 3)
	assert.Equal(t, int64(2), points[0].BookID)
	assert.Equal(t, 20, points[0].Cumulative)
	assert.Equal(t, int64(1), points[1].BookID)
	assert.Equal(t, 30, points[1].Cumulative)
	assert.Equal(t, 35, points[2].Cumulative)
	for i := 1; i < len(points); i++ {
		assert.GreaterOrEqual(t, points[i].Cumulative, points[i-1].Cumulative)
	}
	assert.Equal(t, original, logs, "input must not be reordered")
}

func TestPerBookPace(t *testing.T) {
	books := []models.Book{
		{ID: 1, Title: "Quick", TotalPages: 300, Status: models.StatusCompleted, StartDate: datePtr("2024-01-01"), EndDate: datePtr("2024-01-03")},
		{ID: 2, Title: "Slow", TotalPages: 300, Status: models.StatusCompleted, StartDate: datePtr("2024-02-01"), EndDate: datePtr("2024-02-29")},
		{ID: 3, Title: "Long", TotalPages: 900, Status: models.StatusCompleted, StartDate: datePtr("2024-03-01"), EndDate: datePtr("2024-03-30")},
		{ID: 4, Title: "Backwards", TotalPages: 100, Status: models.StatusCompleted, StartDate: datePtr("2024-03-10"), EndDate: datePtr("2024-03-05")},
		{ID: 5, Title: "Same day", TotalPages: 50, Status: models.StatusCompleted, StartDate: datePtr("2024-04-10"), EndDate: datePtr("2024-04-10")},
		{ID: 6, Title: "No start", TotalPages: 50, Status: models.StatusCompleted, EndDate: datePtr("2024-04-10")},
		{ID: 7, Title: "Abandoned", TotalPages: 50, Status: models.StatusAbandoned, StartDate: datePtr("2024-04-01"), EndDate: datePtr("2024-04-10")},
	}

	report := PerBookPace(books)

	titles := make([]string, 0, len(report.Books))
	for _, pace := range report.Books {
		titles = append(titles, pace.Title)
	}
	assert.Equal(t, []string{"Quick", "Slow", "Long", "Same day"}, titles)

	assert.Equal(t, 3, report.Books[0].ReadingDays)
	assert.InDelta(t, 100.0, report.Books[0].PagesPerDay, 1e-9)
	assert.Equal(t, 29, report.Books[1].ReadingDays)
	assert.Equal(t, 30, report.Books[2].ReadingDays)
	assert.Equal(t, 1, report.Books[3].ReadingDays)

	require.NotNil(t, report.Fastest)
	assert.Equal(t, "Quick", report.Fastest.Title)
	require.NotNil(t, report.Longest)
	assert.Equal(t, "Long", report.Longest.Title)

	// Spans longer than a time.Duration can hold, e.g. a mistyped year.
	centuries := PerBookPace([]models.Book{
		{ID: 8, Title: "Centuries", TotalPages: 118339, Status: models.StatusCompleted, StartDate: datePtr("1700-01-01"), EndDate: datePtr("2024-01-01")},
		{ID: 9, Title: "Typo", TotalPages: 200, Status: models.StatusCompleted, StartDate: datePtr("0224-03-10"), EndDate: datePtr("2024-03-10")},
	})
	require.Len(t, centuries.Books, 2)
	assert.Equal(t, 118339, centuries.Books[0].ReadingDays)
	assert.InDelta(t, 1.0, centuries.Books[0].PagesPerDay, 1e-9)
	assert.Equal(t, 657438, centuries.Books[1].ReadingDays)
	require.NotNil(t, centuries.Longest)
	assert.Equal(t, "Typo", centuries.Longest.Title)
}

func TestPerBookPace_Empty(t *testing.T) {
	report := PerBookPace([]models.Book{
		{Status: models.StatusCompleted, StartDate: datePtr("2024-03-10"), EndDate: datePtr("2024-03-05")},
	})

	assert.Empty(t, report.Books)
	assert.Nil(t, report.Fastest)
	assert.Nil(t, report.Longest)
}

func TestProgressForBook(t *testing.T) {
	book := models.Book{ID: 1, Title: "Dune", TotalPages: 100}
	logs := []models.LogEntry{
		entry(1, "2024-01-01", 40),
		entry(2, "2024-01-01", 500),
		entry(1, "2024-01-02", 20),
	}

	progress := ProgressForBook(book, logs)
	assert.Equal(t, 60, progress.PagesRead)
	assert.Equal(t, 40, progress.PagesRemaining)
	assert.InDelta(t, 0.6, progress.Fraction, 1e-9)
	assert.False(t, progress.Finished)

	logs = append(logs, entry(1, "2024-01-03", 90))
	progress = ProgressForBook(book, logs)
	assert.Equal(t, 150, progress.PagesRead)
	assert.Equal(t, 1.0, progress.Fraction)
	assert.Zero(t, progress.PagesRemaining)
	assert.True(t, progress.Finished)

	progress = ProgressForBook(models.Book{ID: 1}, logs)
	assert.Zero(t, progress.Fraction)
	assert.False(t, progress.Finished)
}

func TestProgressFromPages(t *testing.T) {
	book := models.Book{ID: 1, Title: "Dune", Author: "Frank Herbert", TotalPages: 100}

	progress := ProgressFromPages(book, 25)
	assert.Equal(t, "Frank Herbert", progress.Author)
	assert.Equal(t, 75, progress.PagesRemaining)
	assert.InDelta(t, 0.25, progress.Fraction, 1e-9)

	assert.Equal(t, ProgressForBook(book, []models.LogEntry{entry(1, "2024-01-01", 25)}), progress)
}

func TestReadingProgress(t *testing.T) {
	books := []models.Book{
		{ID: 1, Title: "Wish", Status: models.StatusWishlist, TotalPages: 10},
		{ID: 2, Title: "Now", Status: models.StatusReading, TotalPages: 10},
	}

	progress := ReadingProgress(books, []models.LogEntry{entry(2, "2024-01-01", 5)})

	require.Len(t, progress, 1)
	assert.Equal(t, "Now", progress[0].Title)
	assert.InDelta(t, 0.5, progress[0].Fraction, 1e-9)
}

func TestSuggestionFilter(t *testing.T) {
	wishlist := func(id int64, genre string) models.Book {
		return models.Book{ID: id, Title: "W", Status: models.StatusWishlist, Genre: genre}
	}

	testCases := []struct {
		name        string
		books       []models.Book
		expectedIDs []int64
		matched     bool
		genre       string
	}{
		{
			name: "matches genre of latest completed book",
			books: []models.Book{
				{ID: 1, Status: models.StatusCompleted, Genre: "Sci-Fi", EndDate: datePtr("2024-01-01")},
				{ID: 2, Status: models.StatusCompleted, Genre: "Fantasy", EndDate: datePtr("2024-05-01")},
				{ID: 3, Status: models.StatusCompleted, Genre: "Horror"},
				wishlist(10, "Fantasy"),
				wishlist(11, "Sci-Fi"),
			},
			expectedIDs: []int64{10},
			matched:     true,
			genre:       "Fantasy",
		},
		{
			name: "no match falls back to first wishlist books",
			books: []models.Book{
				{ID: 1, Status: models.StatusCompleted, Genre: "Poetry", EndDate: datePtr("2024-01-01")},
				wishlist(10, "Fantasy"), wishlist(11, "Sci-Fi"), wishlist(12, ""),
				wishlist(13, "Drama"), wishlist(14, "Drama"), wishlist(15, "Drama"),
			},
			expectedIDs: []int64{10, 11, 12, 13, 14},
			genre:       "Poetry",
		},
		{
			name: "latest completed book has no genre",
			books: []models.Book{
				{ID: 1, Status: models.StatusCompleted, Genre: "Fantasy", EndDate: datePtr("2024-01-01")},
				{ID: 2, Status: models.StatusCompleted, EndDate: datePtr("2024-02-01")},
				wishlist(10, "Sci-Fi"), wishlist(11, "Fantasy"),
			},
			expectedIDs: []int64{10, 11},
		},
		{
			name:        "no completed books",
			books:       []models.Book{wishlist(10, "Fantasy")},
			expectedIDs: []int64{10},
		},
		{
			name: "empty wishlist",
			books: []models.Book{
				{ID: 1, Status: models.StatusCompleted, Genre: "Fantasy", EndDate: datePtr("2024-01-01")},
			},
			expectedIDs: []int64{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			suggestions := SuggestionFilter(tc.books)

			ids := []int64{}
			for _, b := range suggestions.Books {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tc.expectedIDs, ids)
			assert.Equal(t, tc.matched, suggestions.Matched)
			assert.Equal(t, tc.genre, suggestions.Genre)
		})
	}
}

func TestEvaluateGoals(t *testing.T) {
	summary := Summary{Year: 2024, CompletedCount: 6, AvgPagesPerReadingDay: 30}

	progress := EvaluateGoals(Goals{BooksPerYear: 12, PagesPerDay: 20}, summary)
	assert.Equal(t, 2024, progress.Year)
	assert.True(t, progress.Books.Set)
	assert.InDelta(t, 0.5, progress.Books.Fraction, 1e-9)
	assert.False(t, progress.Books.Met)
	assert.True(t, progress.PagesPerDay.Met)
	assert.Equal(t, 1.0, progress.PagesPerDay.Fraction)

	progress = EvaluateGoals(Goals{}, summary)
	assert.False(t, progress.Books.Set)
	assert.False(t, progress.PagesPerDay.Set)
	assert.Zero(t, progress.Books.Fraction)
	assert.Equal(t, 6.0, progress.Books.Actual)
}
