package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readtracker/internal/models"
	"readtracker/internal/stats"
	"readtracker/internal/tracker"
)

func TestProgressBar(t *testing.T) {
	testCases := []struct {
		fraction float64
		expected string
	}{
		{fraction: 0, expected: "░░░░░░░░░░"},
		{fraction: 0.5, expected: "▓▓▓▓▓░░░░░"},
		{fraction: 0.26, expected: "▓▓▓░░░░░░░"},
		{fraction: 1, expected: "▓▓▓▓▓▓▓▓▓▓"},
		{fraction: 1.5, expected: "▓▓▓▓▓▓▓▓▓▓"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, progressBar(tc.fraction), "fraction %v", tc.fraction)
	}
}

func TestFormatDashboard(t *testing.T) {
	text := formatDashboard(tracker.Dashboard{
		Summary: stats.Summary{Year: 2024, CompletedCount: 3, ReadingCount: 1, PagesRead: 1200, AvgPagesPerReadingDay: 40},
		Monthly: []stats.MonthTotal{{Month: time.January, Pages: 700}, {Month: time.February, Pages: 500}},
		Genres:  []stats.GenreCount{{Genre: "Fantasy", Count: 2}},
	})

	assert.Contains(t, text, "Reading summary 2024")
	assert.Contains(t, text, "Completed: 3")
	assert.Contains(t, text, "Average per reading day: 40.0")
	assert.Contains(t, text, "Jan: 700\nFeb: 500")
	assert.NotContains(t, text, "Genres", "genres hidden without HasGenres")
}

func TestFormatStatistics(t *testing.T) {
	fastest := stats.BookPace{Title: "Dune", PagesPerDay: 41.2, ReadingDays: 10}
	text := formatStatistics(tracker.Statistics{
		Cumulative: []stats.CumulativePoint{{Cumulative: 20}, {Cumulative: 60}},
		Weekday:    []stats.WeekdayTotal{{Weekday: time.Monday, Pages: 60}},
		Pace:       stats.PaceReport{Books: []stats.BookPace{fastest}, Fastest: &fastest, Longest: &fastest},
	})

	assert.Contains(t, text, "Pages logged: 60 in 2 sessions")
	assert.Contains(t, text, "Mon: 60")
	assert.Contains(t, text, "Fastest read: Dune (41.2 pages/day)")
	assert.Contains(t, text, "Longest read: Dune (10 days)")
}

func TestFormatGoals(t *testing.T) {
	assert.Contains(t, formatGoals(stats.GoalProgress{Year: 2024}), "No goals set")

	text := formatGoals(stats.EvaluateGoals(stats.Goals{BooksPerYear: 4}, stats.Summary{Year: 2024, CompletedCount: 4}))
	assert.Contains(t, text, "Books: 4/4")
	assert.Contains(t, text, "✅")
	assert.NotContains(t, text, "Pages per day")
}

func TestFormatSuggestions(t *testing.T) {
	assert.Contains(t, formatSuggestions(stats.Suggestions{Books: []models.Book{}}), "wishlist is empty")

	text := formatSuggestions(stats.Suggestions{
		Genre:   "Sci-Fi",
		Matched: true,
		Books:   []models.Book{{Title: "Neuromancer", Author: "William Gibson", TotalPages: 271}},
	})
	assert.Contains(t, text, "More Sci-Fi")
	assert.Contains(t, text, "1. Neuromancer by William Gibson (271 pages)")
}

func TestParsePagesInput(t *testing.T) {
	testCases := []struct {
		input     string
		pages     int
		notes     string
		expectErr bool
	}{
		{input: "25", pages: 25},
		{input: " 30  great chapter ", pages: 30, notes: "great chapter"},
		{input: "0", expectErr: true},
		{input: "-5 oops", expectErr: true},
		{input: "many", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			pages, notes, err := parsePagesInput(tc.input)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.pages, pages)
			assert.Equal(t, tc.notes, notes)
		})
	}
}

func TestParseGoals(t *testing.T) {
	goals, err := parseGoals([]string{"12", "30"})
	require.NoError(t, err)
	assert.Equal(t, stats.Goals{BooksPerYear: 12, PagesPerDay: 30}, goals)

	_, err = parseGoals([]string{"12"})
	assert.Error(t, err)

	_, err = parseGoals([]string{"12", "-1"})
	assert.Error(t, err)
}

func TestKeyboards(t *testing.T) {
	books := []models.Book{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}, {ID: 3, Title: "C"}}
	keyboard := bookKeyboard(books)
	require.Len(t, keyboard.InlineKeyboard, 2)
	assert.Len(t, keyboard.InlineKeyboard[0], 2)
	assert.Len(t, keyboard.InlineKeyboard[1], 1)
	require.NotNil(t, keyboard.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, "book:3", *keyboard.InlineKeyboard[1][0].CallbackData)

	statuses := statusKeyboard()
	require.Len(t, statuses.InlineKeyboard, 2)
	assert.Equal(t, "status:wishlist", *statuses.InlineKeyboard[0][0].CallbackData)
}
