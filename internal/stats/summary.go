// Package stats derives read-only reading statistics from snapshots of the
// book ledger and the reading log.
//
// Every function here is pure: it never mutates its inputs, keeps no state
// between calls and performs no I/O. Dates that are missing or malformed
// (nil pointers, zero times) are treated as absent and excluded from
// date-dependent aggregates. Zero denominators yield zero results.
package stats

import (
	"sort"
	"strings"
	"time"

	"readtracker/internal/models"
)

// UnspecifiedGenre is the bucket for books without a genre
const UnspecifiedGenre = "Unspecified"

// GenreCount is one bucket of a genre histogram
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// Summary holds the headline numbers of a reading year
type Summary struct {
	Year                  int          `json:"year"`
	CompletedCount        int          `json:"completed_count"`
	ReadingCount          int          `json:"reading_count"`
	PagesRead             int          `json:"pages_read"`
	AvgPagesPerReadingDay float64      `json:"avg_pages_per_reading_day"`
	Genres                []GenreCount `json:"genres"`
}

// YearSummary computes the yearly totals shown at the top of the dashboard.
// A zero year means the year of today.
//
// CompletedCount and Genres cover books completed within the year.
// ReadingCount is independent of the year.
// AvgPagesPerReadingDay divides the year's pages by the number of distinct
// days with at least one entry, and is 0 when there are none.
func YearSummary(books []models.Book, logs []models.LogEntry, year int, today time.Time) Summary {
	if year == 0 {
		year = today.Year()
	}

	completed := completedInYear(books, year)
	summary := Summary{
		Year:           year,
		CompletedCount: len(completed),
		Genres:         genreHistogram(completed),
	}

	for _, book := range books {
		if book.Status == models.StatusReading {
			summary.ReadingCount++
		}
	}

	readingDays := make(map[time.Time]struct{})
	for _, entry := range logs {
		if !inYear(entry.LogDate, year) {
			continue
		}
		summary.PagesRead += entry.PagesRead
		readingDays[models.Day(entry.LogDate)] = struct{}{}
	}
	if len(readingDays) > 0 {
		summary.AvgPagesPerReadingDay = float64(summary.PagesRead) / float64(len(readingDays))
	}

	return summary
}

// GenreDistribution returns the genre histogram of books completed in year.
// ok is false when no book completed that year has a genre, so callers can
// show an empty state instead of a chart.
func GenreDistribution(books []models.Book, year int) (genres []GenreCount, ok bool) {
	completed := completedInYear(books, year)

	for _, book := range completed {
		if normalizeGenre(book.Genre) != UnspecifiedGenre {
			return genreHistogram(completed), true
		}
	}
	return nil, false
}

// completedInYear returns the completed books whose end date falls within year
func completedInYear(books []models.Book, year int) []models.Book {
	var completed []models.Book
	for _, book := range books {
		if book.Status != models.StatusCompleted || book.EndDate == nil {
			continue
		}
		if !inYear(*book.EndDate, year) {
			continue
		}
		completed = append(completed, book)
	}
	return completed
}

// genreHistogram counts books per genre, most frequent first.
// Equal counts keep the order in which the genres were first seen.
func genreHistogram(books []models.Book) []GenreCount {
	histogram := []GenreCount{}
	index := make(map[string]int)

	for _, book := range books {
		genre := normalizeGenre(book.Genre)
		i, seen := index[genre]
		if !seen {
			i = len(histogram)
			index[genre] = i
			histogram = append(histogram, GenreCount{Genre: genre})
		}
		histogram[i].Count++
	}

	sort.SliceStable(histogram, func(i, j int) bool {
		return histogram[i].Count > histogram[j].Count
	})
	return histogram
}

func normalizeGenre(genre string) string {
	genre = strings.TrimSpace(genre)
	if genre == "" {
		return UnspecifiedGenre
	}
	return genre
}

func inYear(date time.Time, year int) bool {
	return !date.IsZero() && date.Year() == year
}
