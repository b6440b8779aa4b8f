package stats

import (
	"strings"
	"time"

	"readtracker/internal/models"
)

// SuggestionLimit is how many wishlist books the fallback suggestion returns
const SuggestionLimit = 5

// BookPace is the reading speed of one completed book
type BookPace struct {
	BookID      int64   `json:"book_id"`
	Title       string  `json:"title"`
	TotalPages  int     `json:"total_pages"`
	ReadingDays int     `json:"reading_days"`
	PagesPerDay float64 `json:"pages_per_day"`
}

// PaceReport is the per-book pace table with its two highlights.
// Fastest and Longest are nil when the table is empty.
type PaceReport struct {
	Books   []BookPace `json:"books"`
	Fastest *BookPace  `json:"fastest,omitempty"`
	Longest *BookPace  `json:"longest,omitempty"`
}

// Progress is how far a book has been read according to the log
type Progress struct {
	BookID         int64   `json:"book_id"`
	Title          string  `json:"title"`
	Author         string  `json:"author"`
	TotalPages     int     `json:"total_pages"`
	PagesRead      int     `json:"pages_read"`
	PagesRemaining int     `json:"pages_remaining"`
	Fraction       float64 `json:"fraction"`
	Finished       bool    `json:"finished"`
}

// Suggestions is the wishlist selection shown next to the dashboard.
// Matched is true when Books were filtered by Genre, the genre of the most
// recently completed book.
type Suggestions struct {
	Genre   string        `json:"genre,omitempty"`
	Matched bool          `json:"matched"`
	Books   []models.Book `json:"books"`
}

// PerBookPace computes pages per day for every completed book with both dates.
// Reading days count both endpoints; books whose end date precedes their
// start date are left out.
func PerBookPace(books []models.Book) PaceReport {
	report := PaceReport{Books: []BookPace{}}

	for _, book := range books {
		if book.Status != models.StatusCompleted || book.StartDate == nil || book.EndDate == nil {
			continue
		}
		days := daysBetween(*book.StartDate, *book.EndDate) + 1
		if days <= 0 {
			continue
		}
		report.Books = append(report.Books, BookPace{
			BookID:      book.ID,
			Title:       book.Title,
			TotalPages:  book.TotalPages,
			ReadingDays: days,
			PagesPerDay: float64(book.TotalPages) / float64(days),
		})
	}

	for i := range report.Books {
		pace := &report.Books[i]
		if report.Fastest == nil || pace.PagesPerDay > report.Fastest.PagesPerDay {
			report.Fastest = pace
		}
		if report.Longest == nil || pace.ReadingDays > report.Longest.ReadingDays {
			report.Longest = pace
		}
	}

	return report
}

// ProgressForBook sums the logged pages of book. The fraction is capped at 1
// when more pages were logged than the book declares.
func ProgressForBook(book models.Book, logs []models.LogEntry) Progress {
	pagesRead := 0
	for _, entry := range logs {
		if entry.BookID == book.ID {
			pagesRead += entry.PagesRead
		}
	}
	return ProgressFromPages(book, pagesRead)
}

// ProgressFromPages builds the progress of book from an already summed page count
func ProgressFromPages(book models.Book, pagesRead int) Progress {
	progress := Progress{
		BookID:     book.ID,
		Title:      book.Title,
		Author:     book.Author,
		TotalPages: book.TotalPages,
		PagesRead:  pagesRead,
	}

	if book.TotalPages > 0 {
		progress.Fraction = min(float64(progress.PagesRead)/float64(book.TotalPages), 1.0)
		progress.PagesRemaining = max(book.TotalPages-progress.PagesRead, 0)
		progress.Finished = progress.PagesRead >= book.TotalPages
	}

	return progress
}

// ReadingProgress returns the progress of every book currently being read,
// in input order
func ReadingProgress(books []models.Book, logs []models.LogEntry) []Progress {
	progress := []Progress{}
	for _, book := range books {
		if book.Status == models.StatusReading {
			progress = append(progress, ProgressForBook(book, logs))
		}
	}
	return progress
}

// SuggestionFilter picks wishlist books in the genre of the most recently
// completed book. When no genre is known or nothing matches, it falls back
// to the first SuggestionLimit wishlist books.
func SuggestionFilter(books []models.Book) Suggestions {
	var wishlist []models.Book
	for _, book := range books {
		if book.Status == models.StatusWishlist {
			wishlist = append(wishlist, book)
		}
	}
	if len(wishlist) == 0 {
		return Suggestions{Books: []models.Book{}}
	}

	var latest *models.Book
	for i := range books {
		book := &books[i]
		if book.Status != models.StatusCompleted || book.EndDate == nil {
			continue
		}
		if latest == nil || book.EndDate.After(*latest.EndDate) {
			latest = book
		}
	}

	var genre string
	if latest != nil {
		genre = strings.TrimSpace(latest.Genre)
	}

	if genre != "" {
		var matches []models.Book
		for _, book := range wishlist {
			if strings.TrimSpace(book.Genre) == genre {
				matches = append(matches, book)
			}
		}
		if len(matches) > 0 {
			return Suggestions{Genre: genre, Matched: true, Books: matches}
		}
	}

	limit := min(SuggestionLimit, len(wishlist))
	return Suggestions{Genre: genre, Books: wishlist[:limit]}
}

// daysBetween counts whole calendar days from start to end. It works on Unix
// seconds because a time.Duration cannot hold spans past about 292 years.
func daysBetween(start, end time.Time) int {
	const secondsPerDay = 24 * 60 * 60
	return int((models.Day(end).Unix() - models.Day(start).Unix()) / secondsPerDay)
}
