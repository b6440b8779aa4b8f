package stats

import (
	"sort"
	"time"

	"readtracker/internal/models"
)

// MonthTotal is the number of pages read in one month
type MonthTotal struct {
	Month time.Month `json:"month"`
	Pages int        `json:"pages"`
}

// WeekdayTotal is the number of pages read on one day of the week
type WeekdayTotal struct {
	Weekday time.Weekday `json:"weekday"`
	Pages   int          `json:"pages"`
}

// CumulativePoint is one reading session on the running total of pages
type CumulativePoint struct {
	Date       time.Time `json:"date"`
	BookID     int64     `json:"book_id"`
	PagesRead  int       `json:"pages_read"`
	Cumulative int       `json:"cumulative"`
}

// weekOrder is the display order of WeekdaySeries
var weekOrder = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// MonthlySeries sums pages per month of year for months 1..throughMonth.
// Months without entries are reported as zero, so the series is always dense.
func MonthlySeries(logs []models.LogEntry, year int, throughMonth time.Month) []MonthTotal {
	if throughMonth < time.January {
		return []MonthTotal{}
	}
	if throughMonth > time.December {
		throughMonth = time.December
	}

	var totals [13]int
	for _, entry := range logs {
		if !inYear(entry.LogDate, year) {
			continue
		}
		totals[entry.LogDate.Month()] += entry.PagesRead
	}

	series := make([]MonthTotal, 0, throughMonth)
	for month := time.January; month <= throughMonth; month++ {
		series = append(series, MonthTotal{Month: month, Pages: totals[month]})
	}
	return series
}

// WeekdaySeries sums pages per day of the week over the whole log.
// It always returns seven totals, Monday first.
func WeekdaySeries(logs []models.LogEntry) []WeekdayTotal {
	var totals [7]int
	for _, entry := range logs {
		if entry.LogDate.IsZero() {
			continue
		}
		totals[entry.LogDate.Weekday()] += entry.PagesRead
	}

	series := make([]WeekdayTotal, 0, len(weekOrder))
	for _, day := range weekOrder {
		series = append(series, WeekdayTotal{Weekday: day, Pages: totals[day]})
	}
	return series
}

// CumulativeSeries emits one point per entry in date order with the running
// sum of pages. Entries sharing a date keep their input order.
func CumulativeSeries(logs []models.LogEntry) []CumulativePoint {
	sorted := make([]models.LogEntry, 0, len(logs))
	for _, entry := range logs {
		if entry.LogDate.IsZero() {
			continue
		}
		sorted = append(sorted, entry)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LogDate.Before(sorted[j].LogDate)
	})

	points := make([]CumulativePoint, 0, len(sorted))
	total := 0
	for _, entry := range sorted {
		total += entry.PagesRead
		points = append(points, CumulativePoint{
			Date:       entry.LogDate,
			BookID:     entry.BookID,
			PagesRead:  entry.PagesRead,
			Cumulative: total,
		})
	}
	return points
}
