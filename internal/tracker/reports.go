package tracker

import (
	"context"
	"time"

	"readtracker/internal/models"
	"readtracker/internal/stats"
	"readtracker/internal/storage"
)

// Dashboard is everything the overview screen shows for one year
type Dashboard struct {
	Summary     stats.Summary      `json:"summary"`
	Monthly     []stats.MonthTotal `json:"monthly"`
	Genres      []stats.GenreCount `json:"genres"`
	HasGenres   bool               `json:"has_genres"`
	Reading     []stats.Progress   `json:"reading"`
	Suggestions stats.Suggestions  `json:"suggestions"`
}

// Statistics holds the whole-history charts
type Statistics struct {
	Cumulative []stats.CumulativePoint `json:"cumulative"`
	Weekday    []stats.WeekdayTotal    `json:"weekday"`
	Pace       stats.PaceReport        `json:"pace"`
}

// Dashboard computes the overview of year; 0 means the current year
func (s *Service) Dashboard(ctx context.Context, year int) (Dashboard, error) {
	books, logs, err := s.snapshot(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	today := s.Today()
	summary := stats.YearSummary(books, logs, year, today)
	genres, hasGenres := stats.GenreDistribution(books, summary.Year)

	return Dashboard{
		Summary:     summary,
		Monthly:     stats.MonthlySeries(logs, summary.Year, throughMonth(summary.Year, today)),
		Genres:      genres,
		HasGenres:   hasGenres,
		Reading:     stats.ReadingProgress(books, logs),
		Suggestions: stats.SuggestionFilter(books),
	}, nil
}

// throughMonth is the last month of year that has already started
func throughMonth(year int, today time.Time) time.Month {
	switch {
	case year < today.Year():
		return time.December
	case year == today.Year():
		return today.Month()
	default:
		return 0
	}
}

// Statistics computes the whole-history charts
func (s *Service) Statistics(ctx context.Context) (Statistics, error) {
	books, logs, err := s.snapshot(ctx)
	if err != nil {
		return Statistics{}, err
	}

	return Statistics{
		Cumulative: stats.CumulativeSeries(logs),
		Weekday:    stats.WeekdaySeries(logs),
		Pace:       stats.PerBookPace(books),
	}, nil
}

// Summary computes the headline numbers of year; 0 means the current year
func (s *Service) Summary(ctx context.Context, year int) (stats.Summary, error) {
	books, logs, err := s.snapshot(ctx)
	if err != nil {
		return stats.Summary{}, err
	}
	return stats.YearSummary(books, logs, year, s.Today()), nil
}

// GoalReport compares the session's goals with year; 0 means the current year
func (s *Service) GoalReport(ctx context.Context, goals stats.Goals, year int) (stats.GoalProgress, error) {
	summary, err := s.Summary(ctx, year)
	if err != nil {
		return stats.GoalProgress{}, err
	}
	return stats.EvaluateGoals(goals, summary), nil
}

// Suggestions picks what to read next from the wishlist
func (s *Service) Suggestions(ctx context.Context) (stats.Suggestions, error) {
	books, err := s.db.ListBooks(ctx)
	if err != nil {
		return stats.Suggestions{}, err
	}
	return stats.SuggestionFilter(books), nil
}

// ReadingProgress reports every book currently being read
func (s *Service) ReadingProgress(ctx context.Context) ([]stats.Progress, error) {
	books, err := s.db.ListBooksByStatus(ctx, models.StatusReading)
	if err != nil {
		return nil, err
	}
	logs, err := s.db.ListLogEntries(ctx, storage.LogFilter{})
	if err != nil {
		return nil, err
	}
	return stats.ReadingProgress(books, logs), nil
}
