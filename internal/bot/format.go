package bot

import (
	"fmt"
	"strings"

	"readtracker/internal/stats"
	"readtracker/internal/tracker"
)

const progressBarWidth = 10

// progressBar renders fraction (0..1) as a fixed-width bar
func progressBar(fraction float64) string {
	filled := int(fraction*progressBarWidth + 0.5)
	filled = max(0, min(filled, progressBarWidth))
	return strings.Repeat("▓", filled) + strings.Repeat("░", progressBarWidth-filled)
}

func formatProgress(p stats.Progress) string {
	return fmt.Sprintf("%s\n%s %d/%d pages (%.0f%%)",
		p.Title, progressBar(p.Fraction), p.PagesRead, p.TotalPages, p.Fraction*100)
}

func formatDashboard(d tracker.Dashboard) string {
	var text strings.Builder
	fmt.Fprintf(&text, "📊 Reading summary %d\n\n", d.Summary.Year)
	fmt.Fprintf(&text, "🏁 Completed: %d\n", d.Summary.CompletedCount)
	fmt.Fprintf(&text, "📖 Reading now: %d\n", d.Summary.ReadingCount)
	fmt.Fprintf(&text, "📄 Pages read: %d\n", d.Summary.PagesRead)
	fmt.Fprintf(&text, "📈 Average per reading day: %.1f\n", d.Summary.AvgPagesPerReadingDay)

	if len(d.Monthly) > 0 {
		text.WriteString("\n🗓 Pages per month:\n")
		for _, m := range d.Monthly {
			fmt.Fprintf(&text, "%s: %d\n", m.Month.String()[:3], m.Pages)
		}
	}

	if d.HasGenres {
		text.WriteString("\n🏷 Genres completed:\n")
		for _, g := range d.Genres {
			fmt.Fprintf(&text, "%s: %d\n", g.Genre, g.Count)
		}
	}
	return strings.TrimRight(text.String(), "\n")
}

func formatStatistics(s tracker.Statistics) string {
	var text strings.Builder
	text.WriteString("📊 Reading statistics\n\n")

	total := 0
	if n := len(s.Cumulative); n > 0 {
		total = s.Cumulative[n-1].Cumulative
	}
	fmt.Fprintf(&text, "📄 Pages logged: %d in %d sessions\n", total, len(s.Cumulative))

	text.WriteString("\n📅 Pages per weekday:\n")
	for _, w := range s.Weekday {
		fmt.Fprintf(&text, "%s: %d\n", w.Weekday.String()[:3], w.Pages)
	}

	if s.Pace.Fastest != nil {
		fmt.Fprintf(&text, "\n⚡ Fastest read: %s (%.1f pages/day)\n", s.Pace.Fastest.Title, s.Pace.Fastest.PagesPerDay)
	}
	if s.Pace.Longest != nil {
		fmt.Fprintf(&text, "🐢 Longest read: %s (%d days)\n", s.Pace.Longest.Title, s.Pace.Longest.ReadingDays)
	}
	return strings.TrimRight(text.String(), "\n")
}

func formatGoals(g stats.GoalProgress) string {
	if !g.Books.Set && !g.PagesPerDay.Set {
		return "🎯 No goals set.\n\nUse /goals <books per year> <pages per day>, e.g. /goals 12 30"
	}

	var text strings.Builder
	fmt.Fprintf(&text, "🎯 Goals %d\n\n", g.Year)
	if g.Books.Set {
		fmt.Fprintf(&text, "📚 Books: %.0f/%.0f %s %s\n",
			g.Books.Actual, g.Books.Target, progressBar(g.Books.Fraction), goalMark(g.Books))
	}
	if g.PagesPerDay.Set {
		fmt.Fprintf(&text, "📄 Pages per day: %.1f/%.0f %s %s\n",
			g.PagesPerDay.Actual, g.PagesPerDay.Target, progressBar(g.PagesPerDay.Fraction), goalMark(g.PagesPerDay))
	}
	return strings.TrimRight(text.String(), "\n")
}

func goalMark(s stats.GoalStatus) string {
	if s.Met {
		return "✅"
	}
	return "⏳"
}

func formatSuggestions(s stats.Suggestions) string {
	if len(s.Books) == 0 {
		return "Your wishlist is empty. Add books with /new_book"
	}

	var text strings.Builder
	if s.Matched {
		fmt.Fprintf(&text, "💡 More %s from your wishlist:\n\n", s.Genre)
	} else {
		text.WriteString("💡 From your wishlist:\n\n")
	}
	for i, book := range s.Books {
		fmt.Fprintf(&text, "%d. %s by %s (%d pages)\n", i+1, book.Title, book.Author, book.TotalPages)
	}
	return strings.TrimRight(text.String(), "\n")
}
