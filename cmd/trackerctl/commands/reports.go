package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"readtracker/cmd/trackerctl/output"
	"readtracker/internal/stats"
)

func newSummaryCmd(c *cli) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the reading dashboard of a year",
		Long: `Show the yearly summary, pages per month, completed genres,
books in progress and wishlist suggestions.

Examples:
  trackerctl summary               # Current year
  trackerctl summary --year 2023`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.svc.Dashboard(cmd.Context(), year)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), d)
			}

			c.out.Section(fmt.Sprintf("Reading summary %d", d.Summary.Year))
			c.out.Field("Completed", d.Summary.CompletedCount)
			c.out.Field("Reading now", d.Summary.ReadingCount)
			c.out.Field("Pages read", d.Summary.PagesRead)
			c.out.Field("Average per reading day", fmt.Sprintf("%.1f", d.Summary.AvgPagesPerReadingDay))

			if len(d.Monthly) > 0 {
				rows := make([][]string, 0, len(d.Monthly))
				for _, m := range d.Monthly {
					rows = append(rows, []string{m.Month.String(), strconv.Itoa(m.Pages)})
				}
				c.out.Section("Pages per month")
				c.out.Table([]string{"MONTH", "PAGES"}, rows)
			}

			if d.HasGenres {
				rows := make([][]string, 0, len(d.Genres))
				for _, g := range d.Genres {
					rows = append(rows, []string{g.Genre, strconv.Itoa(g.Count)})
				}
				c.out.Section("Genres completed")
				c.out.Table([]string{"GENRE", "BOOKS"}, rows)
			}

			if len(d.Reading) > 0 {
				c.out.Section("Currently reading")
				for _, p := range d.Reading {
					c.out.Info("%s", p.Title)
					c.out.Muted("  %s %d/%d pages (%.0f%%)", output.Bar(p.Fraction), p.PagesRead, p.TotalPages, p.Fraction*100)
				}
			}

			printSuggestions(c.out, d.Suggestions)
			return nil
		},
	}

	cmd.Flags().IntVarP(&year, "year", "y", 0, "Year to summarise (current year by default)")
	return cmd
}

func newStatsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show whole-history reading statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.svc.Statistics(cmd.Context())
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), s)
			}

			total := 0
			if n := len(s.Cumulative); n > 0 {
				total = s.Cumulative[n-1].Cumulative
			}
			c.out.Section("Reading statistics")
			c.out.Field("Pages logged", total)
			c.out.Field("Sessions", len(s.Cumulative))

			rows := make([][]string, 0, len(s.Weekday))
			for _, w := range s.Weekday {
				rows = append(rows, []string{w.Weekday.String(), strconv.Itoa(w.Pages)})
			}
			c.out.Section("Pages per weekday")
			c.out.Table([]string{"WEEKDAY", "PAGES"}, rows)

			if len(s.Pace.Books) == 0 {
				c.out.Muted("No completed books with start and end dates yet")
				return nil
			}
			rows = make([][]string, 0, len(s.Pace.Books))
			for _, b := range s.Pace.Books {
				rows = append(rows, []string{b.Title, strconv.Itoa(b.TotalPages), strconv.Itoa(b.ReadingDays), fmt.Sprintf("%.1f", b.PagesPerDay)})
			}
			c.out.Section("Pace per book")
			c.out.Table([]string{"TITLE", "PAGES", "DAYS", "PAGES/DAY"}, rows)
			c.out.Success("Fastest read: %s (%.1f pages/day)", s.Pace.Fastest.Title, s.Pace.Fastest.PagesPerDay)
			c.out.Info("Longest read: %s (%d days)", s.Pace.Longest.Title, s.Pace.Longest.ReadingDays)
			return nil
		},
	}
}

func newGoalsCmd(c *cli) *cobra.Command {
	var (
		goals stats.Goals
		year  int
	)

	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Compare the year with reading goals",
		Long: `Compare the books completed in a year and the average pages per
reading day with the given targets. A zero target is not tracked.

Examples:
  trackerctl goals --books 12 --pages 30
  trackerctl goals --books 20 --year 2023`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if goals.BooksPerYear < 0 || goals.PagesPerDay < 0 {
				return fmt.Errorf("goals must not be negative")
			}
			report, err := c.svc.GoalReport(cmd.Context(), goals, year)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), report)
			}

			c.out.Section(fmt.Sprintf("Goals %d", report.Year))
			if !report.Books.Set && !report.PagesPerDay.Set {
				c.out.Warning("No goals set. Pass --books and/or --pages")
				return nil
			}
			printGoal(c.out, "Books", report.Books, "%.0f/%.0f")
			printGoal(c.out, "Pages per day", report.PagesPerDay, "%.1f/%.0f")
			return nil
		},
	}

	cmd.Flags().IntVar(&goals.BooksPerYear, "books", 0, "Books to complete in the year")
	cmd.Flags().IntVar(&goals.PagesPerDay, "pages", 0, "Average pages per reading day")
	cmd.Flags().IntVarP(&year, "year", "y", 0, "Year to evaluate (current year by default)")
	return cmd
}

func printGoal(out *output.Printer, label string, g stats.GoalStatus, figures string) {
	if !g.Set {
		return
	}
	line := fmt.Sprintf("%s: "+figures+" %s", label, g.Actual, g.Target, output.Bar(g.Fraction))
	if g.Met {
		out.Success("%s", line)
	} else {
		out.Info("%s", line)
	}
}

func newSuggestCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest",
		Short: "Suggest what to read next from the wishlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.svc.Suggestions(cmd.Context())
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), s)
			}
			printSuggestions(c.out, s)
			return nil
		},
	}
}

func printSuggestions(out *output.Printer, s stats.Suggestions) {
	if s.Matched {
		out.Section(fmt.Sprintf("More %s from your wishlist", s.Genre))
	} else {
		out.Section("From your wishlist")
	}
	if len(s.Books) == 0 {
		out.Muted("Your wishlist is empty")
		return
	}
	for i, b := range s.Books {
		out.Info("%d. %s by %s (%d pages)", i+1, b.Title, b.Author, b.TotalPages)
	}
}
