package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"readtracker/cmd/trackerctl/output"
	"readtracker/internal/models"
)

func newLogCmd(c *cli) *cobra.Command {
	var (
		date  string
		notes string
		list  bool
		limit int
	)

	cmd := &cobra.Command{
		Use:   "log [book-id pages]",
		Short: "Log a reading session or list recent ones",
		Long: `Log pages read for a book, or list the reading log with --list.

Examples:
  trackerctl log 3 40                          # 40 pages of book 3 today
  trackerctl log 3 25 --date 2024-06-01 --notes "part one"
  trackerctl log --list --limit 20             # Most recent sessions`,
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return c.listLogs(cmd, limit)
			}

			bookID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid book id %q", args[0])
			}
			pages, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid page count %q", args[1])
			}

			entry := models.LogEntry{BookID: bookID, PagesRead: pages, Notes: notes, LogDate: c.svc.Today()}
			if date != "" {
				parsed, ok := models.ParseDate(date)
				if !ok {
					return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", date)
				}
				entry.LogDate = parsed
			}

			result, err := c.svc.LogReading(cmd.Context(), entry)
			if err != nil {
				return err
			}

			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), result)
			}
			c.out.Success("Logged %d pages of %s on %s", pages, result.Progress.Title, models.FormatDate(result.Entry.LogDate))
			c.out.Info("%s %d/%d pages", output.Bar(result.Progress.Fraction), result.Progress.PagesRead, result.Progress.TotalPages)
			if result.MarkCompleted {
				c.out.Warning("All pages read. Run: trackerctl complete %d", bookID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Session date (YYYY-MM-DD), today by default")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "Notes for the session")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "List recent sessions instead of logging one")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of sessions shown by --list (0 for all)")
	return cmd
}

func (c *cli) listLogs(cmd *cobra.Command, limit int) error {
	logs, err := c.svc.RecentLogs(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if c.jsonOutput {
		return printJSON(cmd.OutOrStdout(), logs)
	}
	if len(logs) == 0 {
		c.out.Warning("No reading sessions logged yet")
		return nil
	}

	rows := make([][]string, 0, len(logs))
	for _, e := range logs {
		rows = append(rows, []string{models.FormatDate(e.LogDate), e.BookTitle, strconv.Itoa(e.PagesRead), e.Notes})
	}
	c.out.Section("Reading log")
	c.out.Table([]string{"DATE", "BOOK", "PAGES", "NOTES"}, rows)
	return nil
}
