package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"readtracker/cmd/trackerctl/output"
	"readtracker/internal/models"
)

func newBooksCmd(c *cli) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "books",
		Short: "List books",
		Long: `List the books of the library, optionally filtered by status.

Examples:
  trackerctl books                    # All books
  trackerctl books --status reading   # Books being read
  trackerctl books --json             # Output in JSON format`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				books []models.Book
				err   error
			)
			if status == "" {
				books, err = c.svc.Books(cmd.Context())
			} else {
				parsed, ok := models.ParseStatus(status)
				if !ok {
					return fmt.Errorf("unknown status %q", status)
				}
				books, err = c.svc.BooksByStatus(cmd.Context(), parsed)
			}
			if err != nil {
				return err
			}

			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), books)
			}
			if len(books) == 0 {
				c.out.Warning("No books found")
				return nil
			}

			rows := make([][]string, 0, len(books))
			for _, b := range books {
				rows = append(rows, []string{
					strconv.FormatInt(b.ID, 10),
					output.StatusIcon(b.Status) + " " + string(b.Status),
					b.Title,
					b.Author,
					b.Genre,
					strconv.Itoa(b.TotalPages),
					models.FormatOptionalDate(b.StartDate),
					models.FormatOptionalDate(b.EndDate),
				})
			}
			c.out.Section(fmt.Sprintf("Books (%d)", len(books)))
			c.out.Table([]string{"ID", "STATUS", "TITLE", "AUTHOR", "GENRE", "PAGES", "STARTED", "FINISHED"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (wishlist, reading, completed, abandoned)")
	return cmd
}

func newAddCmd(c *cli) *cobra.Command {
	var (
		book      models.Book
		status    string
		startDate string
		endDate   string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		Long: `Add a book to the library.

Dates use the YYYY-MM-DD format and are dropped when the status does not
allow them (only reading, completed and abandoned books have a start date,
only completed books have an end date).

Examples:
  trackerctl add --title Dune --author "Frank Herbert" --pages 412
  trackerctl add --title Emma --author "Jane Austen" --pages 474 --status completed --end 2024-03-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, ok := models.ParseStatus(status)
			if !ok {
				return fmt.Errorf("unknown status %q", status)
			}
			book.Status = parsed

			var err error
			if book.StartDate, err = flagDate("start", startDate); err != nil {
				return err
			}
			if book.EndDate, err = flagDate("end", endDate); err != nil {
				return err
			}

			created, err := c.svc.AddBook(cmd.Context(), book)
			if err != nil {
				return err
			}

			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), created)
			}
			c.out.Success("Added %q by %s (id %d)", created.Title, created.Author, created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&book.Title, "title", "", "Book title (required)")
	cmd.Flags().StringVar(&book.Author, "author", "", "Book author (required)")
	cmd.Flags().StringVar(&book.Genre, "genre", "", "Genre")
	cmd.Flags().IntVar(&book.TotalPages, "pages", 0, "Total pages (required)")
	cmd.Flags().StringVar(&status, "status", string(models.StatusWishlist), "Status")
	cmd.Flags().StringVar(&startDate, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end", "", "End date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")
	_ = cmd.MarkFlagRequired("pages")
	return cmd
}

// flagDate parses an optional YYYY-MM-DD flag value
func flagDate(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	date, ok := models.ParseDate(value)
	if !ok {
		return nil, fmt.Errorf("invalid --%s date %q, expected YYYY-MM-DD", name, value)
	}
	return &date, nil
}

func newCompleteCmd(c *cli) *cobra.Command {
	var endDate string

	cmd := &cobra.Command{
		Use:   "complete <book-id>",
		Short: "Mark a book as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid book id %q", args[0])
			}

			book, err := c.svc.Book(cmd.Context(), id)
			if err != nil {
				return err
			}

			end, err := flagDate("end", endDate)
			if err != nil {
				return err
			}
			if end == nil {
				today := c.svc.Today()
				end = &today
			}
			book.Status = models.StatusCompleted
			book.EndDate = end

			updated, err := c.svc.UpdateBook(cmd.Context(), book)
			if err != nil {
				return err
			}

			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), updated)
			}
			c.out.Success("%s completed on %s", updated.Title, models.FormatOptionalDate(updated.EndDate))
			return nil
		},
	}

	cmd.Flags().StringVar(&endDate, "end", "", "End date (YYYY-MM-DD), today by default")
	return cmd
}
