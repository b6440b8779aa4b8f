package commands

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"readtracker/internal/transfer"
)

func newImportCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import books from a CSV file",
		Long: `Import books from a CSV file with a header row.

Required columns: title, author, total_pages, status.
Optional columns: genre, start_date, end_date (YYYY-MM-DD).
Both ',' and ';' delimiters are accepted. Books already in the library
(same title and author) are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			report, err := c.svc.Import(cmd.Context(), f)
			if err != nil {
				return err
			}
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), report)
			}

			c.out.Success("Imported %d books", report.Imported)
			if report.Skipped > 0 {
				c.out.Info("Skipped %d duplicates", report.Skipped)
			}
			if report.Failed > 0 {
				c.out.Warning("%d rows failed", report.Failed)
				for _, e := range report.Errors {
					c.out.Muted("  %s", e.String())
				}
			}
			return nil
		},
	}
}

func newExportCmd(c *cli) *cobra.Command {
	var (
		format string
		data   string
		path   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export books or the reading log",
		Long: `Export the library as CSV (one dataset per file) or as an XLSX workbook.

Examples:
  trackerctl export                              # books_export.csv
  trackerctl export --data logs                  # reading_log_export.csv
  trackerctl export --format xlsx --data both    # reading_tracker_export.xlsx
  trackerctl export --out -                      # CSV to stdout`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := transfer.ParseFormat(format)
			if err != nil {
				return err
			}
			dataset, err := transfer.ParseDataset(data)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := c.svc.Export(cmd.Context(), &buf, f, dataset); err != nil {
				return err
			}

			if path == "-" {
				_, err := buf.WriteTo(cmd.OutOrStdout())
				return err
			}
			if path == "" {
				path = transfer.FileName(f, dataset)
			}
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			c.out.Success("Exported %s to %s", dataset, path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(transfer.FormatCSV), "Export format (csv or xlsx)")
	cmd.Flags().StringVar(&data, "data", string(transfer.DatasetBooks), "Dataset (books, logs or both)")
	cmd.Flags().StringVarP(&path, "out", "o", "", "Output file, '-' for stdout (default name depends on format)")
	return cmd
}
