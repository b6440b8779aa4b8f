package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"readtracker/cmd/trackerctl/output"
	"readtracker/internal/app"
	"readtracker/internal/config"
	"readtracker/internal/logger"
	"readtracker/internal/storage"
	"readtracker/internal/tracker"
)

// cli holds the state shared by every subcommand
type cli struct {
	// Global flags
	verbose    bool
	jsonOutput bool

	db  storage.Storage
	svc *tracker.Service
	out *output.Printer
}

// NewRootCmd builds the trackerctl command tree
func NewRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:   "trackerctl",
		Short: "Reading tracker from the command line",
		Long: `trackerctl manages the reading tracker library and shows its reports.

It uses the same configuration as the server (STORAGE_BACKEND, SQLITE_PATH,
DATABASE_URL, CLICKHOUSE_*), read from the environment or a .env file.
The storage schema is created on first use.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.close()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "Output in JSON format")

	rootCmd.AddCommand(
		newBooksCmd(c),
		newAddCmd(c),
		newCompleteCmd(c),
		newLogCmd(c),
		newSummaryCmd(c),
		newStatsCmd(c),
		newGoalsCmd(c),
		newSuggestCmd(c),
		newImportCmd(c),
		newExportCmd(c),
	)
	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		output.New(os.Stderr).Error("%v", err)
		os.Exit(1)
	}
}

// open loads the configuration and connects to storage
func (c *cli) open(cmd *cobra.Command) error {
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	log := zap.NewNop()
	if c.verbose {
		if log, err = logger.New("debug", "console"); err != nil {
			return err
		}
	}

	db, err := app.OpenStorage(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	c.db = db
	c.svc = tracker.New(db, log)
	c.out = output.New(cmd.OutOrStdout())
	return nil
}

func (c *cli) close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// printJSON writes v as indented JSON; used by every command under --json
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
