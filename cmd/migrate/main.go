// Command migrate runs the embedded goose migrations against the configured
// storage backend.
package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ClickHouse/clickhouse-go/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"readtracker/internal/app"
	"readtracker/internal/config"
	"readtracker/migrations"
)

const usage = "Available commands: up, down, status, version, create <name>"

func main() {
	cfg, log, err := app.Setup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	// Get command from arguments (default to "up")
	command, args := "up", []string(nil)
	if len(os.Args) > 1 {
		command, args = os.Args[1], os.Args[2:]
	}

	if err := run(context.Background(), cfg, log, command, args); err != nil {
		log.Fatal("Migration command failed", zap.String("command", command), zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, command string, args []string) error {
	dialect, err := gooseDialect(cfg.StorageBackend)
	if err != nil {
		return err
	}

	if command == "create" {
		if len(args) < 1 {
			return fmt.Errorf("usage: migrate create <migration_name>")
		}
		dir, err := migrations.Dir(dialect)
		if err != nil {
			return err
		}
		if err := goose.Create(nil, filepath.Join("migrations", dir), args[0], "sql"); err != nil {
			return fmt.Errorf("failed to create migration: %w", err)
		}
		log.Info("Created migration", zap.String("name", args[0]), zap.String("dialect", dialect))
		return nil
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	log.Info("Running migrations", zap.String("command", command), zap.String("dialect", dialect))
	return migrations.Run(dialect, func(dir string) error {
		switch command {
		case "up":
			if err := goose.UpContext(ctx, db, dir); err != nil {
				return err
			}
			log.Info("Migrations completed successfully")
		case "down":
			if err := goose.DownContext(ctx, db, dir); err != nil {
				return err
			}
			log.Info("Rollback completed successfully")
		case "status":
			return goose.StatusContext(ctx, db, dir)
		case "version":
			version, err := goose.GetDBVersionContext(ctx, db)
			if err != nil {
				return err
			}
			log.Info("Current migration version", zap.Int64("version", version))
		default:
			return fmt.Errorf("unknown command %q. %s", command, usage)
		}
		return nil
	})
}

func gooseDialect(backend string) (string, error) {
	switch backend {
	case config.BackendSQLite:
		return migrations.DialectSQLite, nil
	case config.BackendPostgres:
		return migrations.DialectPostgres, nil
	case config.BackendClickHouse:
		return migrations.DialectClickHouse, nil
	default:
		return "", fmt.Errorf("storage backend %q has no migrations", backend)
	}
}

// openDB opens a database/sql handle on the configured backend
func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		db, err = sql.Open("sqlite", "file:"+cfg.SQLitePath)
	case config.BackendPostgres:
		db, err = sql.Open("pgx", cfg.DatabaseURL)
	case config.BackendClickHouse:
		options := &clickhouse.Options{
			Addr: []string{fmt.Sprintf("%s:%d", cfg.ClickHouseHost, cfg.ClickHousePort)},
			Auth: clickhouse.Auth{
				Database: cfg.ClickHouseDatabase,
				Username: cfg.ClickHouseUser,
				Password: cfg.ClickHousePassword,
			},
		}
		if cfg.ClickHouseUseTLS {
			options.TLS = &tls.Config{}
		}
		db = clickhouse.OpenDB(options)
	default:
		return nil, fmt.Errorf("storage backend %q has no migrations", cfg.StorageBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
