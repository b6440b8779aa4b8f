// Package migrations embeds the goose SQL migrations of every storage backend.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

// Goose dialect names of the supported backends
const (
	DialectSQLite     = "sqlite3"
	DialectPostgres   = "postgres"
	DialectClickHouse = "clickhouse"
)

//go:embed sqlite/*.sql postgres/*.sql clickhouse/*.sql
var FS embed.FS

// goose keeps its dialect and filesystem in package state
var mu sync.Mutex

// Dir returns the embedded directory holding the dialect's migrations
func Dir(dialect string) (string, error) {
	switch dialect {
	case DialectSQLite:
		return "sqlite", nil
	case DialectPostgres:
		return "postgres", nil
	case DialectClickHouse:
		return "clickhouse", nil
	default:
		return "", fmt.Errorf("unsupported migration dialect %q", dialect)
	}
}

// Up applies every pending migration for the dialect
func Up(ctx context.Context, db *sql.DB, dialect string) error {
	return Run(dialect, func(dir string) error {
		return goose.UpContext(ctx, db, dir)
	})
}

// Run configures goose for the dialect and the embedded filesystem, then
// calls fn with the dialect's migration directory
func Run(dialect string, fn func(dir string) error) error {
	dir, err := Dir(dialect)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(FS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := fn(dir); err != nil {
		return fmt.Errorf("failed to run %s migrations: %w", dialect, err)
	}
	return nil
}
