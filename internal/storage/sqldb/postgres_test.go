//go:build integration

package sqldb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"readtracker/internal/storage"
	"readtracker/internal/storage/storagetest"
)

// setupPostgres starts a PostgreSQL container shared by the test
func setupPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("tracker"),
		postgres.WithUsername("tracker"),
		postgres.WithPassword("tracker"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")
	return connStr
}

func TestPostgres_Storage(t *testing.T) {
	connStr := setupPostgres(t)

	storagetest.Run(t, func(t *testing.T) storage.Storage {
		ctx := context.Background()

		db, err := OpenPostgres(ctx, connStr)
		require.NoError(t, err, "Failed to connect to PostgreSQL")
		t.Cleanup(func() { db.Close() })

		require.NoError(t, db.Initialize(ctx), "Failed to run migrations")
		// Every subtest starts from empty tables with fresh sequences
		_, err = db.db.ExecContext(ctx, `TRUNCATE reading_log, books RESTART IDENTITY`)
		require.NoError(t, err)
		return db
	})
}
