// Command tracker-dev runs the application against a throwaway database
// container: ClickHouse by default, PostgreSQL with the "postgres" argument.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"readtracker/internal/app"
	"readtracker/internal/config"
)

func main() {
	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	backend := config.BackendClickHouse
	if len(os.Args) > 1 {
		backend = os.Args[1]
	}

	if err := run(context.Background(), backend, log); err != nil {
		log.Fatal("Dev run failed", zap.Error(err))
	}
}

func run(ctx context.Context, backend string, log *zap.Logger) error {
	var (
		container testcontainers.Container
		err       error
	)
	switch backend {
	case config.BackendClickHouse:
		container, err = startClickHouse(ctx, log)
	case config.BackendPostgres:
		container, err = startPostgres(ctx, log)
	default:
		return fmt.Errorf("unsupported dev backend %q (clickhouse or postgres)", backend)
	}
	if err != nil {
		return err
	}

	// Ensure container cleanup on exit
	defer func() {
		log.Info("Stopping container")
		if err := container.Terminate(context.Background()); err != nil {
			log.Error("Failed to terminate container", zap.Error(err))
		}
	}()

	os.Setenv("STORAGE_BACKEND", backend)
	os.Setenv("WEBHOOK_MODE", "false")
	if os.Getenv("TELEGRAM_BOT_TOKEN") == "" {
		log.Warn("TELEGRAM_BOT_TOKEN not set, running the HTTP API only")
	}

	log.Info("Starting application", zap.String("storage", backend))

	application, err := app.New(ctx)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return application.Run(ctx)
}

func startClickHouse(ctx context.Context, log *zap.Logger) (testcontainers.Container, error) {
	log.Info("Starting ClickHouse testcontainer")

	container, err := clickhouse.Run(ctx,
		"clickhouse/clickhouse-server:latest",
		clickhouse.WithUsername("default"),
		clickhouse.WithPassword("devpassword"),
		clickhouse.WithDatabase("default"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start ClickHouse container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "9000/tcp")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}
	log.Info("ClickHouse started", zap.String("host", host), zap.String("port", port.Port()))

	os.Setenv("CLICKHOUSE_HOST", host)
	os.Setenv("CLICKHOUSE_PORT", strconv.Itoa(port.Int()))
	os.Setenv("CLICKHOUSE_DATABASE", "default")
	os.Setenv("CLICKHOUSE_USER", "default")
	os.Setenv("CLICKHOUSE_PASSWORD", "devpassword")
	os.Setenv("CLICKHOUSE_USE_TLS", "false")
	return container, nil
}

func startPostgres(ctx context.Context, log *zap.Logger) (testcontainers.Container, error) {
	log.Info("Starting PostgreSQL testcontainer")

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("tracker"),
		postgres.WithUsername("tracker"),
		postgres.WithPassword("devpassword"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start PostgreSQL container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}
	log.Info("PostgreSQL started")

	os.Setenv("DATABASE_URL", dsn)
	return container, nil
}
