package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"readtracker/internal/api"
	"readtracker/internal/bot"
	"readtracker/internal/config"
	"readtracker/internal/logger"
	"readtracker/internal/storage"
	"readtracker/internal/storage/ch"
	"readtracker/internal/storage/sqldb"
	"readtracker/internal/storage/stubs"
	"readtracker/internal/tracker"
)

const shutdownTimeout = 5 * time.Second

// App represents the application
type App struct {
	config  *config.Config
	logger  *zap.Logger
	db      storage.Storage
	svc     *tracker.Service
	bot     *bot.Bot
	limiter *api.RateLimiter
	router  chi.Router
	server  *http.Server
}

// Setup loads .env and the configuration and builds the logger.
// Shared by every binary of the module.
func Setup() (*config.Config, *zap.Logger, error) {
	// Load .env file if it exists
	envErr := godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	if envErr != nil {
		log.Debug("No .env file found, using system environment variables")
	}
	return cfg, log, nil
}

// New creates and initializes a new application instance
func New(ctx context.Context) (*App, error) {
	cfg, log, err := Setup()
	if err != nil {
		return nil, err
	}

	app := &App{config: cfg, logger: log}

	log.Info("Starting reading tracker", zap.String("storage", cfg.StorageBackend))

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}
	app.svc = tracker.New(app.db, log)

	if err := app.initBot(); err != nil {
		app.db.Close()
		return nil, err
	}

	app.initHTTPServer(ctx)
	return app, nil
}

// OpenStorage connects to the configured backend and applies its schema
func OpenStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.Storage, error) {
	var db storage.Storage
	switch cfg.StorageBackend {
	case config.BackendMock:
		log.Info("Using mock database")
		mock := stubs.NewMockDB()
		if err := mock.Seed(ctx, time.Now()); err != nil {
			return nil, fmt.Errorf("failed to seed mock database: %w", err)
		}
		db = mock
	case config.BackendSQLite:
		log.Info("Opening SQLite database", zap.String("path", cfg.SQLitePath))
		sqlite, err := sqldb.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		db = sqlite
	case config.BackendPostgres:
		log.Info("Connecting to PostgreSQL")
		pg, err := sqldb.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		db = pg
	case config.BackendClickHouse:
		log.Info("Connecting to ClickHouse",
			zap.String("host", cfg.ClickHouseHost),
			zap.Int("port", cfg.ClickHousePort),
			zap.String("database", cfg.ClickHouseDatabase),
			zap.String("user", cfg.ClickHouseUser),
			zap.Bool("tls", cfg.ClickHouseUseTLS),
		)
		clickhouseDB, err := ch.NewClickHouseDB(
			cfg.ClickHouseHost,
			cfg.ClickHousePort,
			cfg.ClickHouseDatabase,
			cfg.ClickHouseUser,
			cfg.ClickHousePassword,
			cfg.ClickHouseUseTLS,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
		}
		db = clickhouseDB
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	if err := db.Initialize(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Info("Database initialized successfully")
	return db, nil
}

func (a *App) initDatabase(ctx context.Context) error {
	db, err := OpenStorage(ctx, a.config, a.logger)
	if err != nil {
		return err
	}
	a.db = db
	return nil
}

// initBot creates the Telegram bot when a token is configured
func (a *App) initBot() error {
	if !a.config.BotEnabled() {
		a.logger.Info("TELEGRAM_BOT_TOKEN not set, Telegram bot disabled")
		return nil
	}

	telegramBot, err := bot.NewBot(a.config.TelegramToken, a.svc, a.config.AllowedUserIDs, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	a.logger.Info("Bot created successfully", zap.Int64s("allowed_users", a.config.AllowedUserIDs))

	a.bot = telegramBot
	return nil
}

// initHTTPServer builds the API router, the bot webhook route and the server
func (a *App) initHTTPServer(ctx context.Context) {
	a.limiter = api.NewRateLimiter(a.config.RateLimitRPS, a.config.RateLimitBurst)

	opts := api.Options{RateLimiter: a.limiter}
	if a.config.WebhookMode {
		opts.Auth = api.NewInitDataValidator(a.config.TelegramToken, a.config.AllowedUserIDs)
	}

	a.router = api.NewRouter(a.svc, a.logger, opts)
	a.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "Reading tracker is running (bot: %s)", a.botMode())
	})
	if a.bot != nil && a.config.WebhookMode {
		a.router.Post(bot.WebhookPath, a.bot.WebhookHandler(ctx, a.config.WebhookSecret))
	}

	a.server = api.NewHTTPServer(a.config.Port, a.router)
}

func (a *App) botMode() string {
	switch {
	case a.bot == nil:
		return "disabled"
	case a.config.WebhookMode:
		return "webhook"
	default:
		return "polling"
	}
}

// Run starts the application and blocks until SIGINT/SIGTERM or a fatal error
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)

	go a.limiter.Run(ctx)

	go func() {
		a.logger.Info("Starting HTTP server", zap.String("port", a.config.Port))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if a.bot != nil {
		if a.config.WebhookMode {
			a.logger.Info("Starting bot in webhook mode", zap.String("url", a.config.WebhookURL))
			if err := a.bot.StartWebhook(a.config.WebhookURL, a.config.WebhookSecret); err != nil {
				stop()
				a.Shutdown()
				return fmt.Errorf("failed to setup webhook: %w", err)
			}
		} else {
			go func() {
				if err := a.bot.Start(ctx); err != nil {
					errCh <- fmt.Errorf("bot polling failed: %w", err)
				}
			}()
		}
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Received shutdown signal")
	case runErr = <-errCh:
		a.logger.Error("Application error", zap.Error(runErr))
		stop()
	}

	a.logger.Info("Shutting down...")
	if err := a.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() error {
	defer a.logger.Sync()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing database", zap.Error(err))
		return err
	}

	a.logger.Info("Shutdown complete")
	return nil
}
