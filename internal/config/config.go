package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Storage backends selectable with STORAGE_BACKEND
const (
	BackendSQLite     = "sqlite"
	BackendPostgres   = "postgres"
	BackendClickHouse = "clickhouse"
	BackendMock       = "mock"
)

// Config holds the application configuration
type Config struct {
	// Storage configuration
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"sqlite"`
	SQLitePath     string `env:"SQLITE_PATH" envDefault:"reading_tracker.db"`
	DatabaseURL    string `env:"DATABASE_URL"`

	// ClickHouse configuration
	ClickHouseHost     string `env:"CLICKHOUSE_HOST"`
	ClickHousePort     int    `env:"CLICKHOUSE_PORT" envDefault:"9000"`
	ClickHouseDatabase string `env:"CLICKHOUSE_DATABASE" envDefault:"default"`
	ClickHouseUser     string `env:"CLICKHOUSE_USER" envDefault:"default"`
	ClickHousePassword string `env:"CLICKHOUSE_PASSWORD"`
	ClickHouseUseTLS   bool   `env:"CLICKHOUSE_USE_TLS" envDefault:"false"`

	// HTTP server
	Port           string  `env:"PORT" envDefault:"8080"`
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// Telegram bot; disabled when the token is empty
	TelegramToken  string  `env:"TELEGRAM_BOT_TOKEN"`
	AllowedUserIDs []int64 `env:"ALLOWED_USER_IDS" envSeparator:","`

	// Bot mode configuration
	WebhookMode bool   `env:"WEBHOOK_MODE" envDefault:"false"` // If true, use webhook mode; if false, use polling mode
	WebhookURL  string `env:"WEBHOOK_URL"`                     // URL for webhook (required if WebhookMode is true)
	// Sent by Telegram in X-Telegram-Bot-Api-Secret-Token (required if WebhookMode is true)
	WebhookSecret string `env:"WEBHOOK_SECRET"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the settings that depend on each other
func (c *Config) Validate() error {
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	switch c.StorageBackend {
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORAGE_BACKEND is sqlite")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND is postgres")
		}
	case BackendClickHouse:
		if c.ClickHouseHost == "" {
			return fmt.Errorf("CLICKHOUSE_HOST is required when STORAGE_BACKEND is clickhouse")
		}
	case BackendMock:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (sqlite, postgres, clickhouse or mock)", c.StorageBackend)
	}

	if c.TelegramToken != "" && len(c.AllowedUserIDs) == 0 {
		return fmt.Errorf("ALLOWED_USER_IDS is required when TELEGRAM_BOT_TOKEN is set (comma-separated list of Telegram user IDs)")
	}

	if c.WebhookMode {
		if c.TelegramToken == "" {
			return fmt.Errorf("TELEGRAM_BOT_TOKEN is required when WEBHOOK_MODE is true")
		}
		if c.WebhookURL == "" {
			return fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_MODE is true")
		}
		if c.WebhookSecret == "" {
			return fmt.Errorf("WEBHOOK_SECRET is required when WEBHOOK_MODE is true")
		}
	}
	if c.WebhookSecret != "" && !validWebhookSecret(c.WebhookSecret) {
		return fmt.Errorf("WEBHOOK_SECRET must be 1-256 characters of A-Z, a-z, 0-9, _ and -")
	}

	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q (console or json)", c.LogFormat)
	}

	return nil
}

// validWebhookSecret applies Telegram's rules for secret_token
func validWebhookSecret(secret string) bool {
	if len(secret) > 256 {
		return false
	}
	for _, r := range secret {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// BotEnabled reports whether the Telegram bot should run
func (c *Config) BotEnabled() bool {
	return c.TelegramToken != ""
}
