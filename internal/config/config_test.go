package config

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears key for the duration of the test
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	unsetEnv(t, "STORAGE_BACKEND", "SQLITE_PATH", "PORT", "CLICKHOUSE_PORT", "LOG_LEVEL", "LOG_FORMAT",
		"TELEGRAM_BOT_TOKEN", "ALLOWED_USER_IDS", "WEBHOOK_MODE", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.StorageBackend)
	assert.Equal(t, "reading_tracker.db", cfg.SQLitePath)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 9000, cfg.ClickHousePort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10.0, cfg.RateLimitRPS)
	assert.Equal(t, 20, cfg.RateLimitBurst)
	assert.False(t, cfg.BotEnabled())
}

func TestLoadFromEnv_AllowedUserIDs(t *testing.T) {
	unsetEnv(t, "STORAGE_BACKEND", "LOG_FORMAT", "WEBHOOK_MODE")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("ALLOWED_USER_IDS", "12345,67890")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, []int64{12345, 67890}, cfg.AllowedUserIDs)
	assert.True(t, cfg.BotEnabled())
}

func TestLoadFromEnv_InvalidUserID(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("ALLOWED_USER_IDS", "12345,abc")

	_, err := LoadFromEnv()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:   "mock backend",
			config: Config{StorageBackend: "Mock", RateLimitRPS: 10, RateLimitBurst: 20, LogFormat: "json"},
		},
		{
			name:    "postgres without url",
			config:  Config{StorageBackend: BackendPostgres, RateLimitRPS: 10, RateLimitBurst: 20, LogFormat: "console"},
			wantErr: "DATABASE_URL",
		},
		{
			name:    "clickhouse without host",
			config:  Config{StorageBackend: BackendClickHouse, RateLimitRPS: 10, RateLimitBurst: 20, LogFormat: "console"},
			wantErr: "CLICKHOUSE_HOST",
		},
		{
			name:    "unknown backend",
			config:  Config{StorageBackend: "mysql", RateLimitRPS: 10, RateLimitBurst: 20, LogFormat: "console"},
			wantErr: "unknown STORAGE_BACKEND",
		},
		{
			name:    "token without users",
			config:  Config{StorageBackend: BackendMock, TelegramToken: "t", RateLimitRPS: 10, RateLimitBurst: 20, LogFormat: "console"},
			wantErr: "ALLOWED_USER_IDS",
		},
		{
			name:    "webhook without url",
			config:  Config{StorageBackend: BackendMock, TelegramToken: "t", AllowedUserIDs: []int64{1}, WebhookMode: true, RateLimitRPS: 10, RateLimitBurst: 20, LogFormat: "console"},
			wantErr: "WEBHOOK_URL",
		},
		{
			name:    "webhook without token",
			config:  Config{StorageBackend: BackendMock, WebhookMode: true, WebhookURL: "https://x", RateLimitRPS: 10, RateLimitBurst: 20, LogFormat: "console"},
			wantErr: "TELEGRAM_BOT_TOKEN",
		},
		{
			name:    "webhook without secret",
			config:  Config{StorageBackend: BackendMock, TelegramToken: "t", AllowedUserIDs: []int64{1}, WebhookMode: true, WebhookURL: "https://x", RateLimitRPS: 10, RateLimitBurst: 20, LogFormat: "console"},
			wantErr: "WEBHOOK_SECRET",
		},
		{
			name:    "webhook secret with invalid characters",
			config:  Config{StorageBackend: BackendMock, TelegramToken: "t", AllowedUserIDs: []int64{1}, WebhookMode: true, WebhookURL: "https://x", WebhookSecret: "not secret!", RateLimitRPS: 10, RateLimitBurst: 20, LogFormat: "console"},
			wantErr: "WEBHOOK_SECRET",
		},
		{
			name:    "webhook secret too long",
			config:  Config{StorageBackend: BackendMock, WebhookSecret: strings.Repeat("a", 257), RateLimitRPS: 10, RateLimitBurst: 20, LogFormat: "console"},
			wantErr: "WEBHOOK_SECRET",
		},
		{
			name:   "webhook mode",
			config: Config{StorageBackend: BackendMock, TelegramToken: "t", AllowedUserIDs: []int64{1}, WebhookMode: true, WebhookURL: "https://x", WebhookSecret: "s3cret_token-1", RateLimitRPS: 10, RateLimitBurst: 20, LogFormat: "console"},
		},
		{
			name:    "no rate limit",
			config:  Config{StorageBackend: BackendMock, LogFormat: "console"},
			wantErr: "RATE_LIMIT_RPS",
		},
		{
			name:    "bad log format",
			config:  Config{StorageBackend: BackendMock, RateLimitRPS: 10, RateLimitBurst: 20, LogFormat: "xml"},
			wantErr: "LOG_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
