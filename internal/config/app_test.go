package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"release-radar/internal/domain/entity"
	"release-radar/internal/infra/catalog"
	pkgconfig "release-radar/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var appEnvKeys = []string{
	"SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_SECRET", "SPOTIFY_REFRESH_TOKEN",
	"SPOTIFY_ACCOUNTS_URL", "SPOTIFY_API_URL", "REQUEST_DELAY",
	"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "WEBHOOK_ENABLED",
	"TELEGRAM_WEBHOOK_SECRET", "TELEGRAM_WEBHOOK_URL", "WEBHOOK_PORT",
	"DISCORD_ENABLED", "DISCORD_WEBHOOK_URL",
	"DEDUP_BACKEND", "DEDUP_PATH", "DATABASE_URL", "REDIS_URL",
	"RECENCY_MONTHS", "SCAN_WORKERS", "CACHE_TTL", "CACHE_SIZE", "RECIPIENTS_FILE",
}

// clearAppEnv blanks every variable LoadAppConfig reads.
func clearAppEnv(t *testing.T) {
	t.Helper()
	for _, k := range appEnvKeys {
		t.Setenv(k, "")
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SPOTIFY_CLIENT_ID", "client")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "secret")
	t.Setenv("SPOTIFY_REFRESH_TOKEN", "refresh")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
}

func TestLoadAppConfig_Defaults(t *testing.T) {
	clearAppEnv(t)
	setRequired(t)

	cfg, err := LoadAppConfig(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "client", cfg.Spotify.ClientID)
	assert.Equal(t, catalog.DefaultAccountsBaseURL, cfg.Spotify.AccountsBaseURL)
	assert.Equal(t, catalog.DefaultAPIBaseURL, cfg.Spotify.APIBaseURL)
	assert.Equal(t, catalog.DefaultRequestDelay, cfg.Spotify.RequestDelay)
	assert.Equal(t, "42", cfg.Telegram.ChatID)
	assert.False(t, cfg.Telegram.WebhookEnabled)
	assert.Equal(t, 8080, cfg.Telegram.WebhookPort)
	assert.False(t, cfg.Discord.Enabled)
	assert.Equal(t, DedupBolt, cfg.Dedup.Backend)
	assert.Equal(t, "data/deliveries.db", cfg.Dedup.Path)
	assert.Equal(t, entity.RecencyWindow(6), cfg.Scan.Window)
	assert.Equal(t, 3, cfg.Scan.Workers)
	assert.Equal(t, 6*time.Hour, cfg.Scan.CacheTTL)
	assert.Equal(t, 2048, cfg.Scan.CacheSize)

	assert.Equal(t, entity.Recipient{ChatID: "42", Window: 6}, cfg.DefaultRecipient())
}

func TestLoadAppConfig_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T)
		missing []string
	}{
		{
			name:  "nothing set",
			setup: func(t *testing.T) {},
			missing: []string{
				"SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_SECRET", "SPOTIFY_REFRESH_TOKEN",
				"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
			},
		},
		{
			name: "whitespace counts as missing",
			setup: func(t *testing.T) {
				setRequired(t)
				t.Setenv("TELEGRAM_CHAT_ID", "   ")
			},
			missing: []string{"TELEGRAM_CHAT_ID"},
		},
		{
			name: "webhook needs secret",
			setup: func(t *testing.T) {
				setRequired(t)
				t.Setenv("WEBHOOK_ENABLED", "true")
			},
			missing: []string{"TELEGRAM_WEBHOOK_SECRET"},
		},
		{
			name: "discord needs url",
			setup: func(t *testing.T) {
				setRequired(t)
				t.Setenv("DISCORD_ENABLED", "true")
			},
			missing: []string{"DISCORD_WEBHOOK_URL"},
		},
		{
			name: "postgres backend needs DATABASE_URL",
			setup: func(t *testing.T) {
				setRequired(t)
				t.Setenv("DEDUP_BACKEND", "postgres")
			},
			missing: []string{"DATABASE_URL"},
		},
		{
			name: "redis backend needs REDIS_URL",
			setup: func(t *testing.T) {
				setRequired(t)
				t.Setenv("DEDUP_BACKEND", "redis")
			},
			missing: []string{"REDIS_URL"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearAppEnv(t)
			tt.setup(t)

			cfg, err := LoadAppConfig(nil, nil)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.True(t, errors.Is(err, ErrConfigMissing))

			var missing *MissingConfigError
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, tt.missing, missing.Keys)
			for _, k := range tt.missing {
				assert.Contains(t, err.Error(), k)
			}
		})
	}
}

func TestLoadAppConfig_Overrides(t *testing.T) {
	clearAppEnv(t)
	setRequired(t)
	t.Setenv("WEBHOOK_ENABLED", "true")
	t.Setenv("TELEGRAM_WEBHOOK_SECRET", "s3cret")
	t.Setenv("TELEGRAM_WEBHOOK_URL", "https://example.com/telegram/webhook")
	t.Setenv("WEBHOOK_PORT", "8443")
	t.Setenv("DEDUP_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("RECENCY_MONTHS", "12")
	t.Setenv("SCAN_WORKERS", "5")
	t.Setenv("CACHE_TTL", "0s")
	t.Setenv("REQUEST_DELAY", "500ms")

	cfg, err := LoadAppConfig(nil, nil)
	require.NoError(t, err)

	assert.True(t, cfg.Telegram.WebhookEnabled)
	assert.Equal(t, "s3cret", cfg.Telegram.WebhookSecret)
	assert.Equal(t, 8443, cfg.Telegram.WebhookPort)
	assert.Equal(t, DedupRedis, cfg.Dedup.Backend)
	assert.Equal(t, entity.RecencyWindow(12), cfg.Scan.Window)
	assert.Equal(t, 5, cfg.Scan.Workers)
	assert.Equal(t, time.Duration(0), cfg.Scan.CacheTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.Spotify.RequestDelay)
}

func TestLoadAppConfig_InvalidTunablesFallBack(t *testing.T) {
	clearAppEnv(t)
	setRequired(t)
	t.Setenv("RECENCY_MONTHS", "25")
	t.Setenv("SCAN_WORKERS", "9")
	t.Setenv("DEDUP_BACKEND", "sqlite")
	t.Setenv("CACHE_TTL", "forever")

	reg := prometheus.NewRegistry()
	metrics := pkgconfig.NewConfigMetrics("test", reg)

	cfg, err := LoadAppConfig(nil, metrics)
	require.NoError(t, err)

	assert.Equal(t, entity.RecencyWindow(6), cfg.Scan.Window)
	assert.Equal(t, 3, cfg.Scan.Workers)
	assert.Equal(t, DedupBolt, cfg.Dedup.Backend)
	assert.Equal(t, 6*time.Hour, cfg.Scan.CacheTTL)

	count, err := testutil.GatherAndCount(reg, "test_config_fallbacks_total")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("RADAR_DOTENV_A=from-file\nRADAR_DOTENV_B=from-file\n"), 0o600))

	t.Setenv("RADAR_DOTENV_A", "")
	t.Setenv("RADAR_DOTENV_B", "from-env")
	require.NoError(t, os.Unsetenv("RADAR_DOTENV_A"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("RADAR_DOTENV_A"))
	assert.Equal(t, "from-env", os.Getenv("RADAR_DOTENV_B"), "existing variables win")

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
