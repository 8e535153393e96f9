// Package config assembles the application configuration from the
// environment. Credentials are required and reported together through
// ErrConfigMissing; tunables fall back to their defaults with a warning.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"release-radar/internal/domain/entity"
	"release-radar/internal/infra/catalog"
	"release-radar/internal/infra/notifier"
	pkgconfig "release-radar/internal/pkg/config"

	"github.com/joho/godotenv"
)

// ErrConfigMissing indicates that one or more required variables are unset.
var ErrConfigMissing = errors.New("required configuration missing")

// MissingConfigError lists every required variable that was not set.
type MissingConfigError struct {
	Keys []string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("%s: %s", ErrConfigMissing, strings.Join(e.Keys, ", "))
}

func (e *MissingConfigError) Unwrap() error {
	return ErrConfigMissing
}

// Dedup store backends.
const (
	DedupBolt     = "bolt"
	DedupPostgres = "postgres"
	DedupRedis    = "redis"
)

// AppConfig is the full runtime configuration.
type AppConfig struct {
	Spotify  catalog.Config
	Telegram TelegramConfig
	Discord  notifier.DiscordConfig
	Dedup    DedupConfig
	Scan     ScanConfig

	// RecipientsFile optionally lists the chats the scheduled scan serves.
	// Empty means the single TELEGRAM_CHAT_ID.
	RecipientsFile string
}

// TelegramConfig holds the bot credentials and webhook settings.
type TelegramConfig struct {
	BotToken string
	// ChatID is the default recipient.
	ChatID string

	WebhookEnabled bool
	// WebhookSecret must match X-Telegram-Bot-Api-Secret-Token on every update.
	WebhookSecret string
	// WebhookURL, when set, is registered with setWebhook at startup.
	WebhookURL  string
	WebhookPort int
}

// DedupConfig selects and locates the delivery store.
type DedupConfig struct {
	Backend     string
	Path        string
	DatabaseURL string
	RedisURL    string
}

// ScanConfig tunes scans.
type ScanConfig struct {
	Window    entity.RecencyWindow
	Workers   int
	CacheTTL  time.Duration
	CacheSize int
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding ones already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// LoadAppConfig reads the environment. It returns a *MissingConfigError when
// required variables are absent; invalid tunables are replaced by defaults.
// metrics may be nil.
func LoadAppConfig(logger *slog.Logger, metrics *pkgconfig.ConfigMetrics) (*AppConfig, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := &AppConfig{
		Spotify: catalog.Config{
			ClientID:        os.Getenv("SPOTIFY_CLIENT_ID"),
			ClientSecret:    os.Getenv("SPOTIFY_CLIENT_SECRET"),
			RefreshToken:    os.Getenv("SPOTIFY_REFRESH_TOKEN"),
			AccountsBaseURL: pkgconfig.LoadEnvString("SPOTIFY_ACCOUNTS_URL", catalog.DefaultAccountsBaseURL),
			APIBaseURL:      pkgconfig.LoadEnvString("SPOTIFY_API_URL", catalog.DefaultAPIBaseURL),
			RequestDelay: pkgconfig.Resolve("request_delay",
				pkgconfig.LoadEnvDuration("REQUEST_DELAY", catalog.DefaultRequestDelay, func(d time.Duration) error {
					return pkgconfig.ValidateDuration(d, 0, 10*time.Second)
				}), metrics, logger),
		},
		Telegram: TelegramConfig{
			BotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
			ChatID:         os.Getenv("TELEGRAM_CHAT_ID"),
			WebhookEnabled: pkgconfig.Resolve("webhook_enabled", pkgconfig.LoadEnvBool("WEBHOOK_ENABLED", false), metrics, logger),
			WebhookSecret:  os.Getenv("TELEGRAM_WEBHOOK_SECRET"),
			WebhookURL:     os.Getenv("TELEGRAM_WEBHOOK_URL"),
			WebhookPort: pkgconfig.Resolve("webhook_port",
				pkgconfig.LoadEnvInt("WEBHOOK_PORT", 8080, func(v int) error {
					return pkgconfig.ValidateIntRange(v, 1024, 65535)
				}), metrics, logger),
		},
		Discord: notifier.DiscordConfig{
			Enabled:    pkgconfig.Resolve("discord_enabled", pkgconfig.LoadEnvBool("DISCORD_ENABLED", false), metrics, logger),
			WebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),
			Timeout:    10 * time.Second,
		},
		Dedup: DedupConfig{
			Backend: pkgconfig.Resolve("dedup_backend",
				pkgconfig.LoadEnvWithFallback("DEDUP_BACKEND", DedupBolt,
					pkgconfig.ValidateOneOf(DedupBolt, DedupPostgres, DedupRedis)), metrics, logger),
			Path:        pkgconfig.LoadEnvString("DEDUP_PATH", "data/deliveries.db"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
			RedisURL:    os.Getenv("REDIS_URL"),
		},
		Scan: ScanConfig{
			Window: entity.RecencyWindow(pkgconfig.Resolve("recency_months",
				pkgconfig.LoadEnvInt("RECENCY_MONTHS", 6, func(v int) error {
					return pkgconfig.ValidateIntRange(v, 1, entity.MaxWindowMonths)
				}), metrics, logger)),
			Workers: pkgconfig.Resolve("scan_workers",
				pkgconfig.LoadEnvInt("SCAN_WORKERS", 3, func(v int) error {
					return pkgconfig.ValidateIntRange(v, 1, 5)
				}), metrics, logger),
			CacheTTL: pkgconfig.Resolve("cache_ttl",
				pkgconfig.LoadEnvDuration("CACHE_TTL", 6*time.Hour, func(d time.Duration) error {
					return pkgconfig.ValidateDuration(d, 0, 7*24*time.Hour)
				}), metrics, logger),
			CacheSize: pkgconfig.Resolve("cache_size",
				pkgconfig.LoadEnvInt("CACHE_SIZE", 2048, func(v int) error {
					return pkgconfig.ValidateIntRange(v, 1, 1_000_000)
				}), metrics, logger),
		},
		RecipientsFile: os.Getenv("RECIPIENTS_FILE"),
	}

	if err := cfg.checkRequired(); err != nil {
		return nil, err
	}
	if metrics != nil {
		metrics.RecordLoadTimestamp()
	}
	return cfg, nil
}

// checkRequired collects every missing required variable.
func (c *AppConfig) checkRequired() error {
	var missing []string
	require := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}

	require("SPOTIFY_CLIENT_ID", c.Spotify.ClientID)
	require("SPOTIFY_CLIENT_SECRET", c.Spotify.ClientSecret)
	require("SPOTIFY_REFRESH_TOKEN", c.Spotify.RefreshToken)
	require("TELEGRAM_BOT_TOKEN", c.Telegram.BotToken)
	require("TELEGRAM_CHAT_ID", c.Telegram.ChatID)
	if c.Telegram.WebhookEnabled {
		require("TELEGRAM_WEBHOOK_SECRET", c.Telegram.WebhookSecret)
	}
	if c.Discord.Enabled {
		require("DISCORD_WEBHOOK_URL", c.Discord.WebhookURL)
	}
	switch c.Dedup.Backend {
	case DedupPostgres:
		require("DATABASE_URL", c.Dedup.DatabaseURL)
	case DedupRedis:
		require("REDIS_URL", c.Dedup.RedisURL)
	}

	if len(missing) > 0 {
		return &MissingConfigError{Keys: missing}
	}
	return nil
}

// DefaultRecipient is the TELEGRAM_CHAT_ID recipient with the configured window.
func (c *AppConfig) DefaultRecipient() entity.Recipient {
	return entity.Recipient{ChatID: c.Telegram.ChatID, Window: c.Scan.Window}
}
