// Package app assembles the scan pipeline from an AppConfig. Both entry
// points, the worker and the one-shot scan CLI, build through it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"release-radar/internal/config"
	"release-radar/internal/handler/http/respond"
	"release-radar/internal/infra/adapter/persistence/boltdb"
	"release-radar/internal/infra/adapter/persistence/postgres"
	"release-radar/internal/infra/adapter/persistence/redisstore"
	"release-radar/internal/infra/catalog"
	"release-radar/internal/infra/db"
	"release-radar/internal/infra/notifier"
	"release-radar/internal/repository"
	"release-radar/internal/usecase/notify"
	"release-radar/internal/usecase/release"
)

// Pipeline holds the wired components of a scan.
type Pipeline struct {
	Store    repository.DeliveryRepository
	Telegram *notifier.TelegramNotifier
	Notify   notify.Service
	Service  *release.Service
}

// OpenStore opens the delivery store selected by cfg.Backend. Postgres
// migrations are applied before the store is returned.
func OpenStore(ctx context.Context, cfg config.DedupConfig) (repository.DeliveryRepository, error) {
	switch cfg.Backend {
	case config.DedupBolt, "":
		return boltdb.Open(cfg.Path)

	case config.DedupPostgres:
		sqlDB, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := db.MigrateUp(sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		return postgres.NewDeliveryRepo(sqlDB), nil

	case config.DedupRedis:
		store, err := redisstore.Open(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown dedup backend %q", cfg.Backend)
	}
}

// Build opens the store and wires the catalog client, notification channels
// and scan service. notifyMaxConcurrent bounds concurrent channel sends.
func Build(ctx context.Context, cfg *config.AppConfig, notifyMaxConcurrent int, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := OpenStore(ctx, cfg.Dedup)
	if err != nil {
		return nil, fmt.Errorf("open delivery store: %w", err)
	}
	logger.Info("delivery store opened", slog.String("backend", cfg.Dedup.Backend))

	telegram := notifier.NewTelegramNotifier(notifier.TelegramConfig{BotToken: cfg.Telegram.BotToken})
	channels := []notify.Channel{notify.NewTelegramChannel(telegram)}
	if cfg.Discord.Enabled {
		channels = append(channels, notify.NewDiscordChannel(cfg.Discord))
		logger.Info("Discord mirror enabled")
	}
	notifyService := notify.NewService(channels, notifyMaxConcurrent)

	svc := release.NewService(
		catalog.NewTokenRefresher(cfg.Spotify),
		catalog.NewClient(cfg.Spotify),
		release.NewCache(cfg.Scan.CacheSize, cfg.Scan.CacheTTL),
		store,
		notifyService,
		release.Config{Workers: cfg.Scan.Workers, DefaultWindow: cfg.Scan.Window},
	)
	svc.Logger = logger

	logger.Info("scan pipeline ready",
		slog.Int("channels", len(channels)),
		slog.Int("workers", cfg.Scan.Workers),
		slog.Int("default_window_months", int(cfg.Scan.Window)),
		slog.Duration("cache_ttl", cfg.Scan.CacheTTL))

	return &Pipeline{
		Store:    store,
		Telegram: telegram,
		Notify:   notifyService,
		Service:  svc,
	}, nil
}

// Close drains pending notifications and closes the store.
func (p *Pipeline) Close(ctx context.Context) error {
	var errs []error
	if err := p.Notify.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("notify shutdown: %w", err))
	}
	if err := p.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %s", respond.SanitizeError(err)))
	}
	return errors.Join(errs...)
}
