package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"release-radar/internal/config"
	"release-radar/internal/domain/entity"
	hhttp "release-radar/internal/handler/http"
	"release-radar/internal/handler/http/respond"
	"release-radar/internal/handler/http/webhook"
	"release-radar/internal/infra/notifier"
	"release-radar/internal/observability/tracing"
	"release-radar/internal/usecase/release"
)

const maxUpdateBytes = 1 << 20

func webhookRouter(logger *slog.Logger, h *webhook.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(tracing.Middleware)
	r.Use(hhttp.Recover(logger))
	r.Use(hhttp.Logging(logger))
	r.Use(hhttp.LimitRequestBody(maxUpdateBytes))
	r.Use(hhttp.Throttle(rate.NewLimiter(10, 20)))
	h.Register(r)
	return r
}

// startWebhookServer serves Telegram updates and, when a public URL is
// configured, registers it with setWebhook.
func startWebhookServer(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.TelegramConfig,
	recipients []entity.Recipient,
	runner *release.Runner,
	bot *notifier.TelegramNotifier,
) error {
	handler := webhook.NewHandler(cfg.WebhookSecret, recipients, runner, bot, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebhookPort),
		Handler:           webhookRouter(logger, handler),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if cfg.WebhookURL != "" {
		if err := bot.SetWebhook(ctx, cfg.WebhookURL, cfg.WebhookSecret); err != nil {
			return fmt.Errorf("register webhook: %s", respond.SanitizeError(err))
		}
		logger.Info("telegram webhook registered")
	}

	go func() {
		logger.Info("webhook server starting", slog.Int("port", cfg.WebhookPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("webhook server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("webhook server shutdown error", slog.Any("error", err))
		}
	}()
	return nil
}
