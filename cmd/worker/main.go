package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"release-radar/internal/app"
	"release-radar/internal/config"
	"release-radar/internal/domain/entity"
	"release-radar/internal/handler/http/respond"
	workerPkg "release-radar/internal/infra/worker"
	"release-radar/internal/observability/logging"
	"release-radar/internal/usecase/release"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("worker exited", slog.String("error", respond.SanitizeError(err)))
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Worker configuration is fail-open; app configuration fails on missing credentials.
	workerMetrics := workerPkg.NewWorkerMetrics(nil)
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		return fmt.Errorf("load worker configuration: %w", err)
	}
	logger.Info("worker configuration loaded",
		slog.String("scan_schedule", workerConfig.ScanSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Int("notify_max_concurrent", workerConfig.NotifyMaxConcurrent),
		slog.Duration("scan_timeout", workerConfig.ScanTimeout),
		slog.Int("health_port", workerConfig.HealthPort),
		slog.Int("metrics_port", workerConfig.MetricsPort))

	appConfig, err := config.LoadAppConfig(logger, workerMetrics.ConfigMetrics)
	if err != nil {
		return err
	}
	recipients, err := config.LoadRecipients(appConfig.RecipientsFile, appConfig.DefaultRecipient())
	if err != nil {
		return err
	}

	pipeline, err := app.Build(ctx, appConfig, workerConfig.NotifyMaxConcurrent, logger)
	if err != nil {
		return err
	}
	runner := release.NewRunner(pipeline.Service, workerConfig.ScanTimeout)

	startMetricsServer(ctx, logger, workerConfig.MetricsPort, pipeline.Notify)

	healthServer := workerPkg.NewHealthServer(fmt.Sprintf(":%d", workerConfig.HealthPort), logger)
	healthServer.AddCheck("delivery_store", pipeline.Store.Ping)
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	if appConfig.Telegram.WebhookEnabled {
		allowed := withDefault(recipients, appConfig.DefaultRecipient())
		if err := startWebhookServer(ctx, logger, appConfig.Telegram, allowed, runner, pipeline.Telegram); err != nil {
			return err
		}
	}

	scheduler, err := startCronWorker(logger, runner, recipients, workerConfig, workerMetrics)
	if err != nil {
		return err
	}
	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("schedule", workerConfig.ScanSchedule),
		slog.Int("recipients", len(recipients)))

	<-ctx.Done()
	logger.Info("shutdown signal received")
	healthServer.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	<-scheduler.Stop().Done()
	if err := runner.Shutdown(shutdownCtx); err != nil {
		logger.Warn("scans did not stop in time", slog.Any("error", err))
	}
	if err := pipeline.Close(shutdownCtx); err != nil {
		logger.Warn("pipeline close failed", slog.String("error", respond.SanitizeError(err)))
	}
	logger.Info("worker stopped")
	return nil
}

// withDefault appends def unless a recipient with the same chat is listed.
func withDefault(recipients []entity.Recipient, def entity.Recipient) []entity.Recipient {
	for _, r := range recipients {
		if r.ChatID == def.ChatID {
			return recipients
		}
	}
	return append(append([]entity.Recipient(nil), recipients...), def)
}

// startCronWorker schedules a scan of every recipient on cfg.ScanSchedule.
func startCronWorker(
	logger *slog.Logger,
	runner *release.Runner,
	recipients []entity.Recipient,
	cfg *workerPkg.WorkerConfig,
	metrics *workerPkg.WorkerMetrics,
) (*cron.Cron, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc))

	if _, err := c.AddFunc(cfg.ScanSchedule, func() {
		for _, r := range recipients {
			runScanJob(logger, runner, r, metrics)
		}
	}); err != nil {
		return nil, fmt.Errorf("add cron job: %w", err)
	}
	c.Start()
	return c, nil
}

// runScanJob runs one scheduled scan. A recipient whose previous run is
// still going is skipped.
func runScanJob(logger *slog.Logger, runner *release.Runner, recipient entity.Recipient, metrics *workerPkg.WorkerMetrics) {
	start := time.Now()
	metrics.RecordJobRun("started")

	stats, err := runner.RunOnce(context.Background(), release.ScanRequest{
		Recipient: recipient,
		Trigger:   "cron",
	})
	metrics.RecordJobDuration(time.Since(start).Seconds())

	switch {
	case errors.Is(err, release.ErrRunInProgress), errors.Is(err, release.ErrRunnerClosed):
		metrics.RecordJobRun("skipped")
		logger.Info("scheduled scan skipped",
			slog.String("chat_id", recipient.ChatID),
			slog.String("reason", err.Error()))
		return
	case err != nil:
		metrics.RecordJobRun("failure")
		if stats != nil {
			metrics.RecordReleasesDelivered(stats.Delivered)
		}
		logger.Error("scheduled scan failed",
			slog.String("chat_id", recipient.ChatID),
			slog.String("error", respond.SanitizeError(err)))
		return
	}

	metrics.RecordJobRun("success")
	metrics.RecordReleasesDelivered(stats.Delivered)
	metrics.RecordLastSuccess()
	logger.Info("scheduled scan completed",
		slog.String("chat_id", recipient.ChatID),
		slog.String("run_id", stats.RunID),
		slog.Int("artists", stats.Artists),
		slog.Int64("found", stats.Found),
		slog.Int64("delivered", stats.Delivered),
		slog.Int64("duplicates", stats.Duplicates),
		slog.Int64("delivery_errors", stats.DeliveryErrors),
		slog.Duration("duration", stats.Duration))
}
