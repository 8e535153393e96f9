package worker

import (
	"fmt"
	"log/slog"
	"time"

	"release-radar/internal/pkg/config"
)

// WorkerConfig controls scheduled scans and the worker's HTTP listeners.
// Every field falls back to its default when the environment holds an
// invalid value, so LoadConfigFromEnv never fails.
type WorkerConfig struct {
	// ScanSchedule is a 5-field cron expression. Default "0 */6 * * *".
	ScanSchedule string

	// Timezone is the IANA zone the schedule is evaluated in. Default "UTC".
	Timezone string

	// NotifyMaxConcurrent bounds concurrent channel sends (1-50). Default 5.
	NotifyMaxConcurrent int

	// ScanTimeout caps one scheduled scan (1m-4h). Default 30m.
	ScanTimeout time.Duration

	// HealthPort serves /health and /health/ready. Default 9091.
	HealthPort int

	// MetricsPort serves /metrics and /health/channels. Default 9090.
	MetricsPort int
}

// DefaultConfig returns the worker defaults.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		ScanSchedule:        "0 */6 * * *",
		Timezone:            "UTC",
		NotifyMaxConcurrent: 5,
		ScanTimeout:         30 * time.Minute,
		HealthPort:          9091,
		MetricsPort:         9090,
	}
}

// Validate reports every invalid field at once.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.ScanSchedule); err != nil {
		errs = append(errs, fmt.Errorf("scan schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateIntRange(c.NotifyMaxConcurrent, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("notify max concurrent: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.ScanTimeout); err != nil {
		errs = append(errs, fmt.Errorf("scan timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}
	if c.HealthPort == c.MetricsPort {
		errs = append(errs, fmt.Errorf("health port and metrics port must differ, both are %d", c.HealthPort))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv reads SCAN_SCHEDULE, WORKER_TIMEZONE,
// NOTIFY_MAX_CONCURRENT, SCAN_TIMEOUT, WORKER_HEALTH_PORT and METRICS_PORT.
// Invalid values are logged, counted on metrics and replaced by defaults.
// The returned error is always nil.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()

	var cm *config.ConfigMetrics
	if metrics != nil {
		cm = metrics.ConfigMetrics
	}

	cfg.ScanSchedule = config.Resolve("scan_schedule",
		config.LoadEnvWithFallback("SCAN_SCHEDULE", cfg.ScanSchedule, config.ValidateCronSchedule),
		cm, logger)

	cfg.Timezone = config.Resolve("timezone",
		config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone),
		cm, logger)

	cfg.NotifyMaxConcurrent = config.Resolve("notify_max_concurrent",
		config.LoadEnvInt("NOTIFY_MAX_CONCURRENT", cfg.NotifyMaxConcurrent, func(v int) error {
			return config.ValidateIntRange(v, 1, 50)
		}), cm, logger)

	cfg.ScanTimeout = config.Resolve("scan_timeout",
		config.LoadEnvDuration("SCAN_TIMEOUT", cfg.ScanTimeout, func(d time.Duration) error {
			return config.ValidateDuration(d, time.Minute, 4*time.Hour)
		}), cm, logger)

	cfg.HealthPort = config.Resolve("health_port",
		config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
			return config.ValidateIntRange(v, 1024, 65535)
		}), cm, logger)

	cfg.MetricsPort = config.Resolve("metrics_port",
		config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, func(v int) error {
			return config.ValidateIntRange(v, 1024, 65535)
		}), cm, logger)

	if cm != nil {
		cm.RecordLoadTimestamp()
	}
	return &cfg, nil
}
