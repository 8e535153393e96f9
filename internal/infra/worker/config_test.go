package worker

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ScanSchedule != "0 */6 * * *" {
		t.Errorf("Expected ScanSchedule '0 */6 * * *', got '%s'", cfg.ScanSchedule)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Expected Timezone 'UTC', got '%s'", cfg.Timezone)
	}
	if cfg.NotifyMaxConcurrent != 5 {
		t.Errorf("Expected NotifyMaxConcurrent 5, got %d", cfg.NotifyMaxConcurrent)
	}
	if cfg.ScanTimeout != 30*time.Minute {
		t.Errorf("Expected ScanTimeout 30m, got %v", cfg.ScanTimeout)
	}
	if cfg.HealthPort != 9091 {
		t.Errorf("Expected HealthPort 9091, got %d", cfg.HealthPort)
	}
	if cfg.MetricsPort != 9090 {
		t.Errorf("Expected MetricsPort 9090, got %d", cfg.MetricsPort)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestWorkerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *WorkerConfig)
		wantErr string
	}{
		{name: "valid custom", mutate: func(c *WorkerConfig) { c.ScanSchedule = "15 8 * * 1"; c.Timezone = "Europe/Berlin" }},
		{name: "invalid cron", mutate: func(c *WorkerConfig) { c.ScanSchedule = "every hour" }, wantErr: "scan schedule"},
		{name: "six field cron", mutate: func(c *WorkerConfig) { c.ScanSchedule = "0 0 */6 * * *" }, wantErr: "scan schedule"},
		{name: "invalid timezone", mutate: func(c *WorkerConfig) { c.Timezone = "Mars/Olympus" }, wantErr: "timezone"},
		{name: "concurrency zero", mutate: func(c *WorkerConfig) { c.NotifyMaxConcurrent = 0 }, wantErr: "notify max concurrent"},
		{name: "concurrency too high", mutate: func(c *WorkerConfig) { c.NotifyMaxConcurrent = 51 }, wantErr: "notify max concurrent"},
		{name: "concurrency boundary", mutate: func(c *WorkerConfig) { c.NotifyMaxConcurrent = 50 }},
		{name: "zero timeout", mutate: func(c *WorkerConfig) { c.ScanTimeout = 0 }, wantErr: "scan timeout"},
		{name: "privileged health port", mutate: func(c *WorkerConfig) { c.HealthPort = 80 }, wantErr: "health port"},
		{name: "metrics port too high", mutate: func(c *WorkerConfig) { c.MetricsPort = 70000 }, wantErr: "metrics port"},
		{name: "ports collide", mutate: func(c *WorkerConfig) { c.MetricsPort = c.HealthPort }, wantErr: "must differ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestWorkerConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScanSchedule = "bad"
	cfg.Timezone = "bad"
	cfg.HealthPort = 1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"scan schedule", "timezone", "health port"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %q, got %v", want, err)
		}
	}
}

func setWorkerEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for _, k := range []string{"SCAN_SCHEDULE", "WORKER_TIMEZONE", "NOTIFY_MAX_CONCURRENT", "SCAN_TIMEOUT", "WORKER_HEALTH_PORT", "METRICS_PORT"} {
		t.Setenv(k, env[k])
	}
}

func TestLoadConfigFromEnv_AllValid(t *testing.T) {
	setWorkerEnv(t, map[string]string{
		"SCAN_SCHEDULE":         "0 9 * * *",
		"WORKER_TIMEZONE":       "Europe/London",
		"NOTIFY_MAX_CONCURRENT": "8",
		"SCAN_TIMEOUT":          "45m",
		"WORKER_HEALTH_PORT":    "9191",
		"METRICS_PORT":          "9190",
	})

	metrics := NewWorkerMetrics(prometheus.NewRegistry())
	cfg, err := LoadConfigFromEnv(slog.Default(), metrics)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := WorkerConfig{
		ScanSchedule:        "0 9 * * *",
		Timezone:            "Europe/London",
		NotifyMaxConcurrent: 8,
		ScanTimeout:         45 * time.Minute,
		HealthPort:          9191,
		MetricsPort:         9190,
	}
	if *cfg != want {
		t.Errorf("config = %+v, want %+v", *cfg, want)
	}
	if v := testutil.ToFloat64(metrics.FallbackActive); v != 0 {
		t.Errorf("expected fallback inactive, got %v", v)
	}
}

func TestLoadConfigFromEnv_Missing(t *testing.T) {
	setWorkerEnv(t, nil)

	cfg, err := LoadConfigFromEnv(slog.Default(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *cfg != DefaultConfig() {
		t.Errorf("config = %+v, want defaults", *cfg)
	}
}

func TestLoadConfigFromEnv_InvalidFallsBack(t *testing.T) {
	setWorkerEnv(t, map[string]string{
		"SCAN_SCHEDULE":         "whenever",
		"WORKER_TIMEZONE":       "Nowhere/City",
		"NOTIFY_MAX_CONCURRENT": "abc",
		"SCAN_TIMEOUT":          "10s",
		"WORKER_HEALTH_PORT":    "9292",
	})

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	metrics := NewWorkerMetrics(prometheus.NewRegistry())

	cfg, err := LoadConfigFromEnv(logger, metrics)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	defaults := DefaultConfig()
	if cfg.ScanSchedule != defaults.ScanSchedule {
		t.Errorf("ScanSchedule = %q, want default", cfg.ScanSchedule)
	}
	if cfg.Timezone != defaults.Timezone {
		t.Errorf("Timezone = %q, want default", cfg.Timezone)
	}
	if cfg.NotifyMaxConcurrent != defaults.NotifyMaxConcurrent {
		t.Errorf("NotifyMaxConcurrent = %d, want default", cfg.NotifyMaxConcurrent)
	}
	if cfg.ScanTimeout != defaults.ScanTimeout {
		t.Errorf("ScanTimeout = %v, want default", cfg.ScanTimeout)
	}
	if cfg.HealthPort != 9292 {
		t.Errorf("HealthPort = %d, want 9292", cfg.HealthPort)
	}

	for _, field := range []string{"scan_schedule", "timezone", "notify_max_concurrent", "scan_timeout"} {
		if v := testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues(field)); v != 1 {
			t.Errorf("fallbacks[%s] = %v, want 1", field, v)
		}
	}
	if v := testutil.ToFloat64(metrics.FallbackActive); v != 1 {
		t.Errorf("expected fallback active, got %v", v)
	}
	if !strings.Contains(buf.String(), "configuration fallback applied") {
		t.Errorf("expected fallback warning in logs, got %s", buf.String())
	}
}
