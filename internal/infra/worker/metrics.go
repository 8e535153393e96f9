package worker

import (
	"release-radar/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics tracks configuration loading and scheduled scan jobs.
//
// Scan job metrics:
//   - worker_scan_job_runs_total{status}: started, success, failure, skipped
//   - worker_scan_job_duration_seconds
//   - worker_scan_job_releases_delivered_total
//   - worker_scan_job_last_success_timestamp
type WorkerMetrics struct {
	*config.ConfigMetrics

	ScanJobRunsTotal            *prometheus.CounterVec
	ScanJobDurationSeconds      prometheus.Histogram
	ScanJobReleasesDelivered    prometheus.Counter
	ScanJobLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics registers the worker collectors on reg
// (prometheus.DefaultRegisterer when nil).
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker", reg),

		ScanJobRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_scan_job_runs_total",
			Help: "Total number of scheduled scan runs by status",
		}, []string{"status"}),

		ScanJobDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_scan_job_duration_seconds",
			Help:    "Duration of scheduled scan runs in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}),

		ScanJobReleasesDelivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "worker_scan_job_releases_delivered_total",
			Help: "Total number of releases delivered by scheduled scans",
		}),

		ScanJobLastSuccessTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worker_scan_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful scheduled scan",
		}),
	}
}

// RecordJobRun increments the run counter for status.
func (m *WorkerMetrics) RecordJobRun(status string) {
	m.ScanJobRunsTotal.WithLabelValues(status).Inc()
}

func (m *WorkerMetrics) RecordJobDuration(seconds float64) {
	m.ScanJobDurationSeconds.Observe(seconds)
}

func (m *WorkerMetrics) RecordReleasesDelivered(count int64) {
	m.ScanJobReleasesDelivered.Add(float64(count))
}

func (m *WorkerMetrics) RecordLastSuccess() {
	m.ScanJobLastSuccessTimestamp.SetToCurrentTime()
}
