package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Catalog API metrics
var (
	CatalogRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_requests_total",
			Help: "Total catalog API requests by endpoint and HTTP status",
		},
		[]string{"endpoint", "status"},
	)

	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_request_duration_seconds",
			Help:    "Catalog API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// CatalogRateLimitedTotal counts 429 responses.
	CatalogRateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_rate_limited_total",
			Help: "Total catalog responses that asked the client to back off",
		},
		[]string{"endpoint"},
	)

	CatalogRateLimitWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_rate_limit_wait_seconds",
			Help:    "Time spent waiting on Retry-After before retrying",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
	)
)

// Release cache metrics
var (
	ReleaseCacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "release_cache_lookups_total",
			Help: "Release cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	ReleaseCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "release_cache_entries",
			Help: "Number of artist release lists currently cached",
		},
	)
)

// Scan pipeline metrics
var (
	ScanRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_runs_total",
			Help: "Completed scan runs by trigger and outcome",
		},
		[]string{"trigger", "status"},
	)

	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scan_duration_seconds",
			Help:    "Scan run duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"trigger"},
	)

	ScansInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scans_in_flight",
			Help: "Number of scan runs currently executing",
		},
	)

	// ScanState holds each recipient's current run state as an ordinal:
	// 0 idle, 1 refreshing_token, 2 enumerating_artists, 3 fetching_releases,
	// 4 notifying, 5 done.
	ScanState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scan_state",
			Help: "Current scan state per recipient",
		},
		[]string{"recipient"},
	)

	ScanArtistsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_artists_total",
			Help: "Artists processed by scans, by result (ok, error)",
		},
		[]string{"result"},
	)

	// ReleasesTotal tracks releases through the pipeline.
	// stage: found, delivered, duplicate, failed
	ReleasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_releases_total",
			Help: "Releases seen by scans, by pipeline stage",
		},
		[]string{"stage"},
	)

	DeliveryStoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "delivery_store_operation_duration_seconds",
			Help:    "Delivery log operation latency in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// HTTP metrics for the webhook endpoint
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
