package metrics

import (
	"strconv"
	"time"
)

func RecordCatalogRequest(endpoint string, status int, duration time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	CatalogRequestsTotal.WithLabelValues(endpoint, code).Inc()
	CatalogRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func RecordCatalogRateLimited(endpoint string, wait time.Duration) {
	CatalogRateLimitedTotal.WithLabelValues(endpoint).Inc()
	CatalogRateLimitWait.Observe(wait.Seconds())
}

func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	ReleaseCacheLookupsTotal.WithLabelValues(result).Inc()
}

func SetCacheEntries(n int) {
	ReleaseCacheEntries.Set(float64(n))
}

// RecordScan records a finished run. status is one of completed, cancelled, failed.
func RecordScan(trigger, status string, duration time.Duration) {
	ScanRunsTotal.WithLabelValues(trigger, status).Inc()
	ScanDuration.WithLabelValues(trigger).Observe(duration.Seconds())
}

func RecordArtist(ok bool) {
	if ok {
		ScanArtistsTotal.WithLabelValues("ok").Inc()
		return
	}
	ScanArtistsTotal.WithLabelValues("error").Inc()
}

// RecordRelease counts one release at stage (found, delivered, duplicate, failed).
func RecordRelease(stage string) {
	ReleasesTotal.WithLabelValues(stage).Inc()
}

func RecordDeliveryStoreOp(operation string, duration time.Duration) {
	DeliveryStoreDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func SetScanState(recipient string, ordinal int) {
	ScanState.WithLabelValues(recipient).Set(float64(ordinal))
}
