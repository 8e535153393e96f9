package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCatalogRequest(t *testing.T) {
	before := testutil.ToFloat64(CatalogRequestsTotal.WithLabelValues("followed_artists", "200"))
	RecordCatalogRequest("followed_artists", 200, 30*time.Millisecond)
	after := testutil.ToFloat64(CatalogRequestsTotal.WithLabelValues("followed_artists", "200"))
	assert.Equal(t, before+1, after)

	beforeErr := testutil.ToFloat64(CatalogRequestsTotal.WithLabelValues("followed_artists", "error"))
	RecordCatalogRequest("followed_artists", 0, time.Millisecond)
	assert.Equal(t, beforeErr+1, testutil.ToFloat64(CatalogRequestsTotal.WithLabelValues("followed_artists", "error")))
}

func TestRecordCatalogRateLimited(t *testing.T) {
	before := testutil.ToFloat64(CatalogRateLimitedTotal.WithLabelValues("artist_albums"))
	RecordCatalogRateLimited("artist_albums", 2*time.Second)
	assert.Equal(t, before+1, testutil.ToFloat64(CatalogRateLimitedTotal.WithLabelValues("artist_albums")))
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(ReleaseCacheLookupsTotal.WithLabelValues("hit"))
	misses := testutil.ToFloat64(ReleaseCacheLookupsTotal.WithLabelValues("miss"))

	RecordCacheLookup(true)
	RecordCacheLookup(false)
	RecordCacheLookup(false)

	assert.Equal(t, hits+1, testutil.ToFloat64(ReleaseCacheLookupsTotal.WithLabelValues("hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(ReleaseCacheLookupsTotal.WithLabelValues("miss")))

	SetCacheEntries(7)
	assert.Equal(t, 7.0, testutil.ToFloat64(ReleaseCacheEntries))
}

func TestRecordScan(t *testing.T) {
	before := testutil.ToFloat64(ScanRunsTotal.WithLabelValues("cron", "completed"))
	RecordScan("cron", "completed", time.Minute)
	assert.Equal(t, before+1, testutil.ToFloat64(ScanRunsTotal.WithLabelValues("cron", "completed")))
}

func TestRecordReleaseStages(t *testing.T) {
	for _, stage := range []string{"found", "delivered", "duplicate", "failed"} {
		before := testutil.ToFloat64(ReleasesTotal.WithLabelValues(stage))
		RecordRelease(stage)
		assert.Equal(t, before+1, testutil.ToFloat64(ReleasesTotal.WithLabelValues(stage)), stage)
	}
}

func TestRecordArtist(t *testing.T) {
	ok := testutil.ToFloat64(ScanArtistsTotal.WithLabelValues("ok"))
	failed := testutil.ToFloat64(ScanArtistsTotal.WithLabelValues("error"))

	RecordArtist(true)
	RecordArtist(false)

	assert.Equal(t, ok+1, testutil.ToFloat64(ScanArtistsTotal.WithLabelValues("ok")))
	assert.Equal(t, failed+1, testutil.ToFloat64(ScanArtistsTotal.WithLabelValues("error")))
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/telegram/webhook", "200"))
	RecordHTTPRequest("POST", "/telegram/webhook", 200, 5*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/telegram/webhook", "200")))
}
