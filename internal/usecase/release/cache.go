package release

import (
	"context"
	"slices"
	"time"

	"release-radar/internal/domain/entity"
	"release-radar/internal/observability/metrics"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultCacheSize = 2048
	DefaultCacheTTL  = 6 * time.Hour
)

type cacheKey struct {
	artistID string
	window   entity.RecencyWindow
}

type cacheEntry struct {
	fetchedAt time.Time
	releases  []entity.Release
}

// FetchFunc produces the filtered releases of one artist on a cache miss.
type FetchFunc func(ctx context.Context) ([]entity.Release, error)

// Cache memoizes filtered releases per (artist, window) for a fixed TTL.
// Concurrent misses on the same key may both fetch; the later store wins.
type Cache struct {
	lru *expirable.LRU[cacheKey, cacheEntry]
	ttl time.Duration
	now func() time.Time
}

// NewCache creates a cache holding at most size entries. A ttl <= 0 disables
// caching so every lookup fetches.
func NewCache(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c := &Cache{ttl: ttl, now: time.Now}
	if ttl > 0 {
		c.lru = expirable.NewLRU[cacheKey, cacheEntry](size, nil, ttl)
	}
	return c
}

// GetOrFetch returns the cached releases of artistID for window, or calls
// fetch and stores its result. Fetch errors are returned and not cached.
// hit reports whether the result came from the cache.
func (c *Cache) GetOrFetch(ctx context.Context, artistID string, window entity.RecencyWindow, fetch FetchFunc) (releases []entity.Release, hit bool, err error) {
	key := cacheKey{artistID: artistID, window: window}

	if c.lru != nil {
		if e, ok := c.lru.Get(key); ok && c.now().Sub(e.fetchedAt) < c.ttl {
			metrics.RecordCacheLookup(true)
			return slices.Clone(e.releases), true, nil
		}
	}
	metrics.RecordCacheLookup(false)

	fetched, err := fetch(ctx)
	if err != nil {
		return nil, false, err
	}

	if c.lru != nil {
		c.lru.Add(key, cacheEntry{fetchedAt: c.now(), releases: slices.Clone(fetched)})
		metrics.SetCacheEntries(c.lru.Len())
	}
	return fetched, false, nil
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	if c.lru != nil {
		c.lru.Purge()
		metrics.SetCacheEntries(0)
	}
}
