package feed

import (
	"context"
	"sync"
	"time"
)

// CachingFetcher wraps a Fetcher with a per-feed in memory cache,
// for polling more often than the upstream publishes. Enabled via
// feed_cache_ttl_seconds in config.
type CachingFetcher struct {
	inner Fetcher
	ttl   time.Duration

	mutex sync.Mutex
	cache map[string]cacheEntry

	TimeNow func() time.Time
}

type cacheEntry struct {
	data       []byte
	expiration time.Time
}

func NewCachingFetcher(inner Fetcher, ttl time.Duration) *CachingFetcher {
	return &CachingFetcher{
		inner:   inner,
		ttl:     ttl,
		cache:   make(map[string]cacheEntry),
		TimeNow: time.Now,
	}
}

func (c *CachingFetcher) Fetch(ctx context.Context, feedID string) ([]byte, error) {
	c.mutex.Lock()
	if entry, ok := c.cache[feedID]; ok && entry.expiration.After(c.TimeNow()) {
		c.mutex.Unlock()
		return entry.data, nil
	}
	c.mutex.Unlock()

	body, err := c.inner.Fetch(ctx, feedID)
	if err != nil {
		return nil, err
	}

	c.mutex.Lock()
	c.cache[feedID] = cacheEntry{
		data:       body,
		expiration: c.TimeNow().Add(c.ttl),
	}
	c.mutex.Unlock()

	return body, nil
}
