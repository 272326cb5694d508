package memcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/samirrijal/tripfootprint/internal/pkg/metrics"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

type entry struct {
	value   []byte
	expires time.Time
}

// Cache implements ports.CacheService with an in-process LRU. Each entry
// carries its own expiry and is dropped lazily on read.
type Cache struct {
	entries *lru.Cache[string, entry]
	now     func() time.Time
}

// New creates an LRU cache holding at most size entries.
func New(size int) (*Cache, error) {
	entries, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("lru cache: %w", err)
	}
	return &Cache{entries: entries, now: time.Now}, nil
}

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	e, ok := c.entries.Get(key)
	if ok && !e.expires.IsZero() && !c.now().Before(e.expires) {
		c.entries.Remove(key)
		ok = false
	}
	if !ok {
		metrics.CacheMisses.WithLabelValues(metrics.CacheOperation(key), "lru").Inc()
		return nil, ErrMiss
	}
	metrics.CacheHits.WithLabelValues(metrics.CacheOperation(key), "lru").Inc()
	return e.value, nil
}

// Set stores a value. A non-positive TTL keeps the entry until it is evicted.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttlSeconds > 0 {
		e.expires = c.now().Add(time.Duration(ttlSeconds) * time.Second)
	}
	c.entries.Add(key, e)
	return nil
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.entries.Remove(key)
	return nil
}

// Len reports the number of entries, expired ones included.
func (c *Cache) Len() int {
	return c.entries.Len()
}
