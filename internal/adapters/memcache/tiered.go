package memcache

import (
	"context"
	"log/slog"

	"github.com/samirrijal/tripfootprint/internal/core/ports"
)

// localTTL bounds how long a value read from the shared cache is reused
// locally.
const localTTL = 30

// Tiered puts a local LRU in front of a shared cache. Shared-cache failures
// degrade to local-only caching.
type Tiered struct {
	local  *Cache
	shared ports.CacheService
}

// NewTiered layers local over shared.
func NewTiered(local *Cache, shared ports.CacheService) *Tiered {
	return &Tiered{local: local, shared: shared}
}

func (t *Tiered) Get(ctx context.Context, key string) ([]byte, error) {
	if v, err := t.local.Get(ctx, key); err == nil {
		return v, nil
	}
	v, err := t.shared.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	_ = t.local.Set(ctx, key, v, localTTL)
	return v, nil
}

func (t *Tiered) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	localFor := ttlSeconds
	if localFor <= 0 || localFor > localTTL {
		localFor = localTTL
	}
	_ = t.local.Set(ctx, key, value, localFor)
	if err := t.shared.Set(ctx, key, value, ttlSeconds); err != nil {
		slog.Debug("shared cache set failed", "key", key, "error", err)
	}
	return nil
}

func (t *Tiered) Delete(ctx context.Context, key string) error {
	_ = t.local.Delete(ctx, key)
	return t.shared.Delete(ctx, key)
}
