package memcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetGet(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "footprint:estimate:a", []byte("report"), 60))
	got, err := c.Get(ctx, "footprint:estimate:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("report"), got)

	_, err = c.Get(ctx, "footprint:estimate:missing")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCache_Expiry(t *testing.T) {
	c, err := New(8)
	require.NoError(t, err)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k:short", []byte("x"), 10))
	require.NoError(t, c.Set(ctx, "k:forever", []byte("y"), 0))

	now = now.Add(9 * time.Second)
	_, err = c.Get(ctx, "k:short")
	assert.NoError(t, err)

	now = now.Add(time.Second)
	_, err = c.Get(ctx, "k:short")
	assert.ErrorIs(t, err, ErrMiss)
	assert.Equal(t, 1, c.Len(), "expired entry should be removed on read")

	now = now.Add(24 * time.Hour)
	_, err = c.Get(ctx, "k:forever")
	assert.NoError(t, err)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	_, _ = c.Get(ctx, "a")
	_ = c.Set(ctx, "c", []byte("3"), 0)

	_, err = c.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = c.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestCache_CopiesValue(t *testing.T) {
	c, err := New(2)
	require.NoError(t, err)
	ctx := context.Background()

	buf := []byte("abc")
	_ = c.Set(ctx, "k", buf, 0)
	buf[0] = 'z'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestNew_InvalidSize(t *testing.T) {
	_, err := New(0)
	assert.Error(t, err)
}

type failingCache struct{ sets int }

func (f *failingCache) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (f *failingCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	f.sets++
	return errors.New("connection refused")
}

func (f *failingCache) Delete(ctx context.Context, key string) error {
	return errors.New("connection refused")
}

func TestTiered_FallsBackToLocal(t *testing.T) {
	local, err := New(4)
	require.NoError(t, err)
	shared := &failingCache{}
	c := NewTiered(local, shared)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 300))
	assert.Equal(t, 1, shared.sets)

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestTiered_PopulatesLocalFromShared(t *testing.T) {
	local, err := New(4)
	require.NoError(t, err)
	shared, err := New(4)
	require.NoError(t, err)
	ctx := context.Background()
	_ = shared.Set(ctx, "k", []byte("remote"), 0)

	c := NewTiered(local, shared)
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("remote"), got)

	got, err = local.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("remote"), got)
}
