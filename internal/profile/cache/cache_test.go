package cache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calldex/internal/profile/models"
	"calldex/internal/profile/store/profilerow"
	"calldex/pkg/phone"
	"calldex/pkg/platform/sentinel"
)

// countingStore wraps the in-memory profile store and counts durable reads,
// so tests can assert which tier answered.
type countingStore struct {
	*profilerow.MemoryStore
	reads atomic.Int32
}

func (s *countingStore) GetByPhone(ctx context.Context, number phone.Number) (*models.NumberProfile, error) {
	s.reads.Add(1)
	return s.MemoryStore.GetByPhone(ctx, number)
}

func newTestCache(t *testing.T) (*MultiTier, *countingStore) {
	t.Helper()
	store := &countingStore{MemoryStore: profilerow.NewMemory()}
	return New(store, nil, Config{}), store
}

func TestCacheReadThrough(t *testing.T) {
	ctx := context.Background()
	c, store := newTestCache(t)
	number := phone.MustNormalize("+919876543210")

	_, err := store.Upsert(ctx, models.NumberProfile{Phone: number, Name: "Rahul Sharma"})
	require.NoError(t, err)

	got, err := c.Get(ctx, number)
	require.NoError(t, err)
	assert.Equal(t, "Rahul Sharma", got.Name)
	assert.Equal(t, int32(1), store.reads.Load())

	// Second get is served by the local tier.
	_, err = c.Get(ctx, number)
	require.NoError(t, err)
	assert.Equal(t, int32(1), store.reads.Load(), "local tier should absorb the second read")
}

func TestCacheNegativeSuppressesStoreReads(t *testing.T) {
	ctx := context.Background()
	c, store := newTestCache(t)
	number := phone.MustNormalize("+919999999999")

	_, err := c.Get(ctx, number)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.Equal(t, int32(1), store.reads.Load())

	// Within the negative TTL the store must not be consulted again.
	_, err = c.Get(ctx, number)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.Equal(t, int32(1), store.reads.Load(), "negative cache must absorb the repeat miss")
}

func TestCacheInvalidateDropsStaleValue(t *testing.T) {
	ctx := context.Background()
	c, store := newTestCache(t)
	number := phone.MustNormalize("+919876543210")

	_, err := store.Upsert(ctx, models.NumberProfile{Phone: number, Name: "Old Name"})
	require.NoError(t, err)
	_, err = c.Get(ctx, number)
	require.NoError(t, err)

	// Worker writes a fresh profile, then invalidates.
	_, err = store.Upsert(ctx, models.NumberProfile{Phone: number, Name: "New Name"})
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, number))

	got, err := c.Get(ctx, number)
	require.NoError(t, err)
	assert.Equal(t, "New Name", got.Name, "post-invalidation get must never return the stale value")
}

func TestCacheInvalidateClearsNegative(t *testing.T) {
	ctx := context.Background()
	c, store := newTestCache(t)
	number := phone.MustNormalize("+919876543210")

	_, err := c.Get(ctx, number)
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	// First write for a brand-new number, then invalidation: the cached
	// not-found must not outlive the write.
	_, err = store.Upsert(ctx, models.NumberProfile{Phone: number, Name: "Rahul"})
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, number))

	got, err := c.Get(ctx, number)
	require.NoError(t, err)
	assert.Equal(t, "Rahul", got.Name)
}

func TestCacheConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()
	assert.Equal(t, 10000, cfg.LocalCapacity)
	assert.Equal(t, 5*time.Minute, cfg.LocalTTL)
	assert.Equal(t, 24*time.Hour, cfg.SharedTTL)
	assert.Equal(t, 5*time.Minute, cfg.NegativeTTL)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
}
