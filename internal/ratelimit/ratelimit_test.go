package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreAllowsUpToLimit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := store.Allow(ctx, "key", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 3-(i+1), result.Remaining)
	}

	result, err := store.Allow(ctx, "key", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 3, result.Limit)
	assert.True(t, result.ResetAt.After(time.Now()))
}

func TestMemoryStoreSlidesTheWindow(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	result, err := store.Allow(ctx, "key", 1, 30*time.Millisecond)
	require.NoError(t, err)
	require.True(t, result.Allowed)

	result, err = store.Allow(ctx, "key", 1, 30*time.Millisecond)
	require.NoError(t, err)
	require.False(t, result.Allowed)

	time.Sleep(40 * time.Millisecond)

	result, err = store.Allow(ctx, "key", 1, 30*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	result, err := store.Allow(ctx, "a", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, result.Allowed)

	result, err = store.Allow(ctx, "b", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMemoryStoreReset(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Allow(ctx, "key", 1, time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Reset(ctx, "key"))

	result, err := store.Allow(ctx, "key", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestLimiterEnforcesPerClassBudgets(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(),
		WithLimit(ClassLookup, Limit{Requests: 2, Window: time.Minute}),
		WithLimit(ClassIntake, Limit{Requests: 1, Window: time.Minute}),
	)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "caller", ClassLookup)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "lookup request %d", i)
	}
	result, err := limiter.Check(ctx, "caller", ClassLookup)
	require.NoError(t, err)
	assert.False(t, result.Allowed)

	// Intake has its own budget and is unaffected by exhausted lookups.
	result, err = limiter.Check(ctx, "caller", ClassIntake)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestLimiterUnconfiguredClassAdmits(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(),
		WithLimit(ClassAdmin, Limit{Requests: 0}),
	)

	for i := 0; i < 100; i++ {
		result, err := limiter.Check(context.Background(), "caller", ClassAdmin)
		require.NoError(t, err)
		require.True(t, result.Allowed)
	}
}

func TestLimiterKeysDoNotCollideAcrossCallers(t *testing.T) {
	limiter := NewLimiter(NewMemoryStore(),
		WithLimit(ClassLookup, Limit{Requests: 1, Window: time.Minute}),
	)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := limiter.Check(ctx, fmt.Sprintf("caller-%d", i), ClassLookup)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}
}
