package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(now *time.Time) *MemoryStore {
	s := NewMemoryStore(0, 0)
	s.now = func() time.Time { return *now }
	return s
}

func TestWindowBudget(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	store := newTestStore(&now)
	limiter := New(store, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res := limiter.Allow(ctx, "ip:10.0.0.1")
		require.True(t, res.Allowed, "request %d", i+1)
		require.Equal(t, 2-i, res.Remaining)
	}

	res := limiter.Allow(ctx, "ip:10.0.0.1")
	require.False(t, res.Allowed)
	require.Equal(t, 0, res.Remaining)
	require.Equal(t, now.Add(time.Minute), res.ResetAt)
}

func TestWindowResets(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	store := newTestStore(&now)
	limiter := New(store, 1, time.Minute)
	ctx := context.Background()

	require.True(t, limiter.Allow(ctx, "k").Allowed)
	require.False(t, limiter.Allow(ctx, "k").Allowed)

	now = now.Add(time.Minute)
	res := limiter.Allow(ctx, "k")
	require.True(t, res.Allowed)
	require.Equal(t, now.Add(time.Minute), res.ResetAt)
}

func TestKeysAreIndependent(t *testing.T) {
	now := time.Now()
	store := newTestStore(&now)
	limiter := New(store, 1, time.Minute)
	ctx := context.Background()

	require.True(t, limiter.Allow(ctx, "a").Allowed)
	require.False(t, limiter.Allow(ctx, "a").Allowed)
	require.True(t, limiter.Allow(ctx, "b").Allowed)
}

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	limiter := New(NewMemoryStore(0, 0), 0, time.Minute)
	for i := 0; i < 100; i++ {
		require.True(t, limiter.Allow(context.Background(), "k").Allowed)
	}
}

func TestSweepDropsStaleBuckets(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	store := newTestStore(&now)
	limiter := New(store, 5, time.Minute)
	ctx := context.Background()

	limiter.Allow(ctx, "stale")
	now = now.Add(10 * time.Minute)
	limiter.Allow(ctx, "fresh")

	store.sweep(2 * time.Minute)
	require.Equal(t, 1, store.Len())
}
