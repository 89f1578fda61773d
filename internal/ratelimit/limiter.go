// Package ratelimit implements fixed-window request counting. A window admits
// at most max requests per key; counts reset when the window boundary passes.
// Bursts straddling a boundary can reach 2x the nominal rate, which is an
// accepted property of the fixed-window scheme.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result reports the outcome of a single Allow call.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Store counts hits per key within a fixed window.
type Store interface {
	// Incr increments the counter for key, starting a new window when none is
	// active, and returns the post-increment count and the window reset time.
	Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error)
}

// Limiter applies a fixed-window budget over a Store.
type Limiter struct {
	store  Store
	max    int
	window time.Duration
}

// New builds a limiter admitting max requests per key per window. A max of
// zero or less disables the limiter (every call allowed).
func New(store Store, max int, window time.Duration) *Limiter {
	return &Limiter{store: store, max: max, window: window}
}

// Allow records a hit for key and reports whether it fits the budget. Store
// failures fail open: an unreachable counter should degrade to unlimited
// traffic, not an outage.
func (l *Limiter) Allow(ctx context.Context, key string) Result {
	if l == nil || l.max <= 0 {
		return Result{Allowed: true, Remaining: -1}
	}
	count, resetAt, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		return Result{Allowed: true, Remaining: -1}
	}
	remaining := l.max - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: count <= l.max, Remaining: remaining, ResetAt: resetAt}
}

type bucket struct {
	count   int
	resetAt time.Time
}

// MemoryStore keeps buckets in a mutex-guarded map. Process-local: with more
// than one instance each process enforces its own budget; use RedisStore for
// a shared one.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

// NewMemoryStore creates the store and starts a janitor that sweeps buckets
// whose window ended more than sweepAfter ago, so one-off keys (every email
// ever attempted at login) do not accumulate forever.
func NewMemoryStore(sweepEvery, sweepAfter time.Duration) *MemoryStore {
	s := &MemoryStore{
		buckets: make(map[string]*bucket),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if sweepEvery > 0 {
		go s.janitor(sweepEvery, sweepAfter)
	}
	return s
}

// Incr implements Store.
func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int, time.Time, error) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{resetAt: now.Add(window)}
		s.buckets[key] = b
	}
	b.count++
	return b.count, b.resetAt, nil
}

// Len reports the live bucket count, for tests and diagnostics.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// Close stops the janitor.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *MemoryStore) janitor(every, after time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep(after)
		}
	}
}

func (s *MemoryStore) sweep(after time.Duration) {
	cutoff := s.now().Add(-after)
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, b := range s.buckets {
		if b.resetAt.Before(cutoff) {
			delete(s.buckets, key)
		}
	}
}
