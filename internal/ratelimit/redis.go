package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore counts windows in Redis so multiple instances share one budget.
// The first hit of a window sets the key's expiry to the window length; the
// counter and its TTL then define the fixed window for every instance.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore wraps an existing client. Keys are namespaced with prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Incr implements Store.
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	full := s.prefix + key

	count, err := s.client.Incr(ctx, full).Result()
	if err != nil {
		return 0, time.Time{}, err
	}
	if count == 1 {
		if err := s.client.PExpire(ctx, full, window).Err(); err != nil {
			return 0, time.Time{}, err
		}
		return int(count), time.Now().Add(window), nil
	}

	ttl, err := s.client.PTTL(ctx, full).Result()
	if err != nil || ttl < 0 {
		ttl = window
	}
	return int(count), time.Now().Add(ttl), nil
}
