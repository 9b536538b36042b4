package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable is returned when the counter backend cannot be
// reached.
var ErrStoreUnavailable = errors.New("rate limit store unavailable")

// RedisStore is the shared counter backend. INCR is atomic across instances,
// so concurrent requests for the same key never lose updates regardless of
// how many processes serve traffic.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// Incr implements [Store]. The TTL is set only on the first hit of a window,
// so the window boundary is fixed from that first request.
func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if count == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return count, time.Now().Add(window), nil
	}

	ttl, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if ttl < 0 {
		// Counter exists without an expiry (a lost EXPIRE); repair it rather
		// than letting the window live forever.
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		ttl = window
	}

	return count, time.Now().Add(ttl), nil
}
