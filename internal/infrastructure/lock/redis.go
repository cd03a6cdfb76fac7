package lock

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"stockerp/internal/core/apperror"
	"stockerp/pkg/logger"
)

// RedisLocker serializes callers per key across instances.
type RedisLocker struct {
	client  *redislock.Client
	ttl     time.Duration
	backoff time.Duration
	prefix  string
}

// NewRedisLocker creates a locker over an existing Redis client.
// ttl bounds how long a crashed holder can block others.
func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{
		client:  redislock.New(rdb),
		ttl:     ttl,
		backoff: 100 * time.Millisecond,
		prefix:  "stockerp:lock:",
	}
}

// Lock obtains the key, retrying until ctx is done.
func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lk, err := r.client.Obtain(ctx, r.prefix+key, r.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(r.backoff),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, apperror.NewConflict("resource is locked by another request").WithDetail("key", key)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperror.NewDependencyUnavailable("redis", err)
	}

	return func() {
		// The caller's context may already be cancelled.
		if err := lk.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.Warn(ctx, "lock release failed", "key", key, "error", err)
		}
	}, nil
}
