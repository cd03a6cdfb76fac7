package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stockerp/internal/core/apperror"
	"stockerp/internal/domain/alerts"
)

// DefaultAlertKey is the Redis key of the shared snapshot.
const DefaultAlertKey = "stockerp:alerts:snapshot"

var _ alerts.Cache = (*RedisAlertCache)(nil)

// RedisAlertCache shares the snapshot between instances as JSON.
type RedisAlertCache struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

// NewRedisAlertCache creates a cache over an existing client; ttl <= 0 selects DefaultAlertTTL.
func NewRedisAlertCache(rdb *redis.Client, ttl time.Duration) *RedisAlertCache {
	if ttl <= 0 {
		ttl = DefaultAlertTTL
	}
	return &RedisAlertCache{rdb: rdb, key: DefaultAlertKey, ttl: ttl}
}

func (c *RedisAlertCache) Get(ctx context.Context) (alerts.Snapshot, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return alerts.Snapshot{}, false, nil
	}
	if err != nil {
		return alerts.Snapshot{}, false, apperror.NewDependencyUnavailable("redis", err)
	}

	var snap alerts.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// A corrupt entry is a miss; the next Set overwrites it.
		return alerts.Snapshot{}, false, fmt.Errorf("decode alert snapshot: %w", err)
	}
	if snap.Alerts == nil {
		snap.Alerts = []alerts.Alert{}
	}
	return snap, true, nil
}

func (c *RedisAlertCache) Set(ctx context.Context, snap alerts.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode alert snapshot: %w", err)
	}
	if err := c.rdb.Set(ctx, c.key, raw, c.ttl).Err(); err != nil {
		return apperror.NewDependencyUnavailable("redis", err)
	}
	return nil
}

func (c *RedisAlertCache) Delete(ctx context.Context) error {
	if err := c.rdb.Del(ctx, c.key).Err(); err != nil {
		return apperror.NewDependencyUnavailable("redis", err)
	}
	return nil
}
