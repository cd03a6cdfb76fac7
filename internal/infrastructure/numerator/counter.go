// Package numerator provides the PostgreSQL counter behind document numbering.
package numerator

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"

	corenumerator "stockerp/internal/core/numerator"
	"stockerp/internal/infrastructure/storage/postgres"
	"stockerp/pkg/logger"
)

// Querier is the subset of pgx used by the counter.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierFunc returns the querier for a call, typically the pool or the transaction in ctx.
type QuerierFunc func(ctx context.Context) Querier

type cachedRange struct {
	current int64
	max     int64
}

// Counter is a corenumerator.Counter over the sys_sequences table.
type Counter struct {
	querier QuerierFunc
	opts    corenumerator.Options

	mu     sync.Mutex
	ranges map[string]*cachedRange
}

var _ corenumerator.Counter = (*Counter)(nil)

// NewCounter creates a counter.
func NewCounter(querier QuerierFunc, opts corenumerator.Options) *Counter {
	if opts.RangeSize <= 0 {
		opts.RangeSize = corenumerator.DefaultOptions().RangeSize
	}
	return &Counter{
		querier: querier,
		opts:    opts,
		ranges:  make(map[string]*cachedRange),
	}
}

// Next implements corenumerator.Counter.
func (c *Counter) Next(ctx context.Context, key string) (int64, error) {
	if c.opts.Strategy == corenumerator.StrategyCached {
		return c.nextCached(ctx, key)
	}
	return c.reserve(ctx, key, 1)
}

// reserve bumps the stored value by n and returns the new value, the last reserved number.
// Connection failures surface as apperror.CodeDependencyUnavailable.
func (c *Counter) reserve(ctx context.Context, key string, n int64) (int64, error) {
	var last int64
	err := c.querier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + EXCLUDED.current_val
		RETURNING current_val
	`, key, n).Scan(&last)
	if err != nil {
		return 0, postgres.MapError(fmt.Errorf("reserve %d from sequence %s: %w", n, key, err))
	}
	return last, nil
}

func (c *Counter) nextCached(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rng, ok := c.ranges[key]
	if !ok {
		rng = &cachedRange{}
		c.ranges[key] = rng
	}

	if rng.current >= rng.max {
		last, err := c.reserve(ctx, key, c.opts.RangeSize)
		if err != nil {
			return 0, err
		}
		rng.current = last - c.opts.RangeSize
		rng.max = last
		logger.Debug(ctx, "sequence range reserved", "key", key, "from", rng.current+1, "to", rng.max)
	}

	rng.current++
	return rng.current, nil
}

// Reset forgets cached ranges. Unused reserved numbers become gaps.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ranges = make(map[string]*cachedRange)
}
