package changefeed

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"stockerp/internal/core/id"
	"stockerp/internal/domain/ledger"
	"stockerp/pkg/logger"
)

var _ ledger.Notifier = (*RedisFeed)(nil)

// RedisFeed publishes and receives stock changes over Redis pub/sub.
// Unlike the Postgres feed, publishing is not tied to a transaction.
type RedisFeed struct {
	rdb     *redis.Client
	channel string
	origin  string
	now     func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRedisFeed creates a feed over an existing client.
func NewRedisFeed(rdb *redis.Client, origin string) *RedisFeed {
	return &RedisFeed{rdb: rdb, channel: "stockerp:" + Channel, origin: origin, now: time.Now}
}

// StockChanged implements ledger.Notifier.
func (f *RedisFeed) StockChanged(ctx context.Context, itemIDs []id.ID) {
	payload, err := Encode(Event{ItemIDs: itemIDs, Origin: f.origin, At: f.now().UTC()})
	if err != nil {
		logger.Warn(ctx, "change event not published", "error", err)
		return
	}
	if err := f.rdb.Publish(ctx, f.channel, payload).Err(); err != nil {
		logger.Warn(ctx, "change event not published", "channel", f.channel, "error", err)
	}
}

// Subscribe delivers events to handler until Close or ctx is done.
// go-redis reconnects the subscription on its own.
func (f *RedisFeed) Subscribe(ctx context.Context, handler Handler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		return nil
	}

	sub := f.rdb.Subscribe(ctx, f.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})

	go func() {
		defer close(f.done)
		defer sub.Close()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				e, err := Decode(msg.Payload)
				if err != nil {
					logger.Warn(ctx, "ignoring malformed change event", "error", err)
					continue
				}
				handler(ctx, e)
			}
		}
	}()

	logger.Info(ctx, "change feed subscribed", "channel", f.channel)
	return nil
}

// Close stops the subscription started by Subscribe.
func (f *RedisFeed) Close() {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel, f.done = nil, nil
	f.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
