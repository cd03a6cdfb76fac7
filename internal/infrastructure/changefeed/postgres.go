package changefeed

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"stockerp/internal/core/id"
	"stockerp/internal/domain/ledger"
	"stockerp/internal/infrastructure/storage/postgres"
	"stockerp/pkg/logger"
)

var _ ledger.Notifier = (*PostgresNotifier)(nil)

// PostgresNotifier publishes stock changes with pg_notify.
// Inside a transaction the notification is delivered on commit and dropped on rollback.
type PostgresNotifier struct {
	txm    *postgres.TxManager
	origin string
	now    func() time.Time
}

// NewPostgresNotifier creates a notifier. origin identifies this instance in events.
func NewPostgresNotifier(txm *postgres.TxManager, origin string) *PostgresNotifier {
	return &PostgresNotifier{txm: txm, origin: origin, now: time.Now}
}

// StockChanged implements ledger.Notifier.
func (n *PostgresNotifier) StockChanged(ctx context.Context, itemIDs []id.ID) {
	payload, err := Encode(Event{ItemIDs: itemIDs, Origin: n.origin, At: n.now().UTC()})
	if err != nil {
		logger.Warn(ctx, "change event not published", "error", err)
		return
	}
	if _, err := n.txm.GetQuerier(ctx).Exec(ctx, "SELECT pg_notify($1, $2)", Channel, payload); err != nil {
		logger.Warn(ctx, "change event not published", "channel", Channel, "error", err)
	}
}

// PostgresListener receives stock changes over LISTEN on a dedicated pool connection.
type PostgresListener struct {
	pool    *pgxpool.Pool
	handler Handler

	// Lifecycle
	lifecycleMu sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	started     bool
}

// NewPostgresListener creates a listener that calls handler for every event.
func NewPostgresListener(pool *pgxpool.Pool, handler Handler) *PostgresListener {
	return &PostgresListener{pool: pool, handler: handler}
}

// Start begins listening in the background. Calling Start twice is a no-op.
func (l *PostgresListener) Start(ctx context.Context) {
	l.lifecycleMu.Lock()
	defer l.lifecycleMu.Unlock()
	if l.started {
		return
	}
	l.ctx, l.cancel = context.WithCancel(ctx)
	l.started = true

	l.wg.Add(1)
	go l.listenLoop()
	logger.Info(l.ctx, "change feed listener started", "channel", Channel)
}

// Stop cancels the listener and waits for it to exit.
func (l *PostgresListener) Stop() {
	l.lifecycleMu.Lock()
	if !l.started {
		l.lifecycleMu.Unlock()
		return
	}
	cancel := l.cancel
	l.started = false
	l.cancel = nil
	l.lifecycleMu.Unlock()

	cancel()
	l.wg.Wait()
	logger.Info(context.Background(), "change feed listener stopped")
}

func (l *PostgresListener) listenLoop() {
	defer l.wg.Done()

	for {
		select {
		case <-l.ctx.Done():
			return
		default:
		}

		conn, err := l.pool.Acquire(l.ctx)
		if err != nil {
			if l.ctx.Err() != nil {
				return
			}
			logger.Error(l.ctx, "failed to acquire connection for LISTEN", "error", err)
			l.sleep(time.Second)
			continue
		}

		if _, err := conn.Exec(l.ctx, "LISTEN "+Channel); err != nil {
			logger.Error(l.ctx, "failed to LISTEN", "channel", Channel, "error", err)
			conn.Release()
			l.sleep(time.Second)
			continue
		}

		// Changes missed while reconnecting are covered by treating the gap as a change.
		l.handler(l.ctx, Event{At: time.Now().UTC()})
		l.waitForNotifications(conn)
		conn.Release()
	}
}

func (l *PostgresListener) waitForNotifications(conn *pgxpool.Conn) {
	for {
		ctx, cancel := context.WithTimeout(l.ctx, 30*time.Second)
		notification, err := conn.Conn().WaitForNotification(ctx)
		cancel()

		if err != nil {
			if l.ctx.Err() != nil {
				return
			}
			if ctx.Err() != nil {
				continue
			}
			logger.Warn(l.ctx, "LISTEN connection lost", "error", err)
			return
		}

		e, err := Decode(notification.Payload)
		if err != nil {
			logger.Warn(l.ctx, "ignoring malformed change event", "error", err)
			continue
		}
		logger.Debug(l.ctx, "received change event", "origin", e.Origin, "items", len(e.ItemIDs))
		l.handler(l.ctx, e)
	}
}

func (l *PostgresListener) sleep(d time.Duration) {
	select {
	case <-l.ctx.Done():
	case <-time.After(d):
	}
}
