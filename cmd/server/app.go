package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"stockerp/internal/config"
	appctx "stockerp/internal/core/context"
	"stockerp/internal/core/id"
	corenumerator "stockerp/internal/core/numerator"
	"stockerp/internal/core/tx"
	"stockerp/internal/domain/access"
	"stockerp/internal/domain/alerts"
	"stockerp/internal/domain/documents"
	"stockerp/internal/domain/items"
	"stockerp/internal/domain/ledger"
	"stockerp/internal/domain/pricing"
	"stockerp/internal/domain/reports"
	"stockerp/internal/infrastructure/cache"
	"stockerp/internal/infrastructure/changefeed"
	"stockerp/internal/infrastructure/http/v1/handlers"
	"stockerp/internal/infrastructure/lock"
	"stockerp/internal/infrastructure/numerator"
	"stockerp/internal/infrastructure/storage/memory"
	"stockerp/internal/infrastructure/storage/postgres"
	"stockerp/internal/infrastructure/storage/postgres/auth_repo"
	"stockerp/internal/infrastructure/storage/postgres/catalog_repo"
	"stockerp/internal/infrastructure/storage/postgres/document_repo"
	"stockerp/internal/infrastructure/storage/postgres/register_repo"
	"stockerp/pkg/logger"
)

// documentLockTTL bounds how long a crashed instance can hold a document lock.
const documentLockTTL = 30 * time.Second

type itemStore interface {
	items.Repository
	alerts.ItemSource
}

// backend is one storage implementation of every repository.
type backend struct {
	txm       tx.Manager
	stock     ledger.Repository
	items     itemStore
	pricing   pricing.Repository
	documents documents.Repository
	access    access.Repository
	counter   corenumerator.Counter

	// notifier publishes committed stock changes to other instances; nil for memory.
	notifier ledger.Notifier
	// listen starts receiving changes published by other instances.
	listen func(ctx context.Context, handler changefeed.Handler)

	checks  []handlers.HealthCheck
	closers []func()
}

// app is the wired service graph.
type app struct {
	cfg    config.Config
	log    *logger.Logger
	origin string

	Access    *access.Service
	Items     *items.Service
	Ledger    *ledger.Service
	Documents *documents.Service
	Alerts    *alerts.Service
	Pricing   *pricing.Service
	Reports   *reports.Service

	Checks []handlers.HealthCheck

	closers []func()
}

// newApp connects storage and builds the services.
func newApp(ctx context.Context, cfg config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, origin: instanceID()}

	var (
		b   *backend
		err error
	)
	switch cfg.Storage {
	case config.StoragePostgres:
		b, err = newPostgresBackend(ctx, cfg, log, a.origin)
	default:
		b = newMemoryBackend()
	}
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, b.closers...)
	a.Checks = append(a.Checks, b.checks...)

	var (
		locker     documents.Locker = lock.NewKeyedMutex()
		alertCache alerts.Cache     = cache.NewMemoryAlertCache(cfg.AlertCacheTTL)
		feed       *changefeed.RedisFeed
	)
	if cfg.RedisURL != "" {
		rdb, err := newRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		a.Checks = append(a.Checks, handlers.HealthCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})

		locker = lock.NewRedisLocker(rdb, documentLockTTL)
		alertCache = cache.NewRedisAlertCache(rdb, cfg.AlertCacheTTL)
		feed = changefeed.NewRedisFeed(rdb, a.origin)
		log.Infow("redis enabled", "alert_cache_ttl", cfg.AlertCacheTTL)
	}

	evaluator := access.NewEvaluator(cfg.AllAccessRole)
	a.Access = access.NewService(b.access, evaluator)
	if err := a.Access.SeedRoles(ctx, access.DefaultRoles()); err != nil {
		a.Close()
		return nil, fmt.Errorf("seed roles: %w", err)
	}

	a.Ledger = ledger.NewService(b.stock, b.txm)
	a.Items = items.NewService(b.items, a.Ledger, b.txm)
	a.Pricing = pricing.NewService(b.pricing, b.txm)
	a.Alerts = alerts.NewService(b.items, a.Ledger, alertCache, b.txm)
	a.Reports = reports.NewService(a.Ledger)

	notifier := changefeed.Fanout{a.Alerts}
	if b.notifier != nil {
		notifier = append(notifier, b.notifier)
	}
	if feed != nil {
		notifier = append(notifier, feed)
	}
	a.Ledger.SetNotifier(notifier)
	a.Items.SetNotifier(notifier)

	a.Documents = documents.NewService(documents.Config{
		Repo:      b.documents,
		Ledger:    a.Ledger,
		Numbers:   corenumerator.NewService(b.counter),
		Evaluator: evaluator,
		TxManager: b.txm,
		Locker:    locker,
		Prices:    a.Pricing,
		Notifier:  notifier,
	})

	// Changes made by other instances only need to drop the local alert cache.
	remote := func(ctx context.Context, e changefeed.Event) {
		if e.Origin == a.origin {
			return
		}
		ctx = appctx.EnsureTrace(ctx, appctx.SourceChangeFeed)
		logger.Debug(ctx, "remote stock change", "origin", e.Origin, "items", len(e.ItemIDs))
		a.Alerts.Invalidate(ctx)
	}
	if b.listen != nil {
		b.listen(ctx, remote)
	}
	if feed != nil {
		if err := feed.Subscribe(ctx, remote); err != nil {
			log.Warnw("redis change feed unavailable", "error", err)
		}
		a.closers = append(a.closers, feed.Close)
	}

	return a, nil
}

// Close releases storage and background listeners in reverse order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func newMemoryBackend() *backend {
	store := memory.New()
	return &backend{
		txm:       store,
		stock:     store.Ledger(),
		items:     store.Items(),
		pricing:   store.Pricing(),
		documents: store.Documents(),
		access:    store.Access(),
		counter:   corenumerator.NewMemoryCounter(),
		checks:    []handlers.HealthCheck{{Name: "storage", Ping: store.Ping}},
	}
}

func newPostgresBackend(ctx context.Context, cfg config.Config, log *logger.Logger, origin string) (*backend, error) {
	if cfg.MigrationsAuto {
		if err := postgres.MigrateUp(ctx, cfg.DatabaseURL, cfg.Development()); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = int32(cfg.DBMaxConns)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Infow("database connection established", "max_conns", poolCfg.MaxConns)

	codec, err := postgres.NewSnapshotCodec(postgres.DefaultCompressThreshold)
	if err != nil {
		pool.Close()
		return nil, err
	}

	txm := postgres.NewTxManager(pool)
	var listener *changefeed.PostgresListener

	b := &backend{
		txm:       txm,
		stock:     register_repo.NewStockRepo(txm),
		items:     catalog_repo.NewItemRepo(txm),
		pricing:   catalog_repo.NewPricingRepo(txm),
		documents: document_repo.NewDocumentRepo(txm, codec),
		access:    auth_repo.NewAccessRepo(txm),
		counter: numerator.NewCounter(
			func(ctx context.Context) numerator.Querier { return txm.GetQuerier(ctx) },
			corenumerator.Options{Strategy: cfg.NumeratorStrategy, RangeSize: cfg.NumeratorRange},
		),
		notifier: changefeed.NewPostgresNotifier(txm, origin),
		checks:   []handlers.HealthCheck{{Name: "database", Ping: pool.Ping}},
	}
	b.listen = func(ctx context.Context, handler changefeed.Handler) {
		listener = changefeed.NewPostgresListener(pool.Pool, handler)
		listener.Start(ctx)
	}
	b.closers = []func(){
		pool.Close,
		func() {
			if listener != nil {
				listener.Stop()
			}
		},
	}
	return b, nil
}

func newRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return rdb, nil
}

// instanceID tags change events so an instance ignores its own.
func instanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "stockerp"
	}
	return host + "-" + id.New().String()[:8]
}
