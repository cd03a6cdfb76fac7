package alerts

import (
	"context"
	"fmt"
	"time"

	"stockerp/internal/core/entity"
	"stockerp/internal/core/id"
	"stockerp/internal/core/tx"
	"stockerp/internal/domain/items"
	"stockerp/internal/domain/ledger"
	"stockerp/pkg/logger"
)

// Snapshot is an evaluated alert list.
type Snapshot struct {
	Alerts      []Alert   `json:"alerts"`
	EvaluatedAt time.Time `json:"evaluatedAt"`
}

// Cache stores the last snapshot. Get reports false on a miss.
type Cache interface {
	Get(ctx context.Context) (Snapshot, bool, error)
	Set(ctx context.Context, snap Snapshot) error
	Delete(ctx context.Context) error
}

// ItemSource lists the items to evaluate.
type ItemSource interface {
	ListActiveInventory(ctx context.Context) ([]*items.Item, error)
}

// StockSource lists balance rows.
type StockSource interface {
	Balances(ctx context.Context, filter ledger.StockFilter) ([]entity.WarehouseStock, error)
}

// Service keeps the current alert snapshot.
// It implements ledger.Notifier so stock changes invalidate the cache.
type Service struct {
	items ItemSource
	stock StockSource
	cache Cache
	txm   tx.Manager
	now   func() time.Time
}

// NewService creates the alert service.
func NewService(itemSrc ItemSource, stockSrc StockSource, cache Cache, txm tx.Manager) *Service {
	return &Service{items: itemSrc, stock: stockSrc, cache: cache, txm: txm, now: time.Now}
}

// Current returns the cached snapshot, evaluating on a miss.
// A failing cache is bypassed.
func (s *Service) Current(ctx context.Context) (Snapshot, error) {
	snap, ok, err := s.cache.Get(ctx)
	if err != nil {
		logger.Warn(ctx, "alert cache read failed, evaluating directly", "error", err)
	}
	if ok {
		return snap, nil
	}
	return s.Refresh(ctx)
}

// Refresh re-evaluates alerts from the ledger and replaces the cached snapshot.
func (s *Service) Refresh(ctx context.Context) (Snapshot, error) {
	var (
		itemList []*items.Item
		rows     []entity.WarehouseStock
	)
	// Items and balances are read from one snapshot.
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		itemList, err = s.items.ListActiveInventory(ctx)
		if err != nil {
			return fmt.Errorf("list items: %w", err)
		}

		ids := make([]id.ID, 0, len(itemList))
		for _, it := range itemList {
			ids = append(ids, it.ID)
		}
		if len(ids) == 0 {
			return nil
		}
		rows, err = s.stock.Balances(ctx, ledger.StockFilter{ItemIDs: ids})
		if err != nil {
			return fmt.Errorf("list balances: %w", err)
		}
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Alerts:      Evaluate(itemList, rows),
		EvaluatedAt: s.now().UTC(),
	}
	if err := s.cache.Set(ctx, snap); err != nil {
		logger.Warn(ctx, "alert cache write failed", "error", err)
	}

	logger.Debug(ctx, "alerts evaluated", "items", len(itemList), "alerts", len(snap.Alerts))
	return snap, nil
}

// Invalidate drops the cached snapshot.
func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx); err != nil {
		logger.Warn(ctx, "alert cache invalidation failed", "error", err)
		return
	}
	logger.Debug(ctx, "alert cache invalidated")
}

// StockChanged implements ledger.Notifier.
func (s *Service) StockChanged(ctx context.Context, _ []id.ID) {
	s.Invalidate(ctx)
}
