package items

import (
	"context"
	"fmt"

	"stockerp/internal/core/apperror"
	appctx "stockerp/internal/core/context"
	"stockerp/internal/core/entity"
	"stockerp/internal/core/id"
	"stockerp/internal/core/tx"
	"stockerp/internal/core/types"
	"stockerp/internal/domain"
	"stockerp/internal/domain/ledger"
	"stockerp/pkg/logger"
)

// CreateInput is an item plus its opening balances.
type CreateInput struct {
	Item            *Item
	OpeningBalances []OpeningBalance
}

// Summary aggregates the stock of one item over all warehouses.
type Summary struct {
	Item      *Item                   `json:"item"`
	Rows      []entity.WarehouseStock `json:"rows"`
	OnHand    types.Quantity          `json:"onHand"`
	Committed types.Quantity          `json:"committed"`
	OnOrder   types.Quantity          `json:"onOrder"`
	Available types.Quantity          `json:"available"`
	// AverageCost is weighted by on-hand quantity over warehouses with positive stock.
	AverageCost types.Money `json:"averageCost"`
}

// Service provides business logic for item master data.
type Service struct {
	repo     Repository
	ledger   *ledger.Service
	txm      tx.Manager
	notifier ledger.Notifier
}

// NewService creates a new item service.
func NewService(repo Repository, ledgerSvc *ledger.Service, txm tx.Manager) *Service {
	return &Service{repo: repo, ledger: ledgerSvc, txm: txm}
}

// SetNotifier installs the notifier told about committed item changes.
// Alert thresholds live on the item, so master data edits count as stock changes.
func (s *Service) SetNotifier(n ledger.Notifier) {
	s.notifier = n
}

// Create stores a new item and records its opening balances in one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Item, error) {
	item := in.Item
	if item == nil {
		return nil, apperror.NewValidation("item is required")
	}
	if err := item.Validate(ctx); err != nil {
		return nil, err
	}
	if len(in.OpeningBalances) > 0 && !item.IsInventoryItem {
		return nil, apperror.NewValidation("opening balances require an inventory item").
			WithDetail("field", "openingBalances")
	}

	base := entity.NewBaseEntity(appctx.GetUserID(ctx))
	item.BaseEntity = base
	item.IsActive = true

	movements := make([]ledger.Movement, 0, len(in.OpeningBalances))
	for i, ob := range in.OpeningBalances {
		if !ob.Quantity.IsPositive() {
			return nil, apperror.NewValidation("opening quantity must be positive").
				WithDetail("field", fmt.Sprintf("openingBalances[%d].quantity", i))
		}
		movements = append(movements, ledger.Movement{
			ItemID:      item.ID,
			WarehouseID: ob.WarehouseID,
			Type:        entity.TxOpeningBalance,
			Quantity:    ob.Quantity,
			UnitCost:    ob.UnitCost,
			DocRef:      OpeningDocRef(item.Code),
		})
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, item); err != nil {
			return err
		}
		if len(movements) == 0 {
			return nil
		}
		_, err := s.ledger.ApplyMovements(ctx, movements)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "item created",
		"item_id", item.ID,
		"code", item.Code,
		"opening_balances", len(movements),
	)
	s.notify(ctx, item.ID)
	return item, nil
}

// Get returns an item by id.
func (s *Service) Get(ctx context.Context, itemID id.ID) (*Item, error) {
	return s.repo.GetByID(ctx, itemID)
}

// GetByCode returns an item by its code.
func (s *Service) GetByCode(ctx context.Context, code string) (*Item, error) {
	return s.repo.GetByCode(ctx, code)
}

// List returns a page of items.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[*Item], error) {
	filter.ListFilter = filter.ListFilter.Normalize()
	return s.repo.List(ctx, filter)
}

// Update replaces the editable fields of an item.
// The caller's Version must match the stored one.
func (s *Service) Update(ctx context.Context, item *Item) (*Item, error) {
	if err := item.Validate(ctx); err != nil {
		return nil, err
	}

	var out *Item
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetByID(ctx, item.ID)
		if err != nil {
			return err
		}
		if !existing.IsActive {
			return apperror.NewValidation("inactive items cannot be edited").WithDetail("id", item.ID)
		}
		if item.Version != 0 && item.Version != existing.Version {
			return apperror.NewConflict("item was modified by another request").
				WithDetail("expectedVersion", item.Version).
				WithDetail("actualVersion", existing.Version)
		}

		updated := *item
		updated.BaseEntity = existing.BaseEntity
		updated.IsActive = existing.IsActive
		updated.Touch()

		if err := s.repo.Update(ctx, &updated); err != nil {
			return err
		}
		out = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "item updated", "item_id", out.ID, "version", out.Version)
	s.notify(ctx, out.ID)
	return out, nil
}

// Deactivate marks an item inactive. Items are never hard-deleted.
func (s *Service) Deactivate(ctx context.Context, itemID id.ID) (*Item, error) {
	var out *Item
	changed := false
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if !item.IsActive {
			out = item
			return nil
		}
		item.IsActive = false
		item.Touch()
		if err := s.repo.Update(ctx, item); err != nil {
			return err
		}
		out = item
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return out, nil
	}

	logger.Info(ctx, "item deactivated", "item_id", itemID)
	s.notify(ctx, itemID)
	return out, nil
}

func (s *Service) notify(ctx context.Context, itemID id.ID) {
	if s.notifier == nil {
		return
	}
	s.notifier.StockChanged(ctx, []id.ID{itemID})
}

// StockSummary returns the item with its per-warehouse rows and totals.
func (s *Service) StockSummary(ctx context.Context, itemID id.ID) (*Summary, error) {
	item, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	rows, err := s.ledger.Balances(ctx, ledger.StockFilter{ItemIDs: []id.ID{itemID}})
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}
	return Summarize(item, rows), nil
}

// Summarize totals balance rows of one item.
func Summarize(item *Item, rows []entity.WarehouseStock) *Summary {
	sum := &Summary{
		Item:        item,
		Rows:        rows,
		OnHand:      types.Zero(),
		Committed:   types.Zero(),
		OnOrder:     types.Zero(),
		AverageCost: types.Zero(),
	}
	value := types.Zero()
	valuedQty := types.Zero()
	for _, r := range rows {
		sum.OnHand = sum.OnHand.Add(r.OnHand)
		sum.Committed = sum.Committed.Add(r.Committed)
		sum.OnOrder = sum.OnOrder.Add(r.OnOrder)
		if r.OnHand.IsPositive() {
			value = value.Add(r.OnHand.Mul(r.AverageCost))
			valuedQty = valuedQty.Add(r.OnHand)
		}
	}
	sum.Available = sum.OnHand.Add(sum.OnOrder).Sub(sum.Committed)
	if valuedQty.IsPositive() {
		sum.AverageCost = types.RoundCost(value.DivRound(valuedQty, types.CostPlaces+4))
	}
	return sum
}
