package memory

import (
	"context"
	"slices"
	"strings"

	"stockerp/internal/core/apperror"
	"stockerp/internal/core/entity"
	"stockerp/internal/core/id"
	"stockerp/internal/core/types"
	"stockerp/internal/domain/ledger"
)

var _ ledger.Repository = (*LedgerRepo)(nil)

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	s *Store
}

// GetStockForUpdate returns the row, creating a zeroed one for a new pair.
// The writer lock of the running transaction stands in for the row lock.
func (r *LedgerRepo) GetStockForUpdate(ctx context.Context, itemID, warehouseID id.ID) (entity.WarehouseStock, error) {
	var out entity.WarehouseStock
	err := r.s.write(ctx, func(st *state) error {
		key := id.Key(itemID, warehouseID)
		row, ok := st.stock[key]
		if !ok {
			row = entity.NewWarehouseStock(itemID, warehouseID)
			st.stock[key] = row
		}
		out = row
		return nil
	})
	return out, err
}

func (r *LedgerRepo) SaveStock(ctx context.Context, stock entity.WarehouseStock) error {
	return r.s.write(ctx, func(st *state) error {
		st.stock[stock.Key()] = stock
		return nil
	})
}

func (r *LedgerRepo) AppendTransaction(ctx context.Context, txn entity.StockTransaction) error {
	return r.s.write(ctx, func(st *state) error {
		st.txns = append(st.txns, txn)
		return nil
	})
}

func (r *LedgerRepo) GetStock(ctx context.Context, itemID, warehouseID id.ID) (entity.WarehouseStock, error) {
	var out entity.WarehouseStock
	err := r.s.read(ctx, func(st *state) error {
		row, ok := st.stock[id.Key(itemID, warehouseID)]
		if !ok {
			return apperror.NewNotFound("warehouse_stock", id.Key(itemID, warehouseID))
		}
		out = row
		return nil
	})
	return out, err
}

func (r *LedgerRepo) ListStock(ctx context.Context, filter ledger.StockFilter) ([]entity.WarehouseStock, error) {
	out := make([]entity.WarehouseStock, 0)
	err := r.s.read(ctx, func(st *state) error {
		for _, row := range st.stock {
			if len(filter.ItemIDs) > 0 && !slices.Contains(filter.ItemIDs, row.ItemID) {
				continue
			}
			if len(filter.WarehouseIDs) > 0 && !slices.Contains(filter.WarehouseIDs, row.WarehouseID) {
				continue
			}
			if filter.ExcludeZero && row.OnHand.IsZero() && row.Committed.IsZero() && row.OnOrder.IsZero() {
				continue
			}
			out = append(out, row)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b entity.WarehouseStock) int { return strings.Compare(a.Key(), b.Key()) })
	return out, err
}

func (r *LedgerRepo) ListTransactions(ctx context.Context, filter ledger.TransactionFilter) ([]entity.StockTransaction, error) {
	out := make([]entity.StockTransaction, 0)
	err := r.s.read(ctx, func(st *state) error {
		skipped := 0
		for _, t := range st.txns {
			if filter.ItemID != nil && t.ItemID != *filter.ItemID {
				continue
			}
			if filter.WarehouseID != nil && t.WarehouseID != *filter.WarehouseID {
				continue
			}
			if filter.DocRef != "" && t.DocRef != filter.DocRef {
				continue
			}
			if filter.From != nil && t.CreatedAt.Before(*filter.From) {
				continue
			}
			if filter.To != nil && !t.CreatedAt.Before(*filter.To) {
				continue
			}
			if skipped < filter.Offset {
				skipped++
				continue
			}
			out = append(out, t)
			if filter.Limit > 0 && len(out) == filter.Limit {
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *LedgerRepo) SumTransactions(ctx context.Context, itemID, warehouseID id.ID) (types.Quantity, error) {
	sum := types.Zero()
	err := r.s.read(ctx, func(st *state) error {
		for _, t := range st.txns {
			if t.ItemID == itemID && t.WarehouseID == warehouseID {
				sum = sum.Add(t.Quantity)
			}
		}
		return nil
	})
	return sum, err
}
