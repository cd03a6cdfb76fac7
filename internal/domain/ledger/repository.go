// Package ledger provides the stock ledger: the sole mutator of warehouse balances.
package ledger

import (
	"context"
	"time"

	"stockerp/internal/core/entity"
	"stockerp/internal/core/id"
	"stockerp/internal/core/types"
)

// Repository defines storage operations for the stock ledger.
// Write methods must be called inside a transaction from tx.Manager.
type Repository interface {
	// GetStockForUpdate returns the balance row with a row lock held until the
	// transaction ends, creating a zeroed row when the pair is new.
	GetStockForUpdate(ctx context.Context, itemID, warehouseID id.ID) (entity.WarehouseStock, error)

	// SaveStock writes the balance row.
	SaveStock(ctx context.Context, stock entity.WarehouseStock) error

	// AppendTransaction inserts an immutable audit row.
	AppendTransaction(ctx context.Context, txn entity.StockTransaction) error

	// GetStock returns the committed balance row or a NotFound error.
	GetStock(ctx context.Context, itemID, warehouseID id.ID) (entity.WarehouseStock, error)

	// ListStock returns balance rows matching the filter.
	ListStock(ctx context.Context, filter StockFilter) ([]entity.WarehouseStock, error)

	// ListTransactions returns audit rows matching the filter, oldest first.
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]entity.StockTransaction, error)

	// SumTransactions returns the sum of signed quantities for the pair.
	SumTransactions(ctx context.Context, itemID, warehouseID id.ID) (types.Quantity, error)
}

// StockFilter narrows balance queries.
type StockFilter struct {
	ItemIDs      []id.ID
	WarehouseIDs []id.ID
	ExcludeZero  bool
}

// TransactionFilter narrows audit trail queries.
type TransactionFilter struct {
	ItemID      *id.ID
	WarehouseID *id.ID
	DocRef      string
	// From is inclusive, To exclusive.
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}
