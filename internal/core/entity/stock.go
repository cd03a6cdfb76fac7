package entity

import (
	"time"

	"stockerp/internal/core/id"
	"stockerp/internal/core/types"
)

// TransactionType classifies a stock ledger movement.
type TransactionType string

const (
	TxOpeningBalance TransactionType = "opening_balance"
	TxReceipt        TransactionType = "receipt"
	TxIssue          TransactionType = "issue"
	TxTransferIn     TransactionType = "transfer_in"
	TxTransferOut    TransactionType = "transfer_out"
	TxAdjustment     TransactionType = "adjustment"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TxOpeningBalance, TxReceipt, TxIssue, TxTransferIn, TxTransferOut, TxAdjustment:
		return true
	}
	return false
}

// IsInbound reports whether t adds stock at a recorded unit cost.
// Only inbound movements change the average cost.
func (t TransactionType) IsInbound() bool {
	return t == TxOpeningBalance || t == TxReceipt || t == TxTransferIn
}

// IsOutbound reports whether t removes stock.
func (t TransactionType) IsOutbound() bool {
	return t == TxIssue || t == TxTransferOut
}

// WarehouseStock is the derived balance of one item in one warehouse.
// Created lazily on the first movement, never deleted.
type WarehouseStock struct {
	ItemID      id.ID          `db:"item_id" json:"itemId"`
	WarehouseID id.ID          `db:"warehouse_id" json:"warehouseId"`
	OnHand      types.Quantity `db:"on_hand" json:"onHand"`
	Committed   types.Quantity `db:"committed" json:"committed"`
	OnOrder     types.Quantity `db:"on_order" json:"onOrder"`
	AverageCost types.Money    `db:"average_cost" json:"averageCost"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

// NewWarehouseStock returns a zeroed balance row for the pair.
func NewWarehouseStock(itemID, warehouseID id.ID) WarehouseStock {
	return WarehouseStock{
		ItemID:      itemID,
		WarehouseID: warehouseID,
		OnHand:      types.Zero(),
		Committed:   types.Zero(),
		OnOrder:     types.Zero(),
		AverageCost: types.Zero(),
		UpdatedAt:   time.Now().UTC(),
	}
}

// Available returns on-hand + on-order - committed for this row alone.
func (s WarehouseStock) Available() types.Quantity {
	return s.OnHand.Add(s.OnOrder).Sub(s.Committed)
}

// Key returns the composite (item, warehouse) key.
func (s WarehouseStock) Key() string {
	return id.Key(s.ItemID, s.WarehouseID)
}

// StockTransaction is the immutable audit record of one on-hand mutation.
type StockTransaction struct {
	ID           id.ID           `db:"id" json:"id"`
	ItemID       id.ID           `db:"item_id" json:"itemId"`
	WarehouseID  id.ID           `db:"warehouse_id" json:"warehouseId"`
	Type         TransactionType `db:"transaction_type" json:"transactionType"`
	Quantity     types.Quantity  `db:"quantity" json:"quantity"`
	UnitCost     types.Money     `db:"unit_cost" json:"unitCost"`
	BalanceAfter types.Quantity  `db:"balance_after" json:"balanceAfter"`
	DocRef       string          `db:"doc_ref" json:"docRef"`
	CreatedBy    string          `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
}
