package dto

import (
	"strings"

	"stockerp/internal/core/entity"
	"stockerp/internal/core/id"
	"stockerp/internal/core/types"
	"stockerp/internal/domain/ledger"
)

// MovementRequest applies one manual stock movement.
type MovementRequest struct {
	ItemID        id.ID                  `json:"itemId" binding:"required"`
	WarehouseID   id.ID                  `json:"warehouseId" binding:"required"`
	Type          entity.TransactionType `json:"type" binding:"required"`
	Quantity      types.Quantity         `json:"quantity"`
	UnitCost      types.Money            `json:"unitCost"`
	DocRef        string                 `json:"docRef" binding:"required"`
	AllowNegative bool                   `json:"allowNegative"`
}

// ToMovement converts the request to a ledger movement.
func (r MovementRequest) ToMovement() ledger.Movement {
	return ledger.Movement{
		ItemID:        r.ItemID,
		WarehouseID:   r.WarehouseID,
		Type:          r.Type,
		Quantity:      r.Quantity,
		UnitCost:      r.UnitCost,
		DocRef:        strings.TrimSpace(r.DocRef),
		AllowNegative: r.AllowNegative,
	}
}

// TransferRequest moves stock between two warehouses.
type TransferRequest struct {
	ItemID          id.ID          `json:"itemId" binding:"required"`
	FromWarehouseID id.ID          `json:"fromWarehouseId" binding:"required"`
	ToWarehouseID   id.ID          `json:"toWarehouseId" binding:"required"`
	Quantity        types.Quantity `json:"quantity"`
	DocRef          string         `json:"docRef" binding:"required"`
	AllowNegative   bool           `json:"allowNegative"`
}

// ToTransfer converts the request to a ledger transfer.
func (r TransferRequest) ToTransfer() ledger.TransferRequest {
	return ledger.TransferRequest{
		ItemID:          r.ItemID,
		FromWarehouseID: r.FromWarehouseID,
		ToWarehouseID:   r.ToWarehouseID,
		Quantity:        r.Quantity,
		DocRef:          strings.TrimSpace(r.DocRef),
		AllowNegative:   r.AllowNegative,
	}
}

// BalanceQuery filters balance rows.
type BalanceQuery struct {
	ItemIDs      string `form:"itemId"`
	WarehouseIDs string `form:"warehouseId"`
	ExcludeZero  bool   `form:"excludeZero"`
}

// ToFilter converts the query to a stock filter.
func (q BalanceQuery) ToFilter() (ledger.StockFilter, error) {
	items, err := ParseIDList(q.ItemIDs, "itemId")
	if err != nil {
		return ledger.StockFilter{}, err
	}
	warehouses, err := ParseIDList(q.WarehouseIDs, "warehouseId")
	if err != nil {
		return ledger.StockFilter{}, err
	}
	return ledger.StockFilter{ItemIDs: items, WarehouseIDs: warehouses, ExcludeZero: q.ExcludeZero}, nil
}

// TransactionQuery filters the audit trail.
type TransactionQuery struct {
	ItemID      string `form:"itemId"`
	WarehouseID string `form:"warehouseId"`
	DocRef      string `form:"docRef"`
	From        string `form:"from"`
	To          string `form:"to"`
	Limit       int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset      int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query to a transaction filter.
func (q TransactionQuery) ToFilter() (ledger.TransactionFilter, error) {
	f := ledger.TransactionFilter{
		DocRef: strings.TrimSpace(q.DocRef),
		Limit:  q.Limit,
		Offset: q.Offset,
	}
	var err error
	if f.ItemID, err = ParseOptionalID(q.ItemID, "itemId"); err != nil {
		return ledger.TransactionFilter{}, err
	}
	if f.WarehouseID, err = ParseOptionalID(q.WarehouseID, "warehouseId"); err != nil {
		return ledger.TransactionFilter{}, err
	}
	if f.From, err = ParseOptionalTime(q.From, "from"); err != nil {
		return ledger.TransactionFilter{}, err
	}
	if f.To, err = ParseOptionalTime(q.To, "to"); err != nil {
		return ledger.TransactionFilter{}, err
	}
	return f, nil
}
