package handlers

import (
	"github.com/gin-gonic/gin"

	"stockerp/internal/core/entity"
	"stockerp/internal/domain/access"
	"stockerp/internal/domain/ledger"
	"stockerp/internal/infrastructure/http/v1/dto"
)

// LedgerHandler exposes stock balances, the audit trail and manual movements.
type LedgerHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(base *BaseHandler, service *ledger.Service) *LedgerHandler {
	return &LedgerHandler{BaseHandler: base, service: service}
}

// Balances returns balance rows in the warehouses the caller can see.
// GET /stock/balances
func (h *LedgerHandler) Balances(c *gin.Context) {
	var q dto.BalanceQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}
	if !h.RequireWarehouses(c, filter.WarehouseIDs...) {
		return
	}

	rows, err := h.service.Balances(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	snap := h.Snapshot(c)
	out := make([]entity.WarehouseStock, 0, len(rows))
	for _, r := range rows {
		if h.evaluator.HasWarehouseAccess(snap, r.WarehouseID) {
			out = append(out, r)
		}
	}
	h.OK(c, out)
}

// Transactions returns the audit trail, oldest first.
// GET /stock/transactions
func (h *LedgerHandler) Transactions(c *gin.Context) {
	var q dto.TransactionQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}
	if filter.WarehouseID != nil && !h.RequireWarehouses(c, *filter.WarehouseID) {
		return
	}

	rows, err := h.service.Transactions(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	snap := h.Snapshot(c)
	out := make([]entity.StockTransaction, 0, len(rows))
	for _, r := range rows {
		if h.evaluator.HasWarehouseAccess(snap, r.WarehouseID) {
			out = append(out, r)
		}
	}
	h.OK(c, out)
}

// ApplyMovement applies one manual movement.
// POST /stock/movements
func (h *LedgerHandler) ApplyMovement(c *gin.Context) {
	var req dto.MovementRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if !h.RequireWarehouses(c, req.WarehouseID) || !h.requireOverdraw(c, req.AllowNegative) {
		return
	}

	stock, err := h.service.ApplyMovement(c.Request.Context(), req.ToMovement())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, stock)
}

// Transfer moves stock between two warehouses.
// POST /stock/transfers
func (h *LedgerHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if !h.RequireWarehouses(c, req.FromWarehouseID, req.ToWarehouseID) || !h.requireOverdraw(c, req.AllowNegative) {
		return
	}

	result, err := h.service.Transfer(c.Request.Context(), req.ToTransfer())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, result)
}

// Reconcile compares a balance with the sum of its audit trail.
// GET /stock/reconcile?itemId=&warehouseId=
func (h *LedgerHandler) Reconcile(c *gin.Context) {
	itemID, err := dto.ParseID(c.Query("itemId"), "itemId")
	if err != nil {
		h.Error(c, err)
		return
	}
	warehouseID, err := dto.ParseID(c.Query("warehouseId"), "warehouseId")
	if err != nil {
		h.Error(c, err)
		return
	}
	if !h.RequireWarehouses(c, warehouseID) {
		return
	}

	rec, err := h.service.Reconcile(c.Request.Context(), itemID, warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rec)
}

// requireOverdraw checks stock:approve when a movement may drive stock negative.
func (h *LedgerHandler) requireOverdraw(c *gin.Context, allowNegative bool) bool {
	if !allowNegative {
		return true
	}
	if err := h.evaluator.Require(h.Snapshot(c), access.ResourceStock, access.ActionApprove); err != nil {
		h.Error(c, err)
		return false
	}
	return true
}
