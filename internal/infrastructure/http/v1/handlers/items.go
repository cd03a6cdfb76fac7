package handlers

import (
	"github.com/gin-gonic/gin"

	"stockerp/internal/core/entity"
	"stockerp/internal/domain/items"
	"stockerp/internal/infrastructure/http/v1/dto"
)

// ItemHandler handles item master data requests.
type ItemHandler struct {
	*BaseHandler
	service *items.Service
}

// NewItemHandler creates a new item handler.
func NewItemHandler(base *BaseHandler, service *items.Service) *ItemHandler {
	return &ItemHandler{BaseHandler: base, service: service}
}

// Create creates an item and records its opening balances.
// POST /items
func (h *ItemHandler) Create(c *gin.Context) {
	var req dto.CreateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}
	for _, ob := range req.OpeningBalances {
		if !h.RequireWarehouses(c, ob.WarehouseID) {
			return
		}
	}

	item, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, item)
}

// Get returns one item.
// GET /items/:id
func (h *ItemHandler) Get(c *gin.Context) {
	itemID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	item, err := h.service.Get(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// List returns a page of items.
// GET /items
func (h *ItemHandler) List(c *gin.Context) {
	var q dto.ItemListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}
	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(result))
}

// Update replaces the editable fields of an item.
// PUT /items/:id
func (h *ItemHandler) Update(c *gin.Context) {
	itemID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	item, err := h.service.Get(ctx, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.ApplyTo(item)
	item.Version = req.Version

	updated, err := h.service.Update(ctx, item)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, updated)
}

// Deactivate marks an item inactive.
// POST /items/:id/deactivate
func (h *ItemHandler) Deactivate(c *gin.Context) {
	itemID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	item, err := h.service.Deactivate(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// StockSummary returns the item's balances in the warehouses the caller can see.
// GET /items/:id/stock
func (h *ItemHandler) StockSummary(c *gin.Context) {
	itemID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	summary, err := h.service.StockSummary(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	snap := h.Snapshot(c)
	visible := make([]entity.WarehouseStock, 0, len(summary.Rows))
	for _, row := range summary.Rows {
		if h.evaluator.HasWarehouseAccess(snap, row.WarehouseID) {
			visible = append(visible, row)
		}
	}
	h.OK(c, items.Summarize(summary.Item, visible))
}
