package handlers

import (
	"github.com/gin-gonic/gin"

	"stockerp/internal/domain/pricing"
	"stockerp/internal/infrastructure/http/v1/dto"
)

// PricingHandler manages price lists and quotes.
type PricingHandler struct {
	*BaseHandler
	service *pricing.Service
}

// NewPricingHandler creates a new pricing handler.
func NewPricingHandler(base *BaseHandler, service *pricing.Service) *PricingHandler {
	return &PricingHandler{BaseHandler: base, service: service}
}

// CreatePriceList creates a price list.
// POST /price-lists
func (h *PricingHandler) CreatePriceList(c *gin.Context) {
	var req dto.CreatePriceListRequest
	if !h.BindJSON(c, &req) {
		return
	}
	pl, err := h.service.CreatePriceList(c.Request.Context(), req.ToModel())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, pl)
}

// ListPriceLists returns every price list.
// GET /price-lists
func (h *PricingHandler) ListPriceLists(c *gin.Context) {
	lists, err := h.service.ListPriceLists(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	if lists == nil {
		lists = []*pricing.PriceList{}
	}
	h.OK(c, lists)
}

// AddTier adds a quantity tier to a price list.
// POST /price-lists/:id/tiers
func (h *PricingHandler) AddTier(c *gin.Context) {
	priceListID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.AddTierRequest
	if !h.BindJSON(c, &req) {
		return
	}
	tier, err := h.service.AddTier(c.Request.Context(), priceListID, req.ToModel())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, tier)
}

// ListTiers returns the tiers of a price list.
// GET /price-lists/:id/tiers?itemId=
func (h *PricingHandler) ListTiers(c *gin.Context) {
	priceListID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	itemID, err := dto.ParseOptionalID(c.Query("itemId"), "itemId")
	if err != nil {
		h.Error(c, err)
		return
	}
	tiers, err := h.service.ListTiers(c.Request.Context(), priceListID, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if tiers == nil {
		tiers = []pricing.Tier{}
	}
	h.OK(c, tiers)
}

// Quote resolves the price of a quantity of an item.
// GET /prices/quote?itemId=&quantity=&priceListId=
func (h *PricingHandler) Quote(c *gin.Context) {
	var q dto.QuoteQuery
	if !h.BindQuery(c, &q) {
		return
	}
	itemID, priceListID, qty, err := q.Parse()
	if err != nil {
		h.Error(c, err)
		return
	}
	quote, found, err := h.service.Lookup(c.Request.Context(), priceListID, itemID, qty)
	if err != nil {
		h.Error(c, err)
		return
	}
	resp := dto.QuoteResponse{Found: found}
	if found {
		resp.Quote = &quote
	}
	h.OK(c, resp)
}
