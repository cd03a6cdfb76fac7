package handlers

import (
	"github.com/gin-gonic/gin"

	"stockerp/internal/domain/alerts"
)

// AlertHandler serves low-stock and reorder alerts.
type AlertHandler struct {
	*BaseHandler
	service *alerts.Service
}

// NewAlertHandler creates a new alert handler.
func NewAlertHandler(base *BaseHandler, service *alerts.Service) *AlertHandler {
	return &AlertHandler{BaseHandler: base, service: service}
}

// Current returns the cached alert snapshot.
// GET /alerts
func (h *AlertHandler) Current(c *gin.Context) {
	snap, err := h.service.Current(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, snap)
}

// Refresh re-evaluates alerts from the ledger.
// POST /alerts/refresh
func (h *AlertHandler) Refresh(c *gin.Context) {
	snap, err := h.service.Refresh(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, snap)
}
