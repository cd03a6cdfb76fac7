package handlers

import (
	"github.com/gin-gonic/gin"

	"stockerp/internal/core/id"
	"stockerp/internal/domain/reports"
	"stockerp/internal/infrastructure/http/v1/dto"
)

// ReportHandler serves ledger reports.
type ReportHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportHandler creates a new report handler.
func NewReportHandler(base *BaseHandler, service *reports.Service) *ReportHandler {
	return &ReportHandler{BaseHandler: base, service: service}
}

// StockTurnover returns opening, receipt, expense and closing quantities per
// item and warehouse, limited to the warehouses the caller can see.
// GET /reports/stock-turnover?fromDate=&toDate=
func (h *ReportHandler) StockTurnover(c *gin.Context) {
	var q dto.TurnoverQuery
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

	snap := h.Snapshot(c)
	filter.Visible = func(warehouseID id.ID) bool {
		return h.evaluator.HasWarehouseAccess(snap, warehouseID)
	}

	report, err := h.service.StockTurnover(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}
