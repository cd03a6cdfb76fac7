// Package handlers provides the HTTP handlers of the v1 API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockerp/internal/core/apperror"
	"stockerp/internal/core/id"
	"stockerp/internal/domain/access"
	"stockerp/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct {
	evaluator *access.Evaluator
}

// NewBaseHandler creates a new base handler.
func NewBaseHandler(evaluator *access.Evaluator) *BaseHandler {
	return &BaseHandler{evaluator: evaluator}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers err on the gin context and aborts the request.
// The response is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// PathID parses an id path parameter.
func (h *BaseHandler) PathID(c *gin.Context, name string) (id.ID, bool) {
	v, err := dto.ParseID(c.Param(name), name)
	if err != nil {
		h.Error(c, err)
		return id.Nil(), false
	}
	return v, true
}

// Snapshot returns the caller's permission snapshot.
func (h *BaseHandler) Snapshot(c *gin.Context) access.Snapshot {
	return access.SnapshotFromContext(c.Request.Context())
}

// RequireWarehouses fails unless the caller may work with every listed warehouse.
func (h *BaseHandler) RequireWarehouses(c *gin.Context, warehouseIDs ...id.ID) bool {
	snap := h.Snapshot(c)
	for _, w := range warehouseIDs {
		if err := h.evaluator.RequireWarehouse(snap, w); err != nil {
			h.Error(c, err)
			return false
		}
	}
	return true
}

// OK sends 200 with the success envelope.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.OK(data))
}

// Created sends 201 with the success envelope.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.OK(data))
}
