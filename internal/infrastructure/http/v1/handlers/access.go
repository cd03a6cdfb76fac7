package handlers

import (
	"github.com/gin-gonic/gin"

	"stockerp/internal/core/apperror"
	appctx "stockerp/internal/core/context"
	"stockerp/internal/domain/access"
	"stockerp/internal/infrastructure/http/v1/dto"
)

// AccessHandler exposes the caller's permission snapshot.
type AccessHandler struct {
	*BaseHandler
	service *access.Service
}

// NewAccessHandler creates a new access handler.
func NewAccessHandler(base *BaseHandler, service *access.Service) *AccessHandler {
	return &AccessHandler{BaseHandler: base, service: service}
}

// Me returns the snapshot loaded for this request.
// GET /access/me
func (h *AccessHandler) Me(c *gin.Context) {
	h.OK(c, dto.FromSnapshot(h.Snapshot(c), h.evaluator))
}

// Refresh reloads the caller's permissions from storage.
// POST /access/refresh
func (h *AccessHandler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()
	actor := appctx.GetActor(ctx)
	if actor == nil {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return
	}
	snap, err := h.service.Refresh(ctx, *actor)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSnapshot(snap, h.evaluator))
}
