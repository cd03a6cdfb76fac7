package handlers

import (
	"github.com/gin-gonic/gin"

	"stockerp/internal/domain/documents"
	"stockerp/internal/infrastructure/http/v1/dto"
)

// DocumentHandler handles business document requests.
// Permission and warehouse checks are done by the document service.
type DocumentHandler struct {
	*BaseHandler
	service *documents.Service
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(base *BaseHandler, service *documents.Service) *DocumentHandler {
	return &DocumentHandler{BaseHandler: base, service: service}
}

// Create creates a document in its initial status.
// POST /documents
func (h *DocumentHandler) Create(c *gin.Context) {
	var req documents.CreateInput
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// Get returns one document with its lines.
// GET /documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	docID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	doc, err := h.service.Get(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// List returns a page of documents.
// GET /documents
func (h *DocumentHandler) List(c *gin.Context) {
	var q dto.DocumentListQuery
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

// Update replaces a document that is still in its initial status.
// PUT /documents/:id
func (h *DocumentHandler) Update(c *gin.Context) {
	docID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req documents.UpdateInput
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.service.UpdateDraft(c.Request.Context(), docID, req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Transition runs a lifecycle action.
// POST /documents/:id/transitions
func (h *DocumentHandler) Transition(c *gin.Context) {
	docID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.TransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	action, err := documents.ParseAction(req.Action)
	if err != nil {
		h.Error(c, err)
		return
	}
	doc, err := h.service.Transition(c.Request.Context(), docID, action, req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// RecordCount records a counted quantity on a cycle count.
// POST /documents/:id/count
func (h *DocumentHandler) RecordCount(c *gin.Context) {
	docID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.CountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.service.RecordCount(c.Request.Context(), docID, req.LineNo, req.CountedQty)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// RecordPick records a picked quantity on a pick list.
// POST /documents/:id/pick
func (h *DocumentHandler) RecordPick(c *gin.Context) {
	docID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.PickRequest
	if !h.BindJSON(c, &req) {
		return
	}
	doc, err := h.service.RecordPick(c.Request.Context(), docID, req.LineNo, req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Annotate adds a note to the document history.
// POST /documents/:id/notes
func (h *DocumentHandler) Annotate(c *gin.Context) {
	docID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req dto.AnnotateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	entry, err := h.service.Annotate(c.Request.Context(), docID, req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, entry)
}

// History returns the audit log of a document, oldest first.
// GET /documents/:id/history
func (h *DocumentHandler) History(c *gin.Context) {
	docID, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	entries, err := h.service.History(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []documents.AuditEntry{}
	}
	h.OK(c, entries)
}
