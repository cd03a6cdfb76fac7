package dto

import (
	"strings"

	"stockerp/internal/core/types"
	"stockerp/internal/domain/documents"
)

// TransitionRequest runs a lifecycle action.
type TransitionRequest struct {
	Action string `json:"action" binding:"required"`
	Note   string `json:"note"`
}

// CountRequest records a counted quantity on a cycle count line.
type CountRequest struct {
	LineNo     int            `json:"lineNo" binding:"required,min=1"`
	CountedQty types.Quantity `json:"countedQty"`
}

// PickRequest records a picked quantity on a pick list line.
type PickRequest struct {
	LineNo   int            `json:"lineNo" binding:"required,min=1"`
	Quantity types.Quantity `json:"quantity"`
}

// AnnotateRequest adds a note to the document history.
type AnnotateRequest struct {
	Note string `json:"note" binding:"required"`
}

// DocumentListQuery filters the document list.
type DocumentListQuery struct {
	ListQuery
	// Types is a comma-separated list of document types.
	Types       string `form:"type"`
	Status      string `form:"status"`
	WarehouseID string `form:"warehouseId"`
	SourceDocID string `form:"sourceDocId"`
}

// ToFilter converts the query to a document filter.
func (q DocumentListQuery) ToFilter() (documents.Filter, error) {
	base, err := q.ListQuery.ToFilter()
	if err != nil {
		return documents.Filter{}, err
	}
	f := documents.Filter{ListFilter: base, Status: documents.Status(strings.TrimSpace(q.Status))}

	if raw := strings.TrimSpace(q.Types); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			t, err := documents.ParseDocType(strings.TrimSpace(p))
			if err != nil {
				return documents.Filter{}, err
			}
			f.Types = append(f.Types, t)
		}
	}
	if f.WarehouseID, err = ParseOptionalID(q.WarehouseID, "warehouseId"); err != nil {
		return documents.Filter{}, err
	}
	if f.SourceDocID, err = ParseOptionalID(q.SourceDocID, "sourceDocId"); err != nil {
		return documents.Filter{}, err
	}
	return f, nil
}
