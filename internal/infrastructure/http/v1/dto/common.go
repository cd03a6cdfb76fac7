// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"strings"
	"time"

	"stockerp/internal/core/apperror"
	"stockerp/internal/core/id"
	"stockerp/internal/domain"
)

// --- Envelope ---

// Response wraps every successful command or query result.
type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// OK wraps data in a success envelope.
func OK(data any) Response {
	return Response{Success: true, Data: data}
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Success bool           `json:"success"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// FromAppError converts an AppError to the failure envelope.
func FromAppError(err *apperror.AppError) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Code:    err.Code,
		Message: err.Message,
		Details: err.Details,
	}
}

// --- Pagination ---

// ListQuery contains common list parameters.
type ListQuery struct {
	Search          string `form:"search"`
	IDs             string `form:"ids"`
	IncludeInactive bool   `form:"includeInactive"`
	OrderBy         string `form:"orderBy"`
	Limit           int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset          int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the query to a domain filter.
func (q ListQuery) ToFilter() (domain.ListFilter, error) {
	f := domain.ListFilter{
		Search:          strings.TrimSpace(q.Search),
		IncludeInactive: q.IncludeInactive,
		OrderBy:         q.OrderBy,
		Limit:           q.Limit,
		Offset:          q.Offset,
	}
	ids, err := ParseIDList(q.IDs, "ids")
	if err != nil {
		return domain.ListFilter{}, err
	}
	f.IDs = ids
	return f.Normalize(), nil
}

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// FromListResult converts a domain list result.
func FromListResult[T any](r domain.ListResult[T]) ListResponse[T] {
	items := r.Items
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{
		Items:      items,
		TotalCount: r.TotalCount,
		Limit:      r.Limit,
		Offset:     r.Offset,
	}
}

// --- IDs ---

// ParseIDList parses a comma-separated id list. Empty input yields nil.
func ParseIDList(raw, field string) ([]id.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]id.ID, 0, len(parts))
	for _, p := range parts {
		v, err := ParseID(p, field)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseID parses one id, reporting the field on failure.
func ParseID(raw, field string) (id.ID, error) {
	v, err := id.Parse(strings.TrimSpace(raw))
	if err != nil {
		return id.Nil(), apperror.NewValidation("invalid id").WithDetail("field", field)
	}
	return v, nil
}

// ParseOptionalID parses an id when raw is not empty.
func ParseOptionalID(raw, field string) (*id.ID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	v, err := ParseID(raw, field)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ParseOptionalTime parses an RFC 3339 timestamp when raw is not empty.
func ParseOptionalTime(raw, field string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperror.NewValidation("invalid "+field+": expected RFC 3339 timestamp").
			WithDetail("field", field)
	}
	t = t.UTC()
	return &t, nil
}
