package documents

import (
	"context"

	"stockerp/internal/core/id"
	"stockerp/internal/domain"
)

// Filter narrows document listings.
type Filter struct {
	domain.ListFilter

	// Types restricts results to the given types; empty means all.
	Types       []DocType
	Status      Status
	WarehouseID *id.ID
	SourceDocID *id.ID
}

// Repository defines persistence for documents and their audit log.
type Repository interface {
	// Create inserts the header and lines. A duplicate number returns a conflict error.
	Create(ctx context.Context, doc *Document) error

	GetByID(ctx context.Context, docID id.ID) (*Document, error)

	// GetForUpdate returns the document locked until the transaction ends.
	GetForUpdate(ctx context.Context, docID id.ID) (*Document, error)

	// Update replaces header and lines when the stored version equals expectedVersion.
	Update(ctx context.Context, doc *Document, expectedVersion int) error

	List(ctx context.Context, filter Filter) (domain.ListResult[*Document], error)

	AppendAudit(ctx context.Context, entry AuditEntry) error
	ListAudit(ctx context.Context, docID id.ID) ([]AuditEntry, error)
}
