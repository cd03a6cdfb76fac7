package memory

import (
	"context"
	"slices"
	"strings"

	"stockerp/internal/core/apperror"
	"stockerp/internal/core/id"
	"stockerp/internal/domain"
	"stockerp/internal/domain/documents"
)

var _ documents.Repository = (*DocumentRepo)(nil)

// DocumentRepo implements documents.Repository.
type DocumentRepo struct {
	s *Store
}

func (r *DocumentRepo) Create(ctx context.Context, doc *documents.Document) error {
	return r.s.write(ctx, func(st *state) error {
		if _, exists := st.docNumbers[doc.Number]; exists {
			return apperror.NewDuplicate("document", "number", doc.Number)
		}
		st.docs[doc.ID] = doc.Clone()
		st.docNumbers[doc.Number] = doc.ID
		return nil
	})
}

func (r *DocumentRepo) GetByID(ctx context.Context, docID id.ID) (*documents.Document, error) {
	var out *documents.Document
	err := r.s.read(ctx, func(st *state) error {
		doc, ok := st.docs[docID]
		if !ok {
			return apperror.NewNotFound("document", docID)
		}
		out = doc.Clone()
		return nil
	})
	return out, err
}

// GetForUpdate relies on the transaction's writer lock.
func (r *DocumentRepo) GetForUpdate(ctx context.Context, docID id.ID) (*documents.Document, error) {
	var out *documents.Document
	err := r.s.write(ctx, func(st *state) error {
		doc, ok := st.docs[docID]
		if !ok {
			return apperror.NewNotFound("document", docID)
		}
		out = doc.Clone()
		return nil
	})
	return out, err
}

func (r *DocumentRepo) Update(ctx context.Context, doc *documents.Document, expectedVersion int) error {
	return r.s.write(ctx, func(st *state) error {
		existing, ok := st.docs[doc.ID]
		if !ok {
			return apperror.NewNotFound("document", doc.ID)
		}
		if existing.Version != expectedVersion {
			return apperror.NewConflict("document was modified concurrently").
				WithDetail("expectedVersion", expectedVersion).
				WithDetail("actualVersion", existing.Version)
		}
		st.docs[doc.ID] = doc.Clone()
		return nil
	})
}

func (r *DocumentRepo) List(ctx context.Context, filter documents.Filter) (domain.ListResult[*documents.Document], error) {
	var matched []*documents.Document
	err := r.s.read(ctx, func(st *state) error {
		search := strings.ToLower(strings.TrimSpace(filter.Search))
		for _, doc := range st.docs {
			if len(filter.Types) > 0 && !slices.Contains(filter.Types, doc.Type) {
				continue
			}
			if filter.Status != "" && doc.Status != filter.Status {
				continue
			}
			if filter.WarehouseID != nil && doc.WarehouseID != *filter.WarehouseID {
				continue
			}
			if filter.SourceDocID != nil && (doc.SourceDocID == nil || *doc.SourceDocID != *filter.SourceDocID) {
				continue
			}
			if len(filter.IDs) > 0 && !slices.Contains(filter.IDs, doc.ID) {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(doc.Number), search) {
				continue
			}
			matched = append(matched, doc.Clone())
		}
		return nil
	})
	if err != nil {
		return domain.ListResult[*documents.Document]{}, err
	}

	// Newest first; UUIDv7 ids break ties in creation order.
	slices.SortFunc(matched, func(a, b *documents.Document) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(b.ID[:], a.ID[:])
	})
	return domain.Page(matched, filter.ListFilter), nil
}

func (r *DocumentRepo) AppendAudit(ctx context.Context, entry documents.AuditEntry) error {
	return r.s.write(ctx, func(st *state) error {
		st.audit[entry.DocumentID] = append(st.audit[entry.DocumentID], entry)
		return nil
	})
}

func (r *DocumentRepo) ListAudit(ctx context.Context, docID id.ID) ([]documents.AuditEntry, error) {
	var out []documents.AuditEntry
	err := r.s.read(ctx, func(st *state) error {
		out = slices.Clone(st.audit[docID])
		return nil
	})
	if out == nil {
		out = []documents.AuditEntry{}
	}
	return out, err
}
