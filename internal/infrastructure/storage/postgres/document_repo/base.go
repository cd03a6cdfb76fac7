// Package document_repo provides the PostgreSQL document store: headers, lines and the audit log.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockerp/internal/core/apperror"
	"stockerp/internal/core/id"
	"stockerp/internal/domain"
	"stockerp/internal/domain/documents"
	"stockerp/internal/infrastructure/storage/postgres"
)

const (
	documentsTable = "documents"
	linesTable     = "document_lines"
	auditTable     = "document_audit"
)

var (
	headerColumns = postgres.Columns[documents.Document]()
	lineColumns   = append([]string{"document_id"}, postgres.Columns[documents.Line]()...)
	auditColumns  = append(postgres.Columns[documents.AuditEntry](), "compression_algo")
)

// lineRow is a document line with its owner key.
type lineRow struct {
	DocumentID id.ID `db:"document_id"`
	documents.Line
}

// auditRow is a stored audit entry with its snapshot encoding.
type auditRow struct {
	documents.AuditEntry
	CompressionAlgo postgres.CompressionAlgo `db:"compression_algo"`
}

var _ documents.Repository = (*DocumentRepo)(nil)

// DocumentRepo implements documents.Repository.
type DocumentRepo struct {
	txm   *postgres.TxManager
	codec *postgres.SnapshotCodec
}

// NewDocumentRepo creates a document repository. Audit snapshots go through codec.
func NewDocumentRepo(txm *postgres.TxManager, codec *postgres.SnapshotCodec) *DocumentRepo {
	return &DocumentRepo{txm: txm, codec: codec}
}

// Builder returns a new squirrel builder.
func (r *DocumentRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Create inserts the header and lines.
func (r *DocumentRepo) Create(ctx context.Context, doc *documents.Document) error {
	return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		sql, args, err := r.Builder().
			Insert(documentsTable).
			Columns(headerColumns...).
			Values(postgres.Values(postgres.ColumnMap(doc), headerColumns)...).
			ToSql()
		if err != nil {
			return apperror.NewInternal(err)
		}
		if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
			if postgres.IsUniqueViolation(err) {
				return apperror.NewDuplicate("document", "number", doc.Number)
			}
			return postgres.MapError(err)
		}
		return r.insertLines(ctx, doc)
	})
}

func (r *DocumentRepo) GetByID(ctx context.Context, docID id.ID) (*documents.Document, error) {
	return r.get(ctx, docID, "")
}

// GetForUpdate locks the header row until the transaction ends.
func (r *DocumentRepo) GetForUpdate(ctx context.Context, docID id.ID) (*documents.Document, error) {
	if r.txm.GetTx(ctx) == nil {
		return nil, apperror.NewInternal(fmt.Errorf("document lock requires a transaction"))
	}
	return r.get(ctx, docID, "FOR UPDATE")
}

func (r *DocumentRepo) get(ctx context.Context, docID id.ID, suffix string) (*documents.Document, error) {
	q := r.Builder().
		Select(headerColumns...).
		From(documentsTable).
		Where(squirrel.Eq{"id": docID})
	if suffix != "" {
		q = q.Suffix(suffix)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	doc := &documents.Document{}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("document", docID)
		}
		return nil, postgres.MapError(err)
	}

	if err := r.loadLines(ctx, []*documents.Document{doc}); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update rewrites the header and replaces every line.
func (r *DocumentRepo) Update(ctx context.Context, doc *documents.Document, expectedVersion int) error {
	return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		data := postgres.ColumnMap(doc)
		q := r.Builder().Update(documentsTable)
		for _, col := range postgres.Without(headerColumns, "id", "created_at", "created_by") {
			q = q.Set(col, data[col])
		}
		sql, args, err := q.
			Where(squirrel.Eq{"id": doc.ID, "version": expectedVersion}).
			ToSql()
		if err != nil {
			return apperror.NewInternal(err)
		}

		querier := r.txm.GetQuerier(ctx)
		result, err := querier.Exec(ctx, sql, args...)
		if err != nil {
			return postgres.MapError(err)
		}
		if result.RowsAffected() == 0 {
			if _, err := r.GetByID(ctx, doc.ID); err != nil {
				return err
			}
			return apperror.NewConflict("document was modified concurrently").
				WithDetail("expectedVersion", expectedVersion)
		}

		if _, err := querier.Exec(ctx, "DELETE FROM "+linesTable+" WHERE document_id = $1", doc.ID); err != nil {
			return postgres.MapError(err)
		}
		return r.insertLines(ctx, doc)
	})
}

func (r *DocumentRepo) insertLines(ctx context.Context, doc *documents.Document) error {
	if len(doc.Lines) == 0 {
		return nil
	}
	q := r.Builder().Insert(linesTable).Columns(lineColumns...)
	for _, l := range doc.Lines {
		values := postgres.ColumnMap(lineRow{DocumentID: doc.ID, Line: l})
		q = q.Values(postgres.Values(values, lineColumns)...)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return apperror.NewInternal(err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err)
	}
	return nil
}

// loadLines fills Lines of every document with one query.
func (r *DocumentRepo) loadLines(ctx context.Context, docs []*documents.Document) error {
	if len(docs) == 0 {
		return nil
	}
	byID := make(map[id.ID]*documents.Document, len(docs))
	ids := make([]id.ID, 0, len(docs))
	for _, d := range docs {
		d.Lines = make([]documents.Line, 0)
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}

	sql, args, err := r.Builder().
		Select(lineColumns...).
		From(linesTable).
		Where(squirrel.Eq{"document_id": ids}).
		OrderBy("document_id", "line_no").
		ToSql()
	if err != nil {
		return apperror.NewInternal(err)
	}

	var rows []lineRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return postgres.MapError(err)
	}
	for _, row := range rows {
		if d, ok := byID[row.DocumentID]; ok {
			d.Lines = append(d.Lines, row.Line)
		}
	}
	return nil
}

// List returns matching documents newest first.
func (r *DocumentRepo) List(ctx context.Context, filter documents.Filter) (domain.ListResult[*documents.Document], error) {
	f := filter.Normalize()
	result := domain.ListResult[*documents.Document]{Limit: f.Limit, Offset: f.Offset, Items: []*documents.Document{}}

	q := r.listQuery(filter)
	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, apperror.NewInternal(err)
	}
	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, postgres.MapError(err)
	}

	sql, args, err := q.
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset)).
		ToSql()
	if err != nil {
		return result, apperror.NewInternal(err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, postgres.MapError(err)
	}
	if err := r.loadLines(ctx, result.Items); err != nil {
		return result, err
	}
	return result, nil
}

func (r *DocumentRepo) listQuery(filter documents.Filter) squirrel.SelectBuilder {
	q := r.Builder().Select(headerColumns...).From(documentsTable)
	if len(filter.Types) > 0 {
		q = q.Where(squirrel.Eq{"doc_type": filter.Types})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.SourceDocID != nil {
		q = q.Where(squirrel.Eq{"source_doc_id": *filter.SourceDocID})
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + filter.Search + "%"})
	}
	return q
}

// AppendAudit stores an entry, compressing large snapshots.
func (r *DocumentRepo) AppendAudit(ctx context.Context, entry documents.AuditEntry) error {
	row := auditRow{AuditEntry: entry, CompressionAlgo: postgres.CompressionNone}
	if entry.Snapshot != nil {
		row.Snapshot, row.CompressionAlgo = r.codec.Encode(entry.Snapshot)
	}

	sql, args, err := r.Builder().
		Insert(auditTable).
		Columns(auditColumns...).
		Values(postgres.Values(postgres.ColumnMap(row), auditColumns)...).
		ToSql()
	if err != nil {
		return apperror.NewInternal(err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err)
	}
	return nil
}

// ListAudit returns the entries of a document oldest first.
func (r *DocumentRepo) ListAudit(ctx context.Context, docID id.ID) ([]documents.AuditEntry, error) {
	sql, args, err := r.Builder().
		Select(auditColumns...).
		From(auditTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	var rows []auditRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, postgres.MapError(err)
	}

	out := make([]documents.AuditEntry, 0, len(rows))
	for _, row := range rows {
		snapshot, err := r.codec.Decode(row.Snapshot, row.CompressionAlgo)
		if err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("audit entry %s: %w", row.ID, err))
		}
		row.Snapshot = snapshot
		out = append(out, row.AuditEntry)
	}
	return out, nil
}
