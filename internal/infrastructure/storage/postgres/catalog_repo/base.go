// Package catalog_repo provides PostgreSQL repositories for master data: items and price lists.
package catalog_repo

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockerp/internal/core/apperror"
	"stockerp/internal/core/id"
	"stockerp/internal/infrastructure/storage/postgres"
)

// BaseCatalogRepo provides CRUD for a versioned master data table.
// Embed this in specific catalog repositories.
type BaseCatalogRepo[T any] struct {
	txm        *postgres.TxManager
	tableName  string
	entityName string
	selectCols []string
	sortable   map[string]bool
}

// NewBaseCatalogRepo creates a new base catalog repository.
func NewBaseCatalogRepo[T any](txm *postgres.TxManager, tableName, entityName string, sortable ...string) *BaseCatalogRepo[T] {
	allowed := make(map[string]bool, len(sortable))
	for _, c := range sortable {
		allowed[c] = true
	}
	return &BaseCatalogRepo[T]{
		txm:        txm,
		tableName:  tableName,
		entityName: entityName,
		selectCols: postgres.Columns[T](),
		sortable:   allowed,
	}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseCatalogRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseCatalogRepo[T]) querier(ctx context.Context) postgres.Querier {
	return r.txm.GetQuerier(ctx)
}

// Insert writes a new row from the "db" tags of entity.
// uniqueField names the column reported when a unique key is violated.
func (r *BaseCatalogRepo[T]) Insert(ctx context.Context, entity *T, uniqueField, uniqueValue string) error {
	sql, args, err := r.Builder().
		Insert(r.tableName).
		Columns(r.selectCols...).
		Values(postgres.Values(postgres.ColumnMap(entity), r.selectCols)...).
		ToSql()
	if err != nil {
		return apperror.NewInternal(err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate(r.entityName, uniqueField, uniqueValue)
		}
		return postgres.MapError(err)
	}
	return nil
}

// UpdateVersioned writes every mutable column when the stored version equals expectedVersion.
func (r *BaseCatalogRepo[T]) UpdateVersioned(ctx context.Context, entityID id.ID, entity *T, expectedVersion int, uniqueField, uniqueValue string) error {
	data := postgres.ColumnMap(entity)
	cols := postgres.Without(r.selectCols, "id", "created_at", "created_by")

	q := r.Builder().Update(r.tableName)
	for _, col := range cols {
		q = q.Set(col, data[col])
	}
	sql, args, err := q.
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": expectedVersion}).
		ToSql()
	if err != nil {
		return apperror.NewInternal(err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate(r.entityName, uniqueField, uniqueValue)
		}
		return postgres.MapError(err)
	}
	if result.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, entityID); err != nil {
			return err
		}
		return apperror.NewConflict(r.entityName + " was modified concurrently").
			WithDetail("id", entityID.String()).
			WithDetail("expectedVersion", expectedVersion)
	}
	return nil
}

// baseSelect creates a SELECT builder.
func (r *BaseCatalogRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// GetByID retrieves an entity by ID.
func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, entityID id.ID) (*T, error) {
	return r.getBy(ctx, squirrel.Eq{"id": entityID}, entityID.String())
}

// GetByCode retrieves an entity by its unique code.
func (r *BaseCatalogRepo[T]) GetByCode(ctx context.Context, code string) (*T, error) {
	return r.getBy(ctx, squirrel.Eq{"code": code}, code)
}

func (r *BaseCatalogRepo[T]) getBy(ctx context.Context, where squirrel.Sqlizer, key string) (*T, error) {
	sql, args, err := r.baseSelect().Where(where).ToSql()
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	entity := new(T)
	if err := pgxscan.Get(ctx, r.querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(r.entityName, key)
		}
		return nil, postgres.MapError(err)
	}
	return entity, nil
}

// selectAll runs q and scans every row.
func (r *BaseCatalogRepo[T]) selectAll(ctx context.Context, q squirrel.SelectBuilder) ([]*T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	out := make([]*T, 0)
	if err := pgxscan.Select(ctx, r.querier(ctx), &out, sql, args...); err != nil {
		return nil, postgres.MapError(err)
	}
	return out, nil
}

// count returns the number of rows q selects before pagination.
func (r *BaseCatalogRepo[T]) count(ctx context.Context, q squirrel.SelectBuilder) (int64, error) {
	sql, args, err := r.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub").
		ToSql()
	if err != nil {
		return 0, apperror.NewInternal(err)
	}
	var total int64
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, postgres.MapError(err)
	}
	return total, nil
}

// orderBy converts "name" or "-name" into an ORDER BY clause.
// Unknown columns fall back to fallback; id breaks ties.
func (r *BaseCatalogRepo[T]) orderBy(sortBy, fallback string) []string {
	col := strings.TrimPrefix(sortBy, "-")
	if !r.sortable[col] {
		col = fallback
		sortBy = fallback
	}
	dir := "ASC"
	if strings.HasPrefix(sortBy, "-") {
		dir = "DESC"
	}
	return []string{col + " " + dir, "id " + dir}
}
