package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"stockerp/internal/core/id"
	"stockerp/internal/domain"
	"stockerp/internal/domain/items"
	"stockerp/internal/infrastructure/storage/postgres"
)

var _ items.Repository = (*ItemRepo)(nil)

// ItemRepo implements items.Repository.
type ItemRepo struct {
	*BaseCatalogRepo[items.Item]
}

// NewItemRepo creates a new item repository.
func NewItemRepo(txm *postgres.TxManager) *ItemRepo {
	return &ItemRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[items.Item](txm, "items", "item", "code", "name", "created_at"),
	}
}

func (r *ItemRepo) Create(ctx context.Context, item *items.Item) error {
	return r.Insert(ctx, item, "code", item.Code)
}

func (r *ItemRepo) GetByID(ctx context.Context, itemID id.ID) (*items.Item, error) {
	return r.BaseCatalogRepo.GetByID(ctx, itemID)
}

func (r *ItemRepo) GetByCode(ctx context.Context, code string) (*items.Item, error) {
	return r.BaseCatalogRepo.GetByCode(ctx, code)
}

// Update expects item to carry the already incremented version.
func (r *ItemRepo) Update(ctx context.Context, item *items.Item) error {
	return r.UpdateVersioned(ctx, item.ID, item, item.Version-1, "code", item.Code)
}

func (r *ItemRepo) List(ctx context.Context, filter items.Filter) (domain.ListResult[*items.Item], error) {
	f := filter.Normalize()
	result := domain.ListResult[*items.Item]{Limit: f.Limit, Offset: f.Offset}

	q := r.listQuery(filter)
	total, err := r.count(ctx, q)
	if err != nil {
		return result, err
	}
	result.TotalCount = total

	q = q.OrderBy(r.orderBy(f.OrderBy, "code")...).
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset))
	result.Items, err = r.selectAll(ctx, q)
	return result, err
}

func (r *ItemRepo) listQuery(filter items.Filter) squirrel.SelectBuilder {
	q := r.baseSelect()
	if !filter.IncludeInactive {
		q = q.Where(squirrel.Eq{"is_active": true})
	}
	if filter.InventoryOnly {
		q = q.Where(squirrel.Eq{"is_inventory_item": true})
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"code": pattern},
			squirrel.ILike{"name": pattern},
		})
	}
	return q
}

func (r *ItemRepo) ListActiveInventory(ctx context.Context) ([]*items.Item, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"is_active": true, "is_inventory_item": true}).
		OrderBy("code")
	return r.selectAll(ctx, q)
}
