package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockerp/internal/core/apperror"
	"stockerp/internal/core/id"
	"stockerp/internal/domain/pricing"
	"stockerp/internal/infrastructure/storage/postgres"
)

const tiersTable = "price_list_tiers"

var tierColumns = postgres.Columns[pricing.Tier]()

var _ pricing.Repository = (*PricingRepo)(nil)

// PricingRepo implements pricing.Repository.
type PricingRepo struct {
	*BaseCatalogRepo[pricing.PriceList]
}

// NewPricingRepo creates a new price list repository.
func NewPricingRepo(txm *postgres.TxManager) *PricingRepo {
	return &PricingRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[pricing.PriceList](txm, "price_lists", "price_list", "name"),
	}
}

func (r *PricingRepo) CreatePriceList(ctx context.Context, pl *pricing.PriceList) error {
	return r.Insert(ctx, pl, "code", pl.Code)
}

func (r *PricingRepo) GetPriceList(ctx context.Context, priceListID id.ID) (*pricing.PriceList, error) {
	return r.GetByID(ctx, priceListID)
}

func (r *PricingRepo) GetDefaultPriceList(ctx context.Context) (*pricing.PriceList, error) {
	return r.getBy(ctx, squirrel.Eq{"is_default": true, "is_active": true}, "default")
}

func (r *PricingRepo) ListPriceLists(ctx context.Context) ([]*pricing.PriceList, error) {
	return r.selectAll(ctx, r.baseSelect().OrderBy(r.orderBy("name", "name")...))
}

func (r *PricingRepo) ClearDefault(ctx context.Context) error {
	sql, args, err := r.Builder().
		Update(r.tableName).
		Set("is_default", false).
		Where(squirrel.Eq{"is_default": true}).
		ToSql()
	if err != nil {
		return apperror.NewInternal(err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err)
	}
	return nil
}

func (r *PricingRepo) AddTier(ctx context.Context, tier *pricing.Tier) error {
	sql, args, err := r.Builder().
		Insert(tiersTable).
		Columns(tierColumns...).
		Values(postgres.Values(postgres.ColumnMap(tier), tierColumns)...).
		ToSql()
	if err != nil {
		return apperror.NewInternal(err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err)
	}
	return nil
}

func (r *PricingRepo) ListTiers(ctx context.Context, priceListID id.ID, itemID *id.ID) ([]pricing.Tier, error) {
	q := r.Builder().
		Select(tierColumns...).
		From(tiersTable).
		Where(squirrel.Eq{"price_list_id": priceListID})
	if itemID != nil {
		q = q.Where(squirrel.Eq{"item_id": *itemID})
	}

	sql, args, err := q.OrderBy("item_id", "min_quantity").ToSql()
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	tiers := make([]pricing.Tier, 0)
	if err := pgxscan.Select(ctx, r.querier(ctx), &tiers, sql, args...); err != nil {
		return nil, postgres.MapError(err)
	}
	return tiers, nil
}
