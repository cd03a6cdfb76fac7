package pricing

import (
	"context"

	"stockerp/internal/core/id"
)

// Repository defines persistence for price lists and tiers.
type Repository interface {
	// CreatePriceList returns a conflict error for a duplicate code.
	CreatePriceList(ctx context.Context, pl *PriceList) error
	GetPriceList(ctx context.Context, priceListID id.ID) (*PriceList, error)
	// GetDefaultPriceList returns NotFound when no active default list exists.
	GetDefaultPriceList(ctx context.Context) (*PriceList, error)
	ListPriceLists(ctx context.Context) ([]*PriceList, error)
	// ClearDefault unsets is_default on every list.
	ClearDefault(ctx context.Context) error

	AddTier(ctx context.Context, tier *Tier) error
	ListTiers(ctx context.Context, priceListID id.ID, itemID *id.ID) ([]Tier, error)
}
