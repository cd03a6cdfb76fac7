package memory

import (
	"context"
	"slices"
	"strings"

	"stockerp/internal/core/apperror"
	"stockerp/internal/core/id"
	"stockerp/internal/domain/pricing"
)

var _ pricing.Repository = (*PricingRepo)(nil)

// PricingRepo implements pricing.Repository.
type PricingRepo struct {
	s *Store
}

func (r *PricingRepo) CreatePriceList(ctx context.Context, pl *pricing.PriceList) error {
	return r.s.write(ctx, func(st *state) error {
		if _, exists := st.priceCodes[pl.Code]; exists {
			return apperror.NewDuplicate("price_list", "code", pl.Code)
		}
		cp := *pl
		st.priceLists[pl.ID] = &cp
		st.priceCodes[pl.Code] = pl.ID
		return nil
	})
}

func (r *PricingRepo) GetPriceList(ctx context.Context, priceListID id.ID) (*pricing.PriceList, error) {
	var out *pricing.PriceList
	err := r.s.read(ctx, func(st *state) error {
		pl, ok := st.priceLists[priceListID]
		if !ok {
			return apperror.NewNotFound("price_list", priceListID)
		}
		cp := *pl
		out = &cp
		return nil
	})
	return out, err
}

func (r *PricingRepo) GetDefaultPriceList(ctx context.Context) (*pricing.PriceList, error) {
	var out *pricing.PriceList
	err := r.s.read(ctx, func(st *state) error {
		for _, pl := range st.priceLists {
			if pl.IsDefault && pl.IsActive {
				cp := *pl
				out = &cp
				return nil
			}
		}
		return apperror.NewNotFound("price_list", "default")
	})
	return out, err
}

func (r *PricingRepo) ListPriceLists(ctx context.Context) ([]*pricing.PriceList, error) {
	out := make([]*pricing.PriceList, 0)
	err := r.s.read(ctx, func(st *state) error {
		for _, pl := range st.priceLists {
			cp := *pl
			out = append(out, &cp)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *pricing.PriceList) int { return strings.Compare(a.Name, b.Name) })
	return out, err
}

func (r *PricingRepo) ClearDefault(ctx context.Context) error {
	return r.s.write(ctx, func(st *state) error {
		for _, pl := range st.priceLists {
			pl.IsDefault = false
		}
		return nil
	})
}

func (r *PricingRepo) AddTier(ctx context.Context, tier *pricing.Tier) error {
	return r.s.write(ctx, func(st *state) error {
		st.tiers = append(st.tiers, *tier)
		return nil
	})
}

func (r *PricingRepo) ListTiers(ctx context.Context, priceListID id.ID, itemID *id.ID) ([]pricing.Tier, error) {
	out := make([]pricing.Tier, 0)
	err := r.s.read(ctx, func(st *state) error {
		for _, t := range st.tiers {
			if t.PriceListID != priceListID {
				continue
			}
			if itemID != nil && t.ItemID != *itemID {
				continue
			}
			out = append(out, t)
		}
		return nil
	})
	return out, err
}
