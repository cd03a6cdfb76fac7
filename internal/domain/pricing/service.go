package pricing

import (
	"context"
	"time"

	"stockerp/internal/core/apperror"
	appctx "stockerp/internal/core/context"
	"stockerp/internal/core/entity"
	"stockerp/internal/core/id"
	"stockerp/internal/core/tx"
	"stockerp/internal/core/types"
	"stockerp/pkg/logger"
)

// Service manages price lists and resolves item prices.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// NewService creates a new pricing service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm}
}

// CreatePriceList stores a new price list. Setting IsDefault clears the previous default.
func (s *Service) CreatePriceList(ctx context.Context, pl *PriceList) (*PriceList, error) {
	if err := pl.Validate(ctx); err != nil {
		return nil, err
	}
	pl.BaseEntity = entity.NewBaseEntity(appctx.GetUserID(ctx))
	pl.IsActive = true

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if pl.IsDefault {
			if err := s.repo.ClearDefault(ctx); err != nil {
				return err
			}
		}
		return s.repo.CreatePriceList(ctx, pl)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "price list created", "price_list_id", pl.ID, "code", pl.Code)
	return pl, nil
}

// ListPriceLists returns all price lists.
func (s *Service) ListPriceLists(ctx context.Context) ([]*PriceList, error) {
	return s.repo.ListPriceLists(ctx)
}

// AddTier adds a quantity tier to an existing price list.
func (s *Service) AddTier(ctx context.Context, priceListID id.ID, tier *Tier) (*Tier, error) {
	if err := tier.Validate(ctx); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetPriceList(ctx, priceListID); err != nil {
		return nil, err
	}

	tier.ID = id.New()
	tier.PriceListID = priceListID
	tier.IsActive = true
	tier.CreatedAt = time.Now().UTC()
	if err := s.repo.AddTier(ctx, tier); err != nil {
		return nil, err
	}
	return tier, nil
}

// ListTiers returns the tiers of a price list, optionally for one item.
func (s *Service) ListTiers(ctx context.Context, priceListID id.ID, itemID *id.ID) ([]Tier, error) {
	return s.repo.ListTiers(ctx, priceListID, itemID)
}

// Lookup resolves the price of qty units of an item.
// A nil priceListID selects the default list. The bool is false when no tier applies.
func (s *Service) Lookup(ctx context.Context, priceListID *id.ID, itemID id.ID, qty types.Quantity) (Quote, bool, error) {
	var pl *PriceList
	var err error
	if priceListID != nil {
		pl, err = s.repo.GetPriceList(ctx, *priceListID)
	} else {
		pl, err = s.repo.GetDefaultPriceList(ctx)
		if apperror.IsNotFound(err) {
			return Quote{}, false, nil
		}
	}
	if err != nil {
		return Quote{}, false, err
	}
	if !pl.IsActive {
		return Quote{}, false, nil
	}

	tiers, err := s.repo.ListTiers(ctx, pl.ID, &itemID)
	if err != nil {
		return Quote{}, false, err
	}
	tier, ok := SelectTier(tiers, itemID, qty)
	if !ok {
		return Quote{}, false, nil
	}
	return Quote{
		PriceListID:     pl.ID,
		TierID:          tier.ID,
		Price:           tier.Price,
		DiscountPercent: tier.DiscountPercent,
	}, true, nil
}

// ResolvePrice returns the default-list price for a sales line.
func (s *Service) ResolvePrice(ctx context.Context, itemID id.ID, qty types.Quantity) (types.Money, types.Money, bool, error) {
	q, ok, err := s.Lookup(ctx, nil, itemID, qty)
	if err != nil || !ok {
		return types.Zero(), types.Zero(), ok, err
	}
	return q.Price, q.DiscountPercent, true, nil
}
