// Package pricing provides price lists with quantity tiers.
package pricing

import (
	"context"
	"sort"
	"strings"
	"time"

	"stockerp/internal/core/apperror"
	"stockerp/internal/core/entity"
	"stockerp/internal/core/id"
	"stockerp/internal/core/types"
)

// PriceList is a named set of item prices.
type PriceList struct {
	entity.BaseEntity

	Code      string `db:"code" json:"code"`
	Name      string `db:"name" json:"name"`
	Currency  string `db:"currency" json:"currency"`
	IsDefault bool   `db:"is_default" json:"isDefault"`
	IsActive  bool   `db:"is_active" json:"isActive"`
}

// Validate implements entity.Validatable interface.
func (p *PriceList) Validate(_ context.Context) error {
	p.Code = strings.TrimSpace(p.Code)
	p.Name = strings.TrimSpace(p.Name)
	if p.Code == "" {
		return apperror.NewValidation("code is required").WithDetail("field", "code")
	}
	if p.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	if len(p.Currency) != 3 {
		return apperror.NewValidation("currency must be a 3-letter code").WithDetail("field", "currency")
	}
	p.Currency = strings.ToUpper(p.Currency)
	return nil
}

// Tier is the price of one item for a quantity range.
type Tier struct {
	ID          id.ID          `db:"id" json:"id"`
	PriceListID id.ID          `db:"price_list_id" json:"priceListId"`
	ItemID      id.ID          `db:"item_id" json:"itemId"`
	MinQuantity types.Quantity `db:"min_quantity" json:"minQuantity"`
	// MaxQuantity is open-ended when nil.
	MaxQuantity     *types.Quantity `db:"max_quantity" json:"maxQuantity,omitempty"`
	Price           types.Money     `db:"price" json:"price"`
	DiscountPercent types.Money     `db:"discount_percent" json:"discountPercent"`
	IsActive        bool            `db:"is_active" json:"isActive"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
}

// Validate implements entity.Validatable interface.
func (t *Tier) Validate(_ context.Context) error {
	if id.IsNil(t.ItemID) {
		return apperror.NewValidation("itemId is required").WithDetail("field", "itemId")
	}
	if t.MinQuantity.IsNegative() {
		return apperror.NewValidation("minQuantity cannot be negative").WithDetail("field", "minQuantity")
	}
	if t.MaxQuantity != nil && t.MaxQuantity.LessThan(t.MinQuantity) {
		return apperror.NewValidation("maxQuantity must not be below minQuantity").WithDetail("field", "maxQuantity")
	}
	if t.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").WithDetail("field", "price")
	}
	if t.DiscountPercent.IsNegative() || t.DiscountPercent.GreaterThan(types.Qty(100)) {
		return apperror.NewValidation("discountPercent must be between 0 and 100").WithDetail("field", "discountPercent")
	}
	return nil
}

// Covers reports whether qty falls in the tier's range.
func (t Tier) Covers(qty types.Quantity) bool {
	if qty.LessThan(t.MinQuantity) {
		return false
	}
	return t.MaxQuantity == nil || !qty.GreaterThan(*t.MaxQuantity)
}

// SelectTier picks the active tier of itemID covering qty with the highest minimum quantity.
func SelectTier(tiers []Tier, itemID id.ID, qty types.Quantity) (Tier, bool) {
	candidates := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		if t.IsActive && t.ItemID == itemID && t.Covers(qty) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return Tier{}, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MinQuantity.GreaterThan(candidates[j].MinQuantity)
	})
	return candidates[0], true
}

// Quote is a resolved price.
type Quote struct {
	PriceListID     id.ID       `json:"priceListId"`
	TierID          id.ID       `json:"tierId"`
	Price           types.Money `json:"price"`
	DiscountPercent types.Money `json:"discountPercent"`
}
