package dto

import (
	"github.com/shopspring/decimal"

	"stockerp/internal/core/apperror"
	"stockerp/internal/core/id"
	"stockerp/internal/core/types"
	"stockerp/internal/domain/pricing"
)

// CreatePriceListRequest creates a price list.
type CreatePriceListRequest struct {
	Code      string `json:"code" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Currency  string `json:"currency"`
	IsDefault bool   `json:"isDefault"`
}

// ToModel converts the request to a price list.
func (r CreatePriceListRequest) ToModel() *pricing.PriceList {
	return &pricing.PriceList{
		Code:      r.Code,
		Name:      r.Name,
		Currency:  r.Currency,
		IsDefault: r.IsDefault,
	}
}

// AddTierRequest adds a quantity tier.
type AddTierRequest struct {
	ItemID          id.ID           `json:"itemId" binding:"required"`
	MinQuantity     types.Quantity  `json:"minQuantity"`
	MaxQuantity     *types.Quantity `json:"maxQuantity"`
	Price           types.Money     `json:"price"`
	DiscountPercent types.Money     `json:"discountPercent"`
}

// ToModel converts the request to a tier.
func (r AddTierRequest) ToModel() *pricing.Tier {
	return &pricing.Tier{
		ItemID:          r.ItemID,
		MinQuantity:     r.MinQuantity,
		MaxQuantity:     r.MaxQuantity,
		Price:           r.Price,
		DiscountPercent: r.DiscountPercent,
	}
}

// QuoteQuery asks for the price of a quantity of one item.
type QuoteQuery struct {
	ItemID      string `form:"itemId" binding:"required"`
	Quantity    string `form:"quantity"`
	PriceListID string `form:"priceListId"`
}

// Parse validates the query.
func (q QuoteQuery) Parse() (itemID id.ID, priceListID *id.ID, qty types.Quantity, err error) {
	if itemID, err = ParseID(q.ItemID, "itemId"); err != nil {
		return
	}
	if priceListID, err = ParseOptionalID(q.PriceListID, "priceListId"); err != nil {
		return
	}
	qty = types.Qty(1)
	if q.Quantity != "" {
		qty, err = decimal.NewFromString(q.Quantity)
		if err != nil || !qty.IsPositive() {
			err = apperror.NewValidation("quantity must be a positive number").WithDetail("field", "quantity")
			return
		}
	}
	return itemID, priceListID, qty, nil
}

// QuoteResponse is the resolved price, or found=false.
type QuoteResponse struct {
	Found bool           `json:"found"`
	Quote *pricing.Quote `json:"quote,omitempty"`
}
