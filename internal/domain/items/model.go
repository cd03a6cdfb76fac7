// Package items provides item master data: identity, classification, thresholds and prices.
package items

import (
	"context"
	"strings"

	"stockerp/internal/core/apperror"
	"stockerp/internal/core/entity"
	"stockerp/internal/core/id"
	"stockerp/internal/core/types"
)

// DefaultUnit is used when no unit of measure is given.
const DefaultUnit = "pcs"

// Item is a stocked, sold or purchased article.
type Item struct {
	entity.BaseEntity

	Code          string  `db:"code" json:"code"`
	Name          string  `db:"name" json:"name"`
	UnitOfMeasure string  `db:"unit_of_measure" json:"unitOfMeasure"`
	Description   *string `db:"description" json:"description,omitempty"`

	IsInventoryItem bool `db:"is_inventory_item" json:"isInventoryItem"`
	IsSalesItem     bool `db:"is_sales_item" json:"isSalesItem"`
	IsPurchaseItem  bool `db:"is_purchase_item" json:"isPurchaseItem"`
	IsActive        bool `db:"is_active" json:"isActive"`

	MinStockLevel types.Quantity `db:"min_stock_level" json:"minStockLevel"`
	MaxStockLevel types.Quantity `db:"max_stock_level" json:"maxStockLevel"`
	ReorderPoint  types.Quantity `db:"reorder_point" json:"reorderPoint"`
	// ReorderQuantity overrides the suggested reorder amount when set.
	ReorderQuantity *types.Quantity `db:"reorder_quantity" json:"reorderQuantity,omitempty"`

	PurchasePrice types.Money `db:"purchase_price" json:"purchasePrice"`
	SalesPrice    types.Money `db:"sales_price" json:"salesPrice"`
}

// NewItem creates an active inventory item with zero thresholds.
func NewItem(code, name string) *Item {
	return &Item{
		BaseEntity:      entity.NewBaseEntity(""),
		Code:            code,
		Name:            name,
		UnitOfMeasure:   DefaultUnit,
		IsInventoryItem: true,
		IsSalesItem:     true,
		IsPurchaseItem:  true,
		IsActive:        true,
		MinStockLevel:   types.Zero(),
		MaxStockLevel:   types.Zero(),
		ReorderPoint:    types.Zero(),
		PurchasePrice:   types.Zero(),
		SalesPrice:      types.Zero(),
	}
}

// Validate implements entity.Validatable interface.
func (i *Item) Validate(_ context.Context) error {
	i.Code = strings.TrimSpace(i.Code)
	i.Name = strings.TrimSpace(i.Name)

	if i.Code == "" {
		return apperror.NewValidation("code is required").WithDetail("field", "code")
	}
	if len(i.Code) > 50 {
		return apperror.NewValidation("code is too long").
			WithDetail("field", "code").
			WithDetail("maxLength", 50)
	}
	if i.Name == "" {
		return apperror.NewValidation("name is required").WithDetail("field", "name")
	}
	if strings.TrimSpace(i.UnitOfMeasure) == "" {
		i.UnitOfMeasure = DefaultUnit
	}

	for _, f := range []struct {
		name  string
		value types.Quantity
	}{
		{"minStockLevel", i.MinStockLevel},
		{"maxStockLevel", i.MaxStockLevel},
		{"reorderPoint", i.ReorderPoint},
		{"purchasePrice", i.PurchasePrice},
		{"salesPrice", i.SalesPrice},
	} {
		if f.value.IsNegative() {
			return apperror.NewValidation(f.name+" cannot be negative").WithDetail("field", f.name)
		}
	}
	if i.ReorderQuantity != nil && i.ReorderQuantity.IsNegative() {
		return apperror.NewValidation("reorderQuantity cannot be negative").WithDetail("field", "reorderQuantity")
	}
	if i.MaxStockLevel.IsPositive() && i.MaxStockLevel.LessThan(i.MinStockLevel) {
		return apperror.NewValidation("maxStockLevel must not be below minStockLevel").
			WithDetail("field", "maxStockLevel")
	}
	return nil
}

// SuggestedReorder returns the reorder quantity when set, otherwise max(0, max - min).
func (i *Item) SuggestedReorder() types.Quantity {
	if i.ReorderQuantity != nil {
		return *i.ReorderQuantity
	}
	return types.ClampZero(i.MaxStockLevel.Sub(i.MinStockLevel))
}

// OpeningBalance is initial stock recorded when an item is created.
type OpeningBalance struct {
	WarehouseID id.ID          `json:"warehouseId"`
	Quantity    types.Quantity `json:"quantity"`
	UnitCost    types.Money    `json:"unitCost"`
}

// OpeningDocRef returns the ledger document reference of an item's opening balances.
func OpeningDocRef(code string) string {
	return "OP-" + code
}
