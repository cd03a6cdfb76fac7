package dto

import (
	"stockerp/internal/core/types"
	"stockerp/internal/domain/items"
)

// ItemFields are the editable item attributes.
type ItemFields struct {
	Code            string          `json:"code" binding:"required"`
	Name            string          `json:"name" binding:"required"`
	UnitOfMeasure   string          `json:"unitOfMeasure"`
	Description     *string         `json:"description"`
	IsInventoryItem *bool           `json:"isInventoryItem"`
	IsSalesItem     *bool           `json:"isSalesItem"`
	IsPurchaseItem  *bool           `json:"isPurchaseItem"`
	MinStockLevel   *types.Quantity `json:"minStockLevel"`
	MaxStockLevel   *types.Quantity `json:"maxStockLevel"`
	ReorderPoint    *types.Quantity `json:"reorderPoint"`
	ReorderQuantity *types.Quantity `json:"reorderQuantity"`
	PurchasePrice   *types.Money    `json:"purchasePrice"`
	SalesPrice      *types.Money    `json:"salesPrice"`
}

// ApplyTo copies the fields onto item. Nil flags and amounts keep the current value.
func (f ItemFields) ApplyTo(item *items.Item) {
	item.Code = f.Code
	item.Name = f.Name
	if f.UnitOfMeasure != "" {
		item.UnitOfMeasure = f.UnitOfMeasure
	}
	item.Description = f.Description
	if f.IsInventoryItem != nil {
		item.IsInventoryItem = *f.IsInventoryItem
	}
	if f.IsSalesItem != nil {
		item.IsSalesItem = *f.IsSalesItem
	}
	if f.IsPurchaseItem != nil {
		item.IsPurchaseItem = *f.IsPurchaseItem
	}
	if f.MinStockLevel != nil {
		item.MinStockLevel = *f.MinStockLevel
	}
	if f.MaxStockLevel != nil {
		item.MaxStockLevel = *f.MaxStockLevel
	}
	if f.ReorderPoint != nil {
		item.ReorderPoint = *f.ReorderPoint
	}
	item.ReorderQuantity = f.ReorderQuantity
	if f.PurchasePrice != nil {
		item.PurchasePrice = *f.PurchasePrice
	}
	if f.SalesPrice != nil {
		item.SalesPrice = *f.SalesPrice
	}
}

// CreateItemRequest creates an item with optional opening balances.
type CreateItemRequest struct {
	ItemFields
	OpeningBalances []items.OpeningBalance `json:"openingBalances"`
}

// ToInput converts the request to a service input.
func (r CreateItemRequest) ToInput() items.CreateInput {
	item := items.NewItem(r.Code, r.Name)
	r.ApplyTo(item)
	return items.CreateInput{Item: item, OpeningBalances: r.OpeningBalances}
}

// UpdateItemRequest replaces item attributes at a known version.
type UpdateItemRequest struct {
	ItemFields
	Version int `json:"version" binding:"required,min=1"`
}

// ItemListQuery filters the item list.
type ItemListQuery struct {
	ListQuery
	InventoryOnly bool `form:"inventoryOnly"`
}

// ToFilter converts the query to an item filter.
func (q ItemListQuery) ToFilter() (items.Filter, error) {
	base, err := q.ListQuery.ToFilter()
	if err != nil {
		return items.Filter{}, err
	}
	return items.Filter{ListFilter: base, InventoryOnly: q.InventoryOnly}, nil
}
