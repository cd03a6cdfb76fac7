package items

import (
	"context"

	"stockerp/internal/core/id"
	"stockerp/internal/domain"
)

// Filter narrows item listings.
type Filter struct {
	domain.ListFilter

	// InventoryOnly keeps items with is_inventory_item set.
	InventoryOnly bool
}

// Repository defines persistence for items.
type Repository interface {
	// Create inserts a new item. A duplicate code returns a conflict error.
	Create(ctx context.Context, item *Item) error

	// GetByID returns a NotFound error for unknown ids.
	GetByID(ctx context.Context, itemID id.ID) (*Item, error)

	GetByCode(ctx context.Context, code string) (*Item, error)

	// Update writes the item when its version matches the stored one.
	Update(ctx context.Context, item *Item) error

	List(ctx context.Context, filter Filter) (domain.ListResult[*Item], error)

	// ListActiveInventory returns every active inventory item, unpaginated.
	ListActiveInventory(ctx context.Context) ([]*Item, error)
}
