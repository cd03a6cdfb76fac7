package memory

import (
	"context"
	"slices"
	"strings"

	"stockerp/internal/core/apperror"
	"stockerp/internal/core/id"
	"stockerp/internal/domain"
	"stockerp/internal/domain/items"
)

var _ items.Repository = (*ItemRepo)(nil)

// ItemRepo implements items.Repository.
type ItemRepo struct {
	s *Store
}

func (r *ItemRepo) Create(ctx context.Context, item *items.Item) error {
	return r.s.write(ctx, func(st *state) error {
		if _, exists := st.itemCodes[item.Code]; exists {
			return apperror.NewDuplicate("item", "code", item.Code)
		}
		cp := *item
		st.items[item.ID] = &cp
		st.itemCodes[item.Code] = item.ID
		return nil
	})
}

func (r *ItemRepo) GetByID(ctx context.Context, itemID id.ID) (*items.Item, error) {
	var out *items.Item
	err := r.s.read(ctx, func(st *state) error {
		it, ok := st.items[itemID]
		if !ok {
			return apperror.NewNotFound("item", itemID)
		}
		cp := *it
		out = &cp
		return nil
	})
	return out, err
}

func (r *ItemRepo) GetByCode(ctx context.Context, code string) (*items.Item, error) {
	var out *items.Item
	err := r.s.read(ctx, func(st *state) error {
		itemID, ok := st.itemCodes[code]
		if !ok {
			return apperror.NewNotFound("item", code)
		}
		cp := *st.items[itemID]
		out = &cp
		return nil
	})
	return out, err
}

func (r *ItemRepo) Update(ctx context.Context, item *items.Item) error {
	return r.s.write(ctx, func(st *state) error {
		existing, ok := st.items[item.ID]
		if !ok {
			return apperror.NewNotFound("item", item.ID)
		}
		if existing.Code != item.Code {
			if _, taken := st.itemCodes[item.Code]; taken {
				return apperror.NewDuplicate("item", "code", item.Code)
			}
			delete(st.itemCodes, existing.Code)
			st.itemCodes[item.Code] = item.ID
		}
		cp := *item
		st.items[item.ID] = &cp
		return nil
	})
}

func (r *ItemRepo) List(ctx context.Context, filter items.Filter) (domain.ListResult[*items.Item], error) {
	var matched []*items.Item
	err := r.s.read(ctx, func(st *state) error {
		search := strings.ToLower(strings.TrimSpace(filter.Search))
		for _, it := range st.items {
			if !filter.IncludeInactive && !it.IsActive {
				continue
			}
			if filter.InventoryOnly && !it.IsInventoryItem {
				continue
			}
			if len(filter.IDs) > 0 && !slices.Contains(filter.IDs, it.ID) {
				continue
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(it.Code), search) &&
				!strings.Contains(strings.ToLower(it.Name), search) {
				continue
			}
			cp := *it
			matched = append(matched, &cp)
		}
		return nil
	})
	if err != nil {
		return domain.ListResult[*items.Item]{}, err
	}

	sortItems(matched, filter.OrderBy)
	return domain.Page(matched, filter.ListFilter), nil
}

func (r *ItemRepo) ListActiveInventory(ctx context.Context) ([]*items.Item, error) {
	out := make([]*items.Item, 0)
	err := r.s.read(ctx, func(st *state) error {
		for _, it := range st.items {
			if it.IsActive && it.IsInventoryItem {
				cp := *it
				out = append(out, &cp)
			}
		}
		return nil
	})
	sortItems(out, "code")
	return out, err
}

func sortItems(list []*items.Item, orderBy string) {
	desc := strings.HasPrefix(orderBy, "-")
	field := strings.TrimPrefix(orderBy, "-")
	slices.SortFunc(list, func(a, b *items.Item) int {
		var c int
		switch field {
		case "name":
			c = strings.Compare(a.Name, b.Name)
		case "created_at":
			c = a.CreatedAt.Compare(b.CreatedAt)
		default:
			c = strings.Compare(a.Code, b.Code)
		}
		if desc {
			return -c
		}
		return c
	})
}
