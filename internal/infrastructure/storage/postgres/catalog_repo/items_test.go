package catalog_repo

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockerp/internal/core/id"
	"stockerp/internal/domain"
	"stockerp/internal/domain/items"
)

const itemSelect = "SELECT id, version, created_at, updated_at, created_by, code, name, unit_of_measure, description, " +
	"is_inventory_item, is_sales_item, is_purchase_item, is_active, min_stock_level, max_stock_level, reorder_point, " +
	"reorder_quantity, purchase_price, sales_price FROM items"

func TestItemRepo_ListQuery(t *testing.T) {
	repo := NewItemRepo(nil)
	itemID := id.New()

	tests := []struct {
		name     string
		filter   items.Filter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "active only by default",
			filter:   items.Filter{},
			wantSQL:  itemSelect + " WHERE is_active = $1",
			wantArgs: []any{true},
		},
		{
			name:    "inactive included",
			filter:  items.Filter{ListFilter: domain.ListFilter{IncludeInactive: true}},
			wantSQL: itemSelect,
		},
		{
			name: "inventory only with ids",
			filter: items.Filter{
				ListFilter:    domain.ListFilter{IncludeInactive: true, IDs: []id.ID{itemID}},
				InventoryOnly: true,
			},
			wantSQL:  itemSelect + " WHERE is_inventory_item = $1 AND id IN ($2)",
			wantArgs: []any{true, itemID},
		},
		{
			name:     "search matches code or name",
			filter:   items.Filter{ListFilter: domain.ListFilter{IncludeInactive: true, Search: "bolt"}},
			wantSQL:  itemSelect + " WHERE (code ILIKE $1 OR name ILIKE $2)",
			wantArgs: []any{"%bolt%", "%bolt%"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := repo.listQuery(tt.filter).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			require.Len(t, args, len(tt.wantArgs))
			for i := range tt.wantArgs {
				assert.Equal(t, fmt.Sprint(tt.wantArgs[i]), fmt.Sprint(args[i]))
			}
		})
	}
}

func TestBaseCatalogRepo_OrderBy(t *testing.T) {
	repo := NewItemRepo(nil)

	assert.Equal(t, []string{"code ASC", "id ASC"}, repo.orderBy("", "code"))
	assert.Equal(t, []string{"name DESC", "id DESC"}, repo.orderBy("-name", "code"))
	assert.Equal(t, []string{"code ASC", "id ASC"}, repo.orderBy("-password; DROP TABLE items", "code"))
}
