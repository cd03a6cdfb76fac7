package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockerp/internal/core/types"
	"stockerp/internal/domain/documents"
	"stockerp/internal/domain/items"
)

func TestColumns_FollowsEmbeddedBase(t *testing.T) {
	cols := Columns[items.Item]()

	for _, expected := range []string{
		"id", "version", "created_at", "updated_at", "created_by",
		"code", "name", "min_stock_level", "reorder_quantity", "sales_price",
	} {
		assert.Contains(t, cols, expected)
	}
	assert.Equal(t, "id", cols[0])
}

func TestColumns_SkipsIgnoredFields(t *testing.T) {
	cols := Columns[documents.Document]()
	assert.Contains(t, cols, "doc_type")
	assert.NotContains(t, cols, "lines")
	assert.NotContains(t, cols, "-")
}

func TestColumnMap(t *testing.T) {
	item := items.NewItem("BOLT", "Bolt M8")
	item.MinStockLevel = types.Qty(10)

	m := ColumnMap(item)
	require.NotNil(t, m)
	assert.Equal(t, item.ID, m["id"])
	assert.Equal(t, 1, m["version"])
	assert.Equal(t, "BOLT", m["code"])
	assert.True(t, m["min_stock_level"].(types.Quantity).Equal(types.Qty(10)))

	assert.Nil(t, ColumnMap(42))
}

func TestWithoutAndValues(t *testing.T) {
	cols := Without([]string{"id", "version", "code"}, "version")
	assert.Equal(t, []string{"id", "code"}, cols)

	vals := Values(map[string]any{"id": 1, "code": "X"}, cols)
	assert.Equal(t, []any{1, "X"}, vals)
}
