package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockerp/internal/core/id"
	"stockerp/internal/core/types"
)

func qtyPtr(v int64) *types.Quantity {
	q := types.Qty(v)
	return &q
}

func TestSelectTier(t *testing.T) {
	item := id.New()
	other := id.New()
	tiers := []Tier{
		{ID: id.New(), ItemID: item, MinQuantity: types.Qty(1), MaxQuantity: qtyPtr(9), Price: types.MustDecimal("10.00"), IsActive: true},
		{ID: id.New(), ItemID: item, MinQuantity: types.Qty(10), MaxQuantity: qtyPtr(99), Price: types.MustDecimal("9.00"), IsActive: true},
		{ID: id.New(), ItemID: item, MinQuantity: types.Qty(100), Price: types.MustDecimal("8.00"), IsActive: true},
		{ID: id.New(), ItemID: item, MinQuantity: types.Qty(50), Price: types.MustDecimal("1.00"), IsActive: false},
		{ID: id.New(), ItemID: other, MinQuantity: types.Qty(0), Price: types.MustDecimal("99.00"), IsActive: true},
	}

	tests := []struct {
		name  string
		qty   int64
		price string
		found bool
	}{
		{"below every tier", 0, "", false},
		{"first tier", 5, "10", true},
		{"upper bound inclusive", 9, "10", true},
		{"second tier", 10, "9", true},
		{"inactive tier ignored", 60, "9", true},
		{"open ended", 1000, "8", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectTier(tiers, item, types.Qty(tt.qty))
			require.Equal(t, tt.found, ok)
			if ok {
				assert.True(t, got.Price.Equal(types.MustDecimal(tt.price)), "price %s", got.Price)
			}
		})
	}
}

func TestSelectTier_HighestMinimumWinsOnOverlap(t *testing.T) {
	item := id.New()
	tiers := []Tier{
		{ItemID: item, MinQuantity: types.Qty(1), Price: types.MustDecimal("5"), IsActive: true},
		{ItemID: item, MinQuantity: types.Qty(20), Price: types.MustDecimal("4"), IsActive: true},
	}
	got, ok := SelectTier(tiers, item, types.Qty(25))
	require.True(t, ok)
	assert.True(t, got.Price.Equal(types.MustDecimal("4")))
}

func TestTierValidate(t *testing.T) {
	ctx := t.Context()
	valid := Tier{ItemID: id.New(), MinQuantity: types.Qty(1), Price: types.Qty(3)}
	require.NoError(t, valid.Validate(ctx))

	bad := valid
	bad.MaxQuantity = qtyPtr(0)
	assert.Error(t, bad.Validate(ctx))

	bad = valid
	bad.DiscountPercent = types.Qty(101)
	assert.Error(t, bad.Validate(ctx))

	bad = valid
	bad.ItemID = id.Nil()
	assert.Error(t, bad.Validate(ctx))
}
