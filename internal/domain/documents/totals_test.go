package documents

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stockerp/internal/core/types"
)

func TestLineTotal(t *testing.T) {
	tests := []struct {
		qty, price, discount, want string
	}{
		{"2", "10", "0", "20"},
		{"2", "10", "10", "18"},
		{"3", "0.333", "0", "1"},
		{"1", "19.99", "100", "0"},
		{"0", "5", "0", "0"},
	}
	for _, tt := range tests {
		got := LineTotal(types.MustDecimal(tt.qty), types.MustDecimal(tt.price), types.MustDecimal(tt.discount))
		assert.True(t, got.Equal(types.MustDecimal(tt.want)), "%s x %s -%s%% = %s", tt.qty, tt.price, tt.discount, got)
	}
}

func TestRecalculate(t *testing.T) {
	d := &Document{
		TaxPercent:      types.MustDecimal("7.5"),
		DiscountPercent: types.MustDecimal("10"),
		Lines: []Line{
			{LineNo: 1, Quantity: types.Qty(4), UnitPrice: types.MustDecimal("12.5")},
			{LineNo: 2, Quantity: types.Qty(1), UnitPrice: types.MustDecimal("50"), DiscountPercent: types.MustDecimal("20")},
		},
	}
	Recalculate(d)

	assert.Equal(t, "50", d.Lines[0].LineTotal.String())
	assert.Equal(t, "40", d.Lines[1].LineTotal.String())
	assert.Equal(t, "90", d.Subtotal.String())
	assert.Equal(t, "9", d.DiscountAmount.String())
	assert.Equal(t, "6.08", d.TaxAmount.String())
	assert.Equal(t, "87.08", d.Total.String())
}

func TestRecalculateIgnoresStaleHeaderAmounts(t *testing.T) {
	d := &Document{
		Total:    types.Qty(999),
		Subtotal: types.Qty(999),
		Lines:    []Line{{LineNo: 1, Quantity: types.Qty(1), UnitPrice: types.Qty(5)}},
	}
	Recalculate(d)
	assert.True(t, d.Total.Equal(types.Qty(5)))
	assert.True(t, d.Subtotal.Equal(types.Qty(5)))
}
