package documents

import (
	"stockerp/internal/core/types"
)

var hundred = types.Qty(100)

// LineTotal returns quantity * price * (1 - discount/100), rounded to money precision.
func LineTotal(qty types.Quantity, price, discountPercent types.Money) types.Money {
	gross := qty.Mul(price)
	factor := hundred.Sub(discountPercent).Div(hundred)
	return types.RoundMoney(gross.Mul(factor))
}

// Recalculate derives every line total and the header totals from the lines.
// Header amounts are never taken from input.
func Recalculate(d *Document) {
	subtotal := types.Zero()
	for i := range d.Lines {
		l := &d.Lines[i]
		l.LineTotal = LineTotal(l.Quantity, l.UnitPrice, l.DiscountPercent)
		subtotal = subtotal.Add(l.LineTotal)
	}

	d.Subtotal = types.RoundMoney(subtotal)
	d.DiscountAmount = types.RoundMoney(types.Percent(d.Subtotal, d.DiscountPercent))
	taxable := d.Subtotal.Sub(d.DiscountAmount)
	d.TaxAmount = types.RoundMoney(types.Percent(taxable, d.TaxPercent))
	d.Total = taxable.Add(d.TaxAmount)
}
