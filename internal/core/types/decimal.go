// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Quantity is a signed stock quantity. Matches Postgres NUMERIC(18,4).
type Quantity = decimal.Decimal

const (
	// MoneyPlaces is the rounding precision for totals.
	MoneyPlaces int32 = 2
	// CostPlaces is the rounding precision for unit and average costs.
	CostPlaces int32 = 4
	// QuantityPlaces is the storage precision of quantities.
	QuantityPlaces int32 = 4
)

var hundred = decimal.NewFromInt(100)

// Zero returns the zero decimal.
func Zero() decimal.Decimal {
	return decimal.Zero
}

// Qty creates a Quantity from an integer.
func Qty(v int64) Quantity {
	return decimal.NewFromInt(v)
}

// MustDecimal parses a decimal string, panics on error.
// Use only for constants and tests.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// RoundMoney rounds a monetary amount to MoneyPlaces.
func RoundMoney(m Money) Money {
	return m.Round(MoneyPlaces)
}

// RoundCost rounds a unit cost to CostPlaces.
func RoundCost(m Money) Money {
	return m.Round(CostPlaces)
}

// Percent returns value * pct / 100.
func Percent(value decimal.Decimal, pct decimal.Decimal) decimal.Decimal {
	return value.Mul(pct).Div(hundred)
}

// MinQty returns the smaller of two quantities.
func MinQty(a, b Quantity) Quantity {
	if a.LessThan(b) {
		return a
	}
	return b
}

// ClampZero returns q, or zero when q is negative.
func ClampZero(q Quantity) Quantity {
	if q.IsNegative() {
		return decimal.Zero
	}
	return q
}

// Sum adds all values.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
