package ledger

import (
	"stockerp/internal/core/types"
)

// WeightedAverage returns the moving average unit cost after an inbound movement:
//
//	(oldQty*oldCost + inQty*inCost) / (oldQty + inQty)
//
// When oldQty + inQty is zero the old cost is kept. Backordered (negative) old
// stock carries no value, so the inbound cost becomes the new average.
func WeightedAverage(oldQty types.Quantity, oldCost types.Money, inQty types.Quantity, inCost types.Money) types.Money {
	totalQty := oldQty.Add(inQty)
	if totalQty.IsZero() {
		return oldCost
	}
	if oldQty.IsNegative() {
		return types.RoundCost(inCost)
	}

	totalValue := oldQty.Mul(oldCost).Add(inQty.Mul(inCost))
	return types.RoundCost(totalValue.DivRound(totalQty, types.CostPlaces+4))
}
