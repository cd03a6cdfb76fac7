// Package alerts evaluates low-stock and reorder alerts over the stock ledger.
package alerts

import (
	"sort"

	"stockerp/internal/core/entity"
	"stockerp/internal/core/id"
	"stockerp/internal/core/types"
	"stockerp/internal/domain/items"
)

// Level grades an alert.
type Level string

const (
	LevelLow        Level = "low"
	LevelOutOfStock Level = "out_of_stock"
)

// Alert flags an item whose available quantity is below its minimum level.
type Alert struct {
	ItemID        id.ID          `json:"itemId"`
	ItemCode      string         `json:"itemCode"`
	ItemName      string         `json:"itemName"`
	Level         Level          `json:"level"`
	OnHand        types.Quantity `json:"onHand"`
	OnOrder       types.Quantity `json:"onOrder"`
	Committed     types.Quantity `json:"committed"`
	Available     types.Quantity `json:"available"`
	MinStockLevel types.Quantity `json:"minStockLevel"`
	ReorderPoint  types.Quantity `json:"reorderPoint"`
	SuggestedQty  types.Quantity `json:"suggestedQty"`
}

type totals struct {
	onHand, onOrder, committed types.Quantity
}

// Evaluate returns alerts for active inventory items whose available quantity,
// summed over every warehouse, is below the minimum stock level.
// Results are ordered by item code.
func Evaluate(itemList []*items.Item, stock []entity.WarehouseStock) []Alert {
	byItem := make(map[id.ID]*totals, len(itemList))
	for _, row := range stock {
		t, ok := byItem[row.ItemID]
		if !ok {
			t = &totals{onHand: types.Zero(), onOrder: types.Zero(), committed: types.Zero()}
			byItem[row.ItemID] = t
		}
		t.onHand = t.onHand.Add(row.OnHand)
		t.onOrder = t.onOrder.Add(row.OnOrder)
		t.committed = t.committed.Add(row.Committed)
	}

	out := make([]Alert, 0)
	for _, item := range itemList {
		if item == nil || !item.IsActive || !item.IsInventoryItem {
			continue
		}
		t, ok := byItem[item.ID]
		if !ok {
			t = &totals{onHand: types.Zero(), onOrder: types.Zero(), committed: types.Zero()}
		}
		available := t.onHand.Add(t.onOrder).Sub(t.committed)
		if !available.LessThan(item.MinStockLevel) {
			continue
		}

		level := LevelLow
		if !available.IsPositive() {
			level = LevelOutOfStock
		}
		out = append(out, Alert{
			ItemID:        item.ID,
			ItemCode:      item.Code,
			ItemName:      item.Name,
			Level:         level,
			OnHand:        t.onHand,
			OnOrder:       t.onOrder,
			Committed:     t.committed,
			Available:     available,
			MinStockLevel: item.MinStockLevel,
			ReorderPoint:  item.ReorderPoint,
			SuggestedQty:  item.SuggestedReorder(),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ItemCode < out[j].ItemCode })
	return out
}
