// Package reports builds read-only reports over the stock ledger.
package reports

import (
	"time"

	"stockerp/internal/core/id"
	"stockerp/internal/core/types"
)

// MaxTurnoverPeriod bounds the length of a turnover report period.
const MaxTurnoverPeriod = 366 * 24 * time.Hour

// --- Stock Turnover Report ---

// TurnoverFilter defines the turnover report period and scope.
type TurnoverFilter struct {
	// Period: From inclusive, To exclusive (required)
	From time.Time
	To   time.Time

	ItemID *id.ID

	// WarehouseIDs restricts rows to these warehouses. Nil means every warehouse.
	WarehouseIDs []id.ID

	// Visible hides warehouses outside the caller's scope from rows and totals.
	Visible func(warehouseID id.ID) bool

	// IncludeZero keeps rows with no opening balance and no movement in the period.
	IncludeZero bool
}

// TurnoverRow is one (item, warehouse) line of the turnover report.
// Receipt and Expense are non-negative; Adjustment keeps its sign.
type TurnoverRow struct {
	ItemID      id.ID          `json:"itemId"`
	WarehouseID id.ID          `json:"warehouseId"`
	Opening     types.Quantity `json:"openingBalance"`
	Receipt     types.Quantity `json:"receipt"`
	Expense     types.Quantity `json:"expense"`
	Adjustment  types.Quantity `json:"adjustment"`
	Closing     types.Quantity `json:"closingBalance"`
	Movements   int            `json:"movements"`
}

// TurnoverReport is the stock turnover (opening, in, out, closing) for a period.
type TurnoverReport struct {
	From time.Time     `json:"fromDate"`
	To   time.Time     `json:"toDate"`
	Rows []TurnoverRow `json:"items"`

	// Summary totals
	TotalOpening    types.Quantity `json:"totalOpening"`
	TotalReceipt    types.Quantity `json:"totalReceipt"`
	TotalExpense    types.Quantity `json:"totalExpense"`
	TotalAdjustment types.Quantity `json:"totalAdjustment"`
	TotalClosing    types.Quantity `json:"totalClosing"`
}
