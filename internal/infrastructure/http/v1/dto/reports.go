package dto

import (
	"stockerp/internal/core/apperror"
	"stockerp/internal/domain/reports"
)

// TurnoverQuery selects the turnover report period and scope.
type TurnoverQuery struct {
	From        string `form:"fromDate" binding:"required"`
	To          string `form:"toDate" binding:"required"`
	ItemID      string `form:"itemId"`
	WarehouseID string `form:"warehouseIds"`
	IncludeZero bool   `form:"includeZero"`
}

// ToFilter converts the query to a turnover filter.
func (q TurnoverQuery) ToFilter() (reports.TurnoverFilter, error) {
	f := reports.TurnoverFilter{IncludeZero: q.IncludeZero}

	from, err := ParseOptionalTime(q.From, "fromDate")
	if err != nil {
		return reports.TurnoverFilter{}, err
	}
	to, err := ParseOptionalTime(q.To, "toDate")
	if err != nil {
		return reports.TurnoverFilter{}, err
	}
	if from == nil || to == nil {
		return reports.TurnoverFilter{}, apperror.NewValidation("fromDate and toDate are required")
	}
	f.From, f.To = *from, *to

	if f.ItemID, err = ParseOptionalID(q.ItemID, "itemId"); err != nil {
		return reports.TurnoverFilter{}, err
	}
	if f.WarehouseIDs, err = ParseIDList(q.WarehouseID, "warehouseIds"); err != nil {
		return reports.TurnoverFilter{}, err
	}
	return f, nil
}
