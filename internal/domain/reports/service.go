package reports

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"stockerp/internal/core/apperror"
	"stockerp/internal/core/entity"
	"stockerp/internal/core/id"
	"stockerp/internal/core/types"
	"stockerp/internal/domain/ledger"
	"stockerp/pkg/logger"
)

// TransactionSource supplies the stock audit trail.
type TransactionSource interface {
	Transactions(ctx context.Context, filter ledger.TransactionFilter) ([]entity.StockTransaction, error)
}

// Service provides report generation operations.
type Service struct {
	source TransactionSource
}

// NewService creates a new reports service.
func NewService(source TransactionSource) *Service {
	return &Service{source: source}
}

// StockTurnover generates the stock turnover report.
// Balances are derived from the transaction trail, so the closing balance of a
// pair with no later movement equals its on-hand quantity.
func (s *Service) StockTurnover(ctx context.Context, filter TurnoverFilter) (*TurnoverReport, error) {
	if filter.From.IsZero() || filter.To.IsZero() {
		return nil, apperror.NewValidation("fromDate and toDate are required")
	}
	if !filter.From.Before(filter.To) {
		return nil, apperror.NewValidation("fromDate must be before toDate")
	}
	if filter.To.Sub(filter.From) > MaxTurnoverPeriod {
		return nil, apperror.NewValidation("period must not exceed 366 days")
	}

	to := filter.To
	txns, err := s.source.Transactions(ctx, ledger.TransactionFilter{ItemID: filter.ItemID, To: &to})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	scope := make(map[id.ID]struct{}, len(filter.WarehouseIDs))
	for _, w := range filter.WarehouseIDs {
		scope[w] = struct{}{}
	}

	rows := make(map[string]*TurnoverRow)
	for _, t := range txns {
		if filter.WarehouseIDs != nil {
			if _, ok := scope[t.WarehouseID]; !ok {
				continue
			}
		}
		if filter.Visible != nil && !filter.Visible(t.WarehouseID) {
			continue
		}
		key := id.Key(t.ItemID, t.WarehouseID)
		row, ok := rows[key]
		if !ok {
			row = newRow(t.ItemID, t.WarehouseID)
			rows[key] = row
		}
		accumulate(row, t, filter)
	}

	report := &TurnoverReport{
		From:            filter.From,
		To:              filter.To,
		Rows:            make([]TurnoverRow, 0, len(rows)),
		TotalOpening:    types.Zero(),
		TotalReceipt:    types.Zero(),
		TotalExpense:    types.Zero(),
		TotalAdjustment: types.Zero(),
		TotalClosing:    types.Zero(),
	}
	for _, row := range rows {
		row.Closing = row.Opening.Add(row.Receipt).Sub(row.Expense).Add(row.Adjustment)
		if !filter.IncludeZero && row.Movements == 0 && row.Opening.IsZero() {
			continue
		}
		report.Rows = append(report.Rows, *row)
		report.TotalOpening = report.TotalOpening.Add(row.Opening)
		report.TotalReceipt = report.TotalReceipt.Add(row.Receipt)
		report.TotalExpense = report.TotalExpense.Add(row.Expense)
		report.TotalAdjustment = report.TotalAdjustment.Add(row.Adjustment)
		report.TotalClosing = report.TotalClosing.Add(row.Closing)
	}
	slices.SortFunc(report.Rows, func(a, b TurnoverRow) int {
		if c := bytes.Compare(a.ItemID[:], b.ItemID[:]); c != 0 {
			return c
		}
		return bytes.Compare(a.WarehouseID[:], b.WarehouseID[:])
	})

	logger.Debug(ctx, "turnover report built",
		"from", filter.From,
		"to", filter.To,
		"transactions", len(txns),
		"rows", len(report.Rows),
	)
	return report, nil
}

func newRow(itemID, warehouseID id.ID) *TurnoverRow {
	return &TurnoverRow{
		ItemID:      itemID,
		WarehouseID: warehouseID,
		Opening:     types.Zero(),
		Receipt:     types.Zero(),
		Expense:     types.Zero(),
		Adjustment:  types.Zero(),
	}
}

func accumulate(row *TurnoverRow, t entity.StockTransaction, filter TurnoverFilter) {
	if t.CreatedAt.Before(filter.From) {
		row.Opening = row.Opening.Add(t.Quantity)
		return
	}
	row.Movements++
	switch {
	case t.Type == entity.TxAdjustment:
		row.Adjustment = row.Adjustment.Add(t.Quantity)
	case t.Quantity.IsNegative():
		row.Expense = row.Expense.Add(t.Quantity.Neg())
	default:
		row.Receipt = row.Receipt.Add(t.Quantity)
	}
}
