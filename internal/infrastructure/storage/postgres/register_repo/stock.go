// Package register_repo provides the PostgreSQL stock ledger.
package register_repo

import (
	"context"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockerp/internal/core/apperror"
	"stockerp/internal/core/entity"
	"stockerp/internal/core/id"
	"stockerp/internal/core/types"
	"stockerp/internal/domain/ledger"
	"stockerp/internal/infrastructure/storage/postgres"
)

const (
	stockTable        = "warehouse_stock"
	transactionsTable = "stock_transactions"
)

var (
	stockColumns       = postgres.Columns[entity.WarehouseStock]()
	transactionColumns = postgres.Columns[entity.StockTransaction]()
)

var _ ledger.Repository = (*StockRepo)(nil)

// StockRepo implements ledger.Repository over warehouse_stock and stock_transactions.
type StockRepo struct {
	txm *postgres.TxManager
}

// NewStockRepo creates the ledger repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{txm: txm}
}

// Builder returns a new squirrel builder.
func (r *StockRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// GetStockForUpdate creates the row when missing and locks it until the transaction ends.
// Concurrent first movements on a new pair both pass the insert and then queue on the row lock.
func (r *StockRepo) GetStockForUpdate(ctx context.Context, itemID, warehouseID id.ID) (entity.WarehouseStock, error) {
	var row entity.WarehouseStock
	if r.txm.GetTx(ctx) == nil {
		return row, apperror.NewInternal(errors.New("stock row lock requires a transaction"))
	}
	querier := r.txm.GetQuerier(ctx)

	if _, err := querier.Exec(ctx, `
		INSERT INTO warehouse_stock (item_id, warehouse_id)
		VALUES ($1, $2)
		ON CONFLICT (item_id, warehouse_id) DO NOTHING`,
		itemID, warehouseID,
	); err != nil {
		return row, postgres.MapError(err)
	}

	sql, args, err := r.Builder().
		Select(stockColumns...).
		From(stockTable).
		Where(squirrel.Eq{"item_id": itemID, "warehouse_id": warehouseID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return row, apperror.NewInternal(err)
	}
	if err := pgxscan.Get(ctx, querier, &row, sql, args...); err != nil {
		return row, postgres.MapError(err)
	}
	return row, nil
}

// SaveStock writes the quantities and average cost of a locked row.
func (r *StockRepo) SaveStock(ctx context.Context, stock entity.WarehouseStock) error {
	sql, args, err := r.Builder().
		Update(stockTable).
		Set("on_hand", stock.OnHand).
		Set("committed", stock.Committed).
		Set("on_order", stock.OnOrder).
		Set("average_cost", stock.AverageCost).
		Set("updated_at", stock.UpdatedAt).
		Where(squirrel.Eq{"item_id": stock.ItemID, "warehouse_id": stock.WarehouseID}).
		ToSql()
	if err != nil {
		return apperror.NewInternal(err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(stockTable, stock.Key())
	}
	return nil
}

// AppendTransaction inserts one audit row.
func (r *StockRepo) AppendTransaction(ctx context.Context, txn entity.StockTransaction) error {
	sql, args, err := r.Builder().
		Insert(transactionsTable).
		Columns(transactionColumns...).
		Values(postgres.Values(postgres.ColumnMap(txn), transactionColumns)...).
		ToSql()
	if err != nil {
		return apperror.NewInternal(err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err)
	}
	return nil
}

func (r *StockRepo) GetStock(ctx context.Context, itemID, warehouseID id.ID) (entity.WarehouseStock, error) {
	var row entity.WarehouseStock
	sql, args, err := r.Builder().
		Select(stockColumns...).
		From(stockTable).
		Where(squirrel.Eq{"item_id": itemID, "warehouse_id": warehouseID}).
		ToSql()
	if err != nil {
		return row, apperror.NewInternal(err)
	}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return row, apperror.NewNotFound(stockTable, id.Key(itemID, warehouseID))
		}
		return row, postgres.MapError(err)
	}
	return row, nil
}

func (r *StockRepo) ListStock(ctx context.Context, filter ledger.StockFilter) ([]entity.WarehouseStock, error) {
	q := r.Builder().Select(stockColumns...).From(stockTable)
	if len(filter.ItemIDs) > 0 {
		q = q.Where(squirrel.Eq{"item_id": filter.ItemIDs})
	}
	if len(filter.WarehouseIDs) > 0 {
		q = q.Where(squirrel.Eq{"warehouse_id": filter.WarehouseIDs})
	}
	if filter.ExcludeZero {
		q = q.Where(squirrel.Or{
			squirrel.NotEq{"on_hand": 0},
			squirrel.NotEq{"committed": 0},
			squirrel.NotEq{"on_order": 0},
		})
	}

	sql, args, err := q.OrderBy("item_id", "warehouse_id").ToSql()
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	rows := make([]entity.WarehouseStock, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, postgres.MapError(err)
	}
	return rows, nil
}

func (r *StockRepo) ListTransactions(ctx context.Context, filter ledger.TransactionFilter) ([]entity.StockTransaction, error) {
	q := r.Builder().Select(transactionColumns...).From(transactionsTable)
	if filter.ItemID != nil {
		q = q.Where(squirrel.Eq{"item_id": *filter.ItemID})
	}
	if filter.WarehouseID != nil {
		q = q.Where(squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.DocRef != "" {
		q = q.Where(squirrel.Eq{"doc_ref": filter.DocRef})
	}
	if filter.From != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		q = q.Where(squirrel.Lt{"created_at": *filter.To})
	}
	q = q.OrderBy("created_at", "id")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	txns := make([]entity.StockTransaction, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &txns, sql, args...); err != nil {
		return nil, postgres.MapError(err)
	}
	return txns, nil
}

func (r *StockRepo) SumTransactions(ctx context.Context, itemID, warehouseID id.ID) (types.Quantity, error) {
	sum := types.Zero()
	sql, args, err := r.Builder().
		Select("COALESCE(SUM(quantity), 0)").
		From(transactionsTable).
		Where(squirrel.Eq{"item_id": itemID, "warehouse_id": warehouseID}).
		ToSql()
	if err != nil {
		return sum, apperror.NewInternal(err)
	}
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&sum); err != nil {
		return sum, postgres.MapError(err)
	}
	return sum, nil
}
