package ledger

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"stockerp/internal/core/apperror"
	appctx "stockerp/internal/core/context"
	"stockerp/internal/core/entity"
	"stockerp/internal/core/id"
	"stockerp/internal/core/tx"
	"stockerp/internal/core/types"
	"stockerp/pkg/logger"
)

// Notifier receives best-effort signals after stock changed.
type Notifier interface {
	StockChanged(ctx context.Context, itemIDs []id.ID)
}

// Movement is one requested change of on-hand quantity.
type Movement struct {
	ItemID      id.ID
	WarehouseID id.ID
	Type        entity.TransactionType
	// Quantity is signed: positive adds stock, negative removes it.
	Quantity types.Quantity
	// UnitCost is used by inbound types for weighted-average costing.
	UnitCost types.Money
	DocRef   string
	// AllowNegative lets an outbound movement drive on-hand below zero.
	AllowNegative bool
}

// Validate checks the movement without touching storage.
func (m Movement) Validate() error {
	if id.IsNil(m.ItemID) {
		return apperror.NewValidation("item_id is required").WithDetail("field", "itemId")
	}
	if id.IsNil(m.WarehouseID) {
		return apperror.NewValidation("warehouse_id is required").WithDetail("field", "warehouseId")
	}
	if !m.Type.Valid() {
		return apperror.NewValidation("unknown transaction type").WithDetail("type", string(m.Type))
	}
	if m.Quantity.IsZero() {
		return apperror.NewValidation("quantity must not be zero")
	}
	if m.Type.IsInbound() && !m.Quantity.IsPositive() {
		return apperror.NewValidation(fmt.Sprintf("%s quantity must be positive", m.Type))
	}
	if m.Type.IsOutbound() && !m.Quantity.IsNegative() {
		return apperror.NewValidation(fmt.Sprintf("%s quantity must be negative", m.Type))
	}
	if m.UnitCost.IsNegative() {
		return apperror.NewValidation("unit cost must not be negative")
	}
	if strings.TrimSpace(m.DocRef) == "" {
		return apperror.NewValidation("document reference is required").WithDetail("field", "docRef")
	}
	return nil
}

// TransferRequest moves a positive quantity between two warehouses.
type TransferRequest struct {
	ItemID          id.ID
	FromWarehouseID id.ID
	ToWarehouseID   id.ID
	Quantity        types.Quantity
	DocRef          string
	AllowNegative   bool
}

// TransferResult holds both legs of a transfer after it was applied.
type TransferResult struct {
	From entity.WarehouseStock `json:"from"`
	To   entity.WarehouseStock `json:"to"`
}

// Reconciliation compares a balance with its audit trail.
type Reconciliation struct {
	ItemID      id.ID          `json:"itemId"`
	WarehouseID id.ID          `json:"warehouseId"`
	OnHand      types.Quantity `json:"onHand"`
	LedgerSum   types.Quantity `json:"ledgerSum"`
	Consistent  bool           `json:"consistent"`
}

// Service applies stock movements.
// Every mutation runs inside tx.Manager; nested calls join the caller's transaction.
type Service struct {
	repo     Repository
	txm      tx.Manager
	notifier Notifier
}

// NewService creates a new stock ledger service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm}
}

// SetNotifier installs a change notifier.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// ApplyMovement applies one movement and appends its audit row atomically.
func (s *Service) ApplyMovement(ctx context.Context, m Movement) (entity.WarehouseStock, error) {
	results, err := s.ApplyMovements(ctx, []Movement{m})
	if err != nil {
		return entity.WarehouseStock{}, err
	}
	return results[0], nil
}

// ApplyMovements applies several movements in one transaction.
// Rows are locked in (item, warehouse) order before any write; results follow input order.
// If any movement fails nothing is applied.
func (s *Service) ApplyMovements(ctx context.Context, movements []Movement) ([]entity.WarehouseStock, error) {
	if len(movements) == 0 {
		return nil, nil
	}
	for i, m := range movements {
		if err := m.Validate(); err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				appErr.WithDetail("movement", i)
			}
			return nil, err
		}
	}

	results := make([]entity.WarehouseStock, len(movements))
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		keys := make([]pairKey, 0, len(movements))
		for _, m := range movements {
			keys = append(keys, pairKey{m.ItemID, m.WarehouseID})
		}
		if err := s.lockPairs(ctx, keys); err != nil {
			return err
		}

		for i, m := range movements {
			stock, err := s.apply(ctx, m)
			if err != nil {
				return err
			}
			results[i] = stock
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, itemIDsOf(movements))
	return results, nil
}

// Transfer moves stock between warehouses as an atomic out/in pair sharing one doc reference.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) (TransferResult, error) {
	if req.FromWarehouseID == req.ToWarehouseID {
		return TransferResult{}, apperror.NewValidation("source and destination warehouse must differ")
	}
	if !req.Quantity.IsPositive() {
		return TransferResult{}, apperror.NewValidation("transfer quantity must be positive")
	}

	var result TransferResult
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.transfer(ctx, req)
		return err
	})
	if err != nil {
		return TransferResult{}, err
	}

	s.notify(ctx, []id.ID{req.ItemID})
	return result, nil
}

// TransferMany applies several transfers in one transaction.
func (s *Service) TransferMany(ctx context.Context, reqs []TransferRequest) ([]TransferResult, error) {
	for _, req := range reqs {
		if req.FromWarehouseID == req.ToWarehouseID {
			return nil, apperror.NewValidation("source and destination warehouse must differ")
		}
		if !req.Quantity.IsPositive() {
			return nil, apperror.NewValidation("transfer quantity must be positive")
		}
	}

	results := make([]TransferResult, len(reqs))
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		keys := make([]pairKey, 0, 2*len(reqs))
		for _, r := range reqs {
			keys = append(keys, pairKey{r.ItemID, r.FromWarehouseID}, pairKey{r.ItemID, r.ToWarehouseID})
		}
		if err := s.lockPairs(ctx, keys); err != nil {
			return err
		}
		for i, r := range reqs {
			res, err := s.transfer(ctx, r)
			if err != nil {
				return err
			}
			results[i] = res
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]id.ID, 0, len(reqs))
	for _, r := range reqs {
		ids = append(ids, r.ItemID)
	}
	s.notify(ctx, ids)
	return results, nil
}

func (s *Service) transfer(ctx context.Context, req TransferRequest) (TransferResult, error) {
	if err := s.lockPairs(ctx, []pairKey{
		{req.ItemID, req.FromWarehouseID},
		{req.ItemID, req.ToWarehouseID},
	}); err != nil {
		return TransferResult{}, err
	}

	source, err := s.repo.GetStockForUpdate(ctx, req.ItemID, req.FromWarehouseID)
	if err != nil {
		return TransferResult{}, fmt.Errorf("lock source: %w", err)
	}

	out := Movement{
		ItemID:        req.ItemID,
		WarehouseID:   req.FromWarehouseID,
		Type:          entity.TxTransferOut,
		Quantity:      req.Quantity.Neg(),
		UnitCost:      source.AverageCost,
		DocRef:        req.DocRef,
		AllowNegative: req.AllowNegative,
	}
	in := Movement{
		ItemID:      req.ItemID,
		WarehouseID: req.ToWarehouseID,
		Type:        entity.TxTransferIn,
		Quantity:    req.Quantity,
		UnitCost:    source.AverageCost,
		DocRef:      req.DocRef,
	}
	for _, m := range []Movement{out, in} {
		if err := m.Validate(); err != nil {
			return TransferResult{}, err
		}
	}

	from, err := s.apply(ctx, out)
	if err != nil {
		return TransferResult{}, err
	}
	to, err := s.apply(ctx, in)
	if err != nil {
		return TransferResult{}, err
	}
	return TransferResult{From: from, To: to}, nil
}

// apply performs the read-modify-write of one movement. The row must be lockable in ctx's transaction.
func (s *Service) apply(ctx context.Context, m Movement) (entity.WarehouseStock, error) {
	stock, err := s.repo.GetStockForUpdate(ctx, m.ItemID, m.WarehouseID)
	if err != nil {
		return entity.WarehouseStock{}, fmt.Errorf("lock stock %s: %w", id.Key(m.ItemID, m.WarehouseID), err)
	}

	newOnHand := stock.OnHand.Add(m.Quantity)
	if m.Quantity.IsNegative() && newOnHand.IsNegative() && !m.AllowNegative {
		return entity.WarehouseStock{}, apperror.NewInsufficientStock(
			m.ItemID.String(),
			m.WarehouseID.String(),
			m.Quantity.Neg().String(),
			stock.OnHand.String(),
		).WithDetail("doc_ref", m.DocRef)
	}

	unitCost := stock.AverageCost
	if m.Type.IsInbound() {
		unitCost = m.UnitCost
		stock.AverageCost = WeightedAverage(stock.OnHand, stock.AverageCost, m.Quantity, m.UnitCost)
	}

	now := time.Now().UTC()
	stock.OnHand = newOnHand
	stock.UpdatedAt = now

	if err := s.repo.SaveStock(ctx, stock); err != nil {
		return entity.WarehouseStock{}, fmt.Errorf("save stock: %w", err)
	}

	txn := entity.StockTransaction{
		ID:           id.New(),
		ItemID:       m.ItemID,
		WarehouseID:  m.WarehouseID,
		Type:         m.Type,
		Quantity:     m.Quantity,
		UnitCost:     unitCost,
		BalanceAfter: newOnHand,
		DocRef:       m.DocRef,
		CreatedBy:    appctx.GetUserID(ctx),
		CreatedAt:    now,
	}
	if err := s.repo.AppendTransaction(ctx, txn); err != nil {
		return entity.WarehouseStock{}, fmt.Errorf("append transaction: %w", err)
	}

	logger.Debug(ctx, "stock movement applied",
		"item_id", m.ItemID,
		"warehouse_id", m.WarehouseID,
		"type", m.Type,
		"quantity", m.Quantity.String(),
		"on_hand", newOnHand.String(),
		"doc_ref", m.DocRef,
	)
	return stock, nil
}

// AdjustCommitted changes the committed quantity of a pair. Results below zero are clamped.
// Called by sales order and delivery transitions only.
func (s *Service) AdjustCommitted(ctx context.Context, itemID, warehouseID id.ID, delta types.Quantity) (entity.WarehouseStock, error) {
	return s.adjustReserved(ctx, itemID, warehouseID, delta, "committed",
		func(st *entity.WarehouseStock) *types.Quantity { return &st.Committed })
}

// AdjustOnOrder changes the on-order quantity of a pair. Results below zero are clamped.
// Called by purchase order and goods receipt transitions only.
func (s *Service) AdjustOnOrder(ctx context.Context, itemID, warehouseID id.ID, delta types.Quantity) (entity.WarehouseStock, error) {
	return s.adjustReserved(ctx, itemID, warehouseID, delta, "on_order",
		func(st *entity.WarehouseStock) *types.Quantity { return &st.OnOrder })
}

func (s *Service) adjustReserved(
	ctx context.Context,
	itemID, warehouseID id.ID,
	delta types.Quantity,
	field string,
	pick func(*entity.WarehouseStock) *types.Quantity,
) (entity.WarehouseStock, error) {
	if id.IsNil(itemID) || id.IsNil(warehouseID) {
		return entity.WarehouseStock{}, apperror.NewValidation("item and warehouse are required")
	}

	var stock entity.WarehouseStock
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		stock, err = s.repo.GetStockForUpdate(ctx, itemID, warehouseID)
		if err != nil {
			return fmt.Errorf("lock stock: %w", err)
		}

		target := pick(&stock)
		next := target.Add(delta)
		if next.IsNegative() {
			logger.Warn(ctx, "reserved quantity would go negative, clamping to zero",
				"field", field,
				"item_id", itemID,
				"warehouse_id", warehouseID,
				"current", target.String(),
				"delta", delta.String(),
			)
			next = types.Zero()
		}
		*target = next
		stock.UpdatedAt = time.Now().UTC()

		return s.repo.SaveStock(ctx, stock)
	})
	if err != nil {
		return entity.WarehouseStock{}, err
	}

	s.notify(ctx, []id.ID{itemID})
	return stock, nil
}

// Stock returns the balance of a pair; an untouched pair reads as zero.
func (s *Service) Stock(ctx context.Context, itemID, warehouseID id.ID) (entity.WarehouseStock, error) {
	stock, err := s.repo.GetStock(ctx, itemID, warehouseID)
	if apperror.IsNotFound(err) {
		return entity.NewWarehouseStock(itemID, warehouseID), nil
	}
	return stock, err
}

// Balances returns a snapshot of balance rows.
func (s *Service) Balances(ctx context.Context, filter StockFilter) ([]entity.WarehouseStock, error) {
	return s.repo.ListStock(ctx, filter)
}

// Transactions returns the audit trail.
func (s *Service) Transactions(ctx context.Context, filter TransactionFilter) ([]entity.StockTransaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

// Reconcile checks that the audit trail of a pair sums to its on-hand quantity.
func (s *Service) Reconcile(ctx context.Context, itemID, warehouseID id.ID) (Reconciliation, error) {
	stock, err := s.Stock(ctx, itemID, warehouseID)
	if err != nil {
		return Reconciliation{}, err
	}
	sum, err := s.repo.SumTransactions(ctx, itemID, warehouseID)
	if err != nil {
		return Reconciliation{}, err
	}
	return Reconciliation{
		ItemID:      itemID,
		WarehouseID: warehouseID,
		OnHand:      stock.OnHand,
		LedgerSum:   sum,
		Consistent:  stock.OnHand.Equal(sum),
	}, nil
}

type pairKey struct {
	itemID      id.ID
	warehouseID id.ID
}

// lockPairs locks distinct pairs in a stable order so concurrent multi-row writers cannot deadlock.
func (s *Service) lockPairs(ctx context.Context, keys []pairKey) error {
	unique := make(map[string]pairKey, len(keys))
	for _, k := range keys {
		unique[id.Key(k.itemID, k.warehouseID)] = k
	}
	ordered := make([]string, 0, len(unique))
	for k := range unique {
		ordered = append(ordered, k)
	}
	slices.Sort(ordered)

	for _, k := range ordered {
		p := unique[k]
		if _, err := s.repo.GetStockForUpdate(ctx, p.itemID, p.warehouseID); err != nil {
			return fmt.Errorf("lock stock %s: %w", k, err)
		}
	}
	return nil
}

func (s *Service) notify(ctx context.Context, itemIDs []id.ID) {
	if s.notifier == nil || len(itemIDs) == 0 {
		return
	}
	s.notifier.StockChanged(ctx, itemIDs)
}

func itemIDsOf(movements []Movement) []id.ID {
	out := make([]id.ID, 0, len(movements))
	for _, m := range movements {
		out = append(out, m.ItemID)
	}
	return out
}
