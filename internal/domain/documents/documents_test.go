package documents_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockerp/internal/core/apperror"
	appctx "stockerp/internal/core/context"
	"stockerp/internal/core/id"
	"stockerp/internal/core/numerator"
	"stockerp/internal/core/types"
	"stockerp/internal/domain/access"
	"stockerp/internal/domain/documents"
	"stockerp/internal/domain/ledger"
	"stockerp/internal/domain/pricing"
	"stockerp/internal/infrastructure/lock"
	"stockerp/internal/infrastructure/storage/memory"
)

type env struct {
	svc     *documents.Service
	ledger  *ledger.Service
	pricing *pricing.Service
	wh      id.ID
	wh2     id.ID
	admin   context.Context
}

type failingCounter struct{}

func (failingCounter) Next(context.Context, string) (int64, error) {
	return 0, apperror.NewDependencyUnavailable("postgres", errors.New("connection refused"))
}

func newEnv(t *testing.T, counter numerator.Counter) *env {
	t.Helper()
	store := memory.New()
	led := ledger.NewService(store.Ledger(), store)
	prices := pricing.NewService(store.Pricing(), store)
	if counter == nil {
		counter = numerator.NewMemoryCounter()
	}
	svc := documents.NewService(documents.Config{
		Repo:      store.Documents(),
		Ledger:    led,
		Numbers:   numerator.NewService(counter),
		Evaluator: access.NewEvaluator(""),
		TxManager: store,
		Locker:    lock.NewKeyedMutex(),
		Prices:    prices,
	})
	return &env{
		svc:     svc,
		ledger:  led,
		pricing: prices,
		wh:      id.New(),
		wh2:     id.New(),
		admin:   asUser(t, "admin", access.AllAccessRole, []access.Permission{access.AllAccess()}),
	}
}

func asUser(t *testing.T, userID, role string, perms []access.Permission, warehouses ...id.ID) context.Context {
	ctx := appctx.WithActor(t.Context(), &appctx.Actor{UserID: userID, RoleCode: role})
	return access.WithSnapshot(ctx, access.NewSnapshot(userID, role, perms, warehouses))
}

func line(item id.ID, qty int64, price string) documents.LineInput {
	p := types.MustDecimal(price)
	return documents.LineInput{ItemID: item, Quantity: types.Qty(qty), UnitPrice: &p}
}

func (e *env) create(t *testing.T, ctx context.Context, in documents.CreateInput) *documents.Document {
	t.Helper()
	if id.IsNil(in.WarehouseID) {
		in.WarehouseID = e.wh
	}
	doc, err := e.svc.Create(ctx, in)
	require.NoError(t, err)
	return doc
}

func (e *env) transition(t *testing.T, doc *documents.Document, actions ...documents.Action) *documents.Document {
	t.Helper()
	for _, a := range actions {
		var err error
		doc, err = e.svc.Transition(e.admin, doc.ID, a, "")
		require.NoError(t, err, "action %s", a)
	}
	return doc
}

func (e *env) stock(t *testing.T, item, wh id.ID) ledgerRow {
	t.Helper()
	s, err := e.ledger.Stock(e.admin, item, wh)
	require.NoError(t, err)
	return ledgerRow{onHand: s.OnHand.String(), committed: s.Committed.String(), onOrder: s.OnOrder.String(), avg: s.AverageCost}
}

type ledgerRow struct {
	onHand, committed, onOrder string
	avg                        types.Money
}

func (e *env) receive(t *testing.T, item id.ID, qty int64, cost string) {
	t.Helper()
	grn := e.create(t, e.admin, documents.CreateInput{
		Type:  documents.TypeGoodsReceipt,
		Lines: []documents.LineInput{line(item, qty, cost)},
	})
	e.transition(t, grn, documents.ActionComplete)
}

func TestGoodsReceipt_CompletionIntoZeroStock(t *testing.T) {
	e := newEnv(t, nil)
	item := id.New()

	grn := e.create(t, e.admin, documents.CreateInput{
		Type:  documents.TypeGoodsReceipt,
		Lines: []documents.LineInput{line(item, 10, "5")},
	})
	assert.Equal(t, documents.StatusDraft, grn.Status)
	assert.True(t, strings.HasPrefix(grn.Number, "GRN-"), grn.Number)
	assert.False(t, grn.NumberFallback)

	grn = e.transition(t, grn, documents.ActionComplete)
	assert.Equal(t, documents.StatusCompleted, grn.Status)
	require.NotNil(t, grn.CompletedAt)

	row := e.stock(t, item, e.wh)
	assert.Equal(t, "10", row.onHand)
	assert.True(t, row.avg.Equal(types.Qty(5)))

	txns, err := e.ledger.Transactions(e.admin, ledger.TransactionFilter{DocRef: grn.Number})
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestPurchaseOrder_ReceiveAndAutoComplete(t *testing.T) {
	e := newEnv(t, nil)
	item := id.New()

	po := e.create(t, e.admin, documents.CreateInput{
		Type:  documents.TypePurchaseOrder,
		Lines: []documents.LineInput{line(item, 10, "5")},
	})
	po = e.transition(t, po, documents.ActionSubmit, documents.ActionApprove)
	assert.Equal(t, documents.StatusApproved, po.Status)
	require.NotNil(t, po.ApprovedBy)
	assert.Equal(t, "admin", *po.ApprovedBy)
	assert.Equal(t, "10", e.stock(t, item, e.wh).onOrder)

	src := po.ID
	for _, qty := range []int64{6, 4} {
		grn := e.create(t, e.admin, documents.CreateInput{
			Type:        documents.TypeGoodsReceipt,
			SourceDocID: &src,
			Lines:       []documents.LineInput{line(item, qty, "5")},
		})
		e.transition(t, grn, documents.ActionComplete)
	}

	row := e.stock(t, item, e.wh)
	assert.Equal(t, "10", row.onHand)
	assert.Equal(t, "0", row.onOrder)

	po, err := e.svc.Get(e.admin, po.ID)
	require.NoError(t, err)
	assert.Equal(t, documents.StatusCompleted, po.Status)
	assert.Equal(t, "10", po.Lines[0].ReceivedQty.String())

	history, err := e.svc.History(e.admin, po.ID)
	require.NoError(t, err)
	assert.Equal(t, documents.AuditAutoComplete, history[len(history)-1].Action)
}

func TestPurchaseOrder_OverReceiptReleasesOnlyOpenQty(t *testing.T) {
	e := newEnv(t, nil)
	item := id.New()

	po := e.create(t, e.admin, documents.CreateInput{
		Type:  documents.TypePurchaseOrder,
		Lines: []documents.LineInput{line(item, 5, "1")},
	})
	po = e.transition(t, po, documents.ActionSubmit, documents.ActionApprove)

	src := po.ID
	grn := e.create(t, e.admin, documents.CreateInput{
		Type:        documents.TypeGoodsReceipt,
		SourceDocID: &src,
		Lines:       []documents.LineInput{line(item, 8, "1")},
	})
	e.transition(t, grn, documents.ActionComplete)

	row := e.stock(t, item, e.wh)
	assert.Equal(t, "8", row.onHand)
	assert.Equal(t, "0", row.onOrder)
}

func TestPurchaseOrder_CancelAfterPartialReceipt(t *testing.T) {
	e := newEnv(t, nil)
	item := id.New()

	po := e.create(t, e.admin, documents.CreateInput{
		Type:  documents.TypePurchaseOrder,
		Lines: []documents.LineInput{line(item, 10, "2")},
	})
	po = e.transition(t, po, documents.ActionSubmit, documents.ActionApprove)

	src := po.ID
	grn := e.create(t, e.admin, documents.CreateInput{
		Type:        documents.TypeGoodsReceipt,
		SourceDocID: &src,
		Lines:       []documents.LineInput{line(item, 3, "2")},
	})
	e.transition(t, grn, documents.ActionComplete)
	assert.Equal(t, "7", e.stock(t, item, e.wh).onOrder)

	e.transition(t, po, documents.ActionCancel)
	row := e.stock(t, item, e.wh)
	assert.Equal(t, "0", row.onOrder)
	assert.Equal(t, "3", row.onHand)
}

func TestSalesOrder_DeliveryAndCancel(t *testing.T) {
	e := newEnv(t, nil)
	item := id.New()
	e.receive(t, item, 20, "3")

	so := e.create(t, e.admin, documents.CreateInput{
		Type:  documents.TypeSalesOrder,
		Lines: []documents.LineInput{line(item, 8, "10")},
	})
	so = e.transition(t, so, documents.ActionApprove)
	assert.Equal(t, "8", e.stock(t, item, e.wh).committed)

	src := so.ID
	dn := e.create(t, e.admin, documents.CreateInput{
		Type:        documents.TypeDelivery,
		SourceDocID: &src,
		Lines:       []documents.LineInput{line(item, 5, "0")},
	})
	dn = e.transition(t, dn, documents.ActionPost)
	assert.Equal(t, documents.StatusPosted, dn.Status)

	row := e.stock(t, item, e.wh)
	assert.Equal(t, "15", row.onHand)
	assert.Equal(t, "3", row.committed)

	so, err := e.svc.Get(e.admin, so.ID)
	require.NoError(t, err)
	assert.Equal(t, documents.StatusApproved, so.Status)
	assert.Equal(t, "5", so.Lines[0].DeliveredQty.String())

	e.transition(t, so, documents.ActionCancel)
	assert.Equal(t, "0", e.stock(t, item, e.wh).committed)
}

func TestSalesOrder_FullDeliveryCompletesOrder(t *testing.T) {
	e := newEnv(t, nil)
	item := id.New()
	e.receive(t, item, 5, "1")

	so := e.create(t, e.admin, documents.CreateInput{
		Type:  documents.TypeSalesOrder,
		Lines: []documents.LineInput{line(item, 5, "2")},
	})
	so = e.transition(t, so, documents.ActionApprove)

	src := so.ID
	dn := e.create(t, e.admin, documents.CreateInput{
		Type:        documents.TypeDelivery,
		SourceDocID: &src,
		Lines:       []documents.LineInput{line(item, 5, "0")},
	})
	e.transition(t, dn, documents.ActionPost)

	so, err := e.svc.Get(e.admin, so.ID)
	require.NoError(t, err)
	assert.Equal(t, documents.StatusCompleted, so.Status)
	assert.Equal(t, "0", e.stock(t, item, e.wh).committed)
}

func TestSalesOrder_DefaultsPriceFromPriceList(t *testing.T) {
	e := newEnv(t, nil)
	item := id.New()

	pl, err := e.pricing.CreatePriceList(e.admin, &pricing.PriceList{Code: "RETAIL", Name: "Retail", IsDefault: true})
	require.NoError(t, err)
	_, err = e.pricing.AddTier(e.admin, pl.ID, &pricing.Tier{ItemID: item, MinQuantity: types.Qty(1), Price: types.MustDecimal("12.50")})
	require.NoError(t, err)
	_, err = e.pricing.AddTier(e.admin, pl.ID, &pricing.Tier{ItemID: item, MinQuantity: types.Qty(10), Price: types.MustDecimal("11.00")})
	require.NoError(t, err)

	so := e.create(t, e.admin, documents.CreateInput{
		Type:  documents.TypeSalesOrder,
		Lines: []documents.LineInput{{ItemID: item, Quantity: types.Qty(10)}},
	})
	assert.True(t, so.Lines[0].UnitPrice.Equal(types.MustDecimal("11")))
	assert.True(t, so.Total.Equal(types.MustDecimal("110")))
}

func TestCycleCount_AdjustsToCountedQuantity(t *testing.T) {
	e := newEnv(t, nil)
	item := id.New()
	e.receive(t, item, 50, "2")

	cc := e.create(t, e.admin, documents.CreateInput{
		Type:  documents.TypeCycleCount,
		Lines: []documents.LineInput{{ItemID: item}},
	})
	require.NotNil(t, cc.Lines[0].SystemQty)
	assert.Equal(t, "50", cc.Lines[0].SystemQty.String())

	_, err := e.svc.Transition(e.admin, cc.ID, documents.ActionComplete, "")
	assert.Equal(t, apperror.CodeValidation, apperror.Kind(err), "uncounted lines block completion")

	cc, err = e.svc.RecordCount(e.admin, cc.ID, 1, types.Qty(47))
	require.NoError(t, err)
	assert.Equal(t, documents.StatusInProgress, cc.Status)

	e.transition(t, cc, documents.ActionComplete)
	assert.Equal(t, "47", e.stock(t, item, e.wh).onHand)

	txns, err := e.ledger.Transactions(e.admin, ledger.TransactionFilter{DocRef: cc.Number})
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "-3", txns[0].Quantity.String())
}

func TestTerminalStatesRejectEveryAction(t *testing.T) {
	e := newEnv(t, nil)
	item := id.New()

	grn := e.create(t, e.admin, documents.CreateInput{
		Type:  documents.TypeGoodsReceipt,
		Lines: []documents.LineInput{line(item, 4, "1")},
	})
	grn = e.transition(t, grn, documents.ActionComplete)
	before := e.stock(t, item, e.wh)

	for _, a := range []documents.Action{
		documents.ActionComplete, documents.ActionCancel, documents.ActionApprove, documents.ActionSubmit,
	} {
		_, err := e.svc.Transition(e.admin, grn.ID, a, "")
		assert.Equal(t, apperror.CodeInvalidStateTransition, apperror.Kind(err), "action %s", a)
	}
	after := e.stock(t, item, e.wh)
	assert.Equal(t, before.onHand, after.onHand)
	assert.True(t, before.avg.Equal(after.avg))

	pr := e.create(t, e.admin, documents.CreateInput{
		Type:  documents.TypePurchaseRequest,
		Lines: []documents.LineInput{line(item, 1, "0")},
	})
	pr = e.transition(t, pr, documents.ActionSubmit, documents.ActionApprove)
	_, err := e.svc.Transition(e.admin, pr.ID, documents.ActionCancel, "")
	assert.Equal(t, apperror.CodeInvalidStateTransition, apperror.Kind(err))
	assert.True(t, documents.IsTerminal(documents.TypePurchaseRequest, documents.StatusApproved))
}

func TestTransition_RequiresPermission(t *testing.T) {
	e := newEnv(t, nil)
	item := id.New()
	clerk := asUser(t, "clerk", access.RoleInventoryClerk, []access.Permission{
		access.Allow(access.ModuleInventory, access.ResourceGoodsReceipts, access.ActionCreate),
		access.Allow(access.ModuleInventory, access.ResourceGoodsReceipts, access.ActionRead),
		access.Allow(access.ModuleInventory, access.ResourceGoodsReceipts, access.ActionUpdate),
	}, e.wh)

	grn := e.create(t, clerk, documents.CreateInput{
		Type:  documents.TypeGoodsReceipt,
		Lines: []documents.LineInput{line(item, 3, "1")},
	})

	_, err := e.svc.Transition(clerk, grn.ID, documents.ActionComplete, "")
	assert.Equal(t, apperror.CodePermissionDenied, apperror.Kind(err))
	assert.Equal(t, "0", e.stock(t, item, e.wh).onHand)

	other := asUser(t, "other", access.RoleInventoryClerk, []access.Permission{
		access.Allow(access.ModuleInventory, access.ResourceGoodsReceipts, access.ActionCreate),
	}, e.wh2)
	_, err = e.svc.Create(other, documents.CreateInput{
		Type:        documents.TypeGoodsReceipt,
		WarehouseID: e.wh,
		Lines:       []documents.LineInput{line(item, 1, "1")},
	})
	assert.Equal(t, apperror.CodePermissionDenied, apperror.Kind(err), "warehouse outside assignment")

	nobody := asUser(t, "nobody", "", nil)
	_, err = e.svc.Get(nobody, grn.ID)
	assert.Equal(t, apperror.CodePermissionDenied, apperror.Kind(err))
}

func TestGoodsIssue_InsufficientStockLeavesDraft(t *testing.T) {
	e := newEnv(t, nil)
	item := id.New()
	e.receive(t, item, 2, "1")

	gin := e.create(t, e.admin, documents.CreateInput{
		Type:  documents.TypeGoodsIssue,
		Lines: []documents.LineInput{line(item, 5, "0")},
	})
	_, err := e.svc.Transition(e.admin, gin.ID, documents.ActionComplete, "")
	assert.Equal(t, apperror.CodeInsufficientStock, apperror.Kind(err))

	gin, err = e.svc.Get(e.admin, gin.ID)
	require.NoError(t, err)
	assert.Equal(t, documents.StatusDraft, gin.Status)
	assert.Equal(t, "2", e.stock(t, item, e.wh).onHand)
}

func TestGoodsIssue_AllowNegativeNeedsStockApproval(t *testing.T) {
	e := newEnv(t, nil)
	item := id.New()

	clerk := asUser(t, "clerk", access.RoleInventoryClerk, []access.Permission{
		access.Allow(access.ModuleInventory, access.ResourceGoodsIssues, access.ActionCreate),
	}, e.wh)
	_, err := e.svc.Create(clerk, documents.CreateInput{
		Type:          documents.TypeGoodsIssue,
		WarehouseID:   e.wh,
		AllowNegative: true,
		Lines:         []documents.LineInput{line(item, 1, "0")},
	})
	assert.Equal(t, apperror.CodePermissionDenied, apperror.Kind(err))

	gin := e.create(t, e.admin, documents.CreateInput{
		Type:          documents.TypeGoodsIssue,
		AllowNegative: true,
		Lines:         []documents.LineInput{line(item, 3, "0")},
	})
	e.transition(t, gin, documents.ActionComplete)
	assert.Equal(t, "-3", e.stock(t, item, e.wh).onHand)
}

func TestCycleCount_CorrectsOverdrawnStock(t *testing.T) {
	e := newEnv(t, nil)
	item := id.New()
	e.receive(t, item, 5, "2")

	gin := e.create(t, e.admin, documents.CreateInput{
		Type:          documents.TypeGoodsIssue,
		AllowNegative: true,
		Lines:         []documents.LineInput{line(item, 8, "0")},
	})
	e.transition(t, gin, documents.ActionComplete)
	require.Equal(t, "-3", e.stock(t, item, e.wh).onHand)

	cc := e.create(t, e.admin, documents.CreateInput{
		Type:  documents.TypeCycleCount,
		Lines: []documents.LineInput{{ItemID: item}},
	})
	require.NotNil(t, cc.Lines[0].SystemQty)
	assert.Equal(t, "-3", cc.Lines[0].SystemQty.String())

	cc, err := e.svc.RecordCount(e.admin, cc.ID, 1, types.Qty(0))
	require.NoError(t, err)
	e.transition(t, cc, documents.ActionComplete)
	assert.Equal(t, "0", e.stock(t, item, e.wh).onHand)

	txns, err := e.ledger.Transactions(e.admin, ledger.TransactionFilter{DocRef: cc.Number})
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "3", txns[0].Quantity.String())

	_, err = e.svc.RecordCount(e.admin, cc.ID, 1, types.Qty(-1))
	assert.Error(t, err)
}

func TestStockTransfer(t *testing.T) {
	e := newEnv(t, nil)
	item := id.New()
	e.receive(t, item, 10, "4")

	dest := e.wh2
	trf := e.create(t, e.admin, documents.CreateInput{
		Type:                   documents.TypeStockTransfer,
		DestinationWarehouseID: &dest,
		Lines:                  []documents.LineInput{line(item, 4, "0")},
	})
	e.transition(t, trf, documents.ActionComplete)

	assert.Equal(t, "6", e.stock(t, item, e.wh).onHand)
	to := e.stock(t, item, e.wh2)
	assert.Equal(t, "4", to.onHand)
	assert.True(t, to.avg.Equal(types.Qty(4)))

	_, err := e.svc.Create(e.admin, documents.CreateInput{
		Type:        documents.TypeStockTransfer,
		WarehouseID: e.wh,
		Lines:       []documents.LineInput{line(item, 1, "0")},
	})
	assert.Equal(t, apperror.CodeValidation, apperror.Kind(err), "destination is required")
}

func TestPickList_FromSalesOrder(t *testing.T) {
	e := newEnv(t, nil)
	item := id.New()
	e.receive(t, item, 10, "1")

	so := e.create(t, e.admin, documents.CreateInput{
		Type:  documents.TypeSalesOrder,
		Lines: []documents.LineInput{line(item, 6, "2")},
	})
	so = e.transition(t, so, documents.ActionApprove)

	src := so.ID
	pl := e.create(t, e.admin, documents.CreateInput{Type: documents.TypePickList, SourceDocID: &src})
	assert.Equal(t, documents.StatusPending, pl.Status)
	require.Len(t, pl.Lines, 1)
	assert.Equal(t, "6", pl.Lines[0].Quantity.String())

	pl, err := e.svc.RecordPick(e.admin, pl.ID, 1, types.Qty(4))
	require.NoError(t, err)
	assert.Equal(t, documents.StatusInProgress, pl.Status)

	_, err = e.svc.RecordPick(e.admin, pl.ID, 1, types.Qty(3))
	assert.Equal(t, apperror.CodeValidation, apperror.Kind(err), "cannot pick above required")

	pl, err = e.svc.RecordPick(e.admin, pl.ID, 1, types.Qty(2))
	require.NoError(t, err)
	assert.Equal(t, "6", pl.Lines[0].PickedQty.String())

	pl = e.transition(t, pl, documents.ActionComplete)
	assert.Equal(t, documents.StatusCompleted, pl.Status)
	assert.Equal(t, "10", e.stock(t, item, e.wh).onHand, "picking does not move stock")
}

func TestTotalsAreDerivedFromLines(t *testing.T) {
	e := newEnv(t, nil)
	item := id.New()
	price := types.MustDecimal("10")

	po := e.create(t, e.admin, documents.CreateInput{
		Type:            documents.TypePurchaseOrder,
		TaxPercent:      types.Qty(10),
		DiscountPercent: types.Qty(5),
		Lines: []documents.LineInput{
			{ItemID: item, Quantity: types.Qty(2), UnitPrice: &price, DiscountPercent: types.Qty(10)},
		},
	})
	assert.Equal(t, "18", po.Lines[0].LineTotal.String())
	assert.Equal(t, "18", po.Subtotal.String())
	assert.Equal(t, "0.9", po.DiscountAmount.String())
	assert.Equal(t, "1.71", po.TaxAmount.String())
	assert.Equal(t, "18.81", po.Total.String())
}

func TestUpdateDraft(t *testing.T) {
	e := newEnv(t, nil)
	item := id.New()
	perms := []access.Permission{
		access.Allow(access.ModuleProcurement, access.ResourcePurchaseOrders, access.ActionCreate),
		access.Allow(access.ModuleProcurement, access.ResourcePurchaseOrders, access.ActionUpdate),
	}
	author := asUser(t, "author", access.RoleStockManager, perms, e.wh)
	stranger := asUser(t, "stranger", access.RoleStockManager, perms, e.wh)

	po := e.create(t, author, documents.CreateInput{
		Type:  documents.TypePurchaseOrder,
		Lines: []documents.LineInput{line(item, 1, "1")},
	})

	upd := documents.UpdateInput{Version: po.Version, WarehouseID: e.wh, Lines: []documents.LineInput{line(item, 3, "2")}}
	_, err := e.svc.UpdateDraft(stranger, po.ID, upd)
	assert.Equal(t, apperror.CodePermissionDenied, apperror.Kind(err))

	po, err = e.svc.UpdateDraft(author, po.ID, upd)
	require.NoError(t, err)
	assert.Equal(t, "6", po.Total.String())

	_, err = e.svc.UpdateDraft(author, po.ID, upd)
	assert.Equal(t, apperror.CodeConflict, apperror.Kind(err), "stale version")

	e.transition(t, po, documents.ActionSubmit)
	upd.Version = 0
	_, err = e.svc.UpdateDraft(author, po.ID, upd)
	assert.Equal(t, apperror.CodeInvalidStateTransition, apperror.Kind(err))
}

func TestAnnotateTerminalDocument(t *testing.T) {
	e := newEnv(t, nil)
	item := id.New()

	grn := e.create(t, e.admin, documents.CreateInput{
		Type:  documents.TypeGoodsReceipt,
		Lines: []documents.LineInput{line(item, 1, "1")},
	})
	e.transition(t, grn, documents.ActionCancel)

	entry, err := e.svc.Annotate(e.admin, grn.ID, "supplier never delivered")
	require.NoError(t, err)
	assert.Equal(t, documents.AuditAnnotate, entry.Action)

	history, err := e.svc.History(e.admin, grn.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, documents.AuditCreate, history[0].Action)
	assert.Equal(t, string(documents.ActionCancel), history[1].Action)
	assert.Equal(t, documents.StatusCancelled, history[1].ToStatus)
	assert.Equal(t, "supplier never delivered", history[2].Note)
}

func TestNumberFallbackIsObservable(t *testing.T) {
	e := newEnv(t, failingCounter{})

	doc := e.create(t, e.admin, documents.CreateInput{
		Type:  documents.TypePurchaseRequest,
		Lines: []documents.LineInput{line(id.New(), 1, "0")},
	})
	assert.True(t, doc.NumberFallback)
	assert.True(t, strings.HasPrefix(doc.Number, "PR-"))
}

func TestList_FiltersByReadableTypes(t *testing.T) {
	e := newEnv(t, nil)
	item := id.New()
	e.create(t, e.admin, documents.CreateInput{Type: documents.TypeGoodsReceipt, Lines: []documents.LineInput{line(item, 1, "1")}})
	e.create(t, e.admin, documents.CreateInput{Type: documents.TypeSalesOrder, Lines: []documents.LineInput{line(item, 1, "1")}})

	sales := asUser(t, "sales", access.RoleSales, []access.Permission{
		access.Allow(access.ModuleSales, access.ResourceSalesOrders, access.ActionRead),
	})
	page, err := e.svc.List(sales, documents.Filter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, documents.TypeSalesOrder, page.Items[0].Type)

	_, err = e.svc.List(sales, documents.Filter{Types: []documents.DocType{documents.TypeGoodsReceipt}})
	assert.Equal(t, apperror.CodePermissionDenied, apperror.Kind(err))
}
