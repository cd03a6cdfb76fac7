package items_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockerp/internal/core/apperror"
	appctx "stockerp/internal/core/context"
	"stockerp/internal/core/entity"
	"stockerp/internal/core/id"
	"stockerp/internal/core/types"
	"stockerp/internal/domain"
	"stockerp/internal/domain/alerts"
	"stockerp/internal/domain/items"
	"stockerp/internal/domain/ledger"
	"stockerp/internal/infrastructure/cache"
	"stockerp/internal/infrastructure/storage/memory"
)

type fixture struct {
	svc    *items.Service
	ledger *ledger.Service
}

func newFixture(t *testing.T) (*fixture, context.Context) {
	t.Helper()
	store := memory.New()
	ledgerSvc := ledger.NewService(store.Ledger(), store)
	ctx := appctx.WithActor(t.Context(), &appctx.Actor{UserID: "mgr", RoleCode: "Z_STOCK_MGR"})
	return &fixture{
		svc:    items.NewService(store.Items(), ledgerSvc, store),
		ledger: ledgerSvc,
	}, ctx
}

func TestCreate_WithOpeningBalances(t *testing.T) {
	f, ctx := newFixture(t)
	whA, whB := id.New(), id.New()

	item, err := f.svc.Create(ctx, items.CreateInput{
		Item: items.NewItem("SKU-1", "Widget"),
		OpeningBalances: []items.OpeningBalance{
			{WarehouseID: whA, Quantity: types.Qty(10), UnitCost: types.MustDecimal("2")},
			{WarehouseID: whB, Quantity: types.Qty(30), UnitCost: types.MustDecimal("4")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "mgr", item.CreatedBy)

	txns, err := f.ledger.Transactions(ctx, ledger.TransactionFilter{DocRef: "OP-SKU-1"})
	require.NoError(t, err)
	require.Len(t, txns, 2)
	for _, tx := range txns {
		assert.Equal(t, entity.TxOpeningBalance, tx.Type)
	}

	sum, err := f.svc.StockSummary(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, sum.OnHand.Equal(types.Qty(40)))
	assert.True(t, sum.Available.Equal(types.Qty(40)))
	// (10*2 + 30*4) / 40
	assert.True(t, sum.AverageCost.Equal(types.MustDecimal("3.5")), "got %s", sum.AverageCost)
}

func TestCreate_DuplicateCodeConflicts(t *testing.T) {
	f, ctx := newFixture(t)

	_, err := f.svc.Create(ctx, items.CreateInput{Item: items.NewItem("DUP", "one")})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, items.CreateInput{Item: items.NewItem("DUP", "two")})
	assert.Equal(t, apperror.CodeConflict, apperror.Kind(err))
}

func TestCreate_FailedOpeningBalanceRollsBackItem(t *testing.T) {
	f, ctx := newFixture(t)

	_, err := f.svc.Create(ctx, items.CreateInput{
		Item: items.NewItem("BAD", "bad"),
		OpeningBalances: []items.OpeningBalance{
			{WarehouseID: id.Nil(), Quantity: types.Qty(1)},
		},
	})
	require.Error(t, err)

	_, err = f.svc.GetByCode(ctx, "BAD")
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreate_Validation(t *testing.T) {
	f, ctx := newFixture(t)

	it := items.NewItem("V", "valid")
	it.MinStockLevel = types.Qty(10)
	it.MaxStockLevel = types.Qty(5)
	_, err := f.svc.Create(ctx, items.CreateInput{Item: it})
	assert.Equal(t, apperror.CodeValidation, apperror.Kind(err))

	it = items.NewItem("", "no code")
	_, err = f.svc.Create(ctx, items.CreateInput{Item: it})
	assert.Equal(t, apperror.CodeValidation, apperror.Kind(err))

	svc := items.NewItem("SVC", "service")
	svc.IsInventoryItem = false
	_, err = f.svc.Create(ctx, items.CreateInput{
		Item:            svc,
		OpeningBalances: []items.OpeningBalance{{WarehouseID: id.New(), Quantity: types.Qty(1)}},
	})
	assert.Equal(t, apperror.CodeValidation, apperror.Kind(err))
}

func TestUpdateAndDeactivate(t *testing.T) {
	f, ctx := newFixture(t)

	item, err := f.svc.Create(ctx, items.CreateInput{Item: items.NewItem("U-1", "Before")})
	require.NoError(t, err)

	edit := *item
	edit.Name = "After"
	edit.MinStockLevel = types.Qty(3)
	updated, err := f.svc.Update(ctx, &edit)
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Name)
	assert.Equal(t, item.Version+1, updated.Version)

	stale := *item
	stale.Name = "Stale"
	_, err = f.svc.Update(ctx, &stale)
	assert.Equal(t, apperror.CodeConflict, apperror.Kind(err))

	deactivated, err := f.svc.Deactivate(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	got, err := f.svc.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive, "deactivated items are kept")

	page, err := f.svc.List(ctx, items.Filter{ListFilter: domain.DefaultListFilter()})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	page, err = f.svc.List(ctx, items.Filter{ListFilter: domain.ListFilter{IncludeInactive: true}})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

type recordingNotifier struct {
	calls [][]id.ID
}

func (r *recordingNotifier) StockChanged(_ context.Context, itemIDs []id.ID) {
	r.calls = append(r.calls, itemIDs)
}

func TestMasterDataChangesNotify(t *testing.T) {
	f, ctx := newFixture(t)
	rec := &recordingNotifier{}
	f.svc.SetNotifier(rec)

	item, err := f.svc.Create(ctx, items.CreateInput{Item: items.NewItem("N-1", "Nut")})
	require.NoError(t, err)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, []id.ID{item.ID}, rec.calls[0])

	edit := *item
	edit.MinStockLevel = types.Qty(5)
	_, err = f.svc.Update(ctx, &edit)
	require.NoError(t, err)
	assert.Len(t, rec.calls, 2)

	_, err = f.svc.Deactivate(ctx, item.ID)
	require.NoError(t, err)
	assert.Len(t, rec.calls, 3)

	_, err = f.svc.Deactivate(ctx, item.ID)
	require.NoError(t, err)
	assert.Len(t, rec.calls, 3, "already inactive")

	stale := *item
	stale.Name = "Stale"
	_, err = f.svc.Update(ctx, &stale)
	require.Error(t, err)
	assert.Len(t, rec.calls, 3, "failed updates are silent")
}

func TestDeactivate_DropsCachedAlert(t *testing.T) {
	store := memory.New()
	ledgerSvc := ledger.NewService(store.Ledger(), store)
	alertSvc := alerts.NewService(store.Items(), ledgerSvc, cache.NewMemoryAlertCache(time.Hour), store)
	ledgerSvc.SetNotifier(alertSvc)
	svc := items.NewService(store.Items(), ledgerSvc, store)
	svc.SetNotifier(alertSvc)
	ctx := appctx.WithActor(t.Context(), &appctx.Actor{UserID: "mgr"})

	bolt := items.NewItem("BOLT", "Bolt")
	bolt.MinStockLevel = types.Qty(10)
	bolt, err := svc.Create(ctx, items.CreateInput{Item: bolt})
	require.NoError(t, err)

	snap, err := alertSvc.Current(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Alerts, 1)
	assert.Equal(t, "BOLT", snap.Alerts[0].ItemCode)

	_, err = svc.Deactivate(ctx, bolt.ID)
	require.NoError(t, err)

	snap, err = alertSvc.Current(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Alerts)
}

func TestList_SearchAndPaging(t *testing.T) {
	f, ctx := newFixture(t)
	for _, code := range []string{"BOLT-1", "BOLT-2", "NUT-1"} {
		_, err := f.svc.Create(ctx, items.CreateInput{Item: items.NewItem(code, code)})
		require.NoError(t, err)
	}

	page, err := f.svc.List(ctx, items.Filter{ListFilter: domain.ListFilter{Search: "bolt", Limit: 1}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.TotalCount)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "BOLT-1", page.Items[0].Code)
}
