package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockerp/internal/core/apperror"
	"stockerp/internal/core/id"
)

var allResources = []Resource{
	ResourceItems, ResourceStock, ResourcePurchaseOrders, ResourceGoodsReceipts,
	ResourceSalesOrders, ResourceDeliveries, ResourceCycleCounts, ResourceRoles,
}

var allActions = []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionApprove}

func TestHasPermission_WildcardGrantsEverythingRegardlessOfRole(t *testing.T) {
	e := NewEvaluator("")
	s := NewSnapshot("u1", RoleInventoryClerk, []Permission{AllAccess()}, nil)

	for _, r := range allResources {
		for _, a := range allActions {
			assert.True(t, e.HasPermission(s, r, a), "%s:%s", r, a)
		}
	}
}

func TestHasPermission_EmptySetFailsClosed(t *testing.T) {
	e := NewEvaluator("")

	for _, s := range []Snapshot{
		NewSnapshot("u1", RoleSales, nil, nil),
		UnavailableSnapshot("u1", RoleSales),
		{},
	} {
		for _, r := range allResources {
			for _, a := range allActions {
				assert.False(t, e.HasPermission(s, r, a))
			}
		}
	}
}

func TestHasPermission_AllAccessRoleFailsOpenWithoutPermissions(t *testing.T) {
	e := NewEvaluator("")
	s := UnavailableSnapshot("root", AllAccessRole)

	assert.True(t, e.HasPermission(s, ResourceRoles, ActionDelete))
	assert.True(t, e.HasWarehouseAccess(s, id.New()))
}

func TestHasPermission_CustomAllAccessRole(t *testing.T) {
	e := NewEvaluator("SUPER")

	assert.True(t, e.HasPermission(UnavailableSnapshot("u", "SUPER"), ResourceItems, ActionCreate))
	assert.False(t, e.HasPermission(UnavailableSnapshot("u", AllAccessRole), ResourceItems, ActionCreate))
}

func TestHasPermission_Scan(t *testing.T) {
	e := NewEvaluator("")
	s := NewSnapshot("u1", RoleSales, []Permission{
		Allow(ModuleSales, ResourceSalesOrders, ActionCreate),
		{Resource: OnResource(ResourceDeliveries), Action: AnyAction(), Module: ModuleOperations},
		{Resource: AnyResource(), Action: OnAction(ActionRead), Module: ModuleReports},
	}, nil)

	assert.True(t, e.HasPermission(s, ResourceSalesOrders, ActionCreate))
	assert.False(t, e.HasPermission(s, ResourceSalesOrders, ActionApprove))
	assert.True(t, e.HasPermission(s, ResourceDeliveries, ActionApprove))
	assert.True(t, e.HasPermission(s, ResourcePurchaseOrders, ActionRead))
	assert.False(t, e.HasPermission(s, ResourcePurchaseOrders, ActionUpdate))
}

func TestResolve_OverridesTakePrecedence(t *testing.T) {
	bundle := []Permission{
		Allow(ModuleInventory, ResourceItems, ActionRead),
		Allow(ModuleInventory, ResourceItems, ActionUpdate),
	}
	overrides := []Override{
		{Kind: OverrideRevoke, Permission: Allow(ModuleInventory, ResourceItems, ActionUpdate)},
		{Kind: OverrideGrant, Permission: Allow(ModuleInventory, ResourceStock, ActionApprove)},
		{Kind: OverrideRevoke, Permission: Allow(ModuleInventory, ResourceRoles, ActionRead)},
	}

	resolved := Resolve(bundle, overrides)

	e := NewEvaluator("")
	s := NewSnapshot("u1", RoleInventoryClerk, resolved, nil)
	assert.True(t, e.HasPermission(s, ResourceItems, ActionRead))
	assert.False(t, e.HasPermission(s, ResourceItems, ActionUpdate))
	assert.True(t, e.HasPermission(s, ResourceStock, ActionApprove))
	assert.Len(t, bundle, 2, "inputs must not be mutated")
}

func TestHasModuleAccess(t *testing.T) {
	e := NewEvaluator("")
	s := NewSnapshot("u1", RoleSales, []Permission{Allow(ModuleSales, ResourceSalesOrders, ActionRead)}, nil)

	assert.True(t, e.HasModuleAccess(s, ModuleSales))
	assert.False(t, e.HasModuleAccess(s, ModuleFinance))
}

func TestHasAnyAndAll(t *testing.T) {
	e := NewEvaluator("")
	s := NewSnapshot("u1", RoleSales, []Permission{Allow(ModuleSales, ResourceSalesOrders, ActionRead)}, nil)

	read := Check{ResourceSalesOrders, ActionRead}
	approve := Check{ResourceSalesOrders, ActionApprove}

	assert.True(t, e.HasAnyPermission(s, approve, read))
	assert.False(t, e.HasAllPermissions(s, approve, read))
	assert.True(t, e.HasAllPermissions(s, read))
}

func TestRequireAnyAndAll(t *testing.T) {
	e := NewEvaluator("")
	s := NewSnapshot("u1", RoleSales, []Permission{Allow(ModuleSales, ResourceSalesOrders, ActionCreate)}, nil)

	create := Check{ResourceSalesOrders, ActionCreate}
	prices := Check{ResourcePriceLists, ActionRead}

	require.NoError(t, e.RequireAny(s, prices, create))
	require.NoError(t, e.RequireAll(s, create))

	err := e.RequireAll(s, create, prices)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodePermissionDenied, appErr.Code)
	assert.Equal(t, "price_lists", appErr.Details["resource"], "names the missing grant")

	err = e.RequireAny(NewSnapshot("u2", "", nil, nil), prices, create)
	appErr, ok = apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"price_lists:read", "sales_orders:create"}, appErr.Details["anyOf"])
}

func TestRequire(t *testing.T) {
	e := NewEvaluator("")
	wh := id.New()
	s := NewSnapshot("u1", RoleSales, []Permission{Allow(ModuleSales, ResourceSalesOrders, ActionRead)}, []id.ID{wh})

	require.NoError(t, e.Require(s, ResourceSalesOrders, ActionRead))

	err := e.Require(s, ResourceSalesOrders, ActionApprove)
	assert.Equal(t, apperror.CodePermissionDenied, apperror.Kind(err))

	require.NoError(t, e.RequireWarehouse(s, wh))
	assert.Equal(t, apperror.CodePermissionDenied, apperror.Kind(e.RequireWarehouse(s, id.New())))
}

func TestParsePermission(t *testing.T) {
	p, err := ParsePermission("inventory", "items", "read")
	require.NoError(t, err)
	assert.True(t, p.Matches(ResourceItems, ActionRead))
	assert.Equal(t, "inventory/items:read", p.String())

	p, err = ParsePermission("admin", "*", "*")
	require.NoError(t, err)
	assert.True(t, p.IsAllAccess())

	_, err = ParsePermission("inventory", "itmes", "read")
	assert.Error(t, err)
	_, err = ParsePermission("inventory", "items", "raed")
	assert.Error(t, err)
	_, err = ParsePermission("warehouse", "items", "read")
	assert.Error(t, err)
}

func TestZeroRefsMatchNothing(t *testing.T) {
	var p Permission
	assert.False(t, p.Matches(ResourceItems, ActionRead))
	assert.False(t, p.IsAllAccess())
}

func TestSnapshotIsImmutable(t *testing.T) {
	perms := []Permission{Allow(ModuleSales, ResourceSalesOrders, ActionRead)}
	s := NewSnapshot("u1", RoleSales, perms, nil)

	perms[0] = AllAccess()
	got := s.Permissions()
	got[0] = AllAccess()

	assert.False(t, NewEvaluator("").HasPermission(s, ResourceRoles, ActionDelete))
}

func TestDefaultRoles(t *testing.T) {
	e := NewEvaluator("")
	roles := map[string]Role{}
	for _, r := range DefaultRoles() {
		roles[r.Code] = r
	}
	require.Contains(t, roles, AllAccessRole)

	mgr := NewSnapshot("m", RoleStockManager, roles[RoleStockManager].Permissions, nil)
	assert.True(t, e.HasPermission(mgr, ResourceGoodsReceipts, ActionApprove))
	assert.True(t, e.HasModuleAccess(mgr, ModuleInventory))

	clerk := NewSnapshot("c", RoleInventoryClerk, roles[RoleInventoryClerk].Permissions, nil)
	assert.True(t, e.HasPermission(clerk, ResourceGoodsReceipts, ActionCreate))
	assert.False(t, e.HasPermission(clerk, ResourceGoodsReceipts, ActionApprove))
	assert.False(t, e.HasModuleAccess(clerk, ModuleFinance))
}
