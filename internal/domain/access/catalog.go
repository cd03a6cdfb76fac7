package access

// Role codes shipped with the default catalog.
const (
	RoleStockManager   = "Z_STOCK_MGR"
	RoleInventoryClerk = "Z_INV_CLERK"
	RoleProduction     = "Z_PROD_STAFF"
	RoleSales          = "Z_SALES_STAFF"
	RoleHRManager      = "Z_HR_MANAGER"
	RoleHROfficer      = "Z_HR_OFFICER"
	RoleFinance        = "Z_FINANCE"
)

func crud(module Module, r Resource) []Permission {
	return []Permission{
		Allow(module, r, ActionCreate),
		Allow(module, r, ActionRead),
		Allow(module, r, ActionUpdate),
		Allow(module, r, ActionDelete),
	}
}

func readOnly(module Module, resources ...Resource) []Permission {
	out := make([]Permission, 0, len(resources))
	for _, r := range resources {
		out = append(out, Allow(module, r, ActionRead))
	}
	return out
}

func join(groups ...[]Permission) []Permission {
	var out []Permission
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// DefaultRoles returns the built-in role catalog used to seed a fresh database
// and to back the in-memory store.
func DefaultRoles() []Role {
	inventoryDocs := []Resource{
		ResourceGoodsReceipts, ResourceGoodsIssues, ResourceStockTransfers,
		ResourceCycleCounts, ResourcePickLists,
	}

	var stockMgr []Permission
	for _, r := range inventoryDocs {
		stockMgr = append(stockMgr, crud(ModuleInventory, r)...)
		stockMgr = append(stockMgr, Allow(ModuleInventory, r, ActionApprove))
	}
	stockMgr = join(stockMgr,
		crud(ModuleInventory, ResourceItems),
		crud(ModuleInventory, ResourceStock),
		[]Permission{Allow(ModuleInventory, ResourceStock, ActionApprove)},
		crud(ModuleProcurement, ResourcePurchaseOrders),
		[]Permission{Allow(ModuleProcurement, ResourcePurchaseOrders, ActionApprove)},
		crud(ModuleProcurement, ResourcePurchaseRequests),
		[]Permission{Allow(ModuleProcurement, ResourcePurchaseRequests, ActionApprove)},
		readOnly(ModuleReports, ResourceReports),
	)

	var clerk []Permission
	for _, r := range inventoryDocs {
		clerk = append(clerk,
			Allow(ModuleInventory, r, ActionCreate),
			Allow(ModuleInventory, r, ActionRead),
			Allow(ModuleInventory, r, ActionUpdate),
		)
	}
	clerk = join(clerk,
		readOnly(ModuleInventory, ResourceItems, ResourceStock),
		[]Permission{
			Allow(ModuleProcurement, ResourcePurchaseRequests, ActionCreate),
			Allow(ModuleProcurement, ResourcePurchaseRequests, ActionRead),
		},
	)

	sales := join(
		crud(ModuleSales, ResourceSalesOrders),
		crud(ModuleOperations, ResourceDeliveries),
		[]Permission{
			Allow(ModuleOperations, ResourceDeliveries, ActionApprove),
			Allow(ModuleOperations, ResourcePickLists, ActionCreate),
			Allow(ModuleOperations, ResourcePickLists, ActionRead),
			Allow(ModuleOperations, ResourcePickLists, ActionUpdate),
		},
		readOnly(ModuleSales, ResourceItems, ResourceStock, ResourcePriceLists),
	)

	production := join(
		crud(ModuleOperations, ResourceProductionOrders),
		readOnly(ModuleInventory, ResourceItems, ResourceStock),
		[]Permission{
			Allow(ModuleInventory, ResourceGoodsIssues, ActionCreate),
			Allow(ModuleInventory, ResourceGoodsIssues, ActionRead),
		},
	)

	hrManager := join(
		crud(ModuleHR, ResourceEmployees),
		[]Permission{Allow(ModuleHR, ResourceEmployees, ActionApprove)},
		readOnly(ModuleReports, ResourceReports),
	)

	hrOfficer := []Permission{
		Allow(ModuleHR, ResourceEmployees, ActionCreate),
		Allow(ModuleHR, ResourceEmployees, ActionRead),
		Allow(ModuleHR, ResourceEmployees, ActionUpdate),
	}

	finance := join(
		crud(ModuleFinance, ResourceJournalEntries),
		[]Permission{Allow(ModuleFinance, ResourceJournalEntries, ActionApprove)},
		crud(ModuleSales, ResourcePriceLists),
		readOnly(ModuleProcurement, ResourcePurchaseOrders),
		readOnly(ModuleReports, ResourceReports),
	)

	return []Role{
		{Code: AllAccessRole, Name: "Administrator", Permissions: []Permission{AllAccess()}, IsActive: true},
		{Code: RoleStockManager, Name: "Stock Manager", Permissions: stockMgr, IsActive: true},
		{Code: RoleInventoryClerk, Name: "Inventory Clerk", Permissions: clerk, IsActive: true},
		{Code: RoleProduction, Name: "Production Staff", Permissions: production, IsActive: true},
		{Code: RoleSales, Name: "Sales Staff", Permissions: sales, IsActive: true},
		{Code: RoleHRManager, Name: "HR Manager", Permissions: hrManager, IsActive: true},
		{Code: RoleHROfficer, Name: "HR Officer", Permissions: hrOfficer, IsActive: true},
		{Code: RoleFinance, Name: "Finance", Permissions: finance, IsActive: true},
	}
}
