// Package access implements role-based permission evaluation.
//
// Permissions are closed tagged values: a resource or action is either a
// known identifier or the explicit wildcard. Unknown names are rejected at
// parse time so a typo can neither grant nor silently deny access.
package access

import (
	"fmt"
	"strings"
)

// Wildcard is the textual form of the "any" tag.
const Wildcard = "*"

// Resource identifies a protected kind of record.
type Resource string

const (
	ResourceItems            Resource = "items"
	ResourceStock            Resource = "stock"
	ResourcePurchaseRequests Resource = "purchase_requests"
	ResourcePurchaseOrders   Resource = "purchase_orders"
	ResourceGoodsReceipts    Resource = "goods_receipts"
	ResourceGoodsIssues      Resource = "goods_issues"
	ResourceStockTransfers   Resource = "stock_transfers"
	ResourceSalesOrders      Resource = "sales_orders"
	ResourceDeliveries       Resource = "deliveries"
	ResourceCycleCounts      Resource = "cycle_counts"
	ResourcePickLists        Resource = "pick_lists"
	ResourcePriceLists       Resource = "price_lists"
	ResourceReports          Resource = "reports"
	ResourceRoles            Resource = "roles"
	ResourceEmployees        Resource = "employees"
	ResourceJournalEntries   Resource = "journal_entries"
	ResourceProductionOrders Resource = "production_orders"
)

var knownResources = map[Resource]struct{}{
	ResourceItems: {}, ResourceStock: {}, ResourcePurchaseRequests: {}, ResourcePurchaseOrders: {},
	ResourceGoodsReceipts: {}, ResourceGoodsIssues: {}, ResourceStockTransfers: {},
	ResourceSalesOrders: {}, ResourceDeliveries: {}, ResourceCycleCounts: {}, ResourcePickLists: {},
	ResourcePriceLists: {}, ResourceReports: {}, ResourceRoles: {}, ResourceEmployees: {},
	ResourceJournalEntries: {}, ResourceProductionOrders: {},
}

// Action is a verb on a resource.
type Action string

const (
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
)

var knownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionDelete: {}, ActionApprove: {},
}

// Module groups resources for navigation-level access checks.
type Module string

const (
	ModuleInventory   Module = "inventory"
	ModuleProcurement Module = "procurement"
	ModuleSales       Module = "sales"
	ModuleOperations  Module = "operations"
	ModuleHR          Module = "hr"
	ModuleFinance     Module = "finance"
	ModuleReports     Module = "reports"
	ModuleAdmin       Module = "admin"
)

var knownModules = map[Module]struct{}{
	ModuleInventory: {}, ModuleProcurement: {}, ModuleSales: {}, ModuleOperations: {},
	ModuleHR: {}, ModuleFinance: {}, ModuleReports: {}, ModuleAdmin: {},
}

// AllModules returns every module in navigation order.
func AllModules() []Module {
	return []Module{
		ModuleInventory, ModuleProcurement, ModuleSales, ModuleOperations,
		ModuleHR, ModuleFinance, ModuleReports, ModuleAdmin,
	}
}

// ResourceRef is either a concrete Resource or the wildcard.
// The zero value matches nothing.
type ResourceRef struct {
	resource Resource
	wild     bool
}

// AnyResource returns the wildcard resource tag.
func AnyResource() ResourceRef { return ResourceRef{wild: true} }

// OnResource returns a concrete resource tag.
func OnResource(r Resource) ResourceRef { return ResourceRef{resource: r} }

// Matches reports whether the tag covers r.
func (r ResourceRef) Matches(target Resource) bool {
	if r.wild {
		return true
	}
	return r.resource != "" && r.resource == target
}

// IsWildcard reports whether this is the wildcard tag.
func (r ResourceRef) IsWildcard() bool { return r.wild }

func (r ResourceRef) String() string {
	if r.wild {
		return Wildcard
	}
	return string(r.resource)
}

// ActionRef is either a concrete Action or the wildcard.
type ActionRef struct {
	action Action
	wild   bool
}

// AnyAction returns the wildcard action tag.
func AnyAction() ActionRef { return ActionRef{wild: true} }

// OnAction returns a concrete action tag.
func OnAction(a Action) ActionRef { return ActionRef{action: a} }

// Matches reports whether the tag covers a.
func (a ActionRef) Matches(target Action) bool {
	if a.wild {
		return true
	}
	return a.action != "" && a.action == target
}

// IsWildcard reports whether this is the wildcard tag.
func (a ActionRef) IsWildcard() bool { return a.wild }

func (a ActionRef) String() string {
	if a.wild {
		return Wildcard
	}
	return string(a.action)
}

// Permission is one (resource, action) grant, optionally scoped to a module.
type Permission struct {
	Resource ResourceRef
	Action   ActionRef
	Module   Module
}

// Allow builds a concrete permission.
func Allow(module Module, r Resource, a Action) Permission {
	return Permission{Resource: OnResource(r), Action: OnAction(a), Module: module}
}

// AllAccess is the `*`/`*` permission.
func AllAccess() Permission {
	return Permission{Resource: AnyResource(), Action: AnyAction(), Module: ModuleAdmin}
}

// Matches reports whether p grants action on resource.
func (p Permission) Matches(resource Resource, action Action) bool {
	return p.Resource.Matches(resource) && p.Action.Matches(action)
}

// IsAllAccess reports whether p is the `*`/`*` permission.
func (p Permission) IsAllAccess() bool {
	return p.Resource.IsWildcard() && p.Action.IsWildcard()
}

// Key identifies the permission inside a set. Module is not part of the key.
func (p Permission) Key() string {
	return p.Resource.String() + ":" + p.Action.String()
}

func (p Permission) String() string {
	if p.Module == "" {
		return p.Key()
	}
	return string(p.Module) + "/" + p.Key()
}

// ParsePermission validates raw names as stored in the database or a token.
func ParsePermission(module, resource, action string) (Permission, error) {
	var p Permission

	resource = strings.TrimSpace(resource)
	switch {
	case resource == Wildcard:
		p.Resource = AnyResource()
	default:
		r := Resource(resource)
		if _, ok := knownResources[r]; !ok {
			return Permission{}, fmt.Errorf("unknown resource %q", resource)
		}
		p.Resource = OnResource(r)
	}

	action = strings.TrimSpace(action)
	switch {
	case action == Wildcard:
		p.Action = AnyAction()
	default:
		a := Action(action)
		if _, ok := knownActions[a]; !ok {
			return Permission{}, fmt.Errorf("unknown action %q", action)
		}
		p.Action = OnAction(a)
	}

	module = strings.TrimSpace(module)
	if module != "" {
		m := Module(module)
		if _, ok := knownModules[m]; !ok {
			return Permission{}, fmt.Errorf("unknown module %q", module)
		}
		p.Module = m
	}

	return p, nil
}

// ParseResource validates a resource name. The wildcard is not a valid target.
func ParseResource(s string) (Resource, error) {
	r := Resource(strings.TrimSpace(s))
	if _, ok := knownResources[r]; !ok {
		return "", fmt.Errorf("unknown resource %q", s)
	}
	return r, nil
}

// ParseAction validates an action name. The wildcard is not a valid target.
func ParseAction(s string) (Action, error) {
	a := Action(strings.TrimSpace(s))
	if _, ok := knownActions[a]; !ok {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return a, nil
}

// ParseModule validates a module name.
func ParseModule(s string) (Module, error) {
	m := Module(strings.TrimSpace(s))
	if _, ok := knownModules[m]; !ok {
		return "", fmt.Errorf("unknown module %q", s)
	}
	return m, nil
}
