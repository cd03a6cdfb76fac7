package access

import (
	"stockerp/internal/core/apperror"
	"stockerp/internal/core/id"
)

// Evaluator answers permission questions over a Snapshot.
// It is pure and safe for concurrent use.
type Evaluator struct {
	allAccessRole string
}

// NewEvaluator creates an evaluator. An empty role code means AllAccessRole.
func NewEvaluator(allAccessRole string) *Evaluator {
	if allAccessRole == "" {
		allAccessRole = AllAccessRole
	}
	return &Evaluator{allAccessRole: allAccessRole}
}

// HasPermission reports whether the actor may perform action on resource.
//
// Order: the `*`/`*` grant, then the all-access role code, then a scan of the
// resolved set. An empty or unavailable set denies everything except the
// all-access role, whose identity comes from the session rather than the fetch.
func (e *Evaluator) HasPermission(s Snapshot, resource Resource, action Action) bool {
	if s.hasAllAccess() || e.isAllAccessRole(s) {
		return true
	}

	for _, p := range s.permissions {
		if p.Matches(resource, action) {
			return true
		}
	}
	return false
}

// HasModuleAccess reports whether any resolved permission belongs to module.
func (e *Evaluator) HasModuleAccess(s Snapshot, module Module) bool {
	for _, p := range s.permissions {
		if p.Module == module {
			return true
		}
	}
	return false
}

// HasAnyPermission reports whether at least one of the pairs is allowed.
func (e *Evaluator) HasAnyPermission(s Snapshot, checks ...Check) bool {
	for _, c := range checks {
		if e.HasPermission(s, c.Resource, c.Action) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every pair is allowed.
func (e *Evaluator) HasAllPermissions(s Snapshot, checks ...Check) bool {
	for _, c := range checks {
		if !e.HasPermission(s, c.Resource, c.Action) {
			return false
		}
	}
	return true
}

// HasWarehouseAccess reports whether the actor may work with a warehouse.
// The wildcard grant and the all-access role see every warehouse.
func (e *Evaluator) HasWarehouseAccess(s Snapshot, warehouseID id.ID) bool {
	if s.hasAllAccess() || e.isAllAccessRole(s) {
		return true
	}
	return s.hasWarehouse(warehouseID)
}

// Require returns PermissionDenied when the actor lacks the permission.
func (e *Evaluator) Require(s Snapshot, resource Resource, action Action) error {
	if e.HasPermission(s, resource, action) {
		return nil
	}
	err := apperror.NewPermissionDenied(string(resource), string(action))
	if !s.Available() {
		err = err.WithDetail("reason", "permissions unavailable")
	}
	return err
}

// RequireAny returns PermissionDenied unless at least one check passes.
func (e *Evaluator) RequireAny(s Snapshot, checks ...Check) error {
	if e.HasAnyPermission(s, checks...) {
		return nil
	}
	return e.denied(s, checks)
}

// RequireAll returns PermissionDenied naming the first check that fails.
func (e *Evaluator) RequireAll(s Snapshot, checks ...Check) error {
	if e.HasAllPermissions(s, checks...) {
		return nil
	}
	for _, c := range checks {
		if !e.HasPermission(s, c.Resource, c.Action) {
			return e.denied(s, []Check{c})
		}
	}
	return nil
}

func (e *Evaluator) denied(s Snapshot, checks []Check) *apperror.AppError {
	var resource, action string
	if len(checks) > 0 {
		resource, action = string(checks[0].Resource), string(checks[0].Action)
	}
	err := apperror.NewPermissionDenied(resource, action)
	if len(checks) > 1 {
		alternatives := make([]string, 0, len(checks))
		for _, c := range checks {
			alternatives = append(alternatives, c.String())
		}
		err = err.WithDetail("anyOf", alternatives)
	}
	if !s.Available() {
		err = err.WithDetail("reason", "permissions unavailable")
	}
	return err
}

// RequireWarehouse returns PermissionDenied when the actor has no access to the warehouse.
func (e *Evaluator) RequireWarehouse(s Snapshot, warehouseID id.ID) error {
	if e.HasWarehouseAccess(s, warehouseID) {
		return nil
	}
	return apperror.NewPermissionDenied("warehouse", "access").
		WithDetail("warehouse_id", warehouseID.String())
}

func (e *Evaluator) isAllAccessRole(s Snapshot) bool {
	return s.roleCode != "" && s.roleCode == e.allAccessRole
}

// Check is one (resource, action) pair.
type Check struct {
	Resource Resource
	Action   Action
}

func (c Check) String() string {
	return string(c.Resource) + ":" + string(c.Action)
}
