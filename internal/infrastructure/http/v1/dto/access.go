package dto

import (
	"stockerp/internal/core/id"
	"stockerp/internal/domain/access"
)

// PermissionResponse is one resolved grant.
type PermissionResponse struct {
	Module   string `json:"module,omitempty"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// SnapshotResponse describes the caller's effective permissions.
type SnapshotResponse struct {
	UserID      string               `json:"userId"`
	RoleCode    string               `json:"roleCode"`
	Available   bool                 `json:"available"`
	Permissions []PermissionResponse `json:"permissions"`
	Warehouses  []id.ID              `json:"warehouses"`
	Modules     []string             `json:"modules"`
}

// FromSnapshot converts a snapshot. Modules lists those the evaluator grants.
func FromSnapshot(s access.Snapshot, e *access.Evaluator) SnapshotResponse {
	perms := s.Permissions()
	out := SnapshotResponse{
		UserID:      s.UserID(),
		RoleCode:    s.RoleCode(),
		Available:   s.Available(),
		Permissions: make([]PermissionResponse, 0, len(perms)),
		Warehouses:  s.Warehouses(),
		Modules:     []string{},
	}
	if out.Warehouses == nil {
		out.Warehouses = []id.ID{}
	}
	for _, p := range perms {
		out.Permissions = append(out.Permissions, PermissionResponse{
			Module:   string(p.Module),
			Resource: p.Resource.String(),
			Action:   p.Action.String(),
		})
	}
	for _, m := range access.AllModules() {
		if e.HasModuleAccess(s, m) {
			out.Modules = append(out.Modules, string(m))
		}
	}
	return out
}
