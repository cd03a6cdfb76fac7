package access

import (
	"slices"

	"stockerp/internal/core/id"
)

// AllAccessRole is the role code that bypasses permission scans.
const AllAccessRole = "Z_ALL"

// Role is a named bundle of permissions.
type Role struct {
	Code        string       `json:"code"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"-"`
	IsActive    bool         `json:"isActive"`
}

// OverrideKind says whether an override adds or removes a permission.
type OverrideKind string

const (
	OverrideGrant  OverrideKind = "grant"
	OverrideRevoke OverrideKind = "revoke"
)

// Override is a per-user adjustment of the role bundle.
type Override struct {
	Kind       OverrideKind
	Permission Permission
}

// Resolve combines a role bundle with user overrides.
// Overrides are applied in order: revokes remove a matching key, grants add one.
// The result never aliases the inputs.
func Resolve(bundle []Permission, overrides []Override) []Permission {
	seen := make(map[string]struct{}, len(bundle)+len(overrides))
	out := make([]Permission, 0, len(bundle)+len(overrides))

	add := func(p Permission) {
		if _, ok := seen[p.Key()]; ok {
			return
		}
		seen[p.Key()] = struct{}{}
		out = append(out, p)
	}
	for _, p := range bundle {
		add(p)
	}

	for _, o := range overrides {
		switch o.Kind {
		case OverrideGrant:
			add(o.Permission)
		case OverrideRevoke:
			key := o.Permission.Key()
			if _, ok := seen[key]; !ok {
				continue
			}
			delete(seen, key)
			out = slices.DeleteFunc(out, func(p Permission) bool { return p.Key() == key })
		}
	}
	return out
}

// Snapshot is the immutable, already-fetched permission state of one actor.
// Evaluation never performs I/O; refreshing a snapshot is the Service's job.
type Snapshot struct {
	userID      string
	roleCode    string
	permissions []Permission
	warehouses  map[id.ID]struct{}
	available   bool
}

// NewSnapshot copies its inputs so callers cannot mutate the result.
func NewSnapshot(userID, roleCode string, permissions []Permission, warehouses []id.ID) Snapshot {
	wh := make(map[id.ID]struct{}, len(warehouses))
	for _, w := range warehouses {
		wh[w] = struct{}{}
	}
	return Snapshot{
		userID:      userID,
		roleCode:    roleCode,
		permissions: slices.Clone(permissions),
		warehouses:  wh,
		available:   true,
	}
}

// UnavailableSnapshot represents an actor whose permission fetch failed.
// Only the role identity from the session is kept.
func UnavailableSnapshot(userID, roleCode string) Snapshot {
	return Snapshot{userID: userID, roleCode: roleCode}
}

// UserID returns the actor id.
func (s Snapshot) UserID() string { return s.userID }

// RoleCode returns the actor's role code.
func (s Snapshot) RoleCode() string { return s.roleCode }

// Available is false when the permission set could not be fetched.
func (s Snapshot) Available() bool { return s.available }

// Permissions returns a copy of the resolved permission set.
func (s Snapshot) Permissions() []Permission { return slices.Clone(s.permissions) }

// Warehouses returns the assigned warehouse ids.
func (s Snapshot) Warehouses() []id.ID {
	out := make([]id.ID, 0, len(s.warehouses))
	for w := range s.warehouses {
		out = append(out, w)
	}
	slices.SortFunc(out, func(a, b id.ID) int { return slices.Compare(a[:], b[:]) })
	return out
}

func (s Snapshot) hasWarehouse(w id.ID) bool {
	_, ok := s.warehouses[w]
	return ok
}

func (s Snapshot) hasAllAccess() bool {
	for _, p := range s.permissions {
		if p.IsAllAccess() {
			return true
		}
	}
	return false
}
