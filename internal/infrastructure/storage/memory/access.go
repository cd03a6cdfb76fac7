package memory

import (
	"context"
	"slices"

	"stockerp/internal/core/apperror"
	"stockerp/internal/domain/access"
)

var _ access.Repository = (*AccessRepo)(nil)

// AccessRepo implements access.Repository.
type AccessRepo struct {
	s *Store
}

func (r *AccessRepo) GetRole(ctx context.Context, code string) (access.Role, error) {
	var out access.Role
	err := r.s.read(ctx, func(st *state) error {
		role, ok := st.roles[code]
		if !ok {
			return apperror.NewNotFound("role", code)
		}
		out = role
		out.Permissions = slices.Clone(role.Permissions)
		return nil
	})
	return out, err
}

func (r *AccessRepo) SaveRole(ctx context.Context, role access.Role) error {
	return r.s.write(ctx, func(st *state) error {
		role.Permissions = slices.Clone(role.Permissions)
		st.roles[role.Code] = role
		return nil
	})
}

func (r *AccessRepo) GetAssignment(ctx context.Context, userID string) (access.Assignment, error) {
	var out access.Assignment
	err := r.s.read(ctx, func(st *state) error {
		a, ok := st.assignments[userID]
		if !ok {
			return apperror.NewNotFound("assignment", userID)
		}
		out = a
		out.Warehouses = slices.Clone(a.Warehouses)
		return nil
	})
	return out, err
}

func (r *AccessRepo) CreateAssignment(ctx context.Context, a access.Assignment) error {
	return r.s.write(ctx, func(st *state) error {
		if _, exists := st.assignments[a.UserID]; exists {
			return apperror.NewDuplicate("assignment", "user_id", a.UserID)
		}
		a.Warehouses = slices.Clone(a.Warehouses)
		st.assignments[a.UserID] = a
		return nil
	})
}

// SaveAssignment creates or replaces a user's assignment.
func (r *AccessRepo) SaveAssignment(ctx context.Context, a access.Assignment) error {
	return r.s.write(ctx, func(st *state) error {
		a.Warehouses = slices.Clone(a.Warehouses)
		st.assignments[a.UserID] = a
		return nil
	})
}

func (r *AccessRepo) ListOverrides(ctx context.Context, userID string) ([]access.Override, error) {
	var out []access.Override
	err := r.s.read(ctx, func(st *state) error {
		out = slices.Clone(st.overrides[userID])
		return nil
	})
	return out, err
}

// AddOverride appends a grant or revoke for a user.
func (r *AccessRepo) AddOverride(ctx context.Context, userID string, o access.Override) error {
	return r.s.write(ctx, func(st *state) error {
		st.overrides[userID] = append(st.overrides[userID], o)
		return nil
	})
}
