// Package auth_repo provides the PostgreSQL store for roles, user assignments and permission overrides.
package auth_repo

import (
	"context"

	"github.com/georgysavva/scany/v2/pgxscan"

	"stockerp/internal/core/apperror"
	"stockerp/internal/core/id"
	"stockerp/internal/domain/access"
	"stockerp/internal/infrastructure/storage/postgres"
	"stockerp/pkg/logger"
)

type roleRow struct {
	Code     string `db:"code"`
	Name     string `db:"name"`
	IsActive bool   `db:"is_active"`
}

type permissionRow struct {
	Module   string `db:"module"`
	Resource string `db:"resource"`
	Action   string `db:"action"`
}

type overrideRow struct {
	Kind string `db:"kind"`
	permissionRow
}

var _ access.Repository = (*AccessRepo)(nil)

// AccessRepo implements access.Repository.
type AccessRepo struct {
	txm *postgres.TxManager
}

// NewAccessRepo creates a new access repository.
func NewAccessRepo(txm *postgres.TxManager) *AccessRepo {
	return &AccessRepo{txm: txm}
}

// GetRole loads a role with its permission bundle.
// Rows naming unknown resources or actions are skipped with a warning.
func (r *AccessRepo) GetRole(ctx context.Context, code string) (access.Role, error) {
	q := r.txm.GetQuerier(ctx)

	var row roleRow
	if err := pgxscan.Get(ctx, q, &row, `SELECT code, name, is_active FROM roles WHERE code = $1`, code); err != nil {
		if pgxscan.NotFound(err) {
			return access.Role{}, apperror.NewNotFound("role", code)
		}
		return access.Role{}, postgres.MapError(err)
	}

	var perms []permissionRow
	if err := pgxscan.Select(ctx, q, &perms, `
		SELECT module, resource, action
		FROM role_permissions
		WHERE role_code = $1
		ORDER BY resource, action`, code,
	); err != nil {
		return access.Role{}, postgres.MapError(err)
	}

	role := access.Role{Code: row.Code, Name: row.Name, IsActive: row.IsActive}
	for _, p := range perms {
		perm, err := access.ParsePermission(p.Module, p.Resource, p.Action)
		if err != nil {
			logger.Warn(ctx, "skipping stored permission", "role", code, "error", err)
			continue
		}
		role.Permissions = append(role.Permissions, perm)
	}
	return role, nil
}

// SaveRole upserts the role and replaces its permission bundle.
func (r *AccessRepo) SaveRole(ctx context.Context, role access.Role) error {
	return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.txm.GetQuerier(ctx)
		if _, err := q.Exec(ctx, `
			INSERT INTO roles (code, name, is_active) VALUES ($1, $2, $3)
			ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, is_active = EXCLUDED.is_active`,
			role.Code, role.Name, role.IsActive,
		); err != nil {
			return postgres.MapError(err)
		}
		if _, err := q.Exec(ctx, `DELETE FROM role_permissions WHERE role_code = $1`, role.Code); err != nil {
			return postgres.MapError(err)
		}

		rows := make([][]any, 0, len(role.Permissions))
		seen := make(map[string]struct{}, len(role.Permissions))
		for _, p := range role.Permissions {
			if _, dup := seen[p.Key()]; dup {
				continue
			}
			seen[p.Key()] = struct{}{}
			rows = append(rows, []any{role.Code, string(p.Module), p.Resource.String(), p.Action.String()})
		}
		_, err := r.txm.CopyRows(ctx, "role_permissions", []string{"role_code", "module", "resource", "action"}, rows)
		return err
	})
}

func (r *AccessRepo) GetAssignment(ctx context.Context, userID string) (access.Assignment, error) {
	q := r.txm.GetQuerier(ctx)

	a := access.Assignment{UserID: userID}
	if err := q.QueryRow(ctx, `SELECT role_code FROM user_roles WHERE user_id = $1`, userID).Scan(&a.RoleCode); err != nil {
		if pgxscan.NotFound(err) {
			return access.Assignment{}, apperror.NewNotFound("assignment", userID)
		}
		return access.Assignment{}, postgres.MapError(err)
	}

	a.Warehouses = make([]id.ID, 0)
	if err := pgxscan.Select(ctx, q, &a.Warehouses, `
		SELECT warehouse_id FROM user_warehouses WHERE user_id = $1 ORDER BY warehouse_id`, userID,
	); err != nil {
		return access.Assignment{}, postgres.MapError(err)
	}
	return a, nil
}

// CreateAssignment inserts the assignment; an existing one yields a conflict error.
func (r *AccessRepo) CreateAssignment(ctx context.Context, a access.Assignment) error {
	return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := r.txm.GetQuerier(ctx).Exec(ctx,
			`INSERT INTO user_roles (user_id, role_code) VALUES ($1, $2)`, a.UserID, a.RoleCode,
		); err != nil {
			if postgres.IsUniqueViolation(err) {
				return apperror.NewDuplicate("assignment", "user_id", a.UserID)
			}
			return postgres.MapError(err)
		}
		return r.copyWarehouses(ctx, a)
	})
}

// SaveAssignment creates or replaces a user's assignment.
func (r *AccessRepo) SaveAssignment(ctx context.Context, a access.Assignment) error {
	return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.txm.GetQuerier(ctx)
		if _, err := q.Exec(ctx, `
			INSERT INTO user_roles (user_id, role_code) VALUES ($1, $2)
			ON CONFLICT (user_id) DO UPDATE SET role_code = EXCLUDED.role_code`,
			a.UserID, a.RoleCode,
		); err != nil {
			return postgres.MapError(err)
		}
		if _, err := q.Exec(ctx, `DELETE FROM user_warehouses WHERE user_id = $1`, a.UserID); err != nil {
			return postgres.MapError(err)
		}
		return r.copyWarehouses(ctx, a)
	})
}

func (r *AccessRepo) copyWarehouses(ctx context.Context, a access.Assignment) error {
	rows := make([][]any, 0, len(a.Warehouses))
	seen := make(map[id.ID]struct{}, len(a.Warehouses))
	for _, wh := range a.Warehouses {
		if _, dup := seen[wh]; dup {
			continue
		}
		seen[wh] = struct{}{}
		rows = append(rows, []any{a.UserID, wh})
	}
	_, err := r.txm.CopyRows(ctx, "user_warehouses", []string{"user_id", "warehouse_id"}, rows)
	return err
}

// ListOverrides returns the user's overrides in the order they were added.
func (r *AccessRepo) ListOverrides(ctx context.Context, userID string) ([]access.Override, error) {
	var rows []overrideRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, `
		SELECT kind, module, resource, action
		FROM permission_overrides
		WHERE user_id = $1
		ORDER BY id`, userID,
	); err != nil {
		return nil, postgres.MapError(err)
	}

	out := make([]access.Override, 0, len(rows))
	for _, row := range rows {
		perm, err := access.ParsePermission(row.Module, row.Resource, row.Action)
		if err != nil {
			logger.Warn(ctx, "skipping stored override", "user_id", userID, "error", err)
			continue
		}
		out = append(out, access.Override{Kind: access.OverrideKind(row.Kind), Permission: perm})
	}
	return out, nil
}

// AddOverride appends a grant or revoke for a user.
func (r *AccessRepo) AddOverride(ctx context.Context, userID string, o access.Override) error {
	if o.Kind != access.OverrideGrant && o.Kind != access.OverrideRevoke {
		return apperror.NewValidation("override kind must be grant or revoke").WithDetail("field", "kind")
	}
	_, err := r.txm.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO permission_overrides (user_id, kind, module, resource, action)
		VALUES ($1, $2, $3, $4, $5)`,
		userID, string(o.Kind), string(o.Permission.Module), o.Permission.Resource.String(), o.Permission.Action.String(),
	)
	return postgres.MapError(err)
}
