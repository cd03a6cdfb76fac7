package access

import (
	"context"
	"fmt"
	"sync"

	"stockerp/internal/core/apperror"
	appctx "stockerp/internal/core/context"
	"stockerp/internal/core/id"
	"stockerp/pkg/logger"
)

// Assignment links a user to exactly one role and a set of warehouses.
type Assignment struct {
	UserID     string  `json:"userId"`
	RoleCode   string  `json:"roleCode"`
	Warehouses []id.ID `json:"warehouses"`
}

// Repository loads roles, assignments and overrides.
type Repository interface {
	GetRole(ctx context.Context, code string) (Role, error)
	SaveRole(ctx context.Context, role Role) error
	GetAssignment(ctx context.Context, userID string) (Assignment, error)
	// CreateAssignment returns a conflict error when the user already has one.
	CreateAssignment(ctx context.Context, a Assignment) error
	ListOverrides(ctx context.Context, userID string) ([]Override, error)
}

// Service fetches and caches permission snapshots.
// Cached snapshots are immutable; Refresh replaces them.
type Service struct {
	repo      Repository
	evaluator *Evaluator

	mu    sync.RWMutex
	cache map[string]Snapshot
}

// NewService creates the access service.
func NewService(repo Repository, evaluator *Evaluator) *Service {
	return &Service{
		repo:      repo,
		evaluator: evaluator,
		cache:     make(map[string]Snapshot),
	}
}

// Evaluator returns the evaluator bound to this service.
func (s *Service) Evaluator() *Evaluator {
	return s.evaluator
}

// Snapshot returns the cached snapshot for the actor, loading it on first use.
func (s *Service) Snapshot(ctx context.Context, actor appctx.Actor) (Snapshot, error) {
	s.mu.RLock()
	snap, ok := s.cache[actor.UserID]
	s.mu.RUnlock()
	if ok && snap.roleCode == actor.RoleCode {
		return snap, nil
	}
	return s.Refresh(ctx, actor)
}

// Refresh reloads the actor's permissions.
//
// When the permission fetch fails the returned snapshot is marked unavailable
// and is not cached, so the next call retries the fetch.
func (s *Service) Refresh(ctx context.Context, actor appctx.Actor) (Snapshot, error) {
	if actor.UserID == "" {
		return Snapshot{}, apperror.NewUnauthorized("actor is not authenticated")
	}

	snap, err := s.load(ctx, actor)
	if err != nil {
		logger.Warn(ctx, "permission fetch failed, evaluating fail-closed",
			"user_id", actor.UserID,
			"role_code", actor.RoleCode,
			"error", err,
		)
		return UnavailableSnapshot(actor.UserID, actor.RoleCode), nil
	}

	s.mu.Lock()
	s.cache[actor.UserID] = snap
	s.mu.Unlock()

	return snap, nil
}

// Invalidate drops the cached snapshot of a user.
func (s *Service) Invalidate(userID string) {
	s.mu.Lock()
	delete(s.cache, userID)
	s.mu.Unlock()
}

func (s *Service) load(ctx context.Context, actor appctx.Actor) (Snapshot, error) {
	roleCode := actor.RoleCode
	var warehouses []id.ID

	assignment, err := s.repo.GetAssignment(ctx, actor.UserID)
	switch {
	case err == nil:
		warehouses = assignment.Warehouses
		if roleCode == "" {
			roleCode = assignment.RoleCode
		}
	case apperror.IsNotFound(err):
	default:
		return Snapshot{}, fmt.Errorf("get assignment: %w", err)
	}

	var bundle []Permission
	if roleCode != "" {
		role, err := s.repo.GetRole(ctx, roleCode)
		switch {
		case err == nil:
			if role.IsActive {
				bundle = role.Permissions
			}
		case apperror.IsNotFound(err):
		default:
			return Snapshot{}, fmt.Errorf("get role %s: %w", roleCode, err)
		}
	}

	overrides, err := s.repo.ListOverrides(ctx, actor.UserID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list overrides: %w", err)
	}

	return NewSnapshot(actor.UserID, roleCode, Resolve(bundle, overrides), warehouses), nil
}

// EnsureAssignment returns the user's assignment, creating one with roleCode if missing.
// A concurrent creation surfaces as a conflict and is resolved by re-fetching once.
func (s *Service) EnsureAssignment(ctx context.Context, userID, roleCode string) (Assignment, error) {
	var out Assignment
	err := apperror.RetryConflictOnce(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetAssignment(ctx, userID)
		if err == nil {
			out = existing
			return nil
		}
		if !apperror.IsNotFound(err) {
			return err
		}

		a := Assignment{UserID: userID, RoleCode: roleCode}
		if err := s.repo.CreateAssignment(ctx, a); err != nil {
			return err
		}
		out = a
		logger.Info(ctx, "role assignment created", "user_id", userID, "role_code", roleCode)
		return nil
	})
	if err != nil {
		return Assignment{}, err
	}
	s.Invalidate(userID)
	return out, nil
}

// SeedRoles stores the given roles, replacing existing definitions.
func (s *Service) SeedRoles(ctx context.Context, roles []Role) error {
	for _, r := range roles {
		if err := s.repo.SaveRole(ctx, r); err != nil {
			return fmt.Errorf("save role %s: %w", r.Code, err)
		}
	}
	return nil
}
