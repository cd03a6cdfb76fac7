// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// Actor is the authenticated caller as reported by the identity provider.
// RoleCode comes from the signed session, so it is trusted independently of
// any permission fetch.
type Actor struct {
	UserID    string
	Email     string
	RoleCode  string
	SessionID string
}

type actorContextKey struct{}

// WithActor adds Actor to context.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// GetActor returns Actor from context.
func GetActor(ctx context.Context) *Actor {
	if v, ok := ctx.Value(actorContextKey{}).(*Actor); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if a := GetActor(ctx); a != nil {
		return a.UserID
	}
	return ""
}

// GetRoleCode returns role code from context or empty string.
func GetRoleCode(ctx context.Context) string {
	if a := GetActor(ctx); a != nil {
		return a.RoleCode
	}
	return ""
}
