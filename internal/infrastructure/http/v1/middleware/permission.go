package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	appctx "stockerp/internal/core/context"
	"stockerp/internal/domain/access"
)

// SnapshotLoader returns the permission snapshot of an actor.
type SnapshotLoader interface {
	Snapshot(ctx context.Context, actor appctx.Actor) (access.Snapshot, error)
}

// Permissions loads the actor's permission snapshot once per request.
// Must run after Auth. A failed fetch yields an unavailable snapshot, so
// the request continues and every permission check denies.
func Permissions(loader SnapshotLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		actor := appctx.GetActor(ctx)
		if actor == nil {
			abortUnauthorized(c, "authentication required")
			return
		}

		snap, err := loader.Snapshot(ctx, *actor)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(access.WithSnapshot(ctx, snap))
		c.Next()
	}
}

// RequirePermission aborts with PERMISSION_DENIED unless the snapshot grants action on resource.
func RequirePermission(evaluator *access.Evaluator, resource access.Resource, action access.Action) gin.HandlerFunc {
	return requireSnapshot(func(snap access.Snapshot) error {
		return evaluator.Require(snap, resource, action)
	})
}

// RequireAnyPermission lets the request through when any of the checks passes.
func RequireAnyPermission(evaluator *access.Evaluator, checks ...access.Check) gin.HandlerFunc {
	return requireSnapshot(func(snap access.Snapshot) error {
		return evaluator.RequireAny(snap, checks...)
	})
}

// RequireAllPermissions lets the request through only when every check passes.
func RequireAllPermissions(evaluator *access.Evaluator, checks ...access.Check) gin.HandlerFunc {
	return requireSnapshot(func(snap access.Snapshot) error {
		return evaluator.RequireAll(snap, checks...)
	})
}

func requireSnapshot(check func(access.Snapshot) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if appctx.GetActor(c.Request.Context()) == nil {
			abortUnauthorized(c, "authentication required")
			return
		}

		snap := access.SnapshotFromContext(c.Request.Context())
		if err := check(snap); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}
