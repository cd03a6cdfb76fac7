package access

import "context"

type snapshotKey struct{}

// WithSnapshot attaches the actor's permission snapshot to ctx.
func WithSnapshot(ctx context.Context, s Snapshot) context.Context {
	return context.WithValue(ctx, snapshotKey{}, s)
}

// SnapshotFromContext returns the snapshot attached to ctx.
// A missing snapshot yields an unavailable one, which denies everything.
func SnapshotFromContext(ctx context.Context) Snapshot {
	if s, ok := ctx.Value(snapshotKey{}).(Snapshot); ok {
		return s
	}
	return Snapshot{}
}
