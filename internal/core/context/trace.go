package context

import (
	"context"

	"github.com/google/uuid"
)

// Trace sources.
const (
	SourceHTTP       = "http"
	SourceCLI        = "cli"
	SourceChangeFeed = "changefeed"
)

// TraceContext correlates log lines and ledger writes with the request or
// background job that produced them.
type TraceContext struct {
	TraceID   string
	RequestID string
	// Source names the entry point, e.g. "http" or "cli".
	Source string
}

type traceContextKey struct{}

// WithTrace attaches trace to ctx.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns the trace of ctx or nil.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetRequestID returns the request ID of ctx or "".
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// NewTraceContext starts a trace for work that does not arrive over HTTP.
func NewTraceContext(source string) *TraceContext {
	traceID := uuid.NewString()
	return &TraceContext{TraceID: traceID, RequestID: traceID, Source: source}
}

// EnsureTrace returns ctx unchanged when it already carries a trace,
// otherwise a child with a fresh trace from source.
func EnsureTrace(ctx context.Context, source string) context.Context {
	if GetTrace(ctx) != nil {
		return ctx
	}
	return WithTrace(ctx, NewTraceContext(source))
}
