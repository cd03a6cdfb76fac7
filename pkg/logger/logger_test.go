package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appctx "stockerp/internal/core/context"
)

func TestFromContext_EnrichesWithActorAndTrace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := &Logger{zap.New(core).Sugar()}

	ctx := WithLogger(context.Background(), base)
	ctx = appctx.WithTrace(ctx, &appctx.TraceContext{TraceID: "t-1", RequestID: "r-1"})
	ctx = appctx.WithActor(ctx, &appctx.Actor{UserID: "u-1", RoleCode: "Z_STOCK_MGR"})

	Info(ctx, "movement applied", "item_id", "X")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "t-1", fields["trace_id"])
	assert.Equal(t, "r-1", fields["request_id"])
	assert.Equal(t, "u-1", fields["user_id"])
	assert.Equal(t, "Z_STOCK_MGR", fields["role_code"])
	assert.Equal(t, "X", fields["item_id"])
}

func TestWithComponent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := &Logger{zap.New(core).Sugar()}

	base.WithComponent("ledger").Infow("ready")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "ledger", logs.All()[0].ContextMap()["component"])
}

func TestWithContext_TagsNonHTTPSource(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := &Logger{zap.New(core).Sugar()}

	ctx := WithLogger(context.Background(), base)
	Info(appctx.EnsureTrace(ctx, appctx.SourceCLI), "alerts evaluated")
	Info(appctx.WithTrace(ctx, &appctx.TraceContext{TraceID: "t", RequestID: "r", Source: appctx.SourceHTTP}), "http request")

	require.Equal(t, 2, logs.Len())
	cli := logs.All()[0].ContextMap()
	assert.Equal(t, appctx.SourceCLI, cli["source"])
	assert.NotEmpty(t, cli["trace_id"])
	assert.NotContains(t, logs.All()[1].ContextMap(), "source")
}

func TestReplaceDefault(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { ReplaceDefault(prev) })

	core, logs := observer.New(zapcore.InfoLevel)
	ReplaceDefault(&Logger{zap.New(core).Sugar()})

	Info(context.Background(), "listener started")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "listener started", logs.All()[0].Message)
}
