package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockerp/internal/domain/alerts"
)

func TestMemoryAlertCache(t *testing.T) {
	ctx := t.Context()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryAlertCache(time.Minute)
	c.now = func() time.Time { return now }

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "empty cache misses")

	snap := alerts.Snapshot{Alerts: []alerts.Alert{{ItemCode: "BOLT", Level: alerts.LevelLow}}, EvaluatedAt: now}
	require.NoError(t, c.Set(ctx, snap))

	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "BOLT", got.Alerts[0].ItemCode)

	got.Alerts[0].ItemCode = "MUTATED"
	again, _, _ := c.Get(ctx)
	assert.Equal(t, "BOLT", again.Alerts[0].ItemCode, "callers get copies")

	now = now.Add(time.Minute)
	_, ok, _ = c.Get(ctx)
	assert.False(t, ok, "expired at ttl")

	require.NoError(t, c.Set(ctx, snap))
	require.NoError(t, c.Delete(ctx))
	_, ok, _ = c.Get(ctx)
	assert.False(t, ok)
}

func TestMemoryAlertCache_EmptyAlertsNeverNil(t *testing.T) {
	c := NewMemoryAlertCache(0)
	require.NoError(t, c.Set(t.Context(), alerts.Snapshot{}))

	got, ok, err := c.Get(t.Context())
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotNil(t, got.Alerts)
	assert.Equal(t, DefaultAlertTTL, c.ttl)
}
