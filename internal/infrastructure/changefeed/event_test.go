package changefeed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockerp/internal/core/id"
)

func TestEncodeDecode(t *testing.T) {
	at := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	a, b := id.New(), id.New()

	payload, err := Encode(Event{ItemIDs: []id.ID{a, b}, Origin: "node-1", At: at})
	require.NoError(t, err)

	e, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, []id.ID{a, b}, e.ItemIDs)
	assert.Equal(t, "node-1", e.Origin)
	assert.True(t, at.Equal(e.At))
}

func TestEncode_OversizedListBecomesWildcard(t *testing.T) {
	ids := make([]id.ID, 500)
	for i := range ids {
		ids[i] = id.New()
	}

	payload, err := Encode(Event{ItemIDs: ids, At: time.Now()})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(payload), maxPayload)
	assert.False(t, strings.Contains(payload, "itemIds"))

	e, err := Decode(payload)
	require.NoError(t, err)
	assert.Empty(t, e.ItemIDs)
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode("{not json")
	assert.Error(t, err)
}

type countingNotifier struct{ calls int }

func (n *countingNotifier) StockChanged(context.Context, []id.ID) { n.calls++ }

func TestFanout(t *testing.T) {
	a, b := &countingNotifier{}, &countingNotifier{}
	Fanout{a, nil, b}.StockChanged(t.Context(), []id.ID{id.New()})

	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}
