// Package changefeed broadcasts stock changes between instances so each can drop
// its cached alert snapshot. Delivery is best-effort.
package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stockerp/internal/core/id"
	"stockerp/internal/domain/ledger"
)

// Channel is the notification channel (Postgres) or topic (Redis).
const Channel = "stock_changes"

// maxPayload stays below the 8000 byte NOTIFY limit.
const maxPayload = 7000

// Event reports that stock of the listed items changed.
// An empty ItemIDs list means "anything may have changed".
type Event struct {
	ItemIDs []id.ID   `json:"itemIds,omitempty"`
	Origin  string    `json:"origin,omitempty"`
	At      time.Time `json:"at"`
}

// Encode returns the wire form of e. Oversized item lists are dropped.
func Encode(e Event) (string, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encode change event: %w", err)
	}
	if len(raw) > maxPayload {
		e.ItemIDs = nil
		if raw, err = json.Marshal(e); err != nil {
			return "", fmt.Errorf("encode change event: %w", err)
		}
	}
	return string(raw), nil
}

// Decode parses a payload produced by Encode.
func Decode(payload string) (Event, error) {
	var e Event
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return Event{}, fmt.Errorf("decode change event: %w", err)
	}
	return e, nil
}

// Handler processes a received event.
type Handler func(ctx context.Context, e Event)

// Fanout forwards stock changes to several notifiers in order.
type Fanout []ledger.Notifier

var _ ledger.Notifier = Fanout(nil)

// StockChanged implements ledger.Notifier.
func (f Fanout) StockChanged(ctx context.Context, itemIDs []id.ID) {
	for _, n := range f {
		if n != nil {
			n.StockChanged(ctx, itemIDs)
		}
	}
}
