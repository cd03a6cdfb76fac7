// Package cache provides alert snapshot caches: in-process with a TTL, or shared through Redis.
package cache

import (
	"context"
	"sync"
	"time"

	"stockerp/internal/domain/alerts"
)

// DefaultAlertTTL bounds how stale a snapshot may get without an invalidation.
const DefaultAlertTTL = 5 * time.Minute

var _ alerts.Cache = (*MemoryAlertCache)(nil)

// MemoryAlertCache keeps one snapshot in process memory.
type MemoryAlertCache struct {
	mu        sync.RWMutex
	snap      alerts.Snapshot
	expiresAt time.Time
	valid     bool

	ttl time.Duration
	now func() time.Time
}

// NewMemoryAlertCache creates a cache; ttl <= 0 selects DefaultAlertTTL.
func NewMemoryAlertCache(ttl time.Duration) *MemoryAlertCache {
	if ttl <= 0 {
		ttl = DefaultAlertTTL
	}
	return &MemoryAlertCache{ttl: ttl, now: time.Now}
}

func (c *MemoryAlertCache) Get(_ context.Context) (alerts.Snapshot, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.valid || !c.now().Before(c.expiresAt) {
		return alerts.Snapshot{}, false, nil
	}
	return cloneSnapshot(c.snap), true, nil
}

func (c *MemoryAlertCache) Set(_ context.Context, snap alerts.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = cloneSnapshot(snap)
	c.expiresAt = c.now().Add(c.ttl)
	c.valid = true
	return nil
}

func (c *MemoryAlertCache) Delete(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = alerts.Snapshot{}
	c.valid = false
	return nil
}

func cloneSnapshot(s alerts.Snapshot) alerts.Snapshot {
	out := s
	out.Alerts = append([]alerts.Alert(nil), s.Alerts...)
	if out.Alerts == nil {
		out.Alerts = []alerts.Alert{}
	}
	return out
}
