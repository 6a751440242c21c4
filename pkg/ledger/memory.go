package ledger

import (
	"context"
	"sync"
	"time"

	"spendwatch-hq/saturn/pkg/periods"
)

// MemoryStore is an in-memory Store implementation.
// Suitable for tests and ephemeral runs; state is lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	events []UsageEvent
	seen   map[string]struct{}
}

// NewMemoryStore creates an empty in-memory ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

// Append adds one event to the ledger. Appends are idempotent per event ID.
func (m *MemoryStore) Append(ctx context.Context, event UsageEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if event.ID != "" {
		if _, dup := m.seen[event.ID]; dup {
			return nil
		}
		m.seen[event.ID] = struct{}{}
	}
	m.events = append(m.events, event)
	return nil
}

// Slice returns all events whose timestamp falls within the window.
func (m *MemoryStore) Slice(ctx context.Context, window periods.Window) ([]UsageEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []UsageEvent
	for _, ev := range m.events {
		if window.Contains(ev.Timestamp) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// All returns every event in the ledger.
func (m *MemoryStore) All(ctx context.Context) ([]UsageEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]UsageEvent, len(m.events))
	copy(out, m.events)
	return out, nil
}

// PruneBefore removes events older than the cutoff.
func (m *MemoryStore) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.events[:0]
	var removed int64
	for _, ev := range m.events {
		if ev.Timestamp.Before(cutoff) {
			removed++
			delete(m.seen, ev.ID)
			continue
		}
		kept = append(kept, ev)
	}
	m.events = kept
	return removed, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
