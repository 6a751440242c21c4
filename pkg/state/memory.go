package state

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore is an in-memory Store for tests and dry runs.
type MemoryStore struct {
	mu       sync.Mutex
	version  int64
	payload  []byte
	hasState bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the current snapshot.
func (s *MemoryStore) Load(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasState {
		snap := NewSnapshot()
		snap.Version = s.version
		return snap, nil
	}

	var snap Snapshot
	if err := json.Unmarshal(s.payload, &snap); err != nil {
		return Snapshot{}, NewPersistenceError("memory", "load", err)
	}
	snap.Version = s.version
	return snap, nil
}

// Save persists the snapshot if the version still matches.
func (s *MemoryStore) Save(ctx context.Context, snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snapshot.Version != s.version {
		return &ConflictError{Expected: snapshot.Version, Found: s.version}
	}

	snapshot.Version = s.version + 1
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return NewPersistenceError("memory", "save", err)
	}

	s.payload = payload
	s.version = snapshot.Version
	s.hasState = true
	return nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}
