package state

import (
	"context"
	"fmt"

	"spendwatch-hq/saturn/pkg/alerting"
	"spendwatch-hq/saturn/pkg/limits"
	"spendwatch-hq/saturn/pkg/periods"
)

// Snapshot is the full persisted state of the governance engine.
type Snapshot struct {
	// Version is the optimistic-concurrency token. It is set by Load and
	// checked by Save; a fresh store starts at version 0.
	Version int64 `json:"version"`

	// Limits is the active limit configuration.
	Limits limits.Config `json:"limits"`

	// Thresholds records, per period kind, the period key and the highest
	// alert level already sent for it.
	Thresholds map[periods.Kind]alerting.SentRecord `json:"thresholds"`

	// LastMilestone is the highest cumulative spend milestone announced so
	// far, in USD.
	LastMilestone float64 `json:"last_milestone"`
}

// NewSnapshot returns a fresh snapshot with default limits and no alert
// history.
func NewSnapshot() Snapshot {
	return Snapshot{
		Limits:     limits.DefaultConfig(),
		Thresholds: make(map[periods.Kind]alerting.SentRecord),
	}
}

// Record returns the sent record for a period kind. Missing kinds return
// the zero record, which the monitor treats as nothing sent.
func (s Snapshot) Record(kind periods.Kind) alerting.SentRecord {
	return s.Thresholds[kind]
}

// SetRecord stores the sent record for a period kind, allocating the map if
// the snapshot was decoded from an older payload without one.
func (s *Snapshot) SetRecord(kind periods.Kind, rec alerting.SentRecord) {
	if s.Thresholds == nil {
		s.Thresholds = make(map[periods.Kind]alerting.SentRecord)
	}
	s.Thresholds[kind] = rec
}

// Store persists snapshots with compare-and-set semantics.
type Store interface {
	// Load returns the current snapshot. A store that has never been saved
	// to returns NewSnapshot() at version 0.
	Load(ctx context.Context) (Snapshot, error)

	// Save persists the snapshot if the stored version still equals
	// snapshot.Version, then bumps it. On a version mismatch it returns
	// *ConflictError.
	Save(ctx context.Context, snapshot Snapshot) error

	// Close releases resources held by the store.
	Close() error
}

// PersistenceError wraps a backend failure during load or save. Evaluation
// passes treat it as fatal for the pass: no alerts may be emitted when state
// cannot be committed.
type PersistenceError struct {
	Backend   string
	Operation string
	Cause     error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("state persistence error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// NewPersistenceError creates a new PersistenceError.
func NewPersistenceError(backend, operation string, cause error) *PersistenceError {
	return &PersistenceError{Backend: backend, Operation: operation, Cause: cause}
}

// ConflictError reports a compare-and-set failure: another writer saved a
// newer snapshot since this one was loaded.
type ConflictError struct {
	Expected int64
	Found    int64
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("state version conflict: expected %d, found %d", e.Expected, e.Found)
}
