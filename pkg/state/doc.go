// Package state persists the governance engine's durable state: the active
// limit configuration, the alert level already sent per period, and the last
// announced cumulative spend milestone.
//
// # Versioned Saves
//
// State is saved with compare-and-set semantics. Every Snapshot carries the
// version it was loaded at; Save succeeds only if the stored version still
// matches, bumping it by one. A concurrent writer (a second evaluation pass,
// or a limit update racing an evaluation) fails with *ConflictError and
// reloads. This guarantees alert deduplication survives restarts and racing
// processes: the level-sent record is committed before any notification goes
// out.
//
// # Backends
//
// MemoryStore backs tests and dry runs. SQLiteStore is the production
// backend, storing the snapshot as a single versioned row.
package state
