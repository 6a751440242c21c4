// Package ledger provides the append-only usage event store.
//
// # Overview
//
// Every model invocation produces one UsageEvent with raw token counts.
// Events are immutable once appended: the ledger never edits or reorders
// entries, and the only destructive operation is PruneBefore, reserved for
// the retention engine. No cross-event invariant depends on append order,
// so concurrent appends are safe.
//
// # Cost
//
// CostOf converts an event's token counts to USD through the price table.
// A model without a price entry is an error, never zero cost.
//
// # Backends
//
// Two Store implementations are provided: an in-memory store for tests and
// ephemeral runs, and a SQLite store (WAL mode, single writer) for durable
// history across restarts.
package ledger
