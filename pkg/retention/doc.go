// Package retention prunes on-disk artifacts that grow without bound:
// session logs, audit logs, daily memory files and the usage ledger itself.
//
// # Pruning Pass
//
// A pass takes a lock file so concurrent passes cannot race over the same
// directories, then runs each step in order: expire session logs past the
// age limit, keep only the N most recent sessions, truncate surviving
// session contexts to their last messages, expire audit logs, consolidate
// old daily memory files, and prune ledger events past the ledger horizon.
//
// Steps are independent. A failure on one item is collected into the report
// and the pass moves on; completed removals are never rolled back. The
// summary report is best-effort on top of that: failing to render or
// deliver it does not undo anything.
//
// # Scheduling
//
// Scheduler runs passes on a cron expression, typically daily during quiet
// hours.
package retention
