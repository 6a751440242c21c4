// Package aggregate rolls ledger events into per-period cost sums.
//
// Aggregation is a pure function of the ledger slice and the price table:
// each evaluation recomputes the aggregate from scratch instead of mutating
// a running counter, so the result can never drift from the ledger. Callers
// that need efficiency may memoize per period key; correctness does not
// depend on it.
//
// A period with no events aggregates to zero cost. An event whose model has
// no price entry fails the whole aggregation: silently dropping it would
// understate real spend and corrupt limit comparisons downstream.
package aggregate
