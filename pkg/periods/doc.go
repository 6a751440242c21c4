// Package periods defines the calendar windows used for spend limit
// comparison.
//
// Three period kinds are supported: daily (calendar day), weekly
// (ISO Monday-Sunday), and monthly (calendar month). Each instant maps to
// exactly one period key per kind, derived in a fixed reference timezone so
// that period boundaries do not drift with the host clock's locale.
//
// Keys are stable string identifiers ("2026-08-23", "2026-W34", "2026-08")
// suitable for persistence and for alert deduplication.
package periods
