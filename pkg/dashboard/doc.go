// Package dashboard renders a plain-text usage report: totals, per-model
// breakdown, limit status per period and milestone progress.
package dashboard
