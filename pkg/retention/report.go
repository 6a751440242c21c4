package retention

import (
	"fmt"
	"strings"
	"time"
)

// Report summarizes one pruning pass.
type Report struct {
	StartedAt time.Time
	Duration  time.Duration

	SessionsExpired   int
	SessionsTrimmed   int
	ContextsPruned    int
	AuditLogsRemoved  int
	MemoryFilesMerged int
	LedgerEventsPruned int64

	// BytesFreed is the total on-disk size of removed or truncated data.
	BytesFreed int64

	// Failures collects per-item errors. The pass keeps going past them.
	Failures []error
}

// Render formats the report as text, in the dashboard's style.
func (r *Report) Render() string {
	var b strings.Builder
	b.WriteString("Retention Report\n")
	fmt.Fprintf(&b, "Generated: %s (took %s)\n\n", r.StartedAt.Format("2006-01-02 15:04:05"), r.Duration.Round(time.Millisecond))

	b.WriteString("===================================\n")
	b.WriteString("ACTIONS COMPLETED\n")
	b.WriteString("===================================\n")
	fmt.Fprintf(&b, "Sessions expired:     %d\n", r.SessionsExpired)
	fmt.Fprintf(&b, "Sessions trimmed:     %d\n", r.SessionsTrimmed)
	fmt.Fprintf(&b, "Contexts pruned:      %d\n", r.ContextsPruned)
	fmt.Fprintf(&b, "Audit logs removed:   %d\n", r.AuditLogsRemoved)
	fmt.Fprintf(&b, "Memory files merged:  %d\n", r.MemoryFilesMerged)
	fmt.Fprintf(&b, "Ledger events pruned: %d\n", r.LedgerEventsPruned)
	fmt.Fprintf(&b, "Freed: %.2f MB\n", float64(r.BytesFreed)/(1024*1024))

	if len(r.Failures) > 0 {
		b.WriteString("\n===================================\n")
		b.WriteString("FAILURES\n")
		b.WriteString("===================================\n")
		for _, err := range r.Failures {
			fmt.Fprintf(&b, "- %v\n", err)
		}
	}

	return b.String()
}
