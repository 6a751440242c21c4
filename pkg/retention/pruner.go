package retention

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"spendwatch-hq/saturn/pkg/ledger"
	"spendwatch-hq/saturn/pkg/telemetry/metrics"
)

// dailyMemoryFile matches YYYY-MM-DD.md note names; working files like
// MEMORY.md are never touched.
var dailyMemoryFile = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\.md$`)

// Consolidator merges expired daily memory files before they are removed.
// Implementations typically fold the content into a long-lived summary
// file. Returning an error keeps the source file in place.
type Consolidator interface {
	Consolidate(ctx context.Context, path string) error
}

// DiscardConsolidator drops expired memory files without merging. It is the
// default when no consolidation target is configured.
type DiscardConsolidator struct{}

// Consolidate does nothing; the caller removes the file.
func (DiscardConsolidator) Consolidate(ctx context.Context, path string) error {
	return nil
}

// Pruner runs retention passes.
type Pruner struct {
	policy       Policy
	store        ledger.Store
	consolidator Consolidator
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewPruner creates a pruner. The ledger store, consolidator and metrics
// are all optional; nil disables the corresponding step or instrumentation.
func NewPruner(policy Policy, store ledger.Store, consolidator Consolidator, m *metrics.Metrics) *Pruner {
	if consolidator == nil {
		consolidator = DiscardConsolidator{}
	}
	return &Pruner{
		policy:       policy,
		store:        store,
		consolidator: consolidator,
		metrics:      m,
		logger:       slog.Default().With("component", "retention"),
	}
}

// Policy returns the pruner's policy.
func (p *Pruner) Policy() Policy {
	return p.policy
}

// Run executes one pruning pass at the given instant.
//
// The pass holds the policy's lock file from start to finish. Individual
// item failures are collected into the report; only a failure to take the
// lock aborts the pass.
func (p *Pruner) Run(ctx context.Context, now time.Time) (*Report, error) {
	release, err := p.acquireLock()
	if err != nil {
		return nil, err
	}
	defer release()

	report := &Report{StartedAt: now}
	start := time.Now()

	p.expireSessions(report, now)
	p.trimSessions(report)
	p.pruneContexts(report)
	p.expireAuditLogs(report, now)
	p.consolidateMemory(ctx, report, now)
	p.pruneLedger(ctx, report, now)

	report.Duration = time.Since(start)

	p.logger.Info("Retention pass completed",
		"sessions_expired", report.SessionsExpired,
		"sessions_trimmed", report.SessionsTrimmed,
		"contexts_pruned", report.ContextsPruned,
		"audit_logs_removed", report.AuditLogsRemoved,
		"memory_files_merged", report.MemoryFilesMerged,
		"ledger_events_pruned", report.LedgerEventsPruned,
		"bytes_freed", report.BytesFreed,
		"failures", len(report.Failures),
	)
	p.publish(report)

	return report, nil
}

// acquireLock takes the lock file exclusively and returns its release
// function. A missing LockPath disables locking.
func (p *Pruner) acquireLock() (func(), error) {
	if p.policy.LockPath == "" {
		return func() {}, nil
	}

	f, err := os.OpenFile(p.policy.LockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("retention pass already running (lock file %s exists)", p.policy.LockPath)
		}
		return nil, fmt.Errorf("failed to take retention lock: %w", err)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	f.Close()

	return func() {
		if err := os.Remove(p.policy.LockPath); err != nil {
			p.logger.Warn("Failed to remove retention lock", "path", p.policy.LockPath, "error", err)
		}
	}, nil
}

// expireSessions removes session logs older than the age limit.
func (p *Pruner) expireSessions(report *Report, now time.Time) {
	if p.policy.SessionDir == "" || p.policy.SessionMaxAge <= 0 {
		return
	}
	cutoff := now.Add(-p.policy.SessionMaxAge)

	for _, path := range p.listFiles(report, p.policy.SessionDir, "*.jsonl") {
		info, err := os.Stat(path)
		if err != nil {
			report.Failures = append(report.Failures, fmt.Errorf("stat %s: %w", path, err))
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			report.Failures = append(report.Failures, fmt.Errorf("remove %s: %w", path, err))
			continue
		}
		report.SessionsExpired++
		report.BytesFreed += info.Size()
		p.logger.Debug("Expired session log", "path", path, "bytes", info.Size())
	}
}

// trimSessions keeps only the N most recent session logs.
func (p *Pruner) trimSessions(report *Report) {
	if p.policy.SessionDir == "" || p.policy.MaxSessionsKept <= 0 {
		return
	}

	type aged struct {
		path    string
		modTime time.Time
		size    int64
	}

	var sessions []aged
	for _, path := range p.listFiles(report, p.policy.SessionDir, "*.jsonl") {
		info, err := os.Stat(path)
		if err != nil {
			report.Failures = append(report.Failures, fmt.Errorf("stat %s: %w", path, err))
			continue
		}
		sessions = append(sessions, aged{path: path, modTime: info.ModTime(), size: info.Size()})
	}

	if len(sessions) <= p.policy.MaxSessionsKept {
		return
	}

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].modTime.After(sessions[j].modTime) })

	for _, session := range sessions[p.policy.MaxSessionsKept:] {
		if err := os.Remove(session.path); err != nil {
			report.Failures = append(report.Failures, fmt.Errorf("remove %s: %w", session.path, err))
			continue
		}
		report.SessionsTrimmed++
		report.BytesFreed += session.size
		p.logger.Debug("Trimmed old session log", "path", session.path, "bytes", session.size)
	}
}

// pruneContexts truncates surviving session logs to the first line plus the
// last ContextKeepMessages lines.
func (p *Pruner) pruneContexts(report *Report) {
	if p.policy.SessionDir == "" || p.policy.ContextKeepMessages <= 0 {
		return
	}

	for _, path := range p.listFiles(report, p.policy.SessionDir, "*.jsonl") {
		saved, err := truncateContext(path, p.policy.ContextKeepMessages)
		if err != nil {
			report.Failures = append(report.Failures, fmt.Errorf("prune %s: %w", path, err))
			continue
		}
		if saved > 0 {
			report.ContextsPruned++
			report.BytesFreed += saved
			p.logger.Debug("Pruned session context", "path", path, "bytes_saved", saved)
		}
	}
}

// truncateContext rewrites a session log keeping the first line (session
// metadata) and the last keep lines. Returns the bytes saved.
func truncateContext(path string, keep int) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	lines := strings.SplitAfter(string(data), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) <= keep+1 {
		return 0, nil
	}

	kept := make([]string, 0, keep+1)
	kept = append(kept, lines[0])
	kept = append(kept, lines[len(lines)-keep:]...)

	out := strings.Join(kept, "")
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
		return 0, err
	}
	return int64(len(data) - len(out)), nil
}

// expireAuditLogs removes audit logs older than the age limit.
func (p *Pruner) expireAuditLogs(report *Report, now time.Time) {
	if p.policy.AuditLogDir == "" || p.policy.AuditLogMaxAge <= 0 {
		return
	}
	cutoff := now.Add(-p.policy.AuditLogMaxAge)

	for _, path := range p.listFiles(report, p.policy.AuditLogDir, "*.jsonl") {
		info, err := os.Stat(path)
		if err != nil {
			report.Failures = append(report.Failures, fmt.Errorf("stat %s: %w", path, err))
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			report.Failures = append(report.Failures, fmt.Errorf("remove %s: %w", path, err))
			continue
		}
		report.AuditLogsRemoved++
		report.BytesFreed += info.Size()
	}
}

// consolidateMemory merges and removes daily memory files older than the
// age limit. Working files (anything not named YYYY-MM-DD.md) are left
// alone.
func (p *Pruner) consolidateMemory(ctx context.Context, report *Report, now time.Time) {
	if p.policy.MemoryDir == "" || p.policy.MemoryMaxAge <= 0 {
		return
	}
	cutoff := now.Add(-p.policy.MemoryMaxAge)

	for _, path := range p.listFiles(report, p.policy.MemoryDir, "*.md") {
		if !dailyMemoryFile.MatchString(filepath.Base(path)) {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			report.Failures = append(report.Failures, fmt.Errorf("stat %s: %w", path, err))
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := p.consolidator.Consolidate(ctx, path); err != nil {
			report.Failures = append(report.Failures, fmt.Errorf("consolidate %s: %w", path, err))
			continue
		}
		if err := os.Remove(path); err != nil {
			report.Failures = append(report.Failures, fmt.Errorf("remove %s: %w", path, err))
			continue
		}
		report.MemoryFilesMerged++
		report.BytesFreed += info.Size()
	}
}

// pruneLedger removes usage events past the ledger horizon.
func (p *Pruner) pruneLedger(ctx context.Context, report *Report, now time.Time) {
	if p.store == nil || p.policy.LedgerMaxAge <= 0 {
		return
	}

	pruned, err := p.store.PruneBefore(ctx, now.Add(-p.policy.LedgerMaxAge))
	if err != nil {
		report.Failures = append(report.Failures, fmt.Errorf("prune ledger: %w", err))
		return
	}
	report.LedgerEventsPruned = pruned
}

// listFiles globs a directory, collecting glob errors into the report.
func (p *Pruner) listFiles(report *Report, dir, pattern string) []string {
	paths, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		report.Failures = append(report.Failures, fmt.Errorf("glob %s: %w", dir, err))
		return nil
	}
	return paths
}

func (p *Pruner) publish(report *Report) {
	if p.metrics == nil {
		return
	}
	p.metrics.RecordRetentionRemoved("sessions", int64(report.SessionsExpired+report.SessionsTrimmed))
	p.metrics.RecordRetentionRemoved("contexts", int64(report.ContextsPruned))
	p.metrics.RecordRetentionRemoved("audit_logs", int64(report.AuditLogsRemoved))
	p.metrics.RecordRetentionRemoved("memory_files", int64(report.MemoryFilesMerged))
	p.metrics.RecordRetentionRemoved("ledger_events", report.LedgerEventsPruned)
}
