package retention

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"spendwatch-hq/saturn/pkg/ledger"
)

func writeFile(t *testing.T, path, content string, modTime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("Failed to set mtime on %s: %v", path, err)
	}
}

func TestRun_ExpiresOldSessions(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 8, 23, 3, 0, 0, 0, time.UTC)

	writeFile(t, filepath.Join(dir, "old.jsonl"), "line\n", now.AddDate(0, 0, -40))
	writeFile(t, filepath.Join(dir, "recent.jsonl"), "line\n", now.AddDate(0, 0, -5))

	policy := DefaultPolicy()
	policy.SessionDir = dir
	policy.ContextKeepMessages = 0 // isolate the expiry step

	report, err := NewPruner(policy, nil, nil, nil).Run(context.Background(), now)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.SessionsExpired != 1 {
		t.Errorf("Expected 1 expired session, got %d", report.SessionsExpired)
	}
	if _, err := os.Stat(filepath.Join(dir, "old.jsonl")); !os.IsNotExist(err) {
		t.Error("Expected old.jsonl removed")
	}
	if _, err := os.Stat(filepath.Join(dir, "recent.jsonl")); err != nil {
		t.Errorf("Expected recent.jsonl kept: %v", err)
	}
}

func TestRun_KeepsMostRecentSessions(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 8, 23, 3, 0, 0, 0, time.UTC)

	// 15 sessions, one day apart, all inside the age limit.
	for i := 0; i < 15; i++ {
		name := fmt.Sprintf("session-%02d.jsonl", i)
		writeFile(t, filepath.Join(dir, name), "line\n", now.Add(-time.Duration(i)*24*time.Hour))
	}

	policy := DefaultPolicy()
	policy.SessionDir = dir
	policy.SessionMaxAge = 365 * 24 * time.Hour
	policy.ContextKeepMessages = 0

	report, err := NewPruner(policy, nil, nil, nil).Run(context.Background(), now)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.SessionsTrimmed != 5 {
		t.Errorf("Expected exactly 5 sessions trimmed, got %d", report.SessionsTrimmed)
	}

	// The 10 newest (indexes 0-9) survive, the 5 oldest are gone.
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("session-%02d.jsonl", i)
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s kept: %v", name, err)
		}
	}
	for i := 10; i < 15; i++ {
		name := fmt.Sprintf("session-%02d.jsonl", i)
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("Expected %s removed", name)
		}
	}
}

func TestRun_TruncatesContexts(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 8, 23, 3, 0, 0, 0, time.UTC)

	var lines []string
	lines = append(lines, `{"meta":"session"}`)
	for i := 0; i < 100; i++ {
		lines = append(lines, fmt.Sprintf(`{"msg":%d}`, i))
	}
	path := filepath.Join(dir, "big.jsonl")
	writeFile(t, path, strings.Join(lines, "\n")+"\n", now)

	policy := DefaultPolicy()
	policy.SessionDir = dir
	policy.ContextKeepMessages = 50

	report, err := NewPruner(policy, nil, nil, nil).Run(context.Background(), now)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.ContextsPruned != 1 {
		t.Errorf("Expected 1 context pruned, got %d", report.ContextsPruned)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read truncated file: %v", err)
	}
	got := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(got) != 51 {
		t.Fatalf("Expected metadata line + 50 messages, got %d lines", len(got))
	}
	if got[0] != `{"meta":"session"}` {
		t.Errorf("Expected metadata line preserved, got %q", got[0])
	}
	if got[len(got)-1] != `{"msg":99}` {
		t.Errorf("Expected last message kept, got %q", got[len(got)-1])
	}
	if got[1] != `{"msg":50}` {
		t.Errorf("Expected truncation to keep the last 50 messages, got %q first", got[1])
	}
}

func TestRun_ExpiresAuditLogsAndMemory(t *testing.T) {
	auditDir := t.TempDir()
	memoryDir := t.TempDir()
	now := time.Date(2026, 8, 23, 3, 0, 0, 0, time.UTC)

	writeFile(t, filepath.Join(auditDir, "old.jsonl"), "x\n", now.AddDate(0, 0, -8))
	writeFile(t, filepath.Join(auditDir, "new.jsonl"), "x\n", now.AddDate(0, 0, -2))
	writeFile(t, filepath.Join(memoryDir, "2026-06-01.md"), "note\n", now.AddDate(0, 0, -45))
	writeFile(t, filepath.Join(memoryDir, "MEMORY.md"), "keep\n", now.AddDate(0, 0, -45))

	policy := DefaultPolicy()
	policy.AuditLogDir = auditDir
	policy.MemoryDir = memoryDir

	report, err := NewPruner(policy, nil, nil, nil).Run(context.Background(), now)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.AuditLogsRemoved != 1 {
		t.Errorf("Expected 1 audit log removed, got %d", report.AuditLogsRemoved)
	}
	if report.MemoryFilesMerged != 1 {
		t.Errorf("Expected 1 memory file merged, got %d", report.MemoryFilesMerged)
	}

	// The working memory file is old but never touched.
	if _, err := os.Stat(filepath.Join(memoryDir, "MEMORY.md")); err != nil {
		t.Errorf("Expected MEMORY.md kept: %v", err)
	}
	if _, err := os.Stat(filepath.Join(memoryDir, "2026-06-01.md")); !os.IsNotExist(err) {
		t.Error("Expected dated memory file removed")
	}
}

func TestRun_PrunesLedger(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	now := time.Date(2026, 8, 23, 3, 0, 0, 0, time.UTC)

	for i, age := range []time.Duration{100 * 24 * time.Hour, 10 * 24 * time.Hour} {
		err := store.Append(ctx, ledger.UsageEvent{
			ID:          fmt.Sprintf("ev-%d", i),
			Timestamp:   now.Add(-age),
			Model:       "m",
			InputTokens: 1,
		})
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	policy := DefaultPolicy()
	report, err := NewPruner(policy, store, nil, nil).Run(ctx, now)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.LedgerEventsPruned != 1 {
		t.Errorf("Expected 1 ledger event pruned, got %d", report.LedgerEventsPruned)
	}

	remaining, _ := store.All(ctx)
	if len(remaining) != 1 {
		t.Errorf("Expected 1 event remaining, got %d", len(remaining))
	}
}

func TestRun_LockBlocksConcurrentPass(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "retention.lock")

	policy := DefaultPolicy()
	policy.LockPath = lockPath

	// Simulate a pass in flight.
	if err := os.WriteFile(lockPath, []byte("123\n"), 0o644); err != nil {
		t.Fatalf("Failed to plant lock: %v", err)
	}

	_, err := NewPruner(policy, nil, nil, nil).Run(context.Background(), time.Now())
	if err == nil {
		t.Fatal("Expected error while lock is held")
	}

	// After release, a pass succeeds and removes its lock.
	os.Remove(lockPath)
	if _, err := NewPruner(policy, nil, nil, nil).Run(context.Background(), time.Now()); err != nil {
		t.Fatalf("Run failed after lock release: %v", err)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Error("Expected lock removed after pass")
	}
}

func TestRun_CollectsFailuresAndContinues(t *testing.T) {
	ctx := context.Background()
	memoryDir := t.TempDir()
	now := time.Date(2026, 8, 23, 3, 0, 0, 0, time.UTC)

	writeFile(t, filepath.Join(memoryDir, "2026-06-01.md"), "a\n", now.AddDate(0, 0, -45))
	writeFile(t, filepath.Join(memoryDir, "2026-06-02.md"), "b\n", now.AddDate(0, 0, -45))

	policy := DefaultPolicy()
	policy.MemoryDir = memoryDir

	report, err := NewPruner(policy, nil, failOnceConsolidator{}, nil).Run(ctx, now)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Failures) != 1 {
		t.Fatalf("Expected 1 collected failure, got %v", report.Failures)
	}
	if report.MemoryFilesMerged != 1 {
		t.Errorf("Expected the other file still merged, got %d", report.MemoryFilesMerged)
	}

	// The failed file survives for the next pass.
	if _, err := os.Stat(filepath.Join(memoryDir, "2026-06-01.md")); err != nil {
		t.Errorf("Expected failed file kept: %v", err)
	}
}

// failOnceConsolidator fails for 2026-06-01.md and accepts everything else.
type failOnceConsolidator struct{}

func (failOnceConsolidator) Consolidate(ctx context.Context, path string) error {
	if strings.HasSuffix(path, "2026-06-01.md") {
		return fmt.Errorf("consolidation target unavailable")
	}
	return nil
}

func TestReport_RenderIncludesFailures(t *testing.T) {
	report := &Report{
		StartedAt:        time.Date(2026, 8, 23, 3, 0, 0, 0, time.UTC),
		SessionsExpired:  2,
		AuditLogsRemoved: 1,
		BytesFreed:       1024 * 1024,
		Failures:         []error{fmt.Errorf("remove x: permission denied")},
	}

	out := report.Render()
	for _, want := range []string{
		"Sessions expired:     2",
		"Freed: 1.00 MB",
		"permission denied",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected report to contain %q, got:\n%s", want, out)
		}
	}
}
