package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeSessionLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write session log: %v", err)
	}
	return path
}

func TestIngestFile(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	ingestor := NewIngestor(store, testPrices(), nil)

	log := `{"timestamp":"2026-08-23T10:00:00Z","model":"claude-haiku","usage":{"input":1200,"output":300,"cacheRead":50}}
not json at all
{"timestamp":"2026-08-23T10:05:00Z","message":{"model":"anthropic/claude-haiku","usage":{"input_tokens":500,"output_tokens":100}}}
{"timestamp":"2026-08-23T10:06:00Z","model":"anthropic/claude-haiku","usage":{"input":0,"output":0}}
{"timestamp":"2026-08-23T10:07:00Z","model":"","usage":{"input":10,"output":10}}
`
	path := writeSessionLog(t, t.TempDir(), "session.jsonl", log)

	stats, err := ingestor.IngestFile(ctx, path)
	if err != nil {
		t.Fatalf("IngestFile failed: %v", err)
	}
	if stats.Appended != 2 {
		t.Errorf("Expected 2 events appended, got %d", stats.Appended)
	}
	if stats.Skipped != 3 {
		t.Errorf("Expected 3 lines skipped, got %d", stats.Skipped)
	}

	all, _ := store.All(ctx)
	if len(all) != 2 {
		t.Fatalf("Expected 2 events in ledger, got %d", len(all))
	}
	for _, ev := range all {
		if ev.Model != "anthropic/claude-haiku" {
			t.Errorf("Expected model normalized to canonical name, got %q", ev.Model)
		}
	}
}

func TestIngestFile_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	ingestor := NewIngestor(store, testPrices(), nil)

	log := `{"timestamp":"2026-08-23T10:00:00Z","model":"claude-haiku","usage":{"input":1200,"output":300}}
`
	path := writeSessionLog(t, t.TempDir(), "session.jsonl", log)

	for i := 0; i < 2; i++ {
		if _, err := ingestor.IngestFile(ctx, path); err != nil {
			t.Fatalf("IngestFile run %d failed: %v", i+1, err)
		}
	}

	all, _ := store.All(ctx)
	if len(all) != 1 {
		t.Errorf("Expected re-ingest to be idempotent, got %d events", len(all))
	}
}

func TestIngestGlobs(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	ingestor := NewIngestor(store, testPrices(), nil)
	dir := t.TempDir()

	writeSessionLog(t, dir, "a.jsonl", `{"timestamp":"2026-08-23T10:00:00Z","model":"claude-haiku","usage":{"input":100,"output":10}}
`)
	writeSessionLog(t, dir, "b.jsonl", `{"timestamp":"2026-08-23T11:00:00Z","model":"claude-haiku","usage":{"input":200,"output":20}}
`)

	stats, err := ingestor.IngestGlobs(ctx, []string{filepath.Join(dir, "*.jsonl")})
	if err != nil {
		t.Fatalf("IngestGlobs failed: %v", err)
	}
	if stats.Files != 2 {
		t.Errorf("Expected 2 files ingested, got %d", stats.Files)
	}
	if stats.Appended != 2 {
		t.Errorf("Expected 2 events appended, got %d", stats.Appended)
	}
}
