package ledger

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"spendwatch-hq/saturn/pkg/pricing"
)

// eventIDNamespace derives deterministic event IDs from a log line's
// location, so re-ingesting the same session log is idempotent.
var eventIDNamespace = uuid.MustParse("7f1b9c64-2a41-4e4b-9b6e-5a0d3f8c1a20")

// rawEntry is the raw JSON shape of a session log line. Some agents nest
// the model and usage under a message envelope, and token keys appear under
// both short and long spellings.
type rawEntry struct {
	Timestamp string    `json:"timestamp"`
	Model     string    `json:"model"`
	Usage     *rawUsage `json:"usage"`
	Message   struct {
		Model string    `json:"model"`
		Usage *rawUsage `json:"usage"`
	} `json:"message"`
}

type rawUsage struct {
	Input        uint64 `json:"input"`
	InputTokens  uint64 `json:"input_tokens"`
	Output       uint64 `json:"output"`
	OutputTokens uint64 `json:"output_tokens"`
	CacheRead    uint64 `json:"cacheRead"`
	CacheWrite   uint64 `json:"cacheWrite"`
}

func (u *rawUsage) input() uint64 {
	if u.Input > 0 {
		return u.Input
	}
	return u.InputTokens
}

func (u *rawUsage) output() uint64 {
	if u.Output > 0 {
		return u.Output
	}
	return u.OutputTokens
}

// Ingestor reads session logs produced by the logging collaborator and
// appends their usage entries to the ledger.
type Ingestor struct {
	store  Store
	table  *pricing.Table
	logger *slog.Logger
}

// IngestStats summarizes one ingest pass.
type IngestStats struct {
	Files    int
	Appended int
	Skipped  int
}

// NewIngestor creates an ingestor writing into store. Model names are
// normalized through the price table's alias map before appending.
func NewIngestor(store Store, table *pricing.Table, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default().With("component", "ledger.ingest")
	}
	return &Ingestor{store: store, table: table, logger: logger}
}

// IngestGlobs ingests every JSONL file matched by the given glob patterns.
// Unreadable files are logged and skipped; the pass continues.
func (in *Ingestor) IngestGlobs(ctx context.Context, patterns []string) (IngestStats, error) {
	var stats IngestStats
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return stats, fmt.Errorf("invalid session log pattern %q: %w", pattern, err)
		}
		for _, path := range matches {
			fileStats, err := in.IngestFile(ctx, path)
			if err != nil {
				in.logger.Warn("skipping unreadable session log", "path", path, "error", err)
				continue
			}
			stats.Files++
			stats.Appended += fileStats.Appended
			stats.Skipped += fileStats.Skipped
		}
	}
	return stats, nil
}

// IngestFile ingests a single JSONL session log. Malformed lines and lines
// without usage data are skipped.
func (in *Ingestor) IngestFile(ctx context.Context, path string) (IngestStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return IngestStats{}, err
	}
	defer f.Close()

	stats := IngestStats{Files: 1}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var raw rawEntry
		if err := json.Unmarshal(line, &raw); err != nil {
			stats.Skipped++
			continue
		}

		model := raw.Model
		usage := raw.Usage
		if model == "" {
			model = raw.Message.Model
		}
		if usage == nil {
			usage = raw.Message.Usage
		}
		if model == "" || usage == nil {
			stats.Skipped++
			continue
		}
		if usage.input() == 0 && usage.output() == 0 {
			stats.Skipped++
			continue
		}

		timestamp, err := time.Parse(time.RFC3339, raw.Timestamp)
		if err != nil {
			stats.Skipped++
			continue
		}

		event := UsageEvent{
			ID:               uuid.NewSHA1(eventIDNamespace, []byte(fmt.Sprintf("%s:%d", path, lineNo))).String(),
			Timestamp:        timestamp,
			Model:            in.table.Normalize(model),
			InputTokens:      usage.input(),
			OutputTokens:     usage.output(),
			CacheReadTokens:  usage.CacheRead,
			CacheWriteTokens: usage.CacheWrite,
		}
		if err := in.store.Append(ctx, event); err != nil {
			return stats, fmt.Errorf("failed to append event from %s:%d: %w", path, lineNo, err)
		}
		stats.Appended++
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read %q: %w", path, err)
	}
	return stats, nil
}
