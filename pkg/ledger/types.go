package ledger

import (
	"context"
	"time"

	"spendwatch-hq/saturn/pkg/periods"
	"spendwatch-hq/saturn/pkg/pricing"
)

// UsageEvent records the token consumption of a single model invocation.
// Events are immutable once appended to the ledger.
type UsageEvent struct {
	// ID uniquely identifies the event (UUID v4).
	ID string `json:"id"`

	// Timestamp is when the invocation happened.
	Timestamp time.Time `json:"timestamp"`

	// Model is the model identifier as recorded by the logging collaborator.
	Model string `json:"model"`

	// InputTokens is the number of prompt tokens consumed.
	InputTokens uint64 `json:"input_tokens"`

	// OutputTokens is the number of completion tokens produced.
	OutputTokens uint64 `json:"output_tokens"`

	// CacheReadTokens and CacheWriteTokens are recorded for reporting but
	// do not participate in cost computation.
	CacheReadTokens  uint64 `json:"cache_read_tokens"`
	CacheWriteTokens uint64 `json:"cache_write_tokens"`
}

// Store is the append-only persistence interface for usage events.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append adds one event to the ledger. Appends are atomic and
	// ordering-independent.
	Append(ctx context.Context, event UsageEvent) error

	// Slice returns all events whose timestamp falls within the window,
	// in arbitrary order.
	Slice(ctx context.Context, window periods.Window) ([]UsageEvent, error)

	// All returns every event in the ledger, in arbitrary order.
	All(ctx context.Context) ([]UsageEvent, error)

	// PruneBefore removes events older than the cutoff and returns the
	// number removed. Reserved for the retention engine.
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases resources held by the store.
	Close() error
}

// CostOf computes the USD cost of a single event from the price table.
// Fails with *pricing.UnknownModelError when the model has no entry; the
// caller must not substitute a default price.
func CostOf(event UsageEvent, table *pricing.Table) (float64, error) {
	entry, err := table.Lookup(event.Model)
	if err != nil {
		return 0, err
	}

	inputCost := float64(event.InputTokens) / 1000.0 * entry.InputPricePer1K
	outputCost := float64(event.OutputTokens) / 1000.0 * entry.OutputPricePer1K
	return inputCost + outputCost, nil
}
