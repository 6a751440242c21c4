package aggregate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"spendwatch-hq/saturn/pkg/ledger"
	"spendwatch-hq/saturn/pkg/periods"
	"spendwatch-hq/saturn/pkg/pricing"
)

func testPrices() *pricing.Table {
	return pricing.NewTable(
		map[string]pricing.Entry{
			"anthropic/claude-haiku":  {InputPricePer1K: 0.001, OutputPricePer1K: 0.005},
			"anthropic/claude-sonnet": {InputPricePer1K: 0.003, OutputPricePer1K: 0.015},
		},
		nil,
	)
}

func appendEvents(t *testing.T, store ledger.Store, events ...ledger.UsageEvent) {
	t.Helper()
	ctx := context.Background()
	for i, ev := range events {
		if ev.ID == "" {
			ev.ID = fmt.Sprintf("ev-%d", i)
		}
		if err := store.Append(ctx, ev); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
}

func TestAt_GroupsByModel(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	day := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	appendEvents(t, store,
		ledger.UsageEvent{Timestamp: day, Model: "anthropic/claude-haiku", InputTokens: 1000, OutputTokens: 1000},
		ledger.UsageEvent{Timestamp: day.Add(time.Hour), Model: "anthropic/claude-haiku", InputTokens: 1000},
		ledger.UsageEvent{Timestamp: day.Add(2 * time.Hour), Model: "anthropic/claude-sonnet", OutputTokens: 1000},
	)

	agg, err := NewAggregator(store, testPrices(), time.UTC).At(ctx, periods.Daily, day)
	if err != nil {
		t.Fatalf("At failed: %v", err)
	}

	if agg.Key != "2026-08-23" {
		t.Errorf("Expected key 2026-08-23, got %q", agg.Key)
	}
	if agg.Events != 3 {
		t.Errorf("Expected 3 events, got %d", agg.Events)
	}

	// haiku: (0.001 + 0.005) + 0.001 = 0.007; sonnet: 0.015
	if !closeTo(agg.PerModelCost["anthropic/claude-haiku"], 0.007) {
		t.Errorf("Expected haiku cost 0.007, got %v", agg.PerModelCost["anthropic/claude-haiku"])
	}
	if !closeTo(agg.PerModelCost["anthropic/claude-sonnet"], 0.015) {
		t.Errorf("Expected sonnet cost 0.015, got %v", agg.PerModelCost["anthropic/claude-sonnet"])
	}
	if !closeTo(agg.TotalCost, 0.022) {
		t.Errorf("Expected total 0.022, got %v", agg.TotalCost)
	}
}

func TestAt_ZeroEventsIsZeroCost(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()

	agg, err := NewAggregator(store, testPrices(), time.UTC).At(ctx, periods.Weekly, time.Now())
	if err != nil {
		t.Fatalf("Expected empty period to aggregate without error, got %v", err)
	}
	if agg.TotalCost != 0 || agg.Events != 0 {
		t.Errorf("Expected zero aggregate, got %+v", agg)
	}
}

func TestAt_UnknownModelFailsLoudly(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	day := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	appendEvents(t, store,
		ledger.UsageEvent{Timestamp: day, Model: "unpriced-model", InputTokens: 100},
	)

	_, err := NewAggregator(store, testPrices(), time.UTC).At(ctx, periods.Daily, day)
	if err == nil {
		t.Fatal("Expected aggregation to fail for unpriced model")
	}
	var unknownErr *pricing.UnknownModelError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("Expected *pricing.UnknownModelError, got %T", err)
	}
}

// Aggregating the whole month must equal the sum of its daily aggregates.
func TestAdditivity_DailyPartitionsCoverMonth(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	utc := time.UTC

	// Spread events over ten days of one month at odd hours.
	for d := 1; d <= 10; d++ {
		appendEvents(t, store, ledger.UsageEvent{
			ID:           fmt.Sprintf("day-%d", d),
			Timestamp:    time.Date(2026, 8, d, d%24, 17, 0, 0, utc),
			Model:        "anthropic/claude-haiku",
			InputTokens:  uint64(d * 500),
			OutputTokens: uint64(d * 100),
		})
	}

	agg := NewAggregator(store, testPrices(), utc)

	monthly, err := agg.At(ctx, periods.Monthly, time.Date(2026, 8, 15, 0, 0, 0, 0, utc))
	if err != nil {
		t.Fatalf("Monthly aggregate failed: %v", err)
	}

	var dailySum float64
	for d := 1; d <= 31; d++ {
		daily, err := agg.At(ctx, periods.Daily, time.Date(2026, 8, d, 12, 0, 0, 0, utc))
		if err != nil {
			t.Fatalf("Daily aggregate failed: %v", err)
		}
		dailySum += daily.TotalCost
	}

	if !closeTo(monthly.TotalCost, dailySum) {
		t.Errorf("Expected monthly total %v to equal sum of daily totals %v", monthly.TotalCost, dailySum)
	}
}

func TestCumulativeTotal(t *testing.T) {
	ctx := context.Background()
	store := ledger.NewMemoryStore()
	utc := time.UTC

	// Events in two different months both count toward the all-time total.
	appendEvents(t, store,
		ledger.UsageEvent{Timestamp: time.Date(2026, 7, 1, 0, 0, 0, 0, utc), Model: "anthropic/claude-haiku", InputTokens: 1000},
		ledger.UsageEvent{Timestamp: time.Date(2026, 8, 23, 0, 0, 0, 0, utc), Model: "anthropic/claude-haiku", OutputTokens: 1000},
	)

	total, err := NewAggregator(store, testPrices(), utc).CumulativeTotal(ctx)
	if err != nil {
		t.Fatalf("CumulativeTotal failed: %v", err)
	}
	if !closeTo(total, 0.006) {
		t.Errorf("Expected cumulative total 0.006, got %v", total)
	}
}

func closeTo(got, want float64) bool {
	return math.Abs(got-want) < 1e-9
}
