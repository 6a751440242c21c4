package aggregate

import (
	"context"
	"fmt"
	"time"

	"spendwatch-hq/saturn/pkg/ledger"
	"spendwatch-hq/saturn/pkg/periods"
	"spendwatch-hq/saturn/pkg/pricing"
)

// PeriodAggregate is the cost roll-up for one period window.
type PeriodAggregate struct {
	// Kind is the period kind this aggregate covers.
	Kind periods.Kind

	// Key is the period key (e.g. "2026-08-23").
	Key string

	// TotalCost is the USD cost sum over all events in the window.
	TotalCost float64

	// PerModelCost maps canonical model identifier to its USD cost share.
	PerModelCost map[string]float64

	// Events is the number of ledger events in the window.
	Events int
}

// Aggregator computes period aggregates from the ledger and price table.
type Aggregator struct {
	store ledger.Store
	table *pricing.Table
	loc   *time.Location
}

// NewAggregator creates an aggregator. loc is the fixed reference timezone
// for period boundaries; nil means UTC.
func NewAggregator(store ledger.Store, table *pricing.Table, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{store: store, table: table, loc: loc}
}

// Location returns the reference timezone used for period boundaries.
func (a *Aggregator) Location() *time.Location {
	return a.loc
}

// At computes the aggregate for the period of kind k containing instant t.
func (a *Aggregator) At(ctx context.Context, k periods.Kind, t time.Time) (*PeriodAggregate, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("unknown period kind %q", k)
	}

	window := periods.WindowAt(k, t, a.loc)
	events, err := a.store.Slice(ctx, window)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger window: %w", err)
	}

	agg := &PeriodAggregate{
		Kind:         k,
		Key:          periods.KeyAt(k, t, a.loc),
		PerModelCost: make(map[string]float64),
	}
	if err := agg.add(events, a.table); err != nil {
		return nil, err
	}
	return agg, nil
}

// CumulativeTotal computes the all-time USD cost sum over the full ledger.
// This is the milestone tracker's basis and is independent of period resets.
func (a *Aggregator) CumulativeTotal(ctx context.Context) (float64, error) {
	events, err := a.store.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read ledger: %w", err)
	}

	var total float64
	for _, ev := range events {
		cost, err := ledger.CostOf(ev, a.table)
		if err != nil {
			return 0, err
		}
		total += cost
	}
	return total, nil
}

func (agg *PeriodAggregate) add(events []ledger.UsageEvent, table *pricing.Table) error {
	for _, ev := range events {
		cost, err := ledger.CostOf(ev, table)
		if err != nil {
			return err
		}
		model := table.Normalize(ev.Model)
		agg.PerModelCost[model] += cost
		agg.TotalCost += cost
		agg.Events++
	}
	return nil
}
