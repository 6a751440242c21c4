package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"spendwatch-hq/saturn/pkg/aggregate"
	"spendwatch-hq/saturn/pkg/alerting"
	"spendwatch-hq/saturn/pkg/ledger"
	"spendwatch-hq/saturn/pkg/limits"
	"spendwatch-hq/saturn/pkg/periods"
	"spendwatch-hq/saturn/pkg/pricing"
)

const divider = "===================================\n"

// modelRow is the per-model line of the daily breakdown.
type modelRow struct {
	model        string
	inputTokens  uint64
	outputTokens uint64
	inputCost    float64
	outputCost   float64
	totalCost    float64
	events       int
}

// Builder renders dashboards from the ledger and the price table.
type Builder struct {
	store      ledger.Store
	table      *pricing.Table
	aggregator *aggregate.Aggregator
	loc        *time.Location
}

// NewBuilder creates a dashboard builder. A nil location defaults to UTC.
func NewBuilder(store ledger.Store, table *pricing.Table, loc *time.Location) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{
		store:      store,
		table:      table,
		aggregator: aggregate.NewAggregator(store, table, loc),
		loc:        loc,
	}
}

// Build renders the dashboard for the instant now under the given limit
// config and milestone state.
func (b *Builder) Build(ctx context.Context, now time.Time, cfg limits.Config, lastMilestone, milestoneIncrement float64) (string, error) {
	rows, totalTokens, err := b.dailyBreakdown(ctx, now)
	if err != nil {
		return "", err
	}

	spend := make(map[periods.Kind]float64, len(periods.Kinds))
	for _, kind := range periods.Kinds {
		agg, err := b.aggregator.At(ctx, kind, now)
		if err != nil {
			return "", err
		}
		spend[kind] = agg.TotalCost
	}

	cumulative, err := b.aggregator.CumulativeTotal(ctx)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	out.WriteString("Saturn Usage Dashboard\n")
	fmt.Fprintf(&out, "Generated: %s\n\n", now.In(b.loc).Format("2006-01-02 15:04:05"))

	out.WriteString(divider)
	out.WriteString("TODAY\n")
	out.WriteString(divider)
	fmt.Fprintf(&out, "Total Tokens: %d\n", totalTokens)
	fmt.Fprintf(&out, "Total Cost: $%.2f\n", spend[periods.Daily])
	fmt.Fprintf(&out, "Daily Limit: $%.2f\n", cfg.DailyLimit)
	if cfg.DailyLimit > 0 {
		fmt.Fprintf(&out, "Daily Usage: %.1f%%\n", spend[periods.Daily]/cfg.DailyLimit*100)
	}
	out.WriteString("\n")

	out.WriteString(divider)
	out.WriteString("BY MODEL\n")
	out.WriteString(divider)
	for _, row := range rows {
		fmt.Fprintf(&out, "%s\n", row.model)
		fmt.Fprintf(&out, "  Input:  %d tokens -> $%.4f\n", row.inputTokens, row.inputCost)
		fmt.Fprintf(&out, "  Output: %d tokens -> $%.4f\n", row.outputTokens, row.outputCost)
		fmt.Fprintf(&out, "  Total:  $%.2f over %d events\n\n", row.totalCost, row.events)
	}

	out.WriteString(divider)
	out.WriteString("LIMITS & STATUS\n")
	out.WriteString(divider)
	for _, kind := range periods.Kinds {
		limit := cfg.LimitFor(kind)
		fmt.Fprintf(&out, "  %s: $%.2f / $%.2f %s\n",
			capitalize(string(kind)), spend[kind], limit, statusLabel(spend[kind], limit, cfg))
	}

	if milestoneIncrement > 0 {
		completed := int(cumulative / milestoneIncrement)
		next := float64(completed+1) * milestoneIncrement
		fmt.Fprintf(&out, "\nCost Milestones: %d x $%.2f (last announced: $%.2f, next: $%.2f)\n",
			completed, milestoneIncrement, lastMilestone, next)
	}
	fmt.Fprintf(&out, "Cumulative Spend: $%.2f\n", cumulative)

	return out.String(), nil
}

// dailyBreakdown groups today's events by model.
func (b *Builder) dailyBreakdown(ctx context.Context, now time.Time) ([]modelRow, uint64, error) {
	window := periods.WindowAt(periods.Daily, now, b.loc)
	events, err := b.store.Slice(ctx, window)
	if err != nil {
		return nil, 0, err
	}

	byModel := make(map[string]*modelRow)
	var totalTokens uint64
	for _, ev := range events {
		row, ok := byModel[ev.Model]
		if !ok {
			row = &modelRow{model: ev.Model}
			byModel[ev.Model] = row
		}

		entry, err := b.table.Lookup(ev.Model)
		if err != nil {
			return nil, 0, err
		}

		row.inputTokens += ev.InputTokens
		row.outputTokens += ev.OutputTokens
		row.inputCost += float64(ev.InputTokens) / 1000.0 * entry.InputPricePer1K
		row.outputCost += float64(ev.OutputTokens) / 1000.0 * entry.OutputPricePer1K
		row.totalCost = row.inputCost + row.outputCost
		row.events++
		totalTokens += ev.InputTokens + ev.OutputTokens
	}

	rows := make([]modelRow, 0, len(byModel))
	for _, row := range byModel {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].model < rows[j].model })
	return rows, totalTokens, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// statusLabel maps a spend/limit pair to its threshold status text.
func statusLabel(spend, limit float64, cfg limits.Config) string {
	if limit <= 0 {
		return "(no limit)"
	}
	fraction := spend / limit
	switch {
	case fraction >= cfg.CriticalFraction:
		return string(alerting.LevelCritical) + " (" + fmt.Sprintf("%.1f%%", fraction*100) + ")"
	case fraction >= cfg.WarningFraction:
		return string(alerting.LevelWarning) + " (" + fmt.Sprintf("%.1f%%", fraction*100) + ")"
	}
	return fmt.Sprintf("ok (%.1f%%)", fraction*100)
}
