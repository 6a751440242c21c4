package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spendwatch-hq/saturn/pkg/aggregate"
	"spendwatch-hq/saturn/pkg/alerting"
	"spendwatch-hq/saturn/pkg/limits"
	"spendwatch-hq/saturn/pkg/notify"
	"spendwatch-hq/saturn/pkg/periods"
	"spendwatch-hq/saturn/pkg/state"
	"spendwatch-hq/saturn/pkg/telemetry/metrics"
)

// Config configures the engine.
type Config struct {
	// Location is the reference timezone for period boundaries.
	// Default: UTC.
	Location *time.Location

	// MilestoneIncrement is the cumulative spend step between milestone
	// alerts in USD. Default: alerting.DefaultMilestoneIncrement.
	MilestoneIncrement float64

	// MaxSaveRetries bounds how often a pass restarts after losing a state
	// version race. Default: 3.
	MaxSaveRetries int
}

// Result is the outcome of one evaluation pass.
type Result struct {
	// Spend and Keys hold, per period kind, the recomputed spend and the
	// period key it belongs to.
	Spend map[periods.Kind]float64
	Keys  map[periods.Kind]string

	// PerModelDaily is today's spend broken down by model.
	PerModelDaily map[string]float64

	// CumulativeTotal is the all-time spend.
	CumulativeTotal float64

	// Limits is the limit config the pass evaluated against.
	Limits limits.Config

	// ThresholdAlerts and MilestoneAlerts are the alerts this pass emitted.
	ThresholdAlerts []alerting.ThresholdAlert
	MilestoneAlerts []alerting.MilestoneAlert
}

// Engine runs evaluation passes and applies limit responses.
type Engine struct {
	states     state.Store
	aggregator *aggregate.Aggregator
	monitor    *alerting.ThresholdMonitor
	milestones *alerting.MilestoneTracker
	handler    *limits.Handler
	notifier   notify.Notifier
	metrics    *metrics.Metrics
	logger     *slog.Logger
	loc        *time.Location
	maxRetries int
}

// New creates an engine. A nil notifier falls back to log-only delivery; a
// nil metrics instance disables instrumentation.
func New(cfg Config, states state.Store, aggregator *aggregate.Aggregator, notifier notify.Notifier, m *metrics.Metrics) *Engine {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxSaveRetries <= 0 {
		cfg.MaxSaveRetries = 3
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier()
	}

	return &Engine{
		states:     states,
		aggregator: aggregator,
		monitor:    alerting.NewThresholdMonitor(),
		milestones: alerting.NewMilestoneTracker(cfg.MilestoneIncrement),
		handler:    limits.NewHandler(limits.DefaultConfig()),
		notifier:   notifier,
		metrics:    m,
		logger:     slog.Default().With("component", "engine"),
		loc:        cfg.Location,
		maxRetries: cfg.MaxSaveRetries,
	}
}

// Evaluate runs one evaluation pass at the given instant.
//
// State is committed before notifications go out; a persistence failure
// aborts the pass with no alerts emitted. Version conflicts retry from a
// fresh load up to the configured bound.
func (e *Engine) Evaluate(ctx context.Context, now time.Time) (*Result, error) {
	start := time.Now()

	var conflict *state.ConflictError
	for attempt := 0; ; attempt++ {
		result, err := e.evaluateOnce(ctx, now)
		if err == nil {
			e.recordEvaluation("ok", start)
			e.publish(result)
			e.deliver(ctx, result)
			return result, nil
		}

		if errors.As(err, &conflict) && attempt < e.maxRetries {
			e.logger.Debug("State version conflict, retrying evaluation",
				"attempt", attempt+1, "found_version", conflict.Found)
			continue
		}

		if errors.As(err, &conflict) {
			e.recordEvaluation("conflict", start)
		} else {
			e.recordEvaluation("error", start)
		}
		return nil, err
	}
}

// evaluateOnce performs a single load-evaluate-save cycle.
func (e *Engine) evaluateOnce(ctx context.Context, now time.Time) (*Result, error) {
	snap, err := e.states.Load(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Spend:  make(map[periods.Kind]float64, len(periods.Kinds)),
		Keys:   make(map[periods.Kind]string, len(periods.Kinds)),
		Limits: snap.Limits,
	}

	changed := false
	for _, kind := range periods.Kinds {
		agg, err := e.aggregator.At(ctx, kind, now)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate %s spend: %w", kind, err)
		}

		result.Spend[kind] = agg.TotalCost
		result.Keys[kind] = agg.Key
		if kind == periods.Daily {
			result.PerModelDaily = agg.PerModelCost
		}

		prev := snap.Record(kind)
		rec, alert := e.monitor.Evaluate(kind, agg.Key, agg.TotalCost, snap.Limits, prev)
		if rec != prev {
			snap.SetRecord(kind, rec)
			changed = true
		}
		if alert != nil {
			result.ThresholdAlerts = append(result.ThresholdAlerts, *alert)
		}
	}

	total, err := e.aggregator.CumulativeTotal(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute cumulative spend: %w", err)
	}
	result.CumulativeTotal = total

	milestoneAlerts, last := e.milestones.Evaluate(total, snap.LastMilestone)
	if last != snap.LastMilestone {
		snap.LastMilestone = last
		changed = true
	}
	result.MilestoneAlerts = milestoneAlerts

	if changed {
		if err := e.states.Save(ctx, snap); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// deliver sends the pass's alerts. Failures are logged and counted, never
// returned: the state is already committed.
func (e *Engine) deliver(ctx context.Context, result *Result) {
	for _, alert := range result.ThresholdAlerts {
		e.logger.Info("Threshold alert",
			"period", alert.Kind,
			"level", alert.Level,
			"spend", alert.Spend,
			"limit", alert.Limit,
		)
		if e.metrics != nil {
			e.metrics.RecordAlert("threshold", string(alert.Level))
		}
		e.send(ctx, ThresholdMessage(alert))
	}

	for _, alert := range result.MilestoneAlerts {
		e.logger.Info("Milestone alert", "milestone", alert.Milestone, "total", alert.Total)
		if e.metrics != nil {
			e.metrics.RecordAlert("milestone", "info")
		}
		e.send(ctx, MilestoneMessage(alert))
	}
}

func (e *Engine) send(ctx context.Context, msg notify.Message) {
	if err := e.notifier.Send(ctx, msg); err != nil {
		e.logger.Warn("Notification delivery failed", "title", msg.Title, "error", err)
		if e.metrics != nil {
			var notifErr *notify.NotificationError
			sender := "unknown"
			if errors.As(err, &notifErr) {
				sender = notifErr.Sender
			}
			e.metrics.RecordNotifyFailure(sender)
		}
	}
}

// publish mirrors the pass outcome into the metrics gauges.
func (e *Engine) publish(result *Result) {
	if e.metrics == nil {
		return
	}
	for _, kind := range periods.Kinds {
		e.metrics.SetSpend(string(kind), result.Spend[kind], result.Limits.LimitFor(kind))
	}
	e.metrics.SetCumulativeSpend(result.CumulativeTotal)
	for model, cost := range result.PerModelDaily {
		e.metrics.SetModelCost(model, cost)
	}
}

// ApplyResponse parses a user's reply to a critical alert and commits the
// rewritten limit config. It returns the config now in effect.
func (e *Engine) ApplyResponse(ctx context.Context, text string) (limits.Config, error) {
	var conflict *state.ConflictError
	for attempt := 0; ; attempt++ {
		snap, err := e.states.Load(ctx)
		if err != nil {
			return limits.Config{}, err
		}

		updated, resp, err := e.handler.HandleText(snap.Limits, text)
		if err != nil {
			return snap.Limits, err
		}

		snap.Limits = updated
		if err := e.states.Save(ctx, snap); err != nil {
			if errors.As(err, &conflict) && attempt < e.maxRetries {
				continue
			}
			return limits.Config{}, err
		}

		e.logger.Info("Limit config updated",
			"response", string(resp.Kind),
			"daily_limit", updated.DailyLimit,
			"weekly_limit", updated.WeeklyLimit,
			"monthly_limit", updated.MonthlyLimit,
			"critical_alerts_enabled", updated.CriticalAlertsEnabled,
		)
		return updated, nil
	}
}

func (e *Engine) recordEvaluation(outcome string, start time.Time) {
	if e.metrics != nil {
		e.metrics.RecordEvaluation(outcome, time.Since(start))
	}
}
