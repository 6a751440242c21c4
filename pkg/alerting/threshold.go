package alerting

import (
	"spendwatch-hq/saturn/pkg/limits"
	"spendwatch-hq/saturn/pkg/periods"
)

// ThresholdAlert describes a limit threshold that was newly reached.
type ThresholdAlert struct {
	Kind      periods.Kind
	PeriodKey string
	Level     Level

	// Spend and Limit are the USD values that triggered the alert.
	Spend    float64
	Limit    float64
	Fraction float64
}

// SentRecord is the per-period-kind memory of what was already alerted.
// The zero value means nothing has been sent yet.
type SentRecord struct {
	PeriodKey string `json:"period_key"`
	LevelSent Level  `json:"level_sent"`
}

// ThresholdMonitor evaluates spend against the configured limit fractions.
// It is stateless; callers supply the previously persisted SentRecord and
// store the returned one.
type ThresholdMonitor struct{}

// NewThresholdMonitor creates a threshold monitor.
func NewThresholdMonitor() *ThresholdMonitor {
	return &ThresholdMonitor{}
}

// Evaluate compares spend for one period against its limit and returns the
// updated SentRecord plus the alert to send, if any.
//
// A stale record (different period key) counts as nothing sent: a new day,
// week or month starts clean. The reachable level is capped at warning while
// critical alerts are disabled, but a critical level already recorded for
// the period is kept so re-enabling does not replay it. At most one alert is
// returned per call, at the highest level newly reached.
func (m *ThresholdMonitor) Evaluate(kind periods.Kind, periodKey string, spend float64, cfg limits.Config, prev SentRecord) (SentRecord, *ThresholdAlert) {
	sent := LevelNone
	if prev.PeriodKey == periodKey {
		sent = prev.LevelSent
	}

	reached := reachedLevel(spend, cfg.LimitFor(kind), cfg)
	if !cfg.CriticalAlertsEnabled && reached == LevelCritical {
		reached = LevelWarning
	}

	record := SentRecord{PeriodKey: periodKey, LevelSent: sent}
	if !reached.Exceeds(sent) {
		return record, nil
	}

	record.LevelSent = reached
	limit := cfg.LimitFor(kind)
	return record, &ThresholdAlert{
		Kind:      kind,
		PeriodKey: periodKey,
		Level:     reached,
		Spend:     spend,
		Limit:     limit,
		Fraction:  spend / limit,
	}
}

// reachedLevel maps a spend/limit pair to the threshold level it sits at.
// Non-positive limits disable thresholds for the period.
func reachedLevel(spend, limit float64, cfg limits.Config) Level {
	if limit <= 0 {
		return LevelNone
	}
	fraction := spend / limit
	switch {
	case fraction >= cfg.CriticalFraction:
		return LevelCritical
	case fraction >= cfg.WarningFraction:
		return LevelWarning
	}
	return LevelNone
}
