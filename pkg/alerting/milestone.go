package alerting

import "math"

// DefaultMilestoneIncrement is the cumulative spend step between milestone
// alerts, in USD.
const DefaultMilestoneIncrement = 5.00

// MilestoneAlert announces that cumulative all-time spend crossed a
// milestone value.
type MilestoneAlert struct {
	// Milestone is the dollar value that was crossed (a multiple of the
	// tracker's increment).
	Milestone float64

	// Total is the cumulative spend at evaluation time.
	Total float64
}

// MilestoneTracker fires one alert per crossed spend increment.
// Like ThresholdMonitor it is stateless; the last announced milestone is
// persisted by the caller.
type MilestoneTracker struct {
	increment float64
}

// NewMilestoneTracker creates a tracker. Non-positive increments fall back
// to the default.
func NewMilestoneTracker(increment float64) *MilestoneTracker {
	if increment <= 0 {
		increment = DefaultMilestoneIncrement
	}
	return &MilestoneTracker{increment: increment}
}

// Evaluate returns the alerts for every milestone crossed since
// lastMilestone, plus the new last milestone value. The returned value never
// moves backward, so a pruned ledger cannot replay old milestones.
func (t *MilestoneTracker) Evaluate(total, lastMilestone float64) ([]MilestoneAlert, float64) {
	crossed := math.Floor(total/t.increment) * t.increment
	if crossed <= lastMilestone {
		return nil, lastMilestone
	}

	// Align to increment multiples in case a hand-edited state file holds
	// an off-grid value.
	base := math.Floor(lastMilestone/t.increment) * t.increment

	var alerts []MilestoneAlert
	for m := base + t.increment; m <= crossed+1e-9; m += t.increment {
		alerts = append(alerts, MilestoneAlert{Milestone: m, Total: total})
	}
	return alerts, crossed
}
