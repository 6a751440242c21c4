package engine

import (
	"fmt"
	"strings"

	"spendwatch-hq/saturn/pkg/alerting"
	"spendwatch-hq/saturn/pkg/notify"
)

// ThresholdMessage renders a threshold alert for delivery. Critical alerts
// include the reply instructions for raising or keeping the limit.
func ThresholdMessage(alert alerting.ThresholdAlert) notify.Message {
	percentage := alert.Fraction * 100

	if alert.Level == alerting.LevelCritical {
		var b strings.Builder
		fmt.Fprintf(&b, "Current spending: $%.2f / $%.2f (%.1f%% of the %s limit)\n\n",
			alert.Spend, alert.Limit, percentage, alert.Kind)
		b.WriteString("Would you like to raise the limit?\n\n")
		b.WriteString("Reply with:\n")
		fmt.Fprintf(&b, "- a number (e.g. 15 for $15/%s)\n", periodUnit(alert))
		b.WriteString("- an increase (e.g. +5 to add $5)\n")
		b.WriteString("- keep to maintain the current limit\n")
		b.WriteString("- disable to turn off critical alerts\n")

		return notify.Message{
			Title: fmt.Sprintf("CRITICAL: %s spend limit almost reached", alert.Kind),
			Body:  b.String(),
			Level: alert.Level,
		}
	}

	return notify.Message{
		Title: fmt.Sprintf("WARNING: %s spend at %.1f%% of limit", alert.Kind, percentage),
		Body: fmt.Sprintf("Current spending: $%.2f / $%.2f (%.1f%% of the %s limit)",
			alert.Spend, alert.Limit, percentage, alert.Kind),
		Level: alert.Level,
	}
}

// MilestoneMessage renders a cumulative spend milestone alert.
func MilestoneMessage(alert alerting.MilestoneAlert) notify.Message {
	return notify.Message{
		Title: fmt.Sprintf("Milestone: $%.2f spent", alert.Milestone),
		Body:  fmt.Sprintf("Cumulative spend crossed $%.2f (total: $%.2f)", alert.Milestone, alert.Total),
		Level: alerting.LevelNone,
	}
}

func periodUnit(alert alerting.ThresholdAlert) string {
	switch alert.Kind {
	case "daily":
		return "day"
	case "weekly":
		return "week"
	case "monthly":
		return "month"
	}
	return string(alert.Kind)
}
