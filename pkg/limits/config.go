package limits

import (
	"spendwatch-hq/saturn/pkg/periods"
)

// Default limit values. The weekly/daily and monthly/daily ratios derived
// from these defaults govern proportional rescaling on limit updates.
const (
	DefaultDailyLimit       = 5.00
	DefaultWeeklyLimit      = 30.00
	DefaultMonthlyLimit     = 100.00
	DefaultWarningFraction  = 0.75
	DefaultCriticalFraction = 0.95
)

// Config contains the spend limits and alert fractions.
// It is long-lived process-wide state, persisted across restarts and
// mutated only by the update Handler.
type Config struct {
	// DailyLimit, WeeklyLimit and MonthlyLimit are USD spend ceilings per
	// period kind.
	DailyLimit   float64 `json:"daily_limit" yaml:"daily_limit"`
	WeeklyLimit  float64 `json:"weekly_limit" yaml:"weekly_limit"`
	MonthlyLimit float64 `json:"monthly_limit" yaml:"monthly_limit"`

	// WarningFraction and CriticalFraction are thresholds in (0,1] of the
	// period limit at which the corresponding alert level is reached.
	WarningFraction  float64 `json:"warning_fraction" yaml:"warning_fraction"`
	CriticalFraction float64 `json:"critical_fraction" yaml:"critical_fraction"`

	// CriticalAlertsEnabled gates critical alerts. Disabling it never
	// suppresses warnings.
	CriticalAlertsEnabled bool `json:"critical_alerts_enabled" yaml:"critical_alerts_enabled"`
}

// DefaultConfig returns the default limit configuration.
func DefaultConfig() Config {
	return Config{
		DailyLimit:            DefaultDailyLimit,
		WeeklyLimit:           DefaultWeeklyLimit,
		MonthlyLimit:          DefaultMonthlyLimit,
		WarningFraction:       DefaultWarningFraction,
		CriticalFraction:      DefaultCriticalFraction,
		CriticalAlertsEnabled: true,
	}
}

// LimitFor returns the USD limit for a period kind. Unknown kinds return 0.
func (c Config) LimitFor(kind periods.Kind) float64 {
	switch kind {
	case periods.Daily:
		return c.DailyLimit
	case periods.Weekly:
		return c.WeeklyLimit
	case periods.Monthly:
		return c.MonthlyLimit
	}
	return 0
}
