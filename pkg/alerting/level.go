package alerting

// Level is an alert severity level.
type Level string

const (
	// LevelNone means no threshold has been reached.
	LevelNone Level = "none"

	// LevelWarning means spend reached the warning fraction of the limit.
	LevelWarning Level = "warning"

	// LevelCritical means spend reached the critical fraction of the limit.
	LevelCritical Level = "critical"
)

// Severity returns the level's rank for ordering comparisons.
// Unknown levels rank as none.
func (l Level) Severity() int {
	switch l {
	case LevelWarning:
		return 1
	case LevelCritical:
		return 2
	}
	return 0
}

// Exceeds reports whether l is strictly more severe than other.
func (l Level) Exceeds(other Level) bool {
	return l.Severity() > other.Severity()
}
