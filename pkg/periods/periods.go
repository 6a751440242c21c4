package periods

import (
	"fmt"
	"time"
)

// Kind identifies a limit comparison window.
type Kind string

const (
	// Daily is a calendar-day window in the reference timezone.
	Daily Kind = "daily"

	// Weekly is an ISO week window, Monday through Sunday.
	Weekly Kind = "weekly"

	// Monthly is a calendar-month window.
	Monthly Kind = "monthly"
)

// Kinds lists all period kinds in ascending window size.
// Evaluation passes iterate this slice so alert ordering is deterministic.
var Kinds = []Kind{Daily, Weekly, Monthly}

// Valid reports whether k is a known period kind.
func (k Kind) Valid() bool {
	switch k {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// KeyAt returns the period key for the instant t under kind k, derived in
// the reference location loc.
func KeyAt(k Kind, t time.Time, loc *time.Location) string {
	t = t.In(loc)
	switch k {
	case Daily:
		return t.Format("2006-01-02")
	case Weekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case Monthly:
		return t.Format("2006-01")
	}
	return ""
}

// WindowAt returns the [Start, End) window containing the instant t under
// kind k, derived in the reference location loc.
func WindowAt(k Kind, t time.Time, loc *time.Location) Window {
	t = t.In(loc)
	switch k {
	case Daily:
		start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		return Window{Start: start, End: start.AddDate(0, 0, 1)}
	case Weekly:
		// Monday is day 1; Sunday wraps to 7.
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc).
			AddDate(0, 0, -(weekday - 1))
		return Window{Start: start, End: start.AddDate(0, 0, 7)}
	case Monthly:
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
		return Window{Start: start, End: start.AddDate(0, 1, 0)}
	}
	return Window{}
}
