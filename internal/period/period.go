// Package period resolves the week or month a periodic habit is counted in.
package period

import (
	"time"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/recurrence"
	"github.com/julianstephens/habitual/internal/utils"
)

// Window is an inclusive range of calendar days. The zero Window is empty.
type Window struct {
	Start time.Time
	End   time.Time
}

// Empty reports whether the window contains no days.
func (w Window) Empty() bool {
	return w.Start.IsZero() || w.End.IsZero() || w.Start.After(w.End)
}

// Days returns the number of days in the window.
func (w Window) Days() int {
	if w.Empty() {
		return 0
	}
	return utils.DaysBetween(w.Start, w.End) + 1
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d time.Time) bool {
	if w.Empty() {
		return false
	}
	d = utils.DateOf(d)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Bounds returns the unclipped period containing ref: the ISO week for
// WEEKLY_X_TIMES and the calendar month for MONTHLY_X_TIMES.
func Bounds(freq models.FrequencyType, ref time.Time) Window {
	switch freq {
	case models.FrequencyWeeklyXTimes:
		start := utils.WeekStart(ref)
		return Window{Start: start, End: utils.AddDays(start, 6)}
	case models.FrequencyMonthlyXTimes:
		first, last := utils.MonthBounds(ref)
		return Window{Start: first, End: last}
	default:
		return Window{}
	}
}

// Resolve returns the period containing ref clipped to the rule's active
// window. The result is empty for day-of-week rules, when ref itself is
// outside the active window, or when clipping leaves no days.
func Resolve(rule *recurrence.Rule, ref time.Time) Window {
	if !rule.Periodic() || !rule.IsActive(ref) {
		return Window{}
	}
	w := Bounds(rule.Frequency(), ref)
	start, end, ok := rule.ClipToWindow(w.Start, w.End)
	if !ok {
		return Window{}
	}
	return Window{Start: start, End: end}
}
