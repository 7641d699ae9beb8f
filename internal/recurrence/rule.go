// Package recurrence decides on which calendar days a habit is expected to be done.
package recurrence

import (
	"time"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

// MaxDurationDays caps a bounded habit at two years.
const MaxDurationDays = 730

// Rule is a validated recurrence configuration bound to a habit's active window.
type Rule struct {
	habitID   string
	frequency models.FrequencyType
	days      [7]bool
	dayCount  int
	target    int
	start     time.Time
	end       time.Time
	bounded   bool
}

// NewRule validates the habit's frequency payload and builds its rule.
// Malformed configurations fail with an *errors.InvalidRuleError.
func NewRule(habit models.Habit) (*Rule, error) {
	r := &Rule{
		habitID:   habit.ID,
		frequency: habit.FrequencyType,
		start:     utils.DateOf(habit.CreatedAt),
	}

	switch habit.FrequencyType {
	case models.FrequencyWeeklyOnDays:
		if len(habit.DaysOfWeek) == 0 {
			return nil, apperrors.InvalidRule("days_of_week", "must not be empty")
		}
		for _, wd := range habit.DaysOfWeek {
			if wd < time.Sunday || wd > time.Saturday {
				return nil, apperrors.InvalidRule("days_of_week", "contains an unknown weekday")
			}
			if !r.days[wd] {
				r.days[wd] = true
				r.dayCount++
			}
		}
	case models.FrequencyWeeklyXTimes:
		if habit.TimesPerWeek <= 0 {
			return nil, apperrors.InvalidRule("times_per_week", "must be positive")
		}
		if habit.TimesPerWeek > 7 {
			return nil, apperrors.InvalidRule("times_per_week", "must be at most 7")
		}
		r.target = habit.TimesPerWeek
	case models.FrequencyMonthlyXTimes:
		if habit.TimesPerMonth <= 0 {
			return nil, apperrors.InvalidRule("times_per_month", "must be positive")
		}
		if habit.TimesPerMonth > 31 {
			return nil, apperrors.InvalidRule("times_per_month", "must be at most 31")
		}
		r.target = habit.TimesPerMonth
	default:
		return nil, apperrors.InvalidRule("frequency_type", "is not supported: "+string(habit.FrequencyType))
	}

	if habit.DurationDays != nil {
		if *habit.DurationDays <= 0 {
			return nil, apperrors.InvalidRule("duration_days", "must be positive")
		}
		if *habit.DurationDays > MaxDurationDays {
			return nil, apperrors.InvalidRule("duration_days", "must be at most 730")
		}
		r.bounded = true
		r.end = utils.AddDays(r.start, *habit.DurationDays-1)
	}

	return r, nil
}

func (r *Rule) HabitID() string { return r.habitID }

func (r *Rule) Frequency() models.FrequencyType { return r.frequency }

// Periodic reports whether the rule counts completions per week or month
// instead of per scheduled day.
func (r *Rule) Periodic() bool {
	return r.frequency == models.FrequencyWeeklyXTimes || r.frequency == models.FrequencyMonthlyXTimes
}

// Target is the number of completions expected per period, 0 for day-of-week rules.
func (r *Rule) Target() int { return r.target }

// Start is the first active day.
func (r *Rule) Start() time.Time { return r.start }

// End returns the last active day; ok is false for unbounded habits.
func (r *Rule) End() (time.Time, bool) { return r.end, r.bounded }

// IsActive reports whether date falls inside the habit's active window.
func (r *Rule) IsActive(date time.Time) bool {
	date = utils.DateOf(date)
	if date.Before(r.start) {
		return false
	}
	if r.bounded && date.After(r.end) {
		return false
	}
	return true
}

// IsScheduled reports whether the habit is expected on date. Periodic rules
// treat every active day as eligible.
func (r *Rule) IsScheduled(date time.Time) bool {
	if !r.IsActive(date) {
		return false
	}
	if r.Periodic() {
		return true
	}
	return r.days[utils.DateOf(date).Weekday()]
}

// ClipToWindow intersects [from, to] with the active window. ok is false when
// the result is empty.
func (r *Rule) ClipToWindow(from, to time.Time) (time.Time, time.Time, bool) {
	from = utils.MaxDate(utils.DateOf(from), r.start)
	to = utils.DateOf(to)
	if r.bounded {
		to = utils.MinDate(to, r.end)
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// ScheduledDays lists the scheduled days in [from, to] in ascending order.
func (r *Rule) ScheduledDays(from, to time.Time) []time.Time {
	from, to, ok := r.ClipToWindow(from, to)
	if !ok {
		return nil
	}
	var days []time.Time
	for d := from; !d.After(to); d = utils.AddDays(d, 1) {
		if r.IsScheduled(d) {
			days = append(days, d)
		}
	}
	return days
}
