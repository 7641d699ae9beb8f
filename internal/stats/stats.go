// Package stats derives completion statistics from a habit's recurrence rule
// and its ledger. Nothing here is stored; every figure is recomputed from the
// reports committed at call time.
package stats

import (
	"context"
	"math"
	"time"

	"github.com/julianstephens/habitual/internal/ledger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/period"
	"github.com/julianstephens/habitual/internal/recurrence"
	"github.com/julianstephens/habitual/internal/utils"
)

var (
	firstDay = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	lastDay  = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
)

type Engine struct {
	ledger *ledger.Ledger
	loc    *time.Location
	now    func() time.Time
}

// New builds an engine whose "today" is the calendar day of now() in loc.
// A nil now uses time.Now.
func New(l *ledger.Ledger, loc *time.Location, now func() time.Time) *Engine {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{ledger: l, loc: loc, now: now}
}

func (e *Engine) Today() time.Time {
	return utils.DateOf(e.now().In(e.loc))
}

func (e *Engine) CompletionsInTotal(ctx context.Context, habitID string) (int, error) {
	return e.ledger.CountCompletions(ctx, habitID)
}

// history returns the scheduled days from the habit's start through today
// (clipped to its end) along with the completed ones.
func (e *Engine) history(ctx context.Context, rule *recurrence.Rule, today time.Time) ([]time.Time, map[string]bool, error) {
	scheduled := rule.ScheduledDays(rule.Start(), today)
	if len(scheduled) == 0 {
		return nil, nil, nil
	}
	done, err := e.ledger.CompletedSet(ctx, rule.HabitID(), scheduled[0], scheduled[len(scheduled)-1])
	if err != nil {
		return nil, nil, err
	}
	return scheduled, done, nil
}

func dayRule(habit models.Habit) (*recurrence.Rule, error) {
	if habit.FrequencyType != models.FrequencyWeeklyOnDays {
		return nil, nil
	}
	return recurrence.NewRule(habit)
}

// CompletionsPercent is the share of scheduled days completed, for
// WEEKLY_ON_DAYS habits only. Past scheduled days always count; today counts
// only once completed. nil when there is nothing to divide by.
func (e *Engine) CompletionsPercent(ctx context.Context, habit models.Habit) (*int, error) {
	rule, err := dayRule(habit)
	if rule == nil || err != nil {
		return nil, err
	}

	today := e.Today()
	scheduled, done, err := e.history(ctx, rule, today)
	if err != nil {
		return nil, err
	}

	denominator, completed := 0, 0
	for _, d := range scheduled {
		isDone := done[utils.FormatDate(d)]
		if d.Equal(today) && !isDone {
			continue
		}
		denominator++
		if isDone {
			completed++
		}
	}
	if denominator == 0 {
		return nil, nil
	}
	pct := int(math.Round(100 * float64(completed) / float64(denominator)))
	return &pct, nil
}

// CurrentStreak counts consecutive completed scheduled days ending at the
// anchor: today when it is scheduled and already done, otherwise the last
// scheduled day before today. nil when no anchor exists, 0 when the anchor
// was missed.
func (e *Engine) CurrentStreak(ctx context.Context, habit models.Habit) (*int, error) {
	rule, err := dayRule(habit)
	if rule == nil || err != nil {
		return nil, err
	}

	today := e.Today()
	scheduled, done, err := e.history(ctx, rule, today)
	if err != nil {
		return nil, err
	}

	anchor := len(scheduled) - 1
	if anchor >= 0 && scheduled[anchor].Equal(today) && !done[utils.FormatDate(today)] {
		anchor--
	}
	if anchor < 0 {
		return nil, nil
	}

	streak := 0
	for i := anchor; i >= 0 && done[utils.FormatDate(scheduled[i])]; i-- {
		streak++
	}
	return &streak, nil
}

// PeriodProgress counts completions in the week or month containing ref.
// nil for WEEKLY_ON_DAYS habits and when ref is outside the active window.
func (e *Engine) PeriodProgress(ctx context.Context, habit models.Habit, ref time.Time) (*models.PeriodProgress, error) {
	if habit.FrequencyType == models.FrequencyWeeklyOnDays {
		return nil, nil
	}
	rule, err := recurrence.NewRule(habit)
	if err != nil {
		return nil, err
	}

	w := period.Resolve(rule, ref)
	if w.Empty() {
		return nil, nil
	}
	reports, err := e.ledger.CompletionsInRange(ctx, habit.ID, w.Start, w.End)
	if err != nil {
		return nil, err
	}
	return &models.PeriodProgress{Completed: len(reports), Planned: rule.Target()}, nil
}

// Summary gathers every statistic for the habit as of today.
func (e *Engine) Summary(ctx context.Context, habit models.Habit) (models.HabitStats, error) {
	rule, err := recurrence.NewRule(habit)
	if err != nil {
		return models.HabitStats{}, err
	}
	today := e.Today()
	st := models.HabitStats{HabitID: habit.ID, AsOf: today, CompletedDays: []time.Time{}}

	reports, err := e.ledger.CompletionsInRange(ctx, habit.ID, firstDay, lastDay)
	if err != nil {
		return models.HabitStats{}, err
	}
	st.CompletionsInTotal = len(reports)
	for _, r := range reports {
		st.CompletedDays = append(st.CompletedDays, r.Date)
	}

	if rule.Periodic() {
		if st.Progress, err = e.PeriodProgress(ctx, habit, today); err != nil {
			return models.HabitStats{}, err
		}
		return st, nil
	}

	if st.CompletionsPercent, err = e.CompletionsPercent(ctx, habit); err != nil {
		return models.HabitStats{}, err
	}
	if st.CurrentStreak, err = e.CurrentStreak(ctx, habit); err != nil {
		return models.HabitStats{}, err
	}

	scheduled, done, err := e.history(ctx, rule, today)
	if err != nil {
		return models.HabitStats{}, err
	}
	st.UncompletedDays = []time.Time{}
	for _, d := range scheduled {
		if d.Before(today) && !done[utils.FormatDate(d)] {
			st.UncompletedDays = append(st.UncompletedDays, d)
		}
	}
	return st, nil
}
