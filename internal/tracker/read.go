package tracker

import (
	"context"
	"time"

	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/recurrence"
	"github.com/julianstephens/habitual/internal/utils"
)

// Stats returns the habit's statistics as of today, served from the cache
// while no ledger write has happened since they were computed.
func (t *Tracker) Stats(ctx context.Context, habitID string) (models.HabitStats, error) {
	habit, err := t.store.GetHabit(ctx, habitID)
	if err != nil {
		return models.HabitStats{}, err
	}

	today := t.Today()
	st, ok, err := t.cache.Get(ctx, habit.ID, today)
	if err != nil {
		logger.Warn("Stats cache read failed", "habit", habit.ID, "error", err)
	}
	if ok {
		return st, nil
	}

	st, err = t.stats.Summary(ctx, habit)
	if err != nil {
		return models.HabitStats{}, err
	}
	if err := t.cache.Set(ctx, st); err != nil {
		logger.Warn("Stats cache write failed", "habit", habit.ID, "error", err)
	}
	return st, nil
}

// Progress is the period progress of an X-times habit for the period
// containing ref; nil when it does not apply.
func (t *Tracker) Progress(ctx context.Context, habitID string, ref time.Time) (*models.PeriodProgress, error) {
	habit, err := t.store.GetHabit(ctx, habitID)
	if err != nil {
		return nil, err
	}
	return t.stats.PeriodProgress(ctx, habit, ref)
}

// HabitsAtDay lists the habits scheduled on date with their status that day.
func (t *Tracker) HabitsAtDay(ctx context.Context, date time.Time) ([]models.HabitAtDay, error) {
	habits, err := t.store.GetAllHabits(ctx, false)
	if err != nil {
		return nil, err
	}

	day := utils.DateOf(date)
	out := []models.HabitAtDay{}
	for _, h := range habits {
		rule, err := recurrence.NewRule(h)
		if err != nil {
			logger.Warn("Skipping habit with invalid rule", "habit", h.ID, "error", err)
			continue
		}
		if !rule.IsScheduled(day) {
			continue
		}

		report, err := t.ledger.ReportAtDay(ctx, h.ID, day)
		if err != nil {
			return nil, err
		}
		progress, err := t.stats.PeriodProgress(ctx, h, day)
		if err != nil {
			return nil, err
		}
		out = append(out, models.HabitAtDay{
			Habit:           h,
			IsCompleted:     report.IsCompleted,
			IsPhotoUploaded: report.PhotoURL != nil,
			Progress:        progress,
		})
	}
	return out, nil
}
