package tracker

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/events"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/recurrence"
	"github.com/julianstephens/habitual/internal/utils"
)

// MarkCompleted records the habit as done on date. The day must have arrived,
// the habit must be scheduled on it, and a photo is only accepted when the
// habit allows one.
func (t *Tracker) MarkCompleted(ctx context.Context, habitID string, date time.Time, photoURL *string) (models.CompletionReport, error) {
	habit, err := t.store.GetHabit(ctx, habitID)
	if err != nil {
		return models.CompletionReport{}, err
	}

	day := utils.DateOf(date)
	if day.After(t.Today()) {
		return models.CompletionReport{}, apperrors.ErrFutureDate
	}
	rule, err := recurrence.NewRule(habit)
	if err != nil {
		return models.CompletionReport{}, err
	}
	if !rule.IsScheduled(day) {
		return models.CompletionReport{}, apperrors.ErrNotScheduled
	}
	if photoURL != nil && strings.TrimSpace(*photoURL) != "" && !habit.IsPhotoAllowed {
		return models.CompletionReport{}, apperrors.ErrPhotoNotAllowed
	}

	now := t.now()
	report, err := t.ledger.RecordCompletion(ctx, habit.ID, day, now, photoURL)
	if err != nil {
		return models.CompletionReport{}, err
	}
	t.invalidate(ctx, habit.ID)
	logger.Debug("Completion recorded", "habit", habit.ID, "date", utils.FormatDate(day))
	t.publish(ctx, events.ForCompletion(events.CompletionRecorded, habit, day, now))
	return report, nil
}

func (t *Tracker) Unmark(ctx context.Context, habitID string, date time.Time) error {
	habit, err := t.store.GetHabit(ctx, habitID)
	if err != nil {
		return err
	}
	day := utils.DateOf(date)
	if err := t.ledger.RemoveCompletion(ctx, habit.ID, day); err != nil {
		return err
	}
	t.invalidate(ctx, habit.ID)
	logger.Debug("Completion removed", "habit", habit.ID, "date", utils.FormatDate(day))
	t.publish(ctx, events.ForCompletion(events.CompletionRemoved, habit, day, t.now()))
	return nil
}

// SetPhoto attaches a photo to an existing report without touching its
// completion status.
func (t *Tracker) SetPhoto(ctx context.Context, habitID string, date time.Time, url string) error {
	habit, err := t.store.GetHabit(ctx, habitID)
	if err != nil {
		return err
	}
	if !habit.IsPhotoAllowed {
		return apperrors.ErrPhotoNotAllowed
	}
	if strings.TrimSpace(url) == "" {
		return apperrors.InvalidInput("photo_url", "is required")
	}
	return t.ledger.SetPhoto(ctx, habit.ID, date, url)
}

func (t *Tracker) ClearPhoto(ctx context.Context, habitID string, date time.Time) error {
	habit, err := t.store.GetHabit(ctx, habitID)
	if err != nil {
		return err
	}
	return t.ledger.ClearPhoto(ctx, habit.ID, date)
}

func (t *Tracker) ReportAtDay(ctx context.Context, habitID string, date time.Time) (models.ReportAtDay, error) {
	habit, err := t.store.GetHabit(ctx, habitID)
	if err != nil {
		return models.ReportAtDay{}, err
	}
	return t.ledger.ReportAtDay(ctx, habit.ID, date)
}

// History lists the habit's reports between from and to inclusive.
func (t *Tracker) History(ctx context.Context, habitID string, from, to time.Time) ([]models.CompletionReport, error) {
	habit, err := t.store.GetHabit(ctx, habitID)
	if err != nil {
		return nil, err
	}
	return t.ledger.CompletionsInRange(ctx, habit.ID, from, to)
}
