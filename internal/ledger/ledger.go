// Package ledger records which calendar days a habit was completed on.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/utils"
)

type Ledger struct {
	store storage.CompletionStore
}

func New(store storage.CompletionStore) *Ledger {
	return &Ledger{store: store}
}

func photoOrNil(url *string) *string {
	if url == nil || strings.TrimSpace(*url) == "" {
		return nil
	}
	u := strings.TrimSpace(*url)
	return &u
}

// RecordCompletion stores a report for (habitID, date). A second report for
// the same day fails with ErrDuplicateCompletion and leaves the first intact.
func (l *Ledger) RecordCompletion(ctx context.Context, habitID string, date, completionTime time.Time, photoURL *string) (models.CompletionReport, error) {
	report := models.CompletionReport{
		ID:             uuid.NewString(),
		HabitID:        habitID,
		Date:           utils.DateOf(date),
		CompletionTime: completionTime,
		PhotoURL:       photoOrNil(photoURL),
	}
	if err := l.store.InsertCompletion(ctx, report); err != nil {
		return models.CompletionReport{}, err
	}
	return report, nil
}

// RemoveCompletion fails with ErrNotFound when the day has no report.
func (l *Ledger) RemoveCompletion(ctx context.Context, habitID string, date time.Time) error {
	return l.store.DeleteCompletion(ctx, habitID, utils.DateOf(date))
}

func (l *Ledger) IsCompleted(ctx context.Context, habitID string, date time.Time) (bool, error) {
	_, err := l.store.GetCompletion(ctx, habitID, utils.DateOf(date))
	if errors.Is(err, apperrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CompletionsInRange returns reports with start <= date <= end in ascending
// date order. An inverted range is empty.
func (l *Ledger) CompletionsInRange(ctx context.Context, habitID string, start, end time.Time) ([]models.CompletionReport, error) {
	start, end = utils.DateOf(start), utils.DateOf(end)
	if end.Before(start) {
		return nil, nil
	}
	return l.store.GetCompletionsInRange(ctx, habitID, start, end)
}

// CompletedSet returns the completed days in [start, end] keyed by YYYY-MM-DD.
func (l *Ledger) CompletedSet(ctx context.Context, habitID string, start, end time.Time) (map[string]bool, error) {
	reports, err := l.CompletionsInRange(ctx, habitID, start, end)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(reports))
	for _, r := range reports {
		set[utils.FormatDate(r.Date)] = true
	}
	return set, nil
}

func (l *Ledger) CountCompletions(ctx context.Context, habitID string) (int, error) {
	return l.store.CountCompletions(ctx, habitID)
}

// ReportAtDay describes the day whether or not a report exists.
func (l *Ledger) ReportAtDay(ctx context.Context, habitID string, date time.Time) (models.ReportAtDay, error) {
	r, err := l.store.GetCompletion(ctx, habitID, utils.DateOf(date))
	if errors.Is(err, apperrors.ErrNotFound) {
		return models.ReportAtDay{}, nil
	}
	if err != nil {
		return models.ReportAtDay{}, err
	}
	completedAt := r.CompletionTime
	return models.ReportAtDay{IsCompleted: true, CompletionTime: &completedAt, PhotoURL: r.PhotoURL}, nil
}

// SetPhoto attaches a photo URL to an existing report.
func (l *Ledger) SetPhoto(ctx context.Context, habitID string, date time.Time, url string) error {
	photo := photoOrNil(&url)
	if photo == nil {
		return fmt.Errorf("photo url cannot be empty")
	}
	return l.store.UpdateCompletionPhoto(ctx, habitID, utils.DateOf(date), photo)
}

func (l *Ledger) ClearPhoto(ctx context.Context, habitID string, date time.Time) error {
	return l.store.UpdateCompletionPhoto(ctx, habitID, utils.DateOf(date), nil)
}
