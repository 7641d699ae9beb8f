// Package tracker is the write path and read-model assembly for habits. It
// validates requests, keeps the stats cache consistent with the ledger and
// announces changes on the event bus.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitual/internal/cache"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/events"
	"github.com/julianstephens/habitual/internal/ledger"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/recurrence"
	"github.com/julianstephens/habitual/internal/stats"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/utils"
)

const (
	MaxNameLength        = 255
	MaxDescriptionLength = 1000
)

type Store interface {
	storage.HabitStore
	storage.CompletionStore
}

type Options struct {
	Cache    cache.StatsCache
	Events   events.Publisher
	Location *time.Location
	Now      func() time.Time
}

type Tracker struct {
	store  Store
	ledger *ledger.Ledger
	stats  *stats.Engine
	cache  cache.StatsCache
	events events.Publisher
	now    func() time.Time
}

func New(store Store, opts Options) *Tracker {
	if opts.Cache == nil {
		opts.Cache = cache.Noop{}
	}
	if opts.Events == nil {
		opts.Events = events.Noop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	l := ledger.New(store)
	now := opts.Now
	loc := opts.Location
	return &Tracker{
		store:  store,
		ledger: l,
		stats:  stats.New(l, loc, now),
		cache:  opts.Cache,
		events: opts.Events,
		now:    func() time.Time { return now().In(loc) },
	}
}

func (t *Tracker) Today() time.Time { return t.stats.Today() }

// HabitInput is everything needed to create a habit.
type HabitInput struct {
	Name           string
	Description    string
	FrequencyType  models.FrequencyType
	DaysOfWeek     []time.Weekday
	TimesPerWeek   int
	TimesPerMonth  int
	IsPhotoAllowed bool
	IsHarmful      bool
	DurationDays   *int
}

// HabitEdit lists the fields that may change after creation. Nil fields are
// left alone; a DurationDays of 0 makes the habit unbounded.
type HabitEdit struct {
	Description  *string
	IsHarmful    *bool
	DurationDays *int
}

func validateText(name, description string) error {
	if name == "" {
		return apperrors.InvalidInput("name", "is required")
	}
	if len([]rune(name)) > MaxNameLength {
		return apperrors.InvalidInput("name", fmt.Sprintf("must be at most %d characters", MaxNameLength))
	}
	if len([]rune(description)) > MaxDescriptionLength {
		return apperrors.InvalidInput("description", fmt.Sprintf("must be at most %d characters", MaxDescriptionLength))
	}
	return nil
}

func validateHarmful(h models.Habit) error {
	if h.IsHarmful && h.FrequencyType != models.FrequencyWeeklyOnDays {
		return apperrors.InvalidInput("is_harmful", "is only allowed for "+string(models.FrequencyWeeklyOnDays)+" habits")
	}
	return nil
}

func (t *Tracker) publish(ctx context.Context, e events.Event) {
	if err := t.events.Publish(ctx, e); err != nil {
		logger.Warn("Failed to publish event", "type", e.Type, "habit", e.HabitID, "error", err)
	}
}

func (t *Tracker) invalidate(ctx context.Context, habitID string) {
	if err := t.cache.Invalidate(ctx, habitID); err != nil {
		logger.Warn("Failed to invalidate stats cache", "habit", habitID, "error", err)
	}
}

func (t *Tracker) CreateHabit(ctx context.Context, in HabitInput) (models.Habit, error) {
	habit := models.Habit{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(in.Name),
		Description:    strings.TrimSpace(in.Description),
		FrequencyType:  in.FrequencyType,
		DaysOfWeek:     utils.NormalizeWeekdays(in.DaysOfWeek),
		TimesPerWeek:   in.TimesPerWeek,
		TimesPerMonth:  in.TimesPerMonth,
		IsPhotoAllowed: in.IsPhotoAllowed,
		IsHarmful:      in.IsHarmful,
		DurationDays:   in.DurationDays,
		CreatedAt:      t.now(),
	}
	switch habit.FrequencyType {
	case models.FrequencyWeeklyOnDays:
		habit.TimesPerWeek, habit.TimesPerMonth = 0, 0
	case models.FrequencyWeeklyXTimes:
		habit.DaysOfWeek, habit.TimesPerMonth = nil, 0
	case models.FrequencyMonthlyXTimes:
		habit.DaysOfWeek, habit.TimesPerWeek = nil, 0
	}

	if err := validateText(habit.Name, habit.Description); err != nil {
		return models.Habit{}, err
	}
	if _, err := recurrence.NewRule(habit); err != nil {
		return models.Habit{}, err
	}
	if err := validateHarmful(habit); err != nil {
		return models.Habit{}, err
	}

	_, err := t.store.GetHabitByName(ctx, habit.Name)
	if err == nil {
		return models.Habit{}, fmt.Errorf("habit %q: %w", habit.Name, apperrors.ErrAlreadyExists)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return models.Habit{}, err
	}

	if err := t.store.AddHabit(ctx, habit); err != nil {
		return models.Habit{}, err
	}
	logger.Info("Habit created", "id", habit.ID, "name", habit.Name, "frequency", habit.FrequencyType)
	t.publish(ctx, events.ForHabit(events.HabitCreated, habit, habit.CreatedAt))
	return habit, nil
}

func (t *Tracker) GetHabit(ctx context.Context, id string) (models.Habit, error) {
	return t.store.GetHabit(ctx, id)
}

// FindHabit accepts either an ID or a habit name.
func (t *Tracker) FindHabit(ctx context.Context, idOrName string) (models.Habit, error) {
	h, err := t.store.GetHabit(ctx, idOrName)
	if errors.Is(err, apperrors.ErrNotFound) {
		return t.store.GetHabitByName(ctx, idOrName)
	}
	return h, err
}

func (t *Tracker) ListHabits(ctx context.Context, includeDeleted bool) ([]models.Habit, error) {
	return t.store.GetAllHabits(ctx, includeDeleted)
}

func (t *Tracker) EditHabit(ctx context.Context, id string, edit HabitEdit) (models.Habit, error) {
	habit, err := t.store.GetHabit(ctx, id)
	if err != nil {
		return models.Habit{}, err
	}

	if edit.Description != nil {
		habit.Description = strings.TrimSpace(*edit.Description)
	}
	if edit.IsHarmful != nil {
		habit.IsHarmful = *edit.IsHarmful
	}
	if edit.DurationDays != nil {
		if *edit.DurationDays == 0 {
			habit.DurationDays = nil
		} else {
			d := *edit.DurationDays
			habit.DurationDays = &d
		}
	}

	if err := validateText(habit.Name, habit.Description); err != nil {
		return models.Habit{}, err
	}
	if _, err := recurrence.NewRule(habit); err != nil {
		return models.Habit{}, err
	}
	if err := validateHarmful(habit); err != nil {
		return models.Habit{}, err
	}

	if err := t.store.UpdateHabit(ctx, habit); err != nil {
		return models.Habit{}, err
	}
	t.invalidate(ctx, habit.ID)
	logger.Info("Habit updated", "id", habit.ID)
	return habit, nil
}

// DeleteHabit soft-deletes the habit; its reports are kept.
func (t *Tracker) DeleteHabit(ctx context.Context, id string) error {
	habit, err := t.store.GetHabit(ctx, id)
	if err != nil {
		return err
	}
	at := t.now()
	if err := t.store.DeleteHabit(ctx, id, at); err != nil {
		return err
	}
	t.invalidate(ctx, id)
	logger.Info("Habit deleted", "id", id)
	t.publish(ctx, events.ForHabit(events.HabitDeleted, habit, at))
	return nil
}
