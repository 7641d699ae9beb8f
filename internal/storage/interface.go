package storage

import (
	"context"
	"time"

	"github.com/julianstephens/habitual/internal/migration"
	"github.com/julianstephens/habitual/internal/models"
)

// HabitStore persists habit definitions. Deleted habits are kept with a
// DeletedAt timestamp so their history stays readable.
type HabitStore interface {
	AddHabit(ctx context.Context, h models.Habit) error
	GetHabit(ctx context.Context, id string) (models.Habit, error)
	GetHabitByName(ctx context.Context, name string) (models.Habit, error)
	GetAllHabits(ctx context.Context, includeDeleted bool) ([]models.Habit, error)
	UpdateHabit(ctx context.Context, h models.Habit) error
	DeleteHabit(ctx context.Context, id string, at time.Time) error
}

// CompletionStore persists completion reports, at most one per habit and day.
type CompletionStore interface {
	// InsertCompletion fails with ErrDuplicateCompletion when a report for the
	// same habit and day already exists. The check and the insert are atomic.
	InsertCompletion(ctx context.Context, r models.CompletionReport) error
	// DeleteCompletion fails with ErrNotFound when there is nothing to delete.
	DeleteCompletion(ctx context.Context, habitID string, day time.Time) error
	GetCompletion(ctx context.Context, habitID string, day time.Time) (models.CompletionReport, error)
	// GetCompletionsInRange returns reports with from <= day <= to, ascending by day.
	GetCompletionsInRange(ctx context.Context, habitID string, from, to time.Time) ([]models.CompletionReport, error)
	CountCompletions(ctx context.Context, habitID string) (int, error)
	// UpdateCompletionPhoto sets or clears (nil) the photo of an existing report.
	UpdateCompletionPhoto(ctx context.Context, habitID string, day time.Time, photoURL *string) error
}

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error
	Migrate(ctx context.Context, logFn func(string)) (int, error)
	SchemaStatus(ctx context.Context) (migration.Status, error)

	HabitStore
	CompletionStore

	// Utils
	GetConfigPath() string
}
