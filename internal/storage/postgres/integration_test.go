package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

// TestStore_Integration runs against a real database.
// Example: HABITUAL_TEST_POSTGRES="postgres://habitual@localhost:5432/habitual_test?sslmode=disable"
func TestStore_Integration(t *testing.T) {
	connStr := os.Getenv("HABITUAL_TEST_POSTGRES")
	if connStr == "" {
		t.Skip("HABITUAL_TEST_POSTGRES not set, skipping PostgreSQL integration test")
	}

	ctx := context.Background()
	store := New(connStr)
	if err := store.Init(); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()

	habitID := uuid.NewString()
	habit := models.Habit{
		ID:            habitID,
		Name:          "integration-" + habitID[:8],
		FrequencyType: models.FrequencyWeeklyOnDays,
		DaysOfWeek:    []time.Weekday{time.Monday, time.Friday},
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}

	t.Run("Habits", func(t *testing.T) {
		if err := store.AddHabit(ctx, habit); err != nil {
			t.Fatalf("AddHabit: %v", err)
		}
		got, err := store.GetHabit(ctx, habitID)
		if err != nil {
			t.Fatalf("GetHabit: %v", err)
		}
		if len(got.DaysOfWeek) != 2 || got.DaysOfWeek[1] != time.Friday {
			t.Errorf("DaysOfWeek = %v", got.DaysOfWeek)
		}
		if !got.CreatedAt.Equal(habit.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, habit.CreatedAt)
		}
	})

	t.Run("CreatedAtKeepsStartDay", func(t *testing.T) {
		newYork, err := time.LoadLocation("America/New_York")
		if err != nil {
			t.Skipf("tzdata unavailable: %v", err)
		}
		id := uuid.NewString()
		evening := models.Habit{
			ID:            id,
			Name:          "integration-" + id[:8],
			FrequencyType: models.FrequencyWeeklyXTimes,
			TimesPerWeek:  3,
			CreatedAt:     time.Date(2025, 1, 1, 20, 0, 0, 0, newYork),
		}
		if err := store.AddHabit(ctx, evening); err != nil {
			t.Fatalf("AddHabit: %v", err)
		}
		got, err := store.GetHabit(ctx, id)
		if err != nil {
			t.Fatalf("GetHabit: %v", err)
		}
		if day := utils.FormatDate(utils.DateOf(got.CreatedAt)); day != "2025-01-01" {
			t.Errorf("start day = %s, want 2025-01-01", day)
		}
		if !got.CreatedAt.Equal(evening.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, evening.CreatedAt)
		}
	})

	t.Run("DuplicateNameIsAlreadyExists", func(t *testing.T) {
		dup := habit
		dup.ID = uuid.NewString()
		if err := store.AddHabit(ctx, dup); !errors.Is(err, apperrors.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("Completions", func(t *testing.T) {
		day := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
		report := models.CompletionReport{ID: uuid.NewString(), HabitID: habitID, Date: day, CompletionTime: time.Now()}
		if err := store.InsertCompletion(ctx, report); err != nil {
			t.Fatalf("InsertCompletion: %v", err)
		}
		report.ID = uuid.NewString()
		if err := store.InsertCompletion(ctx, report); !errors.Is(err, apperrors.ErrDuplicateCompletion) {
			t.Errorf("expected ErrDuplicateCompletion, got %v", err)
		}

		got, err := store.GetCompletion(ctx, habitID, day)
		if err != nil {
			t.Fatalf("GetCompletion: %v", err)
		}
		if !got.Date.Equal(day) {
			t.Errorf("Date = %v, want %v", got.Date, day)
		}

		if err := store.DeleteCompletion(ctx, habitID, day); err != nil {
			t.Fatalf("DeleteCompletion: %v", err)
		}
		if err := store.DeleteCompletion(ctx, habitID, day); !errors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SoftDelete", func(t *testing.T) {
		if err := store.DeleteHabit(ctx, habitID, time.Now()); err != nil {
			t.Fatalf("DeleteHabit: %v", err)
		}
		if _, err := store.GetHabit(ctx, habitID); !errors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})
}
