package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
)

const habitColumns = `id, name, description, frequency_type, days_of_week, times_per_week,
	times_per_month, is_photo_allowed, is_harmful, duration_days, created_at, deleted_at`

// isNameConflict reports a violation of the live-habit name index.
func isNameConflict(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "habits.name")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHabit(row rowScanner) (models.Habit, error) {
	var h models.Habit
	var frequency, days, createdAt string
	var perWeek, perMonth, duration sql.NullInt64
	var deletedAt sql.NullString

	err := row.Scan(&h.ID, &h.Name, &h.Description, &frequency, &days, &perWeek,
		&perMonth, &h.IsPhotoAllowed, &h.IsHarmful, &duration, &createdAt, &deletedAt)
	if err != nil {
		return models.Habit{}, err
	}

	h.FrequencyType = models.FrequencyType(frequency)
	h.TimesPerWeek = int(perWeek.Int64)
	h.TimesPerMonth = int(perMonth.Int64)
	if duration.Valid {
		d := int(duration.Int64)
		h.DurationDays = &d
	}
	if h.DaysOfWeek, err = decodeWeekdays(days); err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse days_of_week for habit %s: %w", h.ID, err)
	}
	if h.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return models.Habit{}, fmt.Errorf("failed to parse created_at for habit %s: %w", h.ID, err)
	}
	if deletedAt.Valid {
		t, err := time.Parse(time.RFC3339, deletedAt.String)
		if err != nil {
			return models.Habit{}, fmt.Errorf("failed to parse deleted_at for habit %s: %w", h.ID, err)
		}
		h.DeletedAt = &t
	}
	return h, nil
}

// encodeWeekdays stores weekdays as a comma separated list of numbers (Sunday=0).
func encodeWeekdays(days []time.Weekday) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ",")
}

func decodeWeekdays(s string) ([]time.Weekday, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	days := make([]time.Weekday, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		days = append(days, time.Weekday(n))
	}
	return days, nil
}

func nullInt(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n > 0}
}

func nullDuration(d *int) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*d), Valid: true}
}

func (s *Store) AddHabit(ctx context.Context, habit models.Habit) error {
	var deletedAt sql.NullString
	if habit.DeletedAt != nil {
		deletedAt = sql.NullString{String: habit.DeletedAt.Format(time.RFC3339), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO habits (`+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		habit.ID, habit.Name, habit.Description, string(habit.FrequencyType),
		encodeWeekdays(habit.DaysOfWeek), nullInt(habit.TimesPerWeek), nullInt(habit.TimesPerMonth),
		habit.IsPhotoAllowed, habit.IsHarmful, nullDuration(habit.DurationDays),
		habit.CreatedAt.Format(time.RFC3339), deletedAt)
	if isNameConflict(err) {
		return fmt.Errorf("habit %q: %w", habit.Name, apperrors.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to insert habit %s: %w", habit.Name, err)
	}
	return nil
}

func (s *Store) GetHabit(ctx context.Context, id string) (models.Habit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+habitColumns+`
		FROM habits WHERE id = ? AND deleted_at IS NULL`, id)

	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, apperrors.NotFound("habit", id)
	}
	return h, err
}

func (s *Store) GetHabitByName(ctx context.Context, name string) (models.Habit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+habitColumns+`
		FROM habits WHERE name = ? AND deleted_at IS NULL`, name)

	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, apperrors.NotFound("habit", name)
	}
	return h, err
}

func (s *Store) GetAllHabits(ctx context.Context, includeDeleted bool) ([]models.Habit, error) {
	query := "SELECT " + habitColumns + " FROM habits"
	if !includeDeleted {
		query += " WHERE deleted_at IS NULL"
	}
	query += " ORDER BY created_at, name"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []models.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

// UpdateHabit rewrites the mutable fields of a live habit. ID, frequency and
// created_at never change after creation.
func (s *Store) UpdateHabit(ctx context.Context, habit models.Habit) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE habits SET name = ?, description = ?, is_photo_allowed = ?, is_harmful = ?, duration_days = ?
		WHERE id = ? AND deleted_at IS NULL`,
		habit.Name, habit.Description, habit.IsPhotoAllowed, habit.IsHarmful,
		nullDuration(habit.DurationDays), habit.ID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.NotFound("habit", habit.ID)
	}
	return nil
}

func (s *Store) DeleteHabit(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE habits SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		at.Format(time.RFC3339), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.NotFound("habit", id)
	}
	return nil
}
