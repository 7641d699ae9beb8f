package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	pq "github.com/lib/pq"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
)

const habitColumns = `id, name, description, frequency_type, days_of_week, times_per_week,
	times_per_month, is_photo_allowed, is_harmful, duration_days, created_at, created_offset, deleted_at`

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

type rowScanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func scanHabit(row rowScanner) (models.Habit, error) {
	var h models.Habit
	var frequency string
	var days pq.Int64Array
	var perWeek, perMonth, duration sql.NullInt64
	var createdAt time.Time
	var createdOffset int
	var deletedAt sql.NullTime

	err := row.Scan(&h.ID, &h.Name, &h.Description, &frequency, &days, &perWeek,
		&perMonth, &h.IsPhotoAllowed, &h.IsHarmful, &duration, &createdAt, &createdOffset, &deletedAt)
	if err != nil {
		return models.Habit{}, err
	}
	h.CreatedAt = withOffset(createdAt, createdOffset)

	h.FrequencyType = models.FrequencyType(frequency)
	for _, d := range days {
		h.DaysOfWeek = append(h.DaysOfWeek, time.Weekday(d))
	}
	h.TimesPerWeek = int(perWeek.Int64)
	h.TimesPerMonth = int(perMonth.Int64)
	if duration.Valid {
		d := int(duration.Int64)
		h.DurationDays = &d
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		h.DeletedAt = &t
	}
	return h, nil
}

// offsetOf returns t's UTC offset in seconds.
func offsetOf(t time.Time) int {
	_, offset := t.Zone()
	return offset
}

// withOffset moves t into the fixed zone it was written in, so its calendar
// day matches the day the habit was created.
func withOffset(t time.Time, offset int) time.Time {
	return t.In(time.FixedZone("", offset))
}

func weekdayArray(days []time.Weekday) pq.Int64Array {
	out := make(pq.Int64Array, len(days))
	for i, d := range days {
		out[i] = int64(d)
	}
	return out
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
	var deletedAt sql.NullTime
	if habit.DeletedAt != nil {
		deletedAt = sql.NullTime{Time: *habit.DeletedAt, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO habits (`+habitColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		habit.ID, habit.Name, habit.Description, string(habit.FrequencyType),
		weekdayArray(habit.DaysOfWeek), nullInt(habit.TimesPerWeek), nullInt(habit.TimesPerMonth),
		habit.IsPhotoAllowed, habit.IsHarmful, nullDuration(habit.DurationDays),
		habit.CreatedAt, offsetOf(habit.CreatedAt), deletedAt)
	if isUniqueViolation(err) {
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
		FROM habits WHERE id = $1 AND deleted_at IS NULL`, id)

	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, apperrors.NotFound("habit", id)
	}
	return h, err
}

func (s *Store) GetHabitByName(ctx context.Context, name string) (models.Habit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+habitColumns+`
		FROM habits WHERE name = $1 AND deleted_at IS NULL`, name)

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

func (s *Store) UpdateHabit(ctx context.Context, habit models.Habit) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE habits SET name = $1, description = $2, is_photo_allowed = $3, is_harmful = $4, duration_days = $5
		WHERE id = $6 AND deleted_at IS NULL`,
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
		UPDATE habits SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`, at, id)
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
