package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

func reportKey(habitID string, day time.Time) string {
	return habitID + "@" + utils.FormatDate(day)
}

func scanReport(row rowScanner) (models.CompletionReport, error) {
	var r models.CompletionReport
	var day, completedAt string
	var photo sql.NullString

	if err := row.Scan(&r.ID, &r.HabitID, &day, &completedAt, &photo); err != nil {
		return models.CompletionReport{}, err
	}

	var err error
	if r.Date, err = utils.ParseDate(day); err != nil {
		return models.CompletionReport{}, err
	}
	if r.CompletionTime, err = time.Parse(time.RFC3339Nano, completedAt); err != nil {
		return models.CompletionReport{}, fmt.Errorf("failed to parse completion_time for report %s: %w", r.ID, err)
	}
	if photo.Valid {
		p := photo.String
		r.PhotoURL = &p
	}
	return r, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func (s *Store) InsertCompletion(ctx context.Context, r models.CompletionReport) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO completion_reports (id, habit_id, day, completion_time, photo_url)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(habit_id, day) DO NOTHING`,
		r.ID, r.HabitID, utils.FormatDate(r.Date), r.CompletionTime.Format(time.RFC3339Nano), nullString(r.PhotoURL))
	if err != nil {
		return fmt.Errorf("failed to insert completion: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", reportKey(r.HabitID, r.Date), apperrors.ErrDuplicateCompletion)
	}
	return nil
}

func (s *Store) DeleteCompletion(ctx context.Context, habitID string, day time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM completion_reports WHERE habit_id = ? AND day = ?`,
		habitID, utils.FormatDate(day))
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.NotFound("completion", reportKey(habitID, day))
	}
	return nil
}

func (s *Store) GetCompletion(ctx context.Context, habitID string, day time.Time) (models.CompletionReport, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, habit_id, day, completion_time, photo_url
		FROM completion_reports WHERE habit_id = ? AND day = ?`,
		habitID, utils.FormatDate(day))

	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CompletionReport{}, apperrors.NotFound("completion", reportKey(habitID, day))
	}
	return r, err
}

// GetCompletionsInRange relies on YYYY-MM-DD strings sorting chronologically.
func (s *Store) GetCompletionsInRange(ctx context.Context, habitID string, from, to time.Time) ([]models.CompletionReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, habit_id, day, completion_time, photo_url
		FROM completion_reports
		WHERE habit_id = ? AND day >= ? AND day <= ?
		ORDER BY day`,
		habitID, utils.FormatDate(from), utils.FormatDate(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []models.CompletionReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

func (s *Store) CountCompletions(ctx context.Context, habitID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM completion_reports WHERE habit_id = ?", habitID).Scan(&n)
	return n, err
}

func (s *Store) UpdateCompletionPhoto(ctx context.Context, habitID string, day time.Time, photoURL *string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE completion_reports SET photo_url = ? WHERE habit_id = ? AND day = ?`,
		nullString(photoURL), habitID, utils.FormatDate(day))
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.NotFound("completion", reportKey(habitID, day))
	}
	return nil
}
