package postgres

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
	var photo sql.NullString

	if err := row.Scan(&r.ID, &r.HabitID, &r.Date, &r.CompletionTime, &photo); err != nil {
		return models.CompletionReport{}, err
	}
	r.Date = utils.DateOf(r.Date)
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
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (habit_id, day) DO NOTHING`,
		r.ID, r.HabitID, utils.FormatDate(r.Date), r.CompletionTime, nullString(r.PhotoURL))
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
		DELETE FROM completion_reports WHERE habit_id = $1 AND day = $2`,
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
		FROM completion_reports WHERE habit_id = $1 AND day = $2`,
		habitID, utils.FormatDate(day))

	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CompletionReport{}, apperrors.NotFound("completion", reportKey(habitID, day))
	}
	return r, err
}

func (s *Store) GetCompletionsInRange(ctx context.Context, habitID string, from, to time.Time) ([]models.CompletionReport, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, habit_id, day, completion_time, photo_url
		FROM completion_reports
		WHERE habit_id = $1 AND day BETWEEN $2 AND $3
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
		"SELECT COUNT(*) FROM completion_reports WHERE habit_id = $1", habitID).Scan(&n)
	return n, err
}

func (s *Store) UpdateCompletionPhoto(ctx context.Context, habitID string, day time.Time, photoURL *string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE completion_reports SET photo_url = $1 WHERE habit_id = $2 AND day = $3`,
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
