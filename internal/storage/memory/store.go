// Package memory is a process-local storage.Provider used by tests and by
// `HABITUAL_DB=memory` for throwaway sessions.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/migration"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

type reportKey struct {
	habitID string
	day     string
}

func keyOf(habitID string, day time.Time) reportKey {
	return reportKey{habitID: habitID, day: utils.FormatDate(day)}
}

func (k reportKey) String() string { return k.habitID + "@" + k.day }

type Store struct {
	mu      sync.RWMutex
	habits  map[string]models.Habit
	reports map[reportKey]models.CompletionReport
}

func NewStore() *Store {
	return &Store{
		habits:  make(map[string]models.Habit),
		reports: make(map[reportKey]models.CompletionReport),
	}
}

func (s *Store) Init() error  { return nil }
func (s *Store) Load() error  { return nil }
func (s *Store) Close() error { return nil }

func (s *Store) Migrate(context.Context, func(string)) (int, error) { return 0, nil }

func (s *Store) SchemaStatus(context.Context) (migration.Status, error) {
	return migration.Status{}, nil
}

func (s *Store) GetConfigPath() string { return "memory" }

func copyHabit(h models.Habit) models.Habit {
	h.DaysOfWeek = append([]time.Weekday(nil), h.DaysOfWeek...)
	if h.DurationDays != nil {
		d := *h.DurationDays
		h.DurationDays = &d
	}
	if h.DeletedAt != nil {
		t := *h.DeletedAt
		h.DeletedAt = &t
	}
	return h
}

func (s *Store) AddHabit(_ context.Context, habit models.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.habits[habit.ID]; ok {
		return fmt.Errorf("habit %s already exists", habit.ID)
	}
	if habit.DeletedAt == nil {
		for _, h := range s.habits {
			if h.DeletedAt == nil && h.Name == habit.Name {
				return fmt.Errorf("habit %q: %w", habit.Name, apperrors.ErrAlreadyExists)
			}
		}
	}
	s.habits[habit.ID] = copyHabit(habit)
	return nil
}

func (s *Store) GetHabit(_ context.Context, id string) (models.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.habits[id]
	if !ok || h.DeletedAt != nil {
		return models.Habit{}, apperrors.NotFound("habit", id)
	}
	return copyHabit(h), nil
}

func (s *Store) GetHabitByName(_ context.Context, name string) (models.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, h := range s.habits {
		if h.DeletedAt == nil && h.Name == name {
			return copyHabit(h), nil
		}
	}
	return models.Habit{}, apperrors.NotFound("habit", name)
}

func (s *Store) GetAllHabits(_ context.Context, includeDeleted bool) ([]models.Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var habits []models.Habit
	for _, h := range s.habits {
		if h.DeletedAt != nil && !includeDeleted {
			continue
		}
		habits = append(habits, copyHabit(h))
	}
	sort.Slice(habits, func(i, j int) bool {
		if !habits[i].CreatedAt.Equal(habits[j].CreatedAt) {
			return habits[i].CreatedAt.Before(habits[j].CreatedAt)
		}
		return habits[i].Name < habits[j].Name
	})
	return habits, nil
}

func (s *Store) UpdateHabit(_ context.Context, habit models.Habit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.habits[habit.ID]
	if !ok || cur.DeletedAt != nil {
		return apperrors.NotFound("habit", habit.ID)
	}
	cur.Name = habit.Name
	cur.Description = habit.Description
	cur.IsPhotoAllowed = habit.IsPhotoAllowed
	cur.IsHarmful = habit.IsHarmful
	cur.DurationDays = habit.DurationDays
	s.habits[habit.ID] = copyHabit(cur)
	return nil
}

func (s *Store) DeleteHabit(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.habits[id]
	if !ok || h.DeletedAt != nil {
		return apperrors.NotFound("habit", id)
	}
	h.DeletedAt = &at
	s.habits[id] = h
	return nil
}

func (s *Store) InsertCompletion(_ context.Context, r models.CompletionReport) error {
	key := keyOf(r.HabitID, r.Date)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[key]; ok {
		return fmt.Errorf("%s: %w", key, apperrors.ErrDuplicateCompletion)
	}
	r.Date = utils.DateOf(r.Date)
	s.reports[key] = r
	return nil
}

func (s *Store) DeleteCompletion(_ context.Context, habitID string, day time.Time) error {
	key := keyOf(habitID, day)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[key]; !ok {
		return apperrors.NotFound("completion", key.String())
	}
	delete(s.reports, key)
	return nil
}

func (s *Store) GetCompletion(_ context.Context, habitID string, day time.Time) (models.CompletionReport, error) {
	key := keyOf(habitID, day)

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[key]
	if !ok {
		return models.CompletionReport{}, apperrors.NotFound("completion", key.String())
	}
	return r, nil
}

func (s *Store) GetCompletionsInRange(_ context.Context, habitID string, from, to time.Time) ([]models.CompletionReport, error) {
	lo, hi := utils.FormatDate(from), utils.FormatDate(to)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var reports []models.CompletionReport
	for key, r := range s.reports {
		if key.habitID == habitID && key.day >= lo && key.day <= hi {
			reports = append(reports, r)
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Date.Before(reports[j].Date) })
	return reports, nil
}

func (s *Store) CountCompletions(_ context.Context, habitID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for key := range s.reports {
		if key.habitID == habitID {
			n++
		}
	}
	return n, nil
}

func (s *Store) UpdateCompletionPhoto(_ context.Context, habitID string, day time.Time, photoURL *string) error {
	key := keyOf(habitID, day)

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[key]
	if !ok {
		return apperrors.NotFound("completion", key.String())
	}
	r.PhotoURL = photoURL
	s.reports[key] = r
	return nil
}
