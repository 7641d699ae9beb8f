package models

import "time"

// PeriodProgress is the in-period count for X-times-per-period habits
type PeriodProgress struct {
	Completed int `json:"completed"`
	Planned   int `json:"planned"`
}

// HabitStats aggregates every statistic shown for a single habit.
// Pointer fields are nil when the metric does not apply to the habit's
// frequency type or cannot be computed yet.
type HabitStats struct {
	HabitID            string          `json:"habit_id"`
	AsOf               time.Time       `json:"as_of"`
	CompletionsInTotal int             `json:"completions_in_total"`
	CompletionsPercent *int            `json:"completions_percent"`
	CurrentStreak      *int            `json:"current_streak"`
	Progress           *PeriodProgress `json:"progress,omitempty"`
	CompletedDays      []time.Time     `json:"completed_days"`
	UncompletedDays    []time.Time     `json:"uncompleted_days,omitempty"`
}

// HabitAtDay is a habit that is current on a given day together with its status
type HabitAtDay struct {
	Habit           Habit           `json:"habit"`
	IsCompleted     bool            `json:"is_completed"`
	IsPhotoUploaded bool            `json:"is_photo_uploaded"`
	Progress        *PeriodProgress `json:"progress,omitempty"`
}
