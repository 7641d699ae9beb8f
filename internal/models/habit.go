package models

import "time"

type FrequencyType string

const (
	FrequencyWeeklyOnDays  FrequencyType = "WEEKLY_ON_DAYS"
	FrequencyWeeklyXTimes  FrequencyType = "WEEKLY_X_TIMES"
	FrequencyMonthlyXTimes FrequencyType = "MONTHLY_X_TIMES"
)

// Habit represents a recurring practice to track
type Habit struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	FrequencyType  FrequencyType  `json:"frequency_type"`
	DaysOfWeek     []time.Weekday `json:"days_of_week,omitempty"`    // WEEKLY_ON_DAYS
	TimesPerWeek   int            `json:"times_per_week,omitempty"`  // WEEKLY_X_TIMES
	TimesPerMonth  int            `json:"times_per_month,omitempty"` // MONTHLY_X_TIMES
	IsPhotoAllowed bool           `json:"is_photo_allowed"`
	IsHarmful      bool           `json:"is_harmful"`
	DurationDays   *int           `json:"duration_days,omitempty"` // nil means unbounded
	CreatedAt      time.Time      `json:"created_at"`
	DeletedAt      *time.Time     `json:"deleted_at,omitempty"`
}

