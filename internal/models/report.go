package models

import "time"

// CompletionReport records that a habit was done on a calendar day.
// Date is always midnight UTC of that day.
type CompletionReport struct {
	ID             string    `json:"id"`
	HabitID        string    `json:"habit_id"`
	Date           time.Time `json:"date"`
	CompletionTime time.Time `json:"completion_time"`
	PhotoURL       *string   `json:"photo_url,omitempty"`
}

// ReportAtDay is the per-day view of a habit's ledger
type ReportAtDay struct {
	IsCompleted    bool       `json:"is_completed"`
	CompletionTime *time.Time `json:"completion_time,omitempty"`
	PhotoURL       *string    `json:"photo_url,omitempty"`
}
