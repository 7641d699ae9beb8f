package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to write response", "error", err)
	}
}

func statusFor(kind string) int {
	switch kind {
	case "invalid_rule", "invalid_input":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "duplicate_completion", "already_exists":
		return http.StatusConflict
	case "future_date", "not_scheduled", "photo_not_allowed":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperrors.Kind(err)
	status := statusFor(kind)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal server error"
	}
	writeJSON(w, status, errorResponse{Error: kind, Message: msg})
}

// decodeBody leaves v untouched for an empty body when optional is set.
func decodeBody(r *http.Request, v interface{}, optional bool) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(v)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return apperrors.InvalidInput("body", "must be valid JSON: "+err.Error())
	}
	return nil
}

// HabitResponse is the wire form of a habit: weekdays by name, days as YYYY-MM-DD.
type HabitResponse struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	Description    string               `json:"description"`
	FrequencyType  models.FrequencyType `json:"frequency_type"`
	DaysOfWeek     []string             `json:"days_of_week,omitempty"`
	TimesPerWeek   int                  `json:"times_per_week,omitempty"`
	TimesPerMonth  int                  `json:"times_per_month,omitempty"`
	IsPhotoAllowed bool                 `json:"is_photo_allowed"`
	IsHarmful      bool                 `json:"is_harmful"`
	DurationDays   *int                 `json:"duration_days"`
	StartDate      string               `json:"start_date"`
	EndDate        *string              `json:"end_date"`
	CreatedAt      time.Time            `json:"created_at"`
	DeletedAt      *time.Time           `json:"deleted_at,omitempty"`
}

func NewHabitResponse(h models.Habit) HabitResponse {
	start := utils.DateOf(h.CreatedAt)
	resp := HabitResponse{
		ID:             h.ID,
		Name:           h.Name,
		Description:    h.Description,
		FrequencyType:  h.FrequencyType,
		TimesPerWeek:   h.TimesPerWeek,
		TimesPerMonth:  h.TimesPerMonth,
		IsPhotoAllowed: h.IsPhotoAllowed,
		IsHarmful:      h.IsHarmful,
		DurationDays:   h.DurationDays,
		StartDate:      utils.FormatDate(start),
		CreatedAt:      h.CreatedAt,
		DeletedAt:      h.DeletedAt,
	}
	for _, wd := range h.DaysOfWeek {
		resp.DaysOfWeek = append(resp.DaysOfWeek, utils.WeekdayName(wd))
	}
	if h.DurationDays != nil {
		end := utils.FormatDate(utils.AddDays(start, *h.DurationDays-1))
		resp.EndDate = &end
	}
	return resp
}

// StatsResponse mirrors models.HabitStats with calendar days as YYYY-MM-DD.
type StatsResponse struct {
	HabitID            string                 `json:"habit_id"`
	AsOf               string                 `json:"as_of"`
	CompletionsInTotal int                    `json:"completions_in_total"`
	CompletionsPercent *int                   `json:"completions_percent"`
	CurrentStreak      *int                   `json:"current_streak"`
	Progress           *models.PeriodProgress `json:"progress,omitempty"`
	CompletedDays      []string               `json:"completed_days"`
	UncompletedDays    []string               `json:"uncompleted_days,omitempty"`
}

func NewStatsResponse(st models.HabitStats) StatsResponse {
	resp := StatsResponse{
		HabitID:            st.HabitID,
		AsOf:               utils.FormatDate(st.AsOf),
		CompletionsInTotal: st.CompletionsInTotal,
		CompletionsPercent: st.CompletionsPercent,
		CurrentStreak:      st.CurrentStreak,
		Progress:           st.Progress,
		CompletedDays:      formatDates(st.CompletedDays),
	}
	if len(st.UncompletedDays) > 0 {
		resp.UncompletedDays = formatDates(st.UncompletedDays)
	}
	return resp
}

func formatDates(days []time.Time) []string {
	out := make([]string, 0, len(days))
	for _, d := range days {
		out = append(out, utils.FormatDate(d))
	}
	return out
}

type reportResponse struct {
	HabitID        string     `json:"habit_id"`
	Date           string     `json:"date"`
	IsCompleted    bool       `json:"is_completed"`
	CompletionTime *time.Time `json:"completion_time,omitempty"`
	PhotoURL       *string    `json:"photo_url,omitempty"`
}

type progressResponse struct {
	HabitID  string                 `json:"habit_id"`
	Date     string                 `json:"date"`
	Progress *models.PeriodProgress `json:"progress"`
}

type habitAtDayResponse struct {
	Habit           HabitResponse          `json:"habit"`
	IsCompleted     bool                   `json:"is_completed"`
	IsPhotoUploaded bool                   `json:"is_photo_uploaded"`
	Progress        *models.PeriodProgress `json:"progress,omitempty"`
}
