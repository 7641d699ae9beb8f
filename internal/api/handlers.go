package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/tracker"
	"github.com/julianstephens/habitual/internal/utils"
)

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathDate reads {date}; "today" resolves in the tracker's timezone.
func (s *Server) pathDate(r *http.Request) (time.Time, error) {
	return s.parseDate(mux.Vars(r)["date"])
}

func (s *Server) parseDate(raw string) (time.Time, error) {
	if raw == "" || strings.EqualFold(raw, "today") {
		return s.tracker.Today(), nil
	}
	d, err := utils.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput("date", "must be YYYY-MM-DD")
	}
	return d, nil
}

type createHabitRequest struct {
	Name           string               `json:"name"`
	Description    string               `json:"description"`
	FrequencyType  models.FrequencyType `json:"frequency_type"`
	DaysOfWeek     []string             `json:"days_of_week"`
	TimesPerWeek   int                  `json:"times_per_week"`
	TimesPerMonth  int                  `json:"times_per_month"`
	IsPhotoAllowed bool                 `json:"is_photo_allowed"`
	IsHarmful      bool                 `json:"is_harmful"`
	DurationDays   *int                 `json:"duration_days"`
}

func (req createHabitRequest) input() (tracker.HabitInput, error) {
	in := tracker.HabitInput{
		Name:           req.Name,
		Description:    req.Description,
		FrequencyType:  req.FrequencyType,
		TimesPerWeek:   req.TimesPerWeek,
		TimesPerMonth:  req.TimesPerMonth,
		IsPhotoAllowed: req.IsPhotoAllowed,
		IsHarmful:      req.IsHarmful,
		DurationDays:   req.DurationDays,
	}
	for _, name := range req.DaysOfWeek {
		wd, err := utils.ParseWeekday(name)
		if err != nil {
			return tracker.HabitInput{}, apperrors.InvalidRule("days_of_week", err.Error())
		}
		in.DaysOfWeek = append(in.DaysOfWeek, wd)
	}
	return in, nil
}

func (s *Server) createHabit(w http.ResponseWriter, r *http.Request) {
	var req createHabitRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, err)
		return
	}
	habit, err := s.tracker.CreateHabit(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/habits/"+habit.ID)
	writeJSON(w, http.StatusCreated, NewHabitResponse(habit))
}

func (s *Server) listHabits(w http.ResponseWriter, r *http.Request) {
	includeDeleted := false
	if raw := r.URL.Query().Get("include_deleted"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, r, apperrors.InvalidInput("include_deleted", "must be a boolean"))
			return
		}
		includeDeleted = v
	}
	habits, err := s.tracker.ListHabits(r.Context(), includeDeleted)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]HabitResponse, 0, len(habits))
	for _, h := range habits {
		out = append(out, NewHabitResponse(h))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getHabit(w http.ResponseWriter, r *http.Request) {
	habit, err := s.tracker.GetHabit(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewHabitResponse(habit))
}

type editHabitRequest struct {
	Description  *string `json:"description"`
	IsHarmful    *bool   `json:"is_harmful"`
	DurationDays *int    `json:"duration_days"`
}

func (s *Server) editHabit(w http.ResponseWriter, r *http.Request) {
	var req editHabitRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	if req.DurationDays != nil && *req.DurationDays < 0 {
		writeError(w, r, apperrors.InvalidInput("duration_days", "must not be negative"))
		return
	}
	habit, err := s.tracker.EditHabit(r.Context(), mux.Vars(r)["id"], tracker.HabitEdit{
		Description:  req.Description,
		IsHarmful:    req.IsHarmful,
		DurationDays: req.DurationDays,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewHabitResponse(habit))
}

func (s *Server) deleteHabit(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DeleteHabit(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) habitStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.tracker.Stats(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewStatsResponse(st))
}

func (s *Server) habitProgress(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	day, err := s.parseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.tracker.Progress(r.Context(), id, day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progressResponse{HabitID: id, Date: utils.FormatDate(day), Progress: p})
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	day, err := s.pathDate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := s.tracker.ReportAtDay(r.Context(), id, day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{
		HabitID:        id,
		Date:           utils.FormatDate(day),
		IsCompleted:    report.IsCompleted,
		CompletionTime: report.CompletionTime,
		PhotoURL:       report.PhotoURL,
	})
}

type photoRequest struct {
	PhotoURL *string `json:"photo_url"`
}

func (s *Server) markCompleted(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	day, err := s.pathDate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req photoRequest
	if err := decodeBody(r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}
	report, err := s.tracker.MarkCompleted(r.Context(), id, day, req.PhotoURL)
	if err != nil {
		writeError(w, r, err)
		return
	}
	completedAt := report.CompletionTime
	writeJSON(w, http.StatusCreated, reportResponse{
		HabitID:        id,
		Date:           utils.FormatDate(report.Date),
		IsCompleted:    true,
		CompletionTime: &completedAt,
		PhotoURL:       report.PhotoURL,
	})
}

func (s *Server) unmark(w http.ResponseWriter, r *http.Request) {
	day, err := s.pathDate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.tracker.Unmark(r.Context(), mux.Vars(r)["id"], day); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setPhoto(w http.ResponseWriter, r *http.Request) {
	day, err := s.pathDate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req photoRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	if req.PhotoURL == nil {
		writeError(w, r, apperrors.InvalidInput("photo_url", "is required"))
		return
	}
	if err := s.tracker.SetPhoto(r.Context(), mux.Vars(r)["id"], day, *req.PhotoURL); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearPhoto(w http.ResponseWriter, r *http.Request) {
	day, err := s.pathDate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.tracker.ClearPhoto(r.Context(), mux.Vars(r)["id"], day); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) habitsAtDay(w http.ResponseWriter, r *http.Request) {
	day, err := s.pathDate(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := s.tracker.HabitsAtDay(r.Context(), day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]habitAtDayResponse, 0, len(items))
	for _, item := range items {
		out = append(out, habitAtDayResponse{
			Habit:           NewHabitResponse(item.Habit),
			IsCompleted:     item.IsCompleted,
			IsPhotoUploaded: item.IsPhotoUploaded,
			Progress:        item.Progress,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
