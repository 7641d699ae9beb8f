package habits

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/cli"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
	"github.com/julianstephens/habitual/internal/tracker"
)

type testEnv struct {
	ctx *cli.Context
	out *bytes.Buffer
	now time.Time
}

// 2025-01-06 is a Monday.
func setupTestDB(t *testing.T) *testEnv {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})

	env := &testEnv{out: &bytes.Buffer{}, now: time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)}
	env.ctx = &cli.Context{
		Store: store,
		Tracker: tracker.New(store, tracker.Options{
			Location: time.UTC,
			Now:      func() time.Time { return env.now },
		}),
		Out: env.out,
	}
	return env
}

func (e *testEnv) advanceDays(n int) { e.now = e.now.AddDate(0, 0, n) }

func (e *testEnv) output() string {
	s := e.out.String()
	e.out.Reset()
	return s
}

func addGym(t *testing.T, e *testEnv) {
	t.Helper()
	cmd := &HabitAddCmd{Name: "Gym", Frequency: "days", Days: "mon,wed,fri", Photo: true}
	if err := cmd.Run(e.ctx); err != nil {
		t.Fatalf("habit add failed: %v", err)
	}
	e.output()
}

func TestHabitAddCmd(t *testing.T) {
	e := setupTestDB(t)

	cmd := &HabitAddCmd{Name: "Read", Frequency: "weekly", Times: 3}
	if err := cmd.Run(e.ctx); err != nil {
		t.Fatalf("habit add failed: %v", err)
	}
	if out := e.output(); !strings.Contains(out, "Added habit: Read (3x per week)") {
		t.Errorf("unexpected output: %q", out)
	}

	habit, err := e.ctx.Store.GetHabitByName(context.Background(), "Read")
	if err != nil {
		t.Fatalf("habit not stored: %v", err)
	}
	if habit.TimesPerWeek != 3 || habit.TimesPerMonth != 0 {
		t.Errorf("targets = %d/%d, want 3/0", habit.TimesPerWeek, habit.TimesPerMonth)
	}
}

func TestHabitAddCmd_Validation(t *testing.T) {
	e := setupTestDB(t)

	tests := []struct {
		name string
		cmd  HabitAddCmd
	}{
		{"missing days", HabitAddCmd{Name: "A", Frequency: "days"}},
		{"bad weekday", HabitAddCmd{Name: "A", Frequency: "days", Days: "mon,funday"}},
		{"zero target", HabitAddCmd{Name: "A", Frequency: "monthly"}},
		{"bad frequency", HabitAddCmd{Name: "A", Frequency: "hourly", Times: 1}},
		{"negative duration", HabitAddCmd{Name: "A", Frequency: "weekly", Times: 1, Duration: -1}},
		{"harmful weekly", HabitAddCmd{Name: "A", Frequency: "weekly", Times: 1, Harmful: true}},
	}
	for _, tt := range tests {
		if err := tt.cmd.Run(e.ctx); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}

func TestHabitAddCmd_DuplicateName(t *testing.T) {
	e := setupTestDB(t)
	addGym(t, e)

	cmd := &HabitAddCmd{Name: "Gym", Frequency: "weekly", Times: 2}
	err := cmd.Run(e.ctx)
	if !errors.Is(err, apperrors.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestHabitListAndDelete(t *testing.T) {
	e := setupTestDB(t)
	addGym(t, e)

	if err := (&HabitListCmd{}).Run(e.ctx); err != nil {
		t.Fatalf("habit list failed: %v", err)
	}
	if out := e.output(); !strings.Contains(out, "Gym") || !strings.Contains(out, "Mon,Wed,Fri") {
		t.Errorf("list output missing habit: %q", out)
	}

	if err := (&HabitDeleteCmd{Habit: "Gym"}).Run(e.ctx); err != nil {
		t.Fatalf("habit delete failed: %v", err)
	}
	e.output()

	if err := (&HabitListCmd{}).Run(e.ctx); err != nil {
		t.Fatalf("habit list failed: %v", err)
	}
	if out := e.output(); !strings.Contains(out, "No habits found.") {
		t.Errorf("deleted habit still listed: %q", out)
	}

	if err := (&HabitListCmd{Deleted: true}).Run(e.ctx); err != nil {
		t.Fatalf("habit list --deleted failed: %v", err)
	}
	if out := e.output(); !strings.Contains(out, "[DELETED]") {
		t.Errorf("expected deleted marker: %q", out)
	}
}

func TestHabitEditCmd(t *testing.T) {
	e := setupTestDB(t)
	addGym(t, e)

	desc := "Lift weights"
	duration := 30
	if err := (&HabitEditCmd{Habit: "Gym", Description: &desc, Duration: &duration}).Run(e.ctx); err != nil {
		t.Fatalf("habit edit failed: %v", err)
	}

	habit, err := e.ctx.Tracker.FindHabit(context.Background(), "Gym")
	if err != nil {
		t.Fatal(err)
	}
	if habit.Description != desc || habit.DurationDays == nil || *habit.DurationDays != 30 {
		t.Errorf("edit not applied: %+v", habit)
	}

	zero := 0
	if err := (&HabitEditCmd{Habit: habit.ID, Duration: &zero}).Run(e.ctx); err != nil {
		t.Fatalf("habit edit failed: %v", err)
	}
	habit, _ = e.ctx.Tracker.FindHabit(context.Background(), "Gym")
	if habit.DurationDays != nil {
		t.Errorf("duration 0 should make the habit unbounded, got %d", *habit.DurationDays)
	}
}

func TestMarkAndUnmark(t *testing.T) {
	e := setupTestDB(t)
	addGym(t, e)

	if err := (&MarkCmd{Habit: "Gym"}).Run(e.ctx); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if out := e.output(); !strings.Contains(out, `Marked habit "Gym" for 2025-01-06`) {
		t.Errorf("unexpected output: %q", out)
	}

	err := (&MarkCmd{Habit: "Gym"}).Run(e.ctx)
	if !errors.Is(err, apperrors.ErrDuplicateCompletion) {
		t.Errorf("second mark: expected ErrDuplicateCompletion, got %v", err)
	}

	err = (&MarkCmd{Habit: "Gym", Date: "2025-01-07"}).Run(e.ctx)
	if !errors.Is(err, apperrors.ErrFutureDate) {
		t.Errorf("future mark: expected ErrFutureDate, got %v", err)
	}

	e.advanceDays(1)
	err = (&MarkCmd{Habit: "Gym"}).Run(e.ctx)
	if !errors.Is(err, apperrors.ErrNotScheduled) {
		t.Errorf("tuesday mark: expected ErrNotScheduled, got %v", err)
	}

	if err := (&UnmarkCmd{Habit: "Gym", Date: "yesterday"}).Run(e.ctx); err != nil {
		t.Fatalf("unmark failed: %v", err)
	}
	err = (&UnmarkCmd{Habit: "Gym", Date: "2025-01-06"}).Run(e.ctx)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("second unmark: expected ErrNotFound, got %v", err)
	}
}

func TestPhotoCmds(t *testing.T) {
	e := setupTestDB(t)
	addGym(t, e)

	err := (&PhotoSetCmd{Habit: "Gym", URL: "https://example.com/a.jpg"}).Run(e.ctx)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("photo without report: expected ErrNotFound, got %v", err)
	}

	if err := (&MarkCmd{Habit: "Gym"}).Run(e.ctx); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := (&PhotoSetCmd{Habit: "Gym", URL: "https://example.com/a.jpg"}).Run(e.ctx); err != nil {
		t.Fatalf("photo set failed: %v", err)
	}
	e.output()

	if err := (&TodayCmd{}).Run(e.ctx); err != nil {
		t.Fatalf("today failed: %v", err)
	}
	if out := e.output(); !strings.Contains(out, "(photo)") || !strings.Contains(out, "Recorded: 1/1") {
		t.Errorf("today output: %q", out)
	}

	if err := (&PhotoClearCmd{Habit: "Gym"}).Run(e.ctx); err != nil {
		t.Fatalf("photo clear failed: %v", err)
	}
	report, err := e.ctx.Tracker.ReportAtDay(context.Background(), mustID(t, e, "Gym"), e.now)
	if err != nil {
		t.Fatal(err)
	}
	if !report.IsCompleted || report.PhotoURL != nil {
		t.Errorf("after clear: %+v", report)
	}
}

func mustID(t *testing.T, e *testEnv, name string) string {
	t.Helper()
	h, err := e.ctx.Tracker.FindHabit(context.Background(), name)
	if err != nil {
		t.Fatal(err)
	}
	return h.ID
}

func TestStatsCmd(t *testing.T) {
	e := setupTestDB(t)
	addGym(t, e)

	// Mon done, Wed missed, Fri done; today is the following Monday.
	if err := (&MarkCmd{Habit: "Gym"}).Run(e.ctx); err != nil {
		t.Fatal(err)
	}
	e.advanceDays(4)
	if err := (&MarkCmd{Habit: "Gym"}).Run(e.ctx); err != nil {
		t.Fatal(err)
	}
	e.advanceDays(3)
	e.output()

	if err := (&StatsCmd{Habit: "Gym"}).Run(e.ctx); err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	out := e.output()
	for _, want := range []string{"Completions:", "2", "67%", "Missed:", "2025-01-08"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q: %q", want, out)
		}
	}

	if err := (&StatsCmd{Habit: "Gym", JSON: true}).Run(e.ctx); err != nil {
		t.Fatalf("stats --json failed: %v", err)
	}
	out = e.output()
	for _, want := range []string{`"completions_percent": 67`, `"current_streak": 1`, `"2025-01-10"`} {
		if !strings.Contains(out, want) {
			t.Errorf("json output missing %q: %q", want, out)
		}
	}
}

func TestProgressCmd(t *testing.T) {
	e := setupTestDB(t)
	if err := (&HabitAddCmd{Name: "Read", Frequency: "weekly", Times: 3}).Run(e.ctx); err != nil {
		t.Fatal(err)
	}
	if err := (&MarkCmd{Habit: "Read"}).Run(e.ctx); err != nil {
		t.Fatal(err)
	}
	e.output()

	if err := (&ProgressCmd{Habit: "Read"}).Run(e.ctx); err != nil {
		t.Fatalf("progress failed: %v", err)
	}
	if out := e.output(); !strings.Contains(out, "Read: 1/3") {
		t.Errorf("unexpected output: %q", out)
	}

	addGym(t, e)
	if err := (&ProgressCmd{Habit: "Gym"}).Run(e.ctx); err != nil {
		t.Fatalf("progress failed: %v", err)
	}
	if out := e.output(); !strings.Contains(out, "no period progress") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestLogCmd(t *testing.T) {
	e := setupTestDB(t)
	addGym(t, e)
	if err := (&MarkCmd{Habit: "Gym"}).Run(e.ctx); err != nil {
		t.Fatal(err)
	}
	e.advanceDays(2)
	e.output()

	if err := (&LogCmd{Days: 3}).Run(e.ctx); err != nil {
		t.Fatalf("log failed: %v", err)
	}
	out := e.output()
	if !strings.Contains(out, "01/06") || !strings.Contains(out, "01/08") {
		t.Errorf("log header missing dates: %q", out)
	}
	// Mon done, Tue not scheduled, Wed open.
	if !strings.Contains(out, "Gym"+strings.Repeat(" ", 17)+"   x  "+"      "+"   .  ") {
		t.Errorf("unexpected log line: %q", out)
	}

	if err := (&LogCmd{Days: 0}).Run(e.ctx); err == nil {
		t.Error("expected error for non-positive days")
	}
}

func TestPadName(t *testing.T) {
	if got := padName("Gym"); len(got) != logNameWidth {
		t.Errorf("padName length = %d", len(got))
	}
	long := strings.Repeat("a", 30)
	if got := padName(long); got != strings.Repeat("a", 17)+"..." {
		t.Errorf("padName(long) = %q", got)
	}
}
