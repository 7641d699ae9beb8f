package system

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/config"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
	"github.com/julianstephens/habitual/internal/tracker"
	gokeyring "github.com/zalando/go-keyring"
)

func setupTestInitDB(t *testing.T) (*cli.Context, string, *bytes.Buffer) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := sqlite.NewStore(dbPath)
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})

	out := &bytes.Buffer{}
	ctx := &cli.Context{
		Store:  store,
		Config: config.Config{Timezone: "UTC"},
		Out:    out,
	}
	return ctx, dbPath, out
}

func withTracker(ctx *cli.Context, now time.Time) {
	ctx.Tracker = tracker.New(ctx.Store, tracker.Options{
		Location: time.UTC,
		Now:      func() time.Time { return now },
	})
}

func TestInitCmd_Success(t *testing.T) {
	ctx, dbPath, _ := setupTestInitDB(t)

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("init command failed: %v", err)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file was not created at %s", dbPath)
	}
}

func TestInitCmd_Idempotent(t *testing.T) {
	ctx, _, _ := setupTestInitDB(t)

	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("second init failed: %v", err)
	}
}

func TestInitCmd_Force(t *testing.T) {
	ctx, _, out := setupTestInitDB(t)
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	withTracker(ctx, time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC))
	if _, err := ctx.Tracker.CreateHabit(context.Background(), tracker.HabitInput{
		Name: "Read", FrequencyType: models.FrequencyWeeklyXTimes, TimesPerWeek: 2,
	}); err != nil {
		t.Fatal(err)
	}

	if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
		t.Fatalf("init --force failed: %v", err)
	}
	if !strings.Contains(out.String(), "Deleted existing database") {
		t.Errorf("expected delete message, got %q", out.String())
	}
	habits, err := ctx.Store.GetAllHabits(context.Background(), true)
	if err != nil {
		t.Fatal(err)
	}
	if len(habits) != 0 {
		t.Errorf("expected empty database after --force, got %d habits", len(habits))
	}
}

func TestInitCmd_ForceSameSource(t *testing.T) {
	ctx, dbPath, _ := setupTestInitDB(t)
	err := (&InitCmd{Force: true, Source: dbPath}).Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "same") {
		t.Errorf("expected same-path error, got %v", err)
	}
}

func TestInitCmd_CopiesSource(t *testing.T) {
	bg := context.Background()
	src, srcPath, _ := setupTestInitDB(t)
	if err := (&InitCmd{}).Run(src); err != nil {
		t.Fatal(err)
	}
	withTracker(src, time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC))
	gym, err := src.Tracker.CreateHabit(bg, tracker.HabitInput{
		Name: "Gym", FrequencyType: models.FrequencyWeeklyOnDays, DaysOfWeek: []time.Weekday{time.Monday},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := src.Tracker.MarkCompleted(bg, gym.ID, gym.CreatedAt, nil); err != nil {
		t.Fatal(err)
	}
	old, err := src.Tracker.CreateHabit(bg, tracker.HabitInput{
		Name: "Old", FrequencyType: models.FrequencyMonthlyXTimes, TimesPerMonth: 4,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := src.Tracker.DeleteHabit(bg, old.ID); err != nil {
		t.Fatal(err)
	}
	if err := src.Store.Close(); err != nil {
		t.Fatal(err)
	}

	dst, _, out := setupTestInitDB(t)
	if err := (&InitCmd{Source: srcPath}).Run(dst); err != nil {
		t.Fatalf("init --source failed: %v", err)
	}
	if !strings.Contains(out.String(), "Copied 2 habits") || !strings.Contains(out.String(), "Copied 1 completion reports") {
		t.Errorf("unexpected output: %q", out.String())
	}

	copied, err := dst.Store.GetHabit(bg, gym.ID)
	if err != nil {
		t.Fatalf("habit not copied: %v", err)
	}
	if copied.Name != "Gym" {
		t.Errorf("copied habit name = %q", copied.Name)
	}
	if _, err := dst.Store.GetCompletion(bg, gym.ID, gym.CreatedAt); err != nil {
		t.Errorf("report not copied: %v", err)
	}
	all, err := dst.Store.GetAllHabits(bg, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("expected deleted habit to be copied too, got %d habits", len(all))
	}
}

func TestMigrateCmd(t *testing.T) {
	ctx, _, out := setupTestInitDB(t)
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	out.Reset()

	if err := (&MigrateCmd{}).Run(ctx); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if !strings.Contains(out.String(), "up to date") {
		t.Errorf("unexpected output: %q", out.String())
	}

	out.Reset()
	if err := (&MigrateCmd{Status: true}).Run(ctx); err != nil {
		t.Fatalf("migrate --status failed: %v", err)
	}
	if !strings.Contains(out.String(), "Current version: 1") {
		t.Errorf("unexpected status output: %q", out.String())
	}
}

func TestMigrateCmd_Uninitialized(t *testing.T) {
	ctx, _, _ := setupTestInitDB(t)
	if err := (&MigrateCmd{}).Run(ctx); err == nil {
		t.Error("expected migrate to fail before init")
	}
}

func TestDoctorCmd_HealthyDB(t *testing.T) {
	gokeyring.MockInit()
	ctx, _, out := setupTestInitDB(t)
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	if err := (&DoctorCmd{}).Run(ctx); err != nil {
		t.Errorf("doctor command failed on healthy database: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "Stats cache: SKIPPED") {
		t.Errorf("expected cache check to be skipped: %q", out.String())
	}
}

func TestDoctorCmd_Failures(t *testing.T) {
	gokeyring.MockInit()
	ctx, _, out := setupTestInitDB(t)
	ctx.Config.Timezone = "Mars/Olympus"

	if err := (&DoctorCmd{}).Run(ctx); err == nil {
		t.Error("expected doctor to fail for a missing database and bad timezone")
	}
	for _, want := range []string{"Database reachable: FAIL", "Migrations complete: SKIPPED", "Clock/timezone: FAIL"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("doctor output missing %q: %q", want, out.String())
		}
	}
}

func TestCheckHabitsIntegrity(t *testing.T) {
	ctx, _, _ := setupTestInitDB(t)
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	bad := models.Habit{
		ID:            "bad",
		Name:          "Broken",
		FrequencyType: models.FrequencyWeeklyXTimes,
		CreatedAt:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := ctx.Store.AddHabit(context.Background(), bad); err != nil {
		t.Fatal(err)
	}
	err := checkHabitsIntegrity(context.Background(), ctx)
	if err == nil || !strings.Contains(err.Error(), "Broken") {
		t.Errorf("expected integrity failure naming the habit, got %v", err)
	}
}

func TestDebugCmds(t *testing.T) {
	ctx, dbPath, out := setupTestInitDB(t)
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	out.Reset()

	if err := (&DebugDBPathCmd{}).Run(ctx); err != nil {
		t.Fatalf("debug db-path failed: %v", err)
	}
	if !strings.Contains(out.String(), dbPath) {
		t.Errorf("db-path output = %q", out.String())
	}

	withTracker(ctx, time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC))
	if _, err := ctx.Tracker.CreateHabit(context.Background(), tracker.HabitInput{
		Name: "Read", FrequencyType: models.FrequencyWeeklyXTimes, TimesPerWeek: 2,
	}); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if err := (&DebugDumpHabitCmd{Habit: "Read"}).Run(ctx); err != nil {
		t.Fatalf("debug dump-habit failed: %v", err)
	}
	if !strings.Contains(out.String(), `"name": "Read"`) || !strings.Contains(out.String(), `"reports": []`) {
		t.Errorf("dump output = %q", out.String())
	}
}

func TestDebugLogPathCmd(t *testing.T) {
	ctx, _, out := setupTestInitDB(t)
	t.Cleanup(func() { logger.Logger = nil })

	configDir := t.TempDir()
	if err := logger.Init(logger.Config{ConfigDir: configDir}); err != nil {
		t.Fatal(err)
	}
	if err := (&DebugLogPathCmd{}).Run(ctx); err != nil {
		t.Fatalf("debug log-path failed: %v", err)
	}
	if !strings.Contains(out.String(), filepath.Join(configDir, "logs", "habitual.log")) {
		t.Errorf("log-path output = %q", out.String())
	}
}
