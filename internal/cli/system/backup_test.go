package system

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitual/internal/backup"
	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage/memory"
	"github.com/julianstephens/habitual/internal/tracker"
)

func addWeeklyHabit(t *testing.T, ctx *cli.Context, name string) {
	t.Helper()
	if _, err := ctx.Tracker.CreateHabit(context.Background(), tracker.HabitInput{
		Name: name, FrequencyType: models.FrequencyWeeklyXTimes, TimesPerWeek: 2,
	}); err != nil {
		t.Fatalf("failed to create habit %s: %v", name, err)
	}
}

func TestBackupCreateAndList(t *testing.T) {
	ctx, dbPath, out := setupTestInitDB(t)
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}

	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("backup create failed: %v", err)
	}
	if !strings.Contains(out.String(), "Backup created: habitual-") {
		t.Errorf("unexpected output %q", out.String())
	}

	out.Reset()
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("backup list failed: %v", err)
	}
	if !strings.Contains(out.String(), "Available backups (1 total") {
		t.Errorf("unexpected list output %q", out.String())
	}
	if !strings.Contains(out.String(), filepath.Join(filepath.Dir(dbPath), backup.DirName)) {
		t.Errorf("list output should name the backup directory, got %q", out.String())
	}
}

func TestBackupListEmpty(t *testing.T) {
	ctx, _, out := setupTestInitDB(t)
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("backup list failed: %v", err)
	}
	if !strings.Contains(out.String(), "No backups found.") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestBackupRejectsNonSQLite(t *testing.T) {
	ctx := &cli.Context{Store: memory.NewStore()}
	err := (&BackupCreateCmd{}).Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "only supported for SQLite") {
		t.Errorf("expected SQLite-only error, got %v", err)
	}
}

func TestBackupRestore(t *testing.T) {
	bg := context.Background()
	ctx, dbPath, out := setupTestInitDB(t)
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	withTracker(ctx, time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC))
	addWeeklyHabit(t, ctx, "Read")

	mgr := backup.NewManager(dbPath)
	snapshot, err := mgr.Create(bg)
	if err != nil {
		t.Fatalf("backup failed: %v", err)
	}
	addWeeklyHabit(t, ctx, "Gym")

	out.Reset()
	if err := (&BackupRestoreCmd{BackupFile: filepath.Base(snapshot), Yes: true}).Run(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if !strings.Contains(out.String(), "Database restored from") {
		t.Errorf("unexpected output %q", out.String())
	}
	if !strings.Contains(out.String(), "Previous database saved as") {
		t.Errorf("expected safety backup message, got %q", out.String())
	}

	if err := ctx.Store.Load(); err != nil {
		t.Fatalf("failed to reload restored database: %v", err)
	}
	habits, err := ctx.Store.GetAllHabits(bg, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(habits) != 1 || habits[0].Name != "Read" {
		t.Errorf("restored habits = %+v, want only Read", habits)
	}
}

func TestBackupRestoreMissingFile(t *testing.T) {
	ctx, _, _ := setupTestInitDB(t)
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	err := (&BackupRestoreCmd{BackupFile: "habitual-19990101-000000.db", Yes: true}).Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestInitForceTakesBackup(t *testing.T) {
	ctx, dbPath, _ := setupTestInitDB(t)
	if err := (&InitCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := (&InitCmd{Force: true}).Run(ctx); err != nil {
		t.Fatalf("init --force failed: %v", err)
	}
	backups, err := backup.NewManager(dbPath).List()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 1 {
		t.Errorf("expected one automatic backup before reset, got %d", len(backups))
	}
}
