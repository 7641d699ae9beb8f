package backup

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

const testSchema = `
CREATE TABLE habits (id TEXT PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE completion_reports (id TEXT PRIMARY KEY, habit_id TEXT NOT NULL, date TEXT NOT NULL);
INSERT INTO habits (id, name) VALUES ('h1', 'Read');
INSERT INTO completion_reports (id, habit_id, date) VALUES ('r1', 'h1', '2025-01-06');
`

func setupTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "habitual.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}
	return dbPath
}

func countReports(t *testing.T, dbPath string) int {
	t.Helper()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM completion_reports").Scan(&n); err != nil {
		t.Fatalf("failed to count reports: %v", err)
	}
	return n
}

func fixedClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		t := now
		now = now.Add(time.Second)
		return t
	}
}

func TestCreateBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	path, err := mgr.Create(context.Background())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if filepath.Dir(path) != mgr.Dir() {
		t.Errorf("backup written to %s, want dir %s", path, mgr.Dir())
	}
	if !strings.HasPrefix(filepath.Base(path), "habitual-") {
		t.Errorf("unexpected backup name %s", filepath.Base(path))
	}
	if got := countReports(t, path); got != 1 {
		t.Errorf("backup has %d reports, want 1", got)
	}
}

func TestCreateSameSecond(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	stamp := time.Date(2025, 1, 6, 9, 0, 0, 0, time.Local)
	mgr.now = func() time.Time { return stamp }

	first, err := mgr.Create(context.Background())
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	second, err := mgr.Create(context.Background())
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct backup paths")
	}
	if !strings.HasSuffix(second, "-1.db") {
		t.Errorf("second backup = %s, want counter suffix", second)
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("got %d backups, want 2", len(backups))
	}
	if backups[0].Path != second {
		t.Errorf("newest backup = %s, want %s", backups[0].Path, second)
	}
}

func TestCreateRejectsForeignDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "other.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE notes (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	db.Close()

	if _, err := NewManager(dbPath).Create(context.Background()); err == nil {
		t.Fatal("expected error for database without habits tables")
	}
}

func TestCreateMissingDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := mgr.Create(context.Background()); err == nil {
		t.Fatal("expected error for missing database")
	}
}

func TestRotation(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	mgr.now = fixedClock(time.Date(2025, 1, 6, 9, 0, 0, 0, time.Local))

	var first string
	for i := 0; i < MaxBackups+3; i++ {
		path, err := mgr.Create(context.Background())
		if err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
		if i == 0 {
			first = path
		}
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != MaxBackups {
		t.Errorf("got %d backups, want %d", len(backups), MaxBackups)
	}
	if _, err := os.Stat(first); !os.IsNotExist(err) {
		t.Errorf("oldest backup %s should have been rotated out", first)
	}
	for i := 1; i < len(backups); i++ {
		if backups[i].Timestamp.After(backups[i-1].Timestamp) {
			t.Errorf("backups not sorted newest first at %d", i)
		}
	}
}

func TestListIgnoresForeignFiles(t *testing.T) {
	mgr := NewManager(setupTestDB(t))
	if err := os.MkdirAll(mgr.Dir(), 0700); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"notes.txt", "habitual-latest.db", "backup-20250106-090000.db"} {
		if err := os.WriteFile(filepath.Join(mgr.Dir(), name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("got %d backups, want 0", len(backups))
	}
}

func TestListMissingDir(t *testing.T) {
	backups, err := NewManager(filepath.Join(t.TempDir(), "habitual.db")).List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("got %d backups, want 0", len(backups))
	}
}

func TestParseName(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"habitual-20250106-090000.db", true},
		{"habitual-20250106-090000-3.db", true},
		{"habitual-20250106-090000-x.db", false},
		{"habitual-20250106.db", false},
		{"habitual-20250106-090000.sqlite", false},
		{"other-20250106-090000.db", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, ok := parseName(tt.name)
			if ok != tt.ok {
				t.Fatalf("parseName(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			}
			if ok && (ts.Year() != 2025 || ts.Month() != time.January || ts.Day() != 6 || ts.Hour() != 9) {
				t.Errorf("parseName(%q) = %v", tt.name, ts)
			}
		})
	}
}

func TestRestoreBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	mgr.now = fixedClock(time.Date(2025, 1, 6, 9, 0, 0, 0, time.Local))
	ctx := context.Background()

	snapshot, err := mgr.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("INSERT INTO completion_reports (id, habit_id, date) VALUES ('r2', 'h1', '2025-01-07')"); err != nil {
		t.Fatal(err)
	}
	db.Close()
	if got := countReports(t, dbPath); got != 2 {
		t.Fatalf("precondition: %d reports, want 2", got)
	}

	previous, err := mgr.Restore(ctx, snapshot)
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if got := countReports(t, dbPath); got != 1 {
		t.Errorf("restored database has %d reports, want 1", got)
	}
	if previous == "" {
		t.Fatal("expected a safety backup of the replaced database")
	}
	if got := countReports(t, previous); got != 2 {
		t.Errorf("safety backup has %d reports, want 2", got)
	}
	if _, err := os.Stat(dbPath + ".restore.tmp"); !os.IsNotExist(err) {
		t.Error("temporary restore file left behind")
	}
}

func TestRestoreRejectsInvalidBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	bogus := filepath.Join(t.TempDir(), "bogus.db")
	db, err := sql.Open("sqlite", bogus)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("CREATE TABLE notes (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	if _, err := mgr.Restore(context.Background(), bogus); err == nil {
		t.Fatal("expected error restoring a non-habitual database")
	}
	if got := countReports(t, dbPath); got != 1 {
		t.Errorf("database modified by failed restore: %d reports", got)
	}
}

func TestResolve(t *testing.T) {
	mgr := NewManager(setupTestDB(t))
	path, err := mgr.Create(context.Background())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := mgr.Resolve(filepath.Base(path))
	if err != nil {
		t.Fatalf("Resolve by name failed: %v", err)
	}
	if got != path {
		t.Errorf("Resolve(name) = %s, want %s", got, path)
	}

	got, err = mgr.Resolve(path)
	if err != nil || got != path {
		t.Errorf("Resolve(abs) = %s, %v", got, err)
	}

	if _, err := mgr.Resolve("habitual-19990101-000000.db"); err == nil {
		t.Error("expected error for unknown backup")
	}
}
