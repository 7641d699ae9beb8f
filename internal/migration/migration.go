// Package migration applies the versioned SQL files embedded in the migrations
// package to a SQLite or PostgreSQL database.
package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Migration is one versioned schema file, named NNN_name.sql.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Status describes where a database stands relative to the available migrations.
type Status struct {
	Current int
	Latest  int
	Pending []Migration
}

// Runner tracks the applied version in a single-row schema_version table.
type Runner struct {
	db *sql.DB
	fs fs.FS
}

func NewRunner(db *sql.DB, migrationFS fs.FS) *Runner {
	return &Runner{db: db, fs: migrationFS}
}

func (r *Runner) EnsureSchemaVersionTable(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY)`)
	return err
}

// CurrentVersion returns 0 for a fresh database.
func (r *Runner) CurrentVersion(ctx context.Context) (int, error) {
	if err := r.EnsureSchemaVersionTable(ctx); err != nil {
		return 0, fmt.Errorf("failed to ensure schema_version table: %w", err)
	}

	var version int
	err := r.db.QueryRowContext(ctx, "SELECT version FROM schema_version").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}

func (r *Runner) SetVersion(ctx context.Context, version int) error {
	if err := r.EnsureSchemaVersionTable(ctx); err != nil {
		return fmt.Errorf("failed to ensure schema_version table: %w", err)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := writeVersion(ctx, tx, version); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// writeVersion formats the version inline so the same statement runs on both
// the sqlite (?) and lib/pq ($1) placeholder styles.
func writeVersion(ctx context.Context, tx *sql.Tx, version int) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM schema_version"); err != nil {
		return fmt.Errorf("failed to clear version: %w", err)
	}
	stmt := "INSERT INTO schema_version (version) VALUES (" + strconv.Itoa(version) + ")"
	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to set version %d: %w", version, err)
	}
	return nil
}

// ReadMigrationFiles returns the migrations sorted by version.
func (r *Runner) ReadMigrationFiles() ([]Migration, error) {
	entries, err := fs.ReadDir(r.fs, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		m, err := r.parse(entry.Name())
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, m)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	for i := 1; i < len(migrations); i++ {
		if migrations[i].Version == migrations[i-1].Version {
			return nil, fmt.Errorf("duplicate migration version %d", migrations[i].Version)
		}
	}
	return migrations, nil
}

func (r *Runner) parse(filename string) (Migration, error) {
	prefix, rest, ok := strings.Cut(filename, "_")
	if !ok {
		return Migration{}, fmt.Errorf("invalid migration filename format: %s (expected NNN_name.sql)", filename)
	}
	version, err := strconv.Atoi(prefix)
	if err != nil {
		return Migration{}, fmt.Errorf("invalid version number in filename %s: %w", filename, err)
	}
	if version < 1 {
		return Migration{}, fmt.Errorf("invalid version number in filename %s: version must be at least 1", filename)
	}
	content, err := fs.ReadFile(r.fs, filename)
	if err != nil {
		return Migration{}, fmt.Errorf("failed to read migration file %s: %w", filename, err)
	}
	return Migration{
		Version: version,
		Name:    strings.TrimSuffix(rest, ".sql"),
		SQL:     string(content),
	}, nil
}

// Status fails when the database was written by a newer build.
func (r *Runner) Status(ctx context.Context) (Status, error) {
	current, err := r.CurrentVersion(ctx)
	if err != nil {
		return Status{}, err
	}
	migrations, err := r.ReadMigrationFiles()
	if err != nil {
		return Status{}, err
	}

	st := Status{Current: current}
	if len(migrations) > 0 {
		st.Latest = migrations[len(migrations)-1].Version
	}
	if current > st.Latest {
		return st, fmt.Errorf("database schema version (%d) is newer than supported version (%d) - please upgrade habitual", current, st.Latest)
	}
	for _, m := range migrations {
		if m.Version > current {
			st.Pending = append(st.Pending, m)
		}
	}
	return st, nil
}

// Apply runs every pending migration, each in its own transaction, and
// returns how many were applied.
func (r *Runner) Apply(ctx context.Context, logFn func(string)) (int, error) {
	if logFn == nil {
		logFn = func(string) {}
	}

	st, err := r.Status(ctx)
	if err != nil {
		return 0, err
	}
	if len(st.Pending) == 0 {
		logFn(fmt.Sprintf("Database schema is up to date (version %d)", st.Current))
		return 0, nil
	}

	logFn(fmt.Sprintf("Migrating schema from version %d to %d", st.Current, st.Latest))
	started := time.Now()
	applied := 0
	for _, m := range st.Pending {
		if err := r.applyOne(ctx, m); err != nil {
			return applied, err
		}
		applied++
		logFn(fmt.Sprintf("  applied %03d_%s", m.Version, m.Name))
	}
	logFn(fmt.Sprintf("Applied %d migration(s) in %v", applied, time.Since(started).Round(time.Millisecond)))
	return applied, nil
}

func (r *Runner) applyOne(ctx context.Context, m Migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %d: %w", m.Version, err)
	}
	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
	}
	if err := writeVersion(ctx, tx, m.Version); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
	}
	return nil
}
