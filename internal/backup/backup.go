// Package backup snapshots and restores habitual's SQLite database file.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
)

const (
	// MaxBackups is the number of snapshots kept by rotation
	MaxBackups = 14
	DirName    = "backups"

	filePrefix      = constants.AppName + "-"
	fileSuffix      = ".db"
	timestampFormat = "20060102-150405"
)

type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Manager keeps snapshots in a "backups" directory next to the database.
type Manager struct {
	dbPath string
	dir    string
	now    func() time.Time
}

func NewManager(dbPath string) *Manager {
	return &Manager{
		dbPath: dbPath,
		dir:    filepath.Join(filepath.Dir(dbPath), DirName),
		now:    time.Now,
	}
}

func (m *Manager) Dir() string {
	return m.dir
}

// Create snapshots the database and prunes the oldest snapshots beyond
// MaxBackups.
func (m *Manager) Create(ctx context.Context) (string, error) {
	path, err := m.create(ctx)
	if err != nil {
		return "", err
	}
	if err := m.prune(); err != nil {
		logger.Warn("Failed to rotate old backups", "error", err)
	}
	return path, nil
}

func (m *Manager) create(ctx context.Context) (string, error) {
	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	if _, err := os.Stat(m.dbPath); os.IsNotExist(err) {
		return "", fmt.Errorf("database does not exist: %s", m.dbPath)
	}

	path, err := m.nextPath()
	if err != nil {
		return "", err
	}

	src, err := sql.Open("sqlite", m.dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to open database: %w", err)
	}
	defer src.Close()

	if err := verify(ctx, src); err != nil {
		return "", fmt.Errorf("database is not a habitual database: %w", err)
	}
	if _, err := src.ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return "", fmt.Errorf("failed to backup database: %w", err)
	}
	logger.Info("Backup created", "path", path)
	return path, nil
}

// nextPath names the snapshot after the current second, adding a counter
// when several are taken within the same second.
func (m *Manager) nextPath() (string, error) {
	stamp := m.now().Format(timestampFormat)
	path := filepath.Join(m.dir, filePrefix+stamp+fileSuffix)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
		if counter > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		path = filepath.Join(m.dir, fmt.Sprintf("%s%s-%d%s", filePrefix, stamp, counter, fileSuffix))
	}
}

func verify(ctx context.Context, db *sql.DB) error {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('habits', 'completion_reports')").Scan(&count)
	if err != nil {
		return err
	}
	if count != 2 {
		return fmt.Errorf("habits tables are missing")
	}
	return nil
}

// parseName extracts the timestamp from "habitual-YYYYMMDD-HHMMSS[-N].db".
func parseName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
	if parts := strings.Split(stamp, "-"); len(parts) == 3 {
		if _, err := strconv.Atoi(parts[2]); err != nil {
			return time.Time{}, false
		}
		stamp = parts[0] + "-" + parts[1]
	}
	ts, err := time.ParseInLocation(timestampFormat, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// List returns the snapshots, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []Info{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ts, ok := parseName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Path:      filepath.Join(m.dir, entry.Name()),
			Timestamp: ts,
			Size:      info.Size(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			if len(backups[i].Path) != len(backups[j].Path) {
				return len(backups[i].Path) > len(backups[j].Path)
			}
			return backups[i].Path > backups[j].Path
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

func (m *Manager) prune() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	for i := MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// Resolve finds a backup given as an absolute path, a path relative to the
// working directory, or a file name inside the backup directory.
func (m *Manager) Resolve(name string) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("backup file not found: %s", name)
		}
		return name, nil
	}
	if _, err := os.Stat(name); err == nil {
		return filepath.Abs(name)
	}
	candidate := filepath.Join(m.dir, name)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", fmt.Errorf("backup file not found: tried current directory and %s", m.dir)
}

// Restore replaces the database with the snapshot at path. The current
// database is snapshotted first and is not counted by rotation until the
// next Create. The store must be closed.
func (m *Manager) Restore(ctx context.Context, path string) (string, error) {
	snap, err := sql.Open("sqlite", path)
	if err != nil {
		return "", fmt.Errorf("failed to open backup: %w", err)
	}
	err = verify(ctx, snap)
	snap.Close()
	if err != nil {
		return "", fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	var previous string
	if _, err := os.Stat(m.dbPath); err == nil {
		previous, err = m.create(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to backup current database before restore: %w", err)
		}
	}

	tempPath := m.dbPath + ".restore.tmp"
	if err := copyFile(path, tempPath); err != nil {
		return "", fmt.Errorf("failed to copy backup file: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(m.dbPath + suffix); err != nil && !os.IsNotExist(err) {
			_ = os.Remove(tempPath)
			return "", fmt.Errorf("failed to remove stale %s file: %w", suffix, err)
		}
	}
	if err := os.Rename(tempPath, m.dbPath); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("failed to restore database: %w", err)
	}
	logger.Info("Database restored", "from", path, "previous", previous)
	return previous, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := out.ReadFrom(in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
