package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/migration"
	"github.com/julianstephens/habitual/migrations"
)

type Store struct {
	path string
	db   *sql.DB
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

// dsn enables WAL and a busy timeout so concurrent writers wait instead of
// failing with SQLITE_BUSY.
func (s *Store) dsn() string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", s.path)
}

func (s *Store) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if s.db == nil {
		db, err := sql.Open("sqlite", s.dsn())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		s.db = db
	}

	if _, err := s.Migrate(context.Background(), func(msg string) { logger.Info(msg) }); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) open() error {
	if s.db != nil {
		return nil
	}
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'habitual init' first")
	}

	db, err := sql.Open("sqlite", s.dsn())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db
	return nil
}

// Load opens an initialized database and refuses to continue while
// migrations are pending.
func (s *Store) Load() error {
	st, err := s.SchemaStatus(context.Background())
	if err != nil {
		return err
	}
	if len(st.Pending) > 0 {
		return fmt.Errorf("database schema is at version %d, %d is available: run 'habitual migrate'", st.Current, st.Latest)
	}
	return nil
}

func (s *Store) SchemaStatus(ctx context.Context) (migration.Status, error) {
	if err := s.open(); err != nil {
		return migration.Status{}, err
	}
	runner, err := s.runner()
	if err != nil {
		return migration.Status{}, err
	}
	return runner.Status(ctx)
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Migrate applies any pending embedded migrations.
func (s *Store) Migrate(ctx context.Context, logFn func(string)) (int, error) {
	if err := s.open(); err != nil {
		return 0, err
	}
	runner, err := s.runner()
	if err != nil {
		return 0, err
	}
	return runner.Apply(ctx, logFn)
}

func (s *Store) runner() (*migration.Runner, error) {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}
	return migration.NewRunner(s.db, subFS), nil
}

func (s *Store) GetConfigPath() string {
	return s.path
}

// GetDB returns nil until Init or Load succeeds.
func (s *Store) GetDB() *sql.DB {
	return s.db
}
