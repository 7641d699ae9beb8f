package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/postgres"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
	"github.com/julianstephens/habitual/internal/utils"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting an existing SQLite database before initialization."`
	Source string `help:"Source database path or connection string to copy habits and completions from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized habitual storage at: %s\n", ctx.Store.GetConfigPath())

	if c.Source != "" {
		ctx.Printf("Copying data from: %s\n", c.Source)
		source, err := openSource(c.Source)
		if err != nil {
			return err
		}
		defer source.Close()
		if err := copyData(context.Background(), ctx, source, ctx.Store); err != nil {
			return fmt.Errorf("copy failed: %w", err)
		}
		ctx.Println("Copy completed successfully!")
	}
	return nil
}

func (c *InitCmd) reset(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return fmt.Errorf("--force is only supported for SQLite databases")
	}
	dbPath := ctx.Store.GetConfigPath()
	if c.Source != "" {
		absDB, err := filepath.Abs(dbPath)
		if err == nil {
			dbPath = absDB
		}
		absSource, err := filepath.Abs(c.Source)
		if err == nil && absSource == dbPath {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
		}
	}

	if _, err := os.Stat(dbPath); err == nil {
		ctx.PerformAutomaticBackup()
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing database: %w", err)
		}
		for _, suffix := range []string{"", "-wal", "-shm"} {
			if err := os.Remove(dbPath + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
		}
		ctx.Printf("Deleted existing database at: %s\n", dbPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing database: %w", err)
	}
	return nil
}

func openSource(src string) (storage.Provider, error) {
	if postgres.IsConnString(src) {
		if err := postgres.ValidateConnString(src); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("PostgreSQL source connection string contains embedded credentials. Use HABITUAL_DB_CONNECTION or .pgpass instead")
			}
			return nil, err
		}
	} else {
		path, err := utils.ExpandPath(src)
		if err != nil {
			return nil, err
		}
		src = path
	}

	source := storage.New(src)
	if err := source.Load(); err != nil {
		return nil, fmt.Errorf("failed to load source database: %w", err)
	}
	return source, nil
}

var (
	firstDay = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	lastDay  = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// copyData copies every habit, deleted ones included, and all of their
// completion reports. IDs are preserved.
func copyData(bg context.Context, ctx *cli.Context, src, dst storage.Provider) error {
	ctx.Println("  Copying habits...")
	habits, err := src.GetAllHabits(bg, true)
	if err != nil {
		return fmt.Errorf("failed to get habits from source: %w", err)
	}
	for _, habit := range habits {
		if err := dst.AddHabit(bg, habit); err != nil {
			return fmt.Errorf("failed to add habit %s: %w", habit.ID, err)
		}
	}
	ctx.Printf("    Copied %d habits\n", len(habits))

	ctx.Println("  Copying completion reports...")
	reports := 0
	for _, habit := range habits {
		rs, err := src.GetCompletionsInRange(bg, habit.ID, firstDay, lastDay)
		if err != nil {
			return fmt.Errorf("failed to get reports for habit %s: %w", habit.ID, err)
		}
		for _, r := range rs {
			if err := dst.InsertCompletion(bg, r); err != nil {
				return fmt.Errorf("failed to add report %s: %w", r.ID, err)
			}
		}
		reports += len(rs)
	}
	ctx.Printf("    Copied %d completion reports\n", reports)
	return nil
}
