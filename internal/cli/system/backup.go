package system

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/habitual/internal/backup"
	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
)

type BackupCmd struct {
	Create  BackupCreateCmd  `cmd:"" help:"Create a backup of the SQLite database."`
	List    BackupListCmd    `cmd:"" help:"List available backups."`
	Restore BackupRestoreCmd `cmd:"" help:"Restore the database from a backup."`
}

func backupManager(ctx *cli.Context) (*backup.Manager, error) {
	store, ok := ctx.Store.(*sqlite.Store)
	if !ok {
		return nil, fmt.Errorf("backups are only supported for SQLite databases")
	}
	return backup.NewManager(store.GetConfigPath()), nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}
	path, err := mgr.Create(context.Background())
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	ctx.Printf("%s Backup created: %s\n", cli.DoneStyle.Render("✓"), filepath.Base(path))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		ctx.Println("No backups found.")
		ctx.Printf("Backups are stored in: %s\n", mgr.Dir())
		return nil
	}

	ctx.Printf("Available backups (%d total, keeping most recent %d):\n\n", len(backups), backup.MaxBackups)
	for _, b := range backups {
		ctx.Printf("  %s  %s  (%.1f KB)\n",
			b.Timestamp.Format("2006-01-02 15:04:05"), filepath.Base(b.Path), float64(b.Size)/1024.0)
	}
	ctx.Printf("\nBackup directory: %s\n", mgr.Dir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or file name of the backup to restore."`
	Yes        bool   `short:"y" help:"Restore without asking for confirmation."`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr, err := backupManager(ctx)
	if err != nil {
		return err
	}
	path, err := mgr.Resolve(c.BackupFile)
	if err != nil {
		return err
	}

	if !c.Yes {
		ctx.Println(cli.WarningStyle.Render("WARNING: This will replace your current database with the backup."))
		ctx.Println("Stop any running 'habitual serve' before restoring.")
		ctx.Println("A backup of your current database will be created first.")
		ctx.Printf("\nRestore from: %s\n", path)
		ctx.Printf("Continue? [y/N]: ")

		response, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return err
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			ctx.Println("Restore cancelled.")
			return nil
		}
	}

	if err := ctx.Store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database connection: %v\n", err)
	}

	previous, err := mgr.Restore(context.Background(), path)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	ctx.Printf("%s Database restored from %s\n", cli.DoneStyle.Render("✓"), filepath.Base(path))
	if previous != "" {
		ctx.Printf("Previous database saved as %s\n", filepath.Base(previous))
	}
	return nil
}
