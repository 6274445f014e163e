package backups

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/nutriscan/internal/backup"
	"github.com/julianstephens/nutriscan/internal/cli"
	"github.com/julianstephens/nutriscan/internal/constants"
)

var errNotSQLite = errors.New("backups are only available for the local SQLite diary")

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *cli.Context) error {
	mgr := ctx.Backups()
	if mgr == nil {
		return errNotSQLite
	}
	path, err := mgr.Create(backup.LabelManual)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	ctx.Printf("✓ Backup created: %s\n", filepath.Base(path))
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *cli.Context) error {
	mgr := ctx.Backups()
	if mgr == nil {
		return errNotSQLite
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

	ctx.Printf("Available backups (%d total, keeping most recent %d):\n\n", len(backups), constants.MaxBackups)
	for _, b := range backups {
		ctx.Printf("  %s  %-10s %s  (%.1f KB)\n",
			b.Timestamp.Format("2006-01-02 15:04:05"), b.Label, filepath.Base(b.Path), float64(b.Size)/1024.0)
	}
	ctx.Printf("\nBackup directory: %s\n", mgr.Dir())
	return nil
}

type BackupRestoreCmd struct {
	BackupFile string `arg:"" help:"Path or filename of the backup to restore."`
	Yes        bool   `help:"Restore without asking." short:"y"`
}

func (c *BackupRestoreCmd) Run(ctx *cli.Context) error {
	mgr := ctx.Backups()
	if mgr == nil {
		return errNotSQLite
	}

	path, err := resolve(mgr, c.BackupFile)
	if err != nil {
		return err
	}

	if !c.Yes {
		ctx.Println("⚠️  This will replace your local diary with the backup.")
		ctx.Println("A backup of the current diary will be created first.")
		ctx.Printf("\nRestore from: %s\n", path)
		ok, err := ctx.Prompt.Confirm("Continue?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.Println("Restore cancelled.")
			return nil
		}
	}

	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	previous, err := mgr.Restore(path)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	if previous != "" {
		ctx.Printf("Saved the replaced diary as %s\n", filepath.Base(previous))
	}
	ctx.Printf("✓ Restored from %s\n", filepath.Base(path))
	return nil
}

// resolve accepts an absolute path, a path relative to the working
// directory, or a bare filename inside the backup directory.
func resolve(mgr *backup.Manager, name string) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("backup file not found: %s", name)
		}
		return name, nil
	}
	if _, err := os.Stat(name); err == nil {
		return filepath.Abs(name)
	}
	inDir := filepath.Join(mgr.Dir(), name)
	if _, err := os.Stat(inDir); err == nil {
		return inDir, nil
	}
	return "", fmt.Errorf("backup file not found: tried current directory and %s", mgr.Dir())
}
