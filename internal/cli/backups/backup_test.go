package backups

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/nutriscan/internal/backup"
	"github.com/julianstephens/nutriscan/internal/cli"
	"github.com/julianstephens/nutriscan/internal/storage/sqlite"
)

func newContext(t *testing.T) (*cli.Context, *sqlite.Store, *bytes.Buffer) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nutriscan.db")
	store := sqlite.NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	out := &bytes.Buffer{}
	return &cli.Context{Store: store, Out: out}, store, out
}

func TestBackupCreateAndList(t *testing.T) {
	ctx, _, out := newContext(t)

	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out.String(), "No backups found.") {
		t.Errorf("expected empty listing, got %q", out.String())
	}

	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	out.Reset()
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out.String(), "1 total") || !strings.Contains(out.String(), "manual") {
		t.Errorf("unexpected listing: %q", out.String())
	}
}

func TestBackupRestoreByFilename(t *testing.T) {
	ctx, store, out := newContext(t)
	if err := store.Set("marker", "before"); err != nil {
		t.Fatal(err)
	}

	path, err := ctx.Backups().Create(backup.LabelManual)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := store.Set("marker", "after"); err != nil {
		t.Fatal(err)
	}

	cmd := &BackupRestoreCmd{BackupFile: filepath.Base(path), Yes: true}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if !strings.Contains(out.String(), "Restored from") {
		t.Errorf("unexpected output: %q", out.String())
	}

	if err := store.Load(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	got, err := store.Get("marker")
	if err != nil {
		t.Fatal(err)
	}
	if got != "before" {
		t.Errorf("marker = %q, want %q", got, "before")
	}
}

func TestBackupRestoreMissingFile(t *testing.T) {
	ctx, _, _ := newContext(t)

	err := (&BackupRestoreCmd{BackupFile: "nutriscan-19990101-000000-manual.db", Yes: true}).Run(ctx)
	if err == nil || !strings.Contains(err.Error(), "backup file not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}
