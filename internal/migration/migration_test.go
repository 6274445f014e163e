package migration

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func migrationFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func TestGetCurrentVersion(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, migrationFS(map[string]string{
		"001_test.sql": "CREATE TABLE test (id INTEGER);",
	}), SQLite)

	version, err := runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 0 {
		t.Errorf("expected version 0, got %d", version)
	}

	if err := runner.SetVersion(5); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}

	version, err = runner.GetCurrentVersion()
	if err != nil {
		t.Fatalf("GetCurrentVersion failed: %v", err)
	}
	if version != 5 {
		t.Errorf("expected version 5, got %d", version)
	}
}

func TestReadMigrationFiles(t *testing.T) {
	t.Run("sorted by version", func(t *testing.T) {
		runner := NewRunner(setupTestDB(t), migrationFS(map[string]string{
			"002_second.sql": "SELECT 2;",
			"001_first.sql":  "SELECT 1;",
			"README.md":      "ignored",
		}), SQLite)

		migrations, err := runner.ReadMigrationFiles()
		if err != nil {
			t.Fatalf("ReadMigrationFiles failed: %v", err)
		}
		if len(migrations) != 2 {
			t.Fatalf("expected 2 migrations, got %d", len(migrations))
		}
		if migrations[0].Name != "first" || migrations[1].Name != "second" {
			t.Errorf("unexpected order: %+v", migrations)
		}
	})

	t.Run("duplicate version", func(t *testing.T) {
		runner := NewRunner(setupTestDB(t), migrationFS(map[string]string{
			"001_a.sql": "SELECT 1;",
			"1_b.sql":   "SELECT 1;",
		}), SQLite)

		if _, err := runner.ReadMigrationFiles(); err == nil || !strings.Contains(err.Error(), "duplicate") {
			t.Errorf("expected duplicate version error, got %v", err)
		}
	})

	t.Run("bad filename", func(t *testing.T) {
		runner := NewRunner(setupTestDB(t), migrationFS(map[string]string{
			"init.sql": "SELECT 1;",
		}), SQLite)

		if _, err := runner.ReadMigrationFiles(); err == nil {
			t.Error("expected error for filename without version prefix")
		}
	})
}

func TestApplyMigrations(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, migrationFS(map[string]string{
		"001_kv.sql":   "CREATE TABLE kv (key TEXT PRIMARY KEY, value TEXT NOT NULL);",
		"002_seed.sql": "INSERT INTO kv (key, value) VALUES ('a', '1');",
	}), SQLite)

	var logs []string
	applied, err := runner.ApplyMigrations(func(s string) { logs = append(logs, s) })
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if applied != 2 {
		t.Errorf("expected 2 migrations applied, got %d", applied)
	}
	if len(logs) == 0 {
		t.Error("expected progress messages")
	}

	version, _ := runner.GetCurrentVersion()
	if version != 2 {
		t.Errorf("expected version 2, got %d", version)
	}

	applied, err = runner.ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("second ApplyMigrations failed: %v", err)
	}
	if applied != 0 {
		t.Errorf("expected no migrations on second run, got %d", applied)
	}

	pending, err := runner.Pending()
	if err != nil || pending != 0 {
		t.Errorf("Pending() = %d, %v; want 0, nil", pending, err)
	}
}

func TestApplyMigrationsRollsBackFailure(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, migrationFS(map[string]string{
		"001_ok.sql":  "CREATE TABLE ok (id INTEGER);",
		"002_bad.sql": "CREATE TABLE broken (;",
	}), SQLite)

	applied, err := runner.ApplyMigrations(nil)
	if err == nil {
		t.Fatal("expected ApplyMigrations to fail")
	}
	if applied != 1 {
		t.Errorf("expected 1 migration applied before failure, got %d", applied)
	}

	version, _ := runner.GetCurrentVersion()
	if version != 1 {
		t.Errorf("expected version 1 after failed migration, got %d", version)
	}
}

func TestValidateVersionNewerDatabase(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, migrationFS(map[string]string{
		"001_init.sql": "SELECT 1;",
	}), SQLite)

	if err := runner.SetVersion(9); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}
	if err := runner.ValidateVersion(); err == nil {
		t.Error("expected error when database is newer than the application")
	}
}
