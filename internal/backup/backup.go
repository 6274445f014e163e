// Package backup snapshots the local SQLite diary file before destructive
// operations such as a login pull, and restores those snapshots on demand.
package backup

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/nutriscan/internal/constants"
	"github.com/julianstephens/nutriscan/internal/logger"
)

const timestampFormat = "20060102-150405"

// Labels describe why a backup was taken.
const (
	LabelManual     = "manual"
	LabelPrePull    = "prepull"
	LabelPreRestore = "prerestore"
)

// ErrNoDatabase is returned when the diary file has not been created yet.
var ErrNoDatabase = errors.New("database does not exist")

// nutriscan-20261016-083000-prepull.db, with an optional -N counter
var backupName = regexp.MustCompile(`^` + regexp.QuoteMeta(constants.BackupFilePrefix) +
	`(\d{8}-\d{6})-([a-z]+)(?:-(\d+))?` + regexp.QuoteMeta(constants.BackupFileSuffix) + `$`)

type Info struct {
	Path      string
	Timestamp time.Time
	Label     string
	Size      int64
}

type Manager struct {
	dbPath    string
	backupDir string
	now       func() time.Time
}

func NewManager(dbPath string) *Manager {
	return &Manager{
		dbPath:    dbPath,
		backupDir: filepath.Join(filepath.Dir(dbPath), constants.BackupDirName),
		now:       time.Now,
	}
}

func (m *Manager) Dir() string {
	return m.backupDir
}

// Create writes a consistent copy of the diary and prunes the oldest
// backups beyond constants.MaxBackups.
func (m *Manager) Create(label string) (string, error) {
	path, err := m.create(label)
	if err != nil {
		return "", err
	}
	if err := m.rotate(); err != nil {
		logger.Warn("Failed to rotate old backups", "dir", m.backupDir, "error", err)
	}
	return path, nil
}

func (m *Manager) create(label string) (string, error) {
	if _, err := os.Stat(m.dbPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ErrNoDatabase, m.dbPath)
	}
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	path, err := m.nextPath(label)
	if err != nil {
		return "", err
	}
	if err := m.vacuumInto(path); err != nil {
		return "", fmt.Errorf("failed to backup database: %w", err)
	}
	logger.Info("Backup created", "path", path, "label", label)
	return path, nil
}

func (m *Manager) nextPath(label string) (string, error) {
	base := constants.BackupFilePrefix + m.now().Format(timestampFormat) + "-" + label
	path := filepath.Join(m.backupDir, base+constants.BackupFileSuffix)
	for n := 1; ; n++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
		if n > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		path = filepath.Join(m.backupDir, fmt.Sprintf("%s-%d%s", base, n, constants.BackupFileSuffix))
	}
}

// vacuumInto copies the database with VACUUM INTO, falling back to a plain
// file copy when the statement is unsupported.
func (m *Manager) vacuumInto(dest string) error {
	src, err := sql.Open("sqlite", m.dbPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer src.Close()

	if err := verify(src); err != nil {
		return fmt.Errorf("source database appears to be corrupted: %w", err)
	}

	if _, err := src.Exec("VACUUM INTO ?", dest); err != nil {
		logger.Debug("VACUUM INTO failed, copying file", "error", err)
		src.Close()
		return copyFile(m.dbPath, dest)
	}
	return nil
}

// List returns backups newest first. Files that don't match the naming
// scheme are ignored.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
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
		match := backupName.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		ts, err := time.ParseInLocation(timestampFormat, match[1], time.Local)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Path:      filepath.Join(m.backupDir, entry.Name()),
			Timestamp: ts,
			Label:     match[2],
			Size:      info.Size(),
		})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].Path > backups[j].Path
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

func (m *Manager) rotate() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	for i := constants.MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// Restore replaces the diary with backupPath. The current diary is backed
// up first. The caller must close any open connection to the diary.
func (m *Manager) Restore(backupPath string) (string, error) {
	if !strings.HasPrefix(filepath.Base(backupPath), constants.BackupFilePrefix) {
		return "", fmt.Errorf("not a %s backup: %s", constants.AppName, backupPath)
	}
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return "", fmt.Errorf("backup file does not exist: %s", backupPath)
	}

	db, err := sql.Open("sqlite", backupPath+"?mode=ro")
	if err != nil {
		return "", err
	}
	err = verify(db)
	db.Close()
	if err != nil {
		return "", fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	var previous string
	if _, err := os.Stat(m.dbPath); err == nil {
		previous, err = m.create(LabelPreRestore)
		if err != nil {
			return "", fmt.Errorf("failed to backup current database before restore: %w", err)
		}
	}

	tmp := m.dbPath + ".restore.tmp"
	if err := copyFile(backupPath, tmp); err != nil {
		return "", fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tmp, m.dbPath); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil {
			logger.Warn("Failed to remove temporary file", "path", tmp, "error", rmErr)
		}
		return "", fmt.Errorf("failed to restore database: %w", err)
	}
	return previous, nil
}

func verify(db *sql.DB) error {
	var count int
	return db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count)
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
	defer out.Close()

	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return out.Sync()
}
