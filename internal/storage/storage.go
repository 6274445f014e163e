package storage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/julianstephens/nutriscan/internal/storage/postgres"
	"github.com/julianstephens/nutriscan/internal/storage/sqlite"
)

// Provider is a durable string key/value store. Values are opaque to the
// provider; the snapshot layer decides how they are encoded.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Get returns errors.ErrKeyNotFound for an absent key.
	Get(key string) (string, error)
	Set(key, value string) error
	// SetMany writes every pair in one transaction.
	SetMany(values map[string]string) error
	Delete(key string) error

	SchemaVersion() (int, error)
	GetConfigPath() string
}

// IsPostgres reports whether config names a PostgreSQL database rather than a
// SQLite file path.
func IsPostgres(config string) bool {
	return strings.HasPrefix(config, "postgres://") || strings.HasPrefix(config, "postgresql://")
}

// Open returns the provider selected by config without connecting to it.
// PostgreSQL connection strings must pass postgres.ValidateConnString first.
func Open(config string) (Provider, error) {
	if IsPostgres(config) {
		if _, err := postgres.ValidateConnString(config); err != nil {
			return nil, err
		}
		return postgres.New(config), nil
	}
	path, err := ExpandHome(config)
	if err != nil {
		return nil, err
	}
	return sqlite.NewStore(path), nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
