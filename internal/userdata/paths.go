package userdata

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentx-labs/gmrestore/internal/branding"
	"github.com/agentx-labs/gmrestore/internal/config"
)

// File name constants for the data directory.
const (
	DatabaseFile = "scripts.db"
)

// Permission constants.
const (
	DirPermSecure  os.FileMode = 0700
	FilePermSecure os.FileMode = 0600
	DirPermNormal  os.FileMode = 0755
)

// GetDataRoot returns the path to the data directory.
// It checks the GMRESTORE_DATA environment variable first,
// then falls back to ~/.gmrestore.
func GetDataRoot() (string, error) {
	if v := os.Getenv(branding.EnvVar("DATA")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, branding.HomeDir()), nil
}

// GetDatabasePath returns the path to the script host database.
// GMRESTORE_DB wins, then the host.database setting, then
// <data root>/scripts.db.
func GetDatabasePath() (string, error) {
	if v := os.Getenv(branding.EnvVar("DB")); v != "" {
		return v, nil
	}
	if v := config.Database(); v != "" {
		return v, nil
	}
	root, err := GetDataRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, DatabaseFile), nil
}

// EnsureDataRoot creates the data directory with owner-only permissions.
func EnsureDataRoot() (string, error) {
	root, err := GetDataRoot()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(root, DirPermSecure); err != nil {
		return "", fmt.Errorf("creating data directory %s: %w", root, err)
	}
	return root, nil
}
