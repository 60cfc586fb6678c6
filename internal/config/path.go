// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// AppName is used for the config, data and env namespaces.
const AppName = "siphon"

// DefaultDatabasePath is the database location used when neither the config
// file nor the environment names one.
const DefaultDatabasePath = "$HOME/.local/share/siphon/siphon.db"

// ExpandPath expands ~ and environment variables in a file path.
// It handles both ~ for home directory and $VAR style environment variables.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	// First expand tilde if present
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	// Then expand environment variables
	return os.ExpandEnv(path)
}

// ConfigDir returns the directory holding config.yaml, honoring
// XDG_CONFIG_HOME.
func ConfigDir() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, AppName), nil
}

// AbsPath expands path and makes it absolute relative to the working
// directory.
func AbsPath(path string) (string, error) {
	return filepath.Abs(ExpandPath(path))
}

// BackupDir returns the directory pre-migration snapshots are written to:
// a backups folder next to the database file. The result is absolute.
func BackupDir(dbPath string) string {
	dir := filepath.Dir(ExpandPath(dbPath))
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return filepath.Join(dir, "backups")
}
