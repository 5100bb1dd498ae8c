package config

import (
	"os"
	"path/filepath"
)

// GetAppDir returns the base directory for pdmirror state and logs.
// PDMIRROR_HOME wins over the default ~/.pdmirror.
func GetAppDir() string {
	if dir := os.Getenv("PDMIRROR_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pdmirror"
	}
	return filepath.Join(home, ".pdmirror")
}

// GetStateDir holds the sqlite database and the instance lock.
func GetStateDir() string {
	return filepath.Join(GetAppDir(), "state")
}

// GetLogsDir holds rotated log files.
func GetLogsDir() string {
	return filepath.Join(GetAppDir(), "logs")
}

// EnsureDirs creates the state and logs directories.
func EnsureDirs() error {
	for _, dir := range []string{GetStateDir(), GetLogsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
