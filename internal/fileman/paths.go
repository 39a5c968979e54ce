// Package fileman resolves the installer's filesystem layout and handles
// downloads, archive extraction, and configuration file management.
//
// Everything lives under a per-user base directory:
//
//	~/ex-installer/
//	    arduino-cli/        installed Arduino CLI binary
//	    logs/               timestamped log files
//	    user-config/        installer preferences
//	    <product>/          cloned firmware working copies
package fileman

import (
	"fmt"
	"os"
	"path/filepath"
)

const baseDirName = "ex-installer"

// BaseDir returns the per-user base directory for the installer. A home
// directory that cannot be resolved is an environment error that stops
// the flow.
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not obtain user home directory: %w", err)
	}
	return filepath.Join(home, baseDirName), nil
}

// InstallDir returns the directory a product's working copy is cloned
// into.
func InstallDir(productKey string) (string, error) {
	base, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, productKey), nil
}

// LogDir returns the directory timestamped log files are written to.
func LogDir() (string, error) {
	base, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "logs"), nil
}

// TempDir returns the directory for transient downloads.
func TempDir() string {
	return os.TempDir()
}

// EnsureDir creates dir (and parents) when missing.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("could not create directory %s: %w", dir, err)
	}
	return nil
}

// IsValidDir reports whether path exists and is a directory.
func IsValidDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// DirIsEmpty reports whether dir contains no entries. A missing or
// unreadable directory counts as not empty so callers stay cautious.
func DirIsEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	return len(entries) == 0
}
