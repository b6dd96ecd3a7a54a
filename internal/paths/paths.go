// Package paths centralizes the layout of the .mender state directory
// and path canonicalization helpers.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// StateDirName is the per-repo state directory.
const StateDirName = ".mender"

// StateDir returns the .mender directory for a repo root.
func StateDir(repoRoot string) string {
	return filepath.Join(repoRoot, StateDirName)
}

// RegistryPath returns the persisted model registry location.
func RegistryPath(repoRoot string) string {
	return filepath.Join(StateDir(repoRoot), "registry.json")
}

// DBPath returns the model cache database location.
func DBPath(repoRoot string) string {
	return filepath.Join(StateDir(repoRoot), "mender.db")
}

// ConfigPath returns the configuration file location.
func ConfigPath(repoRoot string) string {
	return filepath.Join(StateDir(repoRoot), "config.json")
}

// LogsDir returns the log directory location.
func LogsDir(repoRoot string) string {
	return filepath.Join(StateDir(repoRoot), "logs")
}

// DomainsPath returns the optional domain manifest location.
func DomainsPath(repoRoot string) string {
	return filepath.Join(repoRoot, "DOMAINS.toml")
}

// EnsureStateDir creates the .mender directory if it doesn't exist.
func EnsureStateDir(repoRoot string) (string, error) {
	dir := StateDir(repoRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// EnsureLogsDir creates the log directory if it doesn't exist.
func EnsureLogsDir(repoRoot string) (string, error) {
	dir := LogsDir(repoRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// CanonicalizePath converts an absolute path to a repo-relative canonical path
// with forward slashes, resolving symlinks when the file exists.
func CanonicalizePath(absolutePath string, repoRoot string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		if os.IsNotExist(err) {
			resolved = absolutePath
		} else {
			return "", err
		}
	}

	repoRootResolved, err := filepath.EvalSymlinks(repoRoot)
	if err != nil {
		if os.IsNotExist(err) {
			repoRootResolved = repoRoot
		} else {
			return "", err
		}
	}

	relativePath, err := filepath.Rel(repoRootResolved, resolved)
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(relativePath), nil
}

// IsWithinRepo checks if a path is within the repository root.
func IsWithinRepo(path string, repoRoot string) bool {
	canonical, err := CanonicalizePath(path, repoRoot)
	if err != nil {
		return false
	}
	return !strings.HasPrefix(canonical, "..")
}
