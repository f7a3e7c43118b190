package store

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/chorusd/chorus/internal/pathutil"
)

// ResolveRootPath resolves the configured project root path.
// If empty, it falls back to ~/.chorus/projects.
func ResolveRootPath(rootPath string) (string, error) {
	if trimmed := strings.TrimSpace(rootPath); trimmed != "" {
		return pathutil.Expand(trimmed)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".chorus", "projects"), nil
}

// ProjectPath returns the base path for a project.
func ProjectPath(projectID string, rootPath string) (string, error) {
	root, err := ResolveRootPath(rootPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, projectID), nil
}

// EventLogPath returns the event log file for a project.
func EventLogPath(projectID string, rootPath string) (string, error) {
	base, err := ProjectPath(projectID, rootPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "events.jsonl"), nil
}

// BackupsDir returns the backup directory for a project.
func BackupsDir(projectID string, rootPath string) (string, error) {
	base, err := ProjectPath(projectID, rootPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "backups"), nil
}

// LockPath returns the lock file path for a project.
func LockPath(projectID string, rootPath string) (string, error) {
	base, err := ProjectPath(projectID, rootPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "project.lock"), nil
}
