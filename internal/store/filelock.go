package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/chorusd/chorus/internal/config"
)

// FileLock guards a project directory against a second writer process.
// Within the process the store worker loop serializes appends; the lock only
// exists to keep two daemons off the same event log. The holder's pid and
// host are written into the lock file so a contended or stale lock can be
// attributed to its owner.
type FileLock struct {
	mu         sync.RWMutex
	flk        *flock.Flock
	lockPath   string
	projectID  string
	acquiredAt time.Time
}

type FileLockConfig struct {
	LockTimeout  time.Duration
	LockRetry    time.Duration
	LockMaxRetry int
}

func DefaultFileLockConfig() *FileLockConfig {
	lockTimeout, _ := config.DurationOrDefault(config.DefaultStoreLockTimeout, config.DefaultStoreLockTimeout)
	lockRetry, _ := config.DurationOrDefault(config.DefaultStoreLockRetry, config.DefaultStoreLockRetry)

	return &FileLockConfig{
		LockTimeout:  lockTimeout,
		LockRetry:    lockRetry,
		LockMaxRetry: config.DefaultStoreLockMaxRetry,
	}
}

func NewFileLock(projectID, basePath string, cfg *FileLockConfig) (*FileLock, error) {
	if cfg == nil {
		cfg = DefaultFileLockConfig()
	}

	lockPath := filepath.Join(basePath, "project.lock")
	fl := &FileLock{
		flk:       flock.New(lockPath),
		lockPath:  lockPath,
		projectID: projectID,
	}

	if err := fl.acquire(cfg); err != nil {
		return nil, err
	}
	fl.acquiredAt = time.Now()

	if err := fl.writeOwner(); err != nil {
		slog.Warn("Could not record lock owner", "project", projectID, "error", err)
	}
	slog.Info("Project lock acquired", "project", projectID, "path", lockPath)

	return fl, nil
}

// acquire polls TryLock until the retry budget or the timeout runs out,
// whichever comes first.
func (fl *FileLock) acquire(cfg *FileLockConfig) error {
	deadline := time.Now().Add(cfg.LockTimeout)
	for attempt := 0; attempt < cfg.LockMaxRetry; attempt++ {
		locked, err := fl.flk.TryLock()
		if err != nil {
			return fmt.Errorf("try lock %s: %w", fl.lockPath, err)
		}
		if locked {
			return nil
		}
		if attempt == cfg.LockMaxRetry-1 || time.Now().After(deadline) {
			break
		}
		time.Sleep(cfg.LockRetry)
	}

	if owner := readOwner(fl.lockPath); owner != "" {
		return fmt.Errorf("project %s is locked by another instance (%s)", fl.projectID, owner)
	}
	return fmt.Errorf("project %s is locked by another instance (timeout after %v)",
		fl.projectID, cfg.LockTimeout)
}

// writeOwner stamps pid, host and acquisition time into the lock file. The
// contents are diagnostic only; the flock itself is what excludes writers.
func (fl *FileLock) writeOwner() error {
	host, _ := os.Hostname()
	owner := fmt.Sprintf("pid=%d host=%s acquired=%s\n",
		os.Getpid(), host, fl.acquiredAt.Format(time.RFC3339))
	return os.WriteFile(fl.lockPath, []byte(owner), 0o644)
}

func readOwner(lockPath string) string {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (fl *FileLock) Unlock() {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.flk == nil {
		slog.Warn("Project lock already released", "project", fl.projectID)
		return
	}

	if err := fl.flk.Unlock(); err != nil {
		slog.Error("Failed to release project lock",
			"project", fl.projectID,
			"path", fl.lockPath,
			"error", err,
		)
	} else {
		slog.Info("Project lock released",
			"project", fl.projectID,
			"held_duration_ms", time.Since(fl.acquiredAt).Milliseconds(),
		)
	}

	fl.flk = nil
}

func (fl *FileLock) IsLocked() bool {
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	return fl.flk != nil
}

// CleanupStaleLocks removes a lock file left behind by a crashed process,
// but only when it is older than maxAge and forceCleanup is set. The
// recorded owner is logged so an operator can check the pid before forcing.
func CleanupStaleLocks(projectID, rootPath string, maxAge time.Duration, forceCleanup bool) error {
	lockPath, err := LockPath(projectID, rootPath)
	if err != nil {
		return err
	}
	info, err := os.Stat(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	age := time.Since(info.ModTime())
	if age <= maxAge {
		return nil
	}

	slog.Warn("Found stale lock file",
		"path", lockPath, "age", age, "max_age", maxAge, "owner", readOwner(lockPath))
	if !forceCleanup {
		return nil
	}

	if err := os.Remove(lockPath); err != nil {
		return err
	}
	slog.Info("Stale lock file removed", "path", lockPath)
	return nil
}
