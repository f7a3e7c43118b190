// Package backup snapshots project event logs on a cron schedule and prunes
// old snapshots. Snapshots are taken through the store so they never contain
// a half-written event.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chorusd/chorus/internal/config"
	apperrors "github.com/chorusd/chorus/internal/errors"

	"github.com/oklog/ulid/v2"
	"github.com/robfig/cron/v3"
)

const (
	snapshotPrefix      = "events_"
	snapshotSuffix      = ".jsonl"
	snapshotTimeLayout  = "20060102T150405Z"
	defaultTickInterval = time.Minute
)

// Target is the slice of the store the engine needs.
type Target interface {
	ProjectID() string
	BasePath() string
	Snapshot(dstPath string) error
}

type Engine struct {
	target   Target
	schedule cron.Schedule
	keep     int

	mu      sync.Mutex
	nextRun time.Time
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	tickInterval time.Duration
	now          func() time.Time
}

func NewEngine(target Target, cfg config.BackupConfig) (*Engine, error) {
	spec := strings.TrimSpace(cfg.Schedule)
	if spec == "" {
		spec = config.DefaultBackupSchedule
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid backup schedule %q: %v", spec, err))
	}

	keep := cfg.Keep
	if keep <= 0 {
		keep = config.DefaultBackupKeep
	}

	return &Engine{
		target:       target,
		schedule:     schedule,
		keep:         keep,
		tickInterval: defaultTickInterval,
		now:          time.Now,
	}, nil
}

func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.nextRun = e.schedule.Next(e.now())

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})

	go e.run(runCtx)

	slog.Info("Backup engine started",
		"project", e.target.ProjectID(), "next_run", e.nextRun)
}

func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	cancel := e.cancel
	done := e.done
	e.mu.Unlock()

	cancel()
	<-done
	slog.Info("Backup engine stopped", "project", e.target.ProjectID())
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.onTick()
		case <-ctx.Done():
			return
		}
	}
}

func (e *Engine) onTick() {
	e.mu.Lock()
	due := !e.now().Before(e.nextRun)
	if due {
		e.nextRun = e.schedule.Next(e.now())
	}
	e.mu.Unlock()

	if !due {
		return
	}

	if _, err := e.RunOnce(); err != nil {
		slog.Error("Scheduled backup failed",
			"project", e.target.ProjectID(), "error", err)
	}
}

// RunOnce takes one snapshot and prunes old ones. The snapshot name embeds
// a UTC timestamp plus a ULID, so names sort in creation order.
func (e *Engine) RunOnce() (string, error) {
	name := fmt.Sprintf("%s%s_%s%s",
		snapshotPrefix, e.now().UTC().Format(snapshotTimeLayout), ulid.Make(), snapshotSuffix)
	dst := filepath.Join(e.target.BasePath(), "backups", name)

	if err := e.target.Snapshot(dst); err != nil {
		return "", err
	}
	slog.Info("Backup snapshot written", "project", e.target.ProjectID(), "path", dst)

	if err := e.prune(); err != nil {
		slog.Warn("Backup prune failed", "project", e.target.ProjectID(), "error", err)
	}
	return dst, nil
}

// List returns snapshot file names, newest first.
func (e *Engine) List() ([]string, error) {
	dir := filepath.Join(e.target.BasePath(), "backups")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.StoreUnavailable(err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, snapshotPrefix) && strings.HasSuffix(name, snapshotSuffix) {
			names = append(names, name)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func (e *Engine) prune() error {
	names, err := e.List()
	if err != nil {
		return err
	}
	if len(names) <= e.keep {
		return nil
	}

	dir := filepath.Join(e.target.BasePath(), "backups")
	for _, name := range names[e.keep:] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return apperrors.StoreUnavailable(err)
		}
		slog.Debug("Pruned old backup", "project", e.target.ProjectID(), "name", name)
	}
	return nil
}
