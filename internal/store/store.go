package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	stdatomic "sync/atomic"
	"time"

	"github.com/chorusd/chorus/internal/config"
	chorusErrors "github.com/chorusd/chorus/internal/errors"
	"github.com/chorusd/chorus/internal/event"

	"github.com/natefinch/atomic"
)

type Operation int

const (
	OpAppend Operation = iota
	OpSnapshot
)

type Request struct {
	Op       Operation
	Payload  interface{}
	Result   chan error
	Response chan interface{}
}

type AppendPayload struct {
	Draft event.Draft
}

type SnapshotPayload struct {
	DstPath string
}

// Store owns the canonical event sequence of one project. Appends are
// serialized through a single worker goroutine: the id sequence has no gaps
// or duplicates, and at most one append is in flight at a time. Reads scan
// the file directly and may run concurrently with appends.
type Store struct {
	projectID string
	basePath  string
	logPath   string
	inbox     chan Request
	fileLock  *FileLock
	quit      chan struct{}
	wg        sync.WaitGroup
	nextID    uint64
	running   stdatomic.Bool
}

type RuntimeConfig struct {
	LockTimeout  time.Duration
	LockRetry    time.Duration
	LockMaxRetry int
	InboxSize    int
}

func New(projectID string, rootPath string, runtimeCfg RuntimeConfig) (*Store, error) {
	basePath, err := ProjectPath(projectID, rootPath)
	if err != nil {
		return nil, err
	}
	backupsDir, err := BackupsDir(projectID, rootPath)
	if err != nil {
		return nil, err
	}
	logPath, err := EventLogPath(projectID, rootPath)
	if err != nil {
		return nil, err
	}

	dirs := []string{
		basePath,
		backupsDir,
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, fmt.Errorf("failed to create dir %s: %w", d, err)
		}
	}

	if runtimeCfg.LockTimeout <= 0 {
		lockTimeout, err := config.DurationOrDefault("", config.DefaultStoreLockTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse default store lock timeout: %w", err)
		}
		runtimeCfg.LockTimeout = lockTimeout
	}
	if runtimeCfg.LockRetry <= 0 {
		lockRetry, err := config.DurationOrDefault("", config.DefaultStoreLockRetry)
		if err != nil {
			return nil, fmt.Errorf("parse default store lock retry: %w", err)
		}
		runtimeCfg.LockRetry = lockRetry
	}
	if runtimeCfg.LockMaxRetry <= 0 {
		runtimeCfg.LockMaxRetry = config.DefaultStoreLockMaxRetry
	}
	if runtimeCfg.InboxSize <= 0 {
		runtimeCfg.InboxSize = config.DefaultStoreInboxSize
	}

	fileLock, err := NewFileLock(projectID, basePath, &FileLockConfig{
		LockTimeout:  runtimeCfg.LockTimeout,
		LockRetry:    runtimeCfg.LockRetry,
		LockMaxRetry: runtimeCfg.LockMaxRetry,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	s := &Store{
		projectID: projectID,
		basePath:  basePath,
		logPath:   logPath,
		inbox:     make(chan Request, runtimeCfg.InboxSize),
		fileLock:  fileLock,
		quit:      make(chan struct{}),
	}

	// Recover the id sequence from whatever the log already holds.
	lastID, err := s.scanLastID()
	if err != nil {
		fileLock.Unlock()
		return nil, fmt.Errorf("failed to recover event log: %w", err)
	}
	s.nextID = lastID + 1

	return s, nil
}

func (s *Store) Start() {
	s.running.Store(true)
	s.wg.Add(1)
	go s.loop()
}

func (s *Store) loop() {
	slog.Info("Event store started", "project", s.projectID, "next_id", s.nextID)
	defer func() {
		s.running.Store(false)
		s.wg.Done()
	}()

	for {
		select {
		case req := <-s.inbox:
			err := s.handle(req)
			if req.Result != nil {
				req.Result <- err
			}
		case <-s.quit:
			slog.Info("Event store stopping", "project", s.projectID)
			return
		}
	}
}

func (s *Store) handle(req Request) error {
	switch req.Op {
	case OpAppend:
		p, ok := req.Payload.(AppendPayload)
		if !ok {
			return fmt.Errorf("invalid payload for Append")
		}
		evt, err := s.appendEvent(p.Draft)
		if req.Response != nil {
			req.Response <- evt
		}
		return err
	case OpSnapshot:
		p, ok := req.Payload.(SnapshotPayload)
		if !ok {
			return fmt.Errorf("invalid payload for Snapshot")
		}
		return s.snapshot(p.DstPath)
	default:
		return fmt.Errorf("unknown operation: %d", req.Op)
	}
}

// appendEvent runs inside the worker loop: it is the only code path that
// writes the log, so id assignment needs no further locking.
func (s *Store) appendEvent(draft event.Draft) (event.Event, error) {
	evt := event.Event{
		ID:        s.nextID,
		Timestamp: time.Now().UTC(),
		Type:      draft.Type,
		Actor:     draft.Actor,
		Payload:   draft.Payload,
	}

	line, err := json.Marshal(evt)
	if err != nil {
		return event.Event{}, chorusErrors.StoreUnavailable(err)
	}
	line = append(line, '\n')

	f, err := os.OpenFile(s.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return event.Event{}, chorusErrors.StoreUnavailable(err)
	}
	defer f.Close()

	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return event.Event{}, chorusErrors.StoreUnavailable(err)
	}

	if _, err := f.Write(line); err != nil {
		// A torn line must not poison the log: roll back to the last
		// complete event before reporting the append as failed.
		if truncErr := f.Truncate(offset); truncErr != nil {
			slog.Error("Failed to roll back torn append", "project", s.projectID, "error", truncErr)
		}
		return event.Event{}, chorusErrors.StoreUnavailable(err)
	}
	if err := f.Sync(); err != nil {
		return event.Event{}, chorusErrors.StoreUnavailable(err)
	}

	s.nextID++
	return evt, nil
}

func (s *Store) snapshot(dstPath string) error {
	data, err := os.ReadFile(s.logPath)
	if err != nil {
		if os.IsNotExist(err) {
			data = nil
		} else {
			return err
		}
	}
	return atomic.WriteFile(dstPath, bytes.NewReader(data))
}

// scanLastID returns the highest id currently in the log. A torn trailing
// line (from an earlier crash) is skipped: it never completed, so the event
// it would have carried does not exist.
func (s *Store) scanLastID() (uint64, error) {
	events, err := s.readEvents(0, 0)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}
	return events[len(events)-1].ID, nil
}

func (s *Store) readEvents(fromID, toID uint64) ([]event.Event, error) {
	f, err := os.Open(s.logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []event.Event{}, nil
		}
		return nil, chorusErrors.StoreUnavailable(err)
	}
	defer f.Close()

	events := []event.Event{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var evt event.Event
		if err := json.Unmarshal(line, &evt); err != nil {
			// Only a trailing torn line is tolerable; anything else means
			// the log is corrupt and replaying it would be a lie.
			if scanner.Scan() {
				return nil, chorusErrors.StoreUnavailable(fmt.Errorf("corrupt event log line: %w", err))
			}
			slog.Warn("Skipping torn trailing log line", "project", s.projectID)
			break
		}

		if fromID > 0 && evt.ID < fromID {
			continue
		}
		if toID > 0 && evt.ID > toID {
			break
		}
		events = append(events, evt)
	}
	if err := scanner.Err(); err != nil {
		return nil, chorusErrors.StoreUnavailable(err)
	}

	return events, nil
}

// Public API for other components

// Append assigns the next id and timestamp, persists durably, and returns
// the finalized event. On failure nothing is persisted. The store must be
// Started; calling Append on a stopped or never-started store returns
// ErrStoreUnavailable instead of blocking.
func (s *Store) Append(draft event.Draft) (event.Event, error) {
	if err := draft.Validate(); err != nil {
		return event.Event{}, err
	}
	if !s.running.Load() {
		return event.Event{}, s.notRunning()
	}

	res := make(chan error, 1)
	resp := make(chan interface{}, 1)
	select {
	case s.inbox <- Request{
		Op:       OpAppend,
		Payload:  AppendPayload{Draft: draft},
		Result:   res,
		Response: resp,
	}:
	case <-s.quit:
		return event.Event{}, s.notRunning()
	}

	var err error
	select {
	case err = <-res:
	case <-s.quit:
		// The worker may have finished this request just before stopping.
		select {
		case err = <-res:
		default:
			return event.Event{}, s.notRunning()
		}
	}
	evt := (<-resp).(event.Event)
	if err != nil {
		return event.Event{}, err
	}
	return evt, nil
}

func (s *Store) notRunning() error {
	return chorusErrors.StoreUnavailable(fmt.Errorf("event store for project %q is not running", s.projectID))
}

// ReadAll returns the full event sequence ordered by id ascending,
// reflecting the log at call time. Appends racing the scan are not
// guaranteed to be included.
func (s *Store) ReadAll() ([]event.Event, error) {
	return s.readEvents(0, 0)
}

// ReadRange returns events with fromID <= id <= toID, for incremental replay.
func (s *Store) ReadRange(fromID, toID uint64) ([]event.Event, error) {
	return s.readEvents(fromID, toID)
}

// LastID returns the highest id in the log at call time.
func (s *Store) LastID() (uint64, error) {
	return s.scanLastID()
}

// Snapshot copies the event log to dstPath, serialized with appends so the
// copy never contains a half-written event. Like Append it requires a
// running store.
func (s *Store) Snapshot(dstPath string) error {
	if !s.running.Load() {
		return s.notRunning()
	}

	res := make(chan error, 1)
	select {
	case s.inbox <- Request{
		Op:      OpSnapshot,
		Payload: SnapshotPayload{DstPath: dstPath},
		Result:  res,
	}:
	case <-s.quit:
		return s.notRunning()
	}

	select {
	case err := <-res:
		return err
	case <-s.quit:
		select {
		case err := <-res:
			return err
		default:
			return s.notRunning()
		}
	}
}

func (s *Store) ProjectID() string {
	return s.projectID
}

func (s *Store) BasePath() string {
	return s.basePath
}

func (s *Store) Stop() {
	close(s.quit)
	s.wg.Wait()

	if s.fileLock.IsLocked() {
		s.fileLock.Unlock()
	}
}

func (s *Store) IsRunning() bool {
	return s.fileLock.IsLocked() && s.running.Load()
}
