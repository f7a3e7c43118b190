// Package coordinator drives the conversation loop on top of the event
// store. It owns the turn lifecycle: resolve the active configuration,
// assemble the prompt, call the model, and record the results as events.
package coordinator

import (
	"context"
	"sync"

	"github.com/chorusd/chorus/internal/catalog"
	"github.com/chorusd/chorus/internal/compliance"
	"github.com/chorusd/chorus/internal/config"
	apperrors "github.com/chorusd/chorus/internal/errors"
	"github.com/chorusd/chorus/internal/model/contract"
	"github.com/chorusd/chorus/internal/state"
	"github.com/chorusd/chorus/internal/store"
)

// Generator is the coordinator's view of the model layer. The router
// satisfies it in production; tests substitute a stub.
type Generator interface {
	Generate(ctx context.Context, provider string, req contract.CompletionRequest) (*contract.CompletionResponse, error)
}

// Coordinator opens and caches project handles. Each handle serializes its
// own turns; projects never block each other.
type Coordinator struct {
	cfg      *config.Config
	cat      *catalog.Catalog
	gen      Generator
	checker  *compliance.Checker
	mu       sync.Mutex
	projects map[string]*Project
}

func New(cfg *config.Config, cat *catalog.Catalog, gen Generator) *Coordinator {
	c := &Coordinator{
		cfg:      cfg,
		cat:      cat,
		gen:      gen,
		projects: make(map[string]*Project),
	}
	if cfg.Compliance.Enabled {
		c.checker = compliance.New(compliance.Config{
			MinSummaryLength: cfg.Compliance.MinSummaryLength,
		})
	}
	return c
}

// Project returns the handle for a project, opening its store on first use.
func (c *Coordinator) Project(projectID string) (*Project, error) {
	if projectID == "" {
		return nil, apperrors.InvalidInput("project id must not be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.projects[projectID]; ok {
		return p, nil
	}

	runtimeCfg, err := storeRuntimeConfig(c.cfg.Store)
	if err != nil {
		return nil, err
	}

	st, err := store.New(projectID, c.cfg.Store.RootPath, runtimeCfg)
	if err != nil {
		return nil, err
	}
	st.Start()

	p := newProject(projectID, st, c.cat, c.gen, c.checker, state.Options{
		ContextWindow: c.cfg.State.ContextWindow,
		DefaultConfig: c.cat.DefaultConfig(),
	})
	c.projects[projectID] = p
	return p, nil
}

// Close stops every open project store.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.projects {
		p.store.Stop()
	}
	c.projects = make(map[string]*Project)
}

func storeRuntimeConfig(cfg config.StoreConfig) (store.RuntimeConfig, error) {
	lockTimeout, err := config.DurationOrDefault(cfg.LockTimeout, config.DefaultStoreLockTimeout)
	if err != nil {
		return store.RuntimeConfig{}, apperrors.InvalidInput("invalid store lock_timeout: " + err.Error())
	}
	lockRetry, err := config.DurationOrDefault(cfg.LockRetry, config.DefaultStoreLockRetry)
	if err != nil {
		return store.RuntimeConfig{}, apperrors.InvalidInput("invalid store lock_retry: " + err.Error())
	}
	return store.RuntimeConfig{
		LockTimeout:  lockTimeout,
		LockRetry:    lockRetry,
		LockMaxRetry: cfg.LockMaxRetry,
		InboxSize:    cfg.InboxSize,
	}, nil
}
