package state

import (
	"sync"

	"github.com/chorusd/chorus/internal/event"
)

// Cache memoizes the fold for one project. It only ever applies events with
// ids above LastAppliedID, so a warm cache and a cold rebuild of the same
// log converge on identical state.
type Cache struct {
	mu    sync.Mutex
	opts  Options
	state ProjectState
	warm  bool
}

func NewCache(opts Options) *Cache {
	return &Cache{opts: opts}
}

// LastAppliedID reports the id the cache is current through; zero when cold.
func (c *Cache) LastAppliedID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.warm {
		return 0
	}
	return c.state.LastAppliedID
}

// Advance folds events onto the cached state, skipping any at or below the
// cache's high-water mark, and returns a copy of the result.
func (c *Cache) Advance(events []event.Event) ProjectState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.warm {
		c.state = Empty(c.opts)
		c.warm = true
	}
	for _, e := range events {
		if e.ID <= c.state.LastAppliedID {
			continue
		}
		c.state = Apply(c.state, e, c.opts)
	}
	return Clone(c.state)
}

// Invalidate drops the memoized state; the next Advance rebuilds from empty.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warm = false
	c.state = ProjectState{}
}
