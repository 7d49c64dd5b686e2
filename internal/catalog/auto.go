package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/existflow/edugo/internal/session"
)

// SessionSource yields the active session, if any
type SessionSource interface {
	Current() (session.Session, bool)
}

// AutoRefresh polls the catalog in the background and debounces manual triggers
type AutoRefresh struct {
	catalog      *Catalog
	sessions     SessionSource
	debounceTime time.Duration
	pollInterval time.Duration
	timeout      time.Duration
	pending      bool
	mu           sync.Mutex
	stopCh       chan struct{}
	stopOnce     sync.Once
	onRefresh    func(State) // called after a refresh applied
}

// NewAutoRefresh starts polling every interval. A non-positive interval disables polling.
func NewAutoRefresh(c *Catalog, sessions SessionSource, interval time.Duration) *AutoRefresh {
	a := &AutoRefresh{
		catalog:      c,
		sessions:     sessions,
		debounceTime: 500 * time.Millisecond,
		pollInterval: interval,
		timeout:      30 * time.Second,
		stopCh:       make(chan struct{}),
	}

	if interval > 0 {
		go a.pollLoop()
	}

	return a
}

// SetOnRefresh sets the callback invoked with the new state after each applied refresh
func (a *AutoRefresh) SetOnRefresh(callback func(State)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onRefresh = callback
}

func (a *AutoRefresh) pollLoop() {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.refresh()
		case <-a.stopCh:
			return
		}
	}
}

func (a *AutoRefresh) refresh() {
	sess, ok := a.sessions.Current()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	applied, _ := a.catalog.Refresh(ctx, sess)
	if !applied {
		return
	}

	a.mu.Lock()
	callback := a.onRefresh
	a.mu.Unlock()

	if callback != nil {
		callback(a.catalog.Snapshot())
	}
}

// Trigger schedules a refresh after the debounce period. Calls during the
// period collapse into one refresh.
func (a *AutoRefresh) Trigger() {
	a.mu.Lock()
	if !a.pending {
		a.pending = true
		go a.debounced()
	}
	a.mu.Unlock()
}

func (a *AutoRefresh) debounced() {
	timer := time.NewTimer(a.debounceTime)
	defer timer.Stop()

	select {
	case <-timer.C:
		a.mu.Lock()
		a.pending = false
		a.mu.Unlock()
		a.refresh()
	case <-a.stopCh:
	}
}

// IsPending returns true if a debounced refresh is scheduled
func (a *AutoRefresh) IsPending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

// Stop ends polling and drops pending triggers. Safe to call more than once.
func (a *AutoRefresh) Stop() {
	a.stopOnce.Do(func() {
		close(a.stopCh)
	})
}
