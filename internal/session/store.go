package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/existflow/edugo/internal/logger"
)

// Store owns the in-memory session and keeps the persisted copy in step
type Store struct {
	mu        sync.RWMutex
	current   Session
	persister Persister
	watchers  map[int]chan Session
	nextWatch int
}

// Open creates a store and seeds it from the persisted copy when complete
func Open(ctx context.Context, p Persister) (*Store, error) {
	st := &Store{
		persister: p,
		watchers:  make(map[int]chan Session),
	}

	s, ok, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if ok {
		st.current = s
		logger.Debug("Restored persisted session", logger.F("subject", s.SubjectID))
	}

	return st, nil
}

// Current returns the active session; ok is false when logged out
func (st *Store) Current() (Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current, st.current.Valid()
}

// Require returns the active session or ErrNoSession
func (st *Store) Require() (Session, error) {
	s, ok := st.Current()
	if !ok {
		return Session{}, ErrNoSession
	}
	return s, nil
}

// Login persists s and then makes it the active session
func (st *Store) Login(ctx context.Context, s Session) error {
	if !s.Valid() {
		return ErrIncomplete
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if err := st.persister.Save(ctx, s); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	st.current = s
	st.broadcast()

	logger.Info("Session started", logger.F("subject", s.SubjectID))
	return nil
}

// Logout clears the active session and the persisted copy.
// The in-memory session is cleared even when the persisted copy cannot be.
func (st *Store) Logout(ctx context.Context) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.current = Session{}
	st.broadcast()

	if err := st.persister.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear persisted session: %w", err)
	}

	logger.Info("Session cleared")
	return nil
}

// Watch returns a channel carrying the latest session after each change.
// Slow readers only ever see the most recent value. Call cancel to stop.
func (st *Store) Watch() (<-chan Session, func()) {
	st.mu.Lock()
	defer st.mu.Unlock()

	id := st.nextWatch
	st.nextWatch++
	ch := make(chan Session, 1)
	st.watchers[id] = ch

	cancel := func() {
		st.mu.Lock()
		defer st.mu.Unlock()
		if c, ok := st.watchers[id]; ok {
			delete(st.watchers, id)
			close(c)
		}
	}
	return ch, cancel
}

// broadcast must be called with mu held
func (st *Store) broadcast() {
	for _, ch := range st.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- st.current
	}
}
