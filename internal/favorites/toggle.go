// Package favorites implements the optimistic favorite flag for a single course.
package favorites

import (
	"context"
	"sync"
	"time"

	"github.com/existflow/edugo/internal/logger"
	"github.com/existflow/edugo/internal/session"
)

// Gateway is the subset of remote calls the toggle needs
type Gateway interface {
	IsFavorite(ctx context.Context, sess session.Session, courseID string) bool
	AddFavorite(ctx context.Context, sess session.Session, courseID string) error
	RemoveFavorite(ctx context.Context, sess session.Session, courseID string) error
}

// Toggle owns the local favorite flag for one course. Flips apply locally at
// once; a single background writer then brings the backend to the latest flag,
// one write at a time. A failed write is rolled back unless a newer flip has
// superseded it.
type Toggle struct {
	gw       Gateway
	courseID string
	timeout  time.Duration

	mu         sync.Mutex
	favorite   bool
	remote     bool // last flag the backend is known to hold
	generation uint64
	writing    bool
	sess       session.Session
	onRollback func(favorite bool, err error)
	wg         sync.WaitGroup
}

// New creates a toggle for courseID, initially not favorited
func New(gw Gateway, courseID string) *Toggle {
	return &Toggle{gw: gw, courseID: courseID, timeout: 30 * time.Second}
}

// CourseID returns the course this toggle controls
func (t *Toggle) CourseID() string {
	return t.courseID
}

// OnRollback registers a callback run after a failed write is reverted.
// It receives the restored flag and the write error.
func (t *Toggle) OnRollback(fn func(favorite bool, err error)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onRollback = fn
}

// Load reads the remote flag. A failed check reads as not favorited.
func (t *Toggle) Load(ctx context.Context, sess session.Session) bool {
	fav := t.gw.IsFavorite(ctx, sess, t.courseID)
	t.Set(fav)
	return fav
}

// Set overwrites the local flag without a remote call. The value is taken as
// what the backend holds.
func (t *Toggle) Set(favorite bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.favorite = favorite
	t.remote = favorite
	t.generation++
}

// IsFavorite returns the local flag
func (t *Toggle) IsFavorite() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.favorite
}

// Toggle flips the flag and returns the new value before the remote write
// completes. Without a valid session nothing changes.
func (t *Toggle) Toggle(ctx context.Context, sess session.Session) (bool, error) {
	if !sess.Valid() {
		return t.IsFavorite(), session.ErrNoSession
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.favorite = !t.favorite
	t.generation++
	t.sess = sess
	if !t.writing {
		t.writing = true
		t.wg.Add(1)
		// writes must outlive the caller's context
		go t.run(context.WithoutCancel(ctx))
	}
	return t.favorite, nil
}

// run writes until the backend matches the local flag or a write fails
// without being superseded
func (t *Toggle) run(ctx context.Context) {
	defer t.wg.Done()
	for {
		t.mu.Lock()
		if t.favorite == t.remote {
			t.writing = false
			t.mu.Unlock()
			return
		}
		want, gen, sess := t.favorite, t.generation, t.sess
		t.mu.Unlock()

		err := t.write(ctx, sess, want)

		t.mu.Lock()
		if err == nil {
			t.remote = want
			t.mu.Unlock()
			continue
		}
		if gen != t.generation {
			t.mu.Unlock()
			logger.Debug("Favorite write failed but was superseded",
				logger.F("course", t.courseID),
				logger.F("error", err))
			continue
		}
		t.favorite = t.remote
		t.writing = false
		restored := t.favorite
		callback := t.onRollback
		t.mu.Unlock()

		logger.Warn("Favorite write failed, reverted",
			logger.F("course", t.courseID),
			logger.F("favorite", restored),
			logger.F("error", err))

		if callback != nil {
			callback(restored, err)
		}
		return
	}
}

func (t *Toggle) write(ctx context.Context, sess session.Session, want bool) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	if want {
		return t.gw.AddFavorite(ctx, sess, t.courseID)
	}
	return t.gw.RemoveFavorite(ctx, sess, t.courseID)
}

// Wait blocks until all background writes have finished
func (t *Toggle) Wait() {
	t.wg.Wait()
}
