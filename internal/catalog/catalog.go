// Package catalog caches the course list and derives the visible subset from search and category filters.
package catalog

import (
	"context"
	"slices"
	"sync"

	"github.com/existflow/edugo/internal/logger"
	"github.com/existflow/edugo/internal/model"
	"github.com/existflow/edugo/internal/session"
)

// Source fetches the full course list
type Source interface {
	ListCourses(ctx context.Context, sess session.Session) ([]model.Course, error)
}

// State is an immutable view of the catalog handed to observers
type State struct {
	All      []model.Course
	Visible  []model.Course
	Query    string
	Category string
	Loading  bool
	Err      error
}

// Catalog holds the last fetched list and the active filters.
// Filter changes apply synchronously and never touch the network.
type Catalog struct {
	src Source

	mu       sync.Mutex
	full     []model.Course
	visible  []model.Course
	query    string
	category string
	loading  bool
	err      error
	seq      uint64
}

// New creates an empty catalog with the category selector on AllCategories
func New(src Source) *Catalog {
	return &Catalog{
		src:      src,
		full:     []model.Course{},
		visible:  []model.Course{},
		category: model.AllCategories,
	}
}

// Refresh fetches the course list and replaces the cache wholesale under the
// current filters. Every call takes a new sequence number and only the most
// recently issued refresh may apply its result; an older one that completes
// later is discarded and reports applied=false. On failure the previous lists
// are kept and the error is recorded.
func (c *Catalog) Refresh(ctx context.Context, sess session.Session) (applied bool, err error) {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.loading = true
	c.mu.Unlock()

	courses, err := c.src.ListCourses(ctx, sess)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		logger.Debug("Discarding stale catalog refresh", logger.F("seq", seq), logger.F("latest", c.seq))
		return false, err
	}

	c.loading = false
	if err != nil {
		logger.Warn("Catalog refresh failed", logger.F("error", err))
		c.err = err
		return true, err
	}

	if courses == nil {
		courses = []model.Course{}
	}
	c.full = courses
	c.err = nil
	c.recompute()

	logger.Debug("Catalog refreshed",
		logger.F("total", len(c.full)),
		logger.F("visible", len(c.visible)))
	return true, nil
}

// SetSearch stores the search text verbatim and recomputes the visible list
func (c *Catalog) SetSearch(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = query
	c.recompute()
}

// SetCategory selects a category. An empty name selects AllCategories.
func (c *Catalog) SetCategory(category string) {
	if category == "" {
		category = model.AllCategories
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.category = category
	c.recompute()
}

// Visible returns a copy of the filtered list
func (c *Catalog) Visible() []model.Course {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.visible)
}

// Snapshot returns a copy of the whole state
func (c *Catalog) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		All:      slices.Clone(c.full),
		Visible:  slices.Clone(c.visible),
		Query:    c.query,
		Category: c.category,
		Loading:  c.loading,
		Err:      c.err,
	}
}

// Categories lists the categories present in the cached list
func (c *Catalog) Categories() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Categories(c.full)
}

// Find looks a cached course up by id
func (c *Catalog) Find(id string) (model.Course, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, course := range c.full {
		if course.ID == id {
			return course, true
		}
	}
	return model.Course{}, false
}

// recompute must be called with mu held
func (c *Catalog) recompute() {
	c.visible = Filter(c.full, c.query, c.category)
}
