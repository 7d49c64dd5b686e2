// Package course loads a course for its detail page and drives the content player.
package course

import (
	"context"
	"errors"

	"github.com/existflow/edugo/internal/media"
	"github.com/existflow/edugo/internal/model"
	"github.com/existflow/edugo/internal/session"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNotEnrolled is returned when opening content for a course the user has not bought
	ErrNotEnrolled = errors.New("you are not enrolled in this course")
	// ErrUnknownTask is returned when selecting a task the course does not contain
	ErrUnknownTask = errors.New("unknown task")
)

// Gateway is the subset of remote calls the course views need
type Gateway interface {
	GetCourse(ctx context.Context, sess session.Session, id string) (model.Course, error)
	IsEnrolled(ctx context.Context, sess session.Session, courseID string) bool
	IsFavorite(ctx context.Context, sess session.Session, courseID string) bool
}

// Detail is everything the detail page shows
type Detail struct {
	Course   model.Course
	Enrolled bool
	Favorite bool
}

// LoadDetail fetches the course and both membership flags concurrently.
// Only the course fetch can fail; the flags degrade to false.
func LoadDetail(ctx context.Context, gw Gateway, sess session.Session, id string) (Detail, error) {
	var d Detail

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := gw.GetCourse(gctx, sess, id)
		d.Course = c
		return err
	})
	g.Go(func() error {
		d.Enrolled = gw.IsEnrolled(gctx, sess, id)
		return nil
	})
	g.Go(func() error {
		d.Favorite = gw.IsFavorite(gctx, sess, id)
		return nil
	})

	if err := g.Wait(); err != nil {
		return Detail{}, err
	}
	return d, nil
}

// Player tracks the selected task of an enrolled course
type Player struct {
	course   model.Course
	selected model.Task
	hasTask  bool
}

// OpenPlayer loads the course content. It refuses courses the user is not
// enrolled in and auto-selects the first task.
func OpenPlayer(ctx context.Context, gw Gateway, sess session.Session, id string) (*Player, error) {
	d, err := LoadDetail(ctx, gw, sess, id)
	if err != nil {
		return nil, err
	}
	if !d.Enrolled {
		return nil, ErrNotEnrolled
	}
	return NewPlayer(d.Course), nil
}

// NewPlayer wraps an already loaded course
func NewPlayer(c model.Course) *Player {
	p := &Player{course: c}
	p.selected, p.hasTask = c.FirstTask()
	return p
}

// Course returns the loaded course
func (p *Player) Course() model.Course {
	return p.course
}

// Selected returns the selected task, if the course has any
func (p *Player) Selected() (model.Task, bool) {
	return p.selected, p.hasTask
}

// Select switches to another task
func (p *Player) Select(taskID string) error {
	t, ok := p.course.FindTask(taskID)
	if !ok {
		return ErrUnknownTask
	}
	p.selected, p.hasTask = t, true
	return nil
}

// VideoURL returns the streamable URL of the selected task's video
func (p *Player) VideoURL() (string, bool) {
	if !p.hasTask {
		return "", false
	}
	v, ok := p.selected.Video()
	if !ok || !v.Openable() {
		return "", false
	}
	return media.StreamableURL(v.Target()), true
}

// Attachments returns the selected task's openable non-video resources
func (p *Player) Attachments() []model.Resource {
	if !p.hasTask {
		return nil
	}
	var out []model.Resource
	for _, r := range p.selected.Resources {
		if r.Kind != model.KindVideo && r.Openable() {
			out = append(out, r)
		}
	}
	return out
}
