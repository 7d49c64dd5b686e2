// Package checkout coordinates loading a course with the user's cards and enrolling with a simulated card.
package checkout

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/existflow/edugo/internal/logger"
	"github.com/existflow/edugo/internal/model"
	"github.com/existflow/edugo/internal/session"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrInsufficientFunds is the local fail-fast result when the card balance is below the price
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrLoadFailed is returned when either the course or the cards could not be loaded
	ErrLoadFailed = errors.New("could not load checkout data")
	// ErrPurchaseInProgress is returned when a purchase is requested while another is processing
	ErrPurchaseInProgress = errors.New("purchase already in progress")
	// ErrNotReady is returned when a purchase lacks a course, a card or a session
	ErrNotReady = errors.New("checkout is not ready")
	// ErrUnknownCard is returned when selecting a card that was not loaded
	ErrUnknownCard = errors.New("unknown card")
)

// Phase is the checkout state machine position
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseProcessing
	PhaseCompleted
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseProcessing:
		return "processing"
	case PhaseCompleted:
		return "completed"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Gateway is the subset of remote calls checkout needs
type Gateway interface {
	GetCourse(ctx context.Context, sess session.Session, id string) (model.Course, error)
	ListCards(ctx context.Context, sess session.Session) ([]model.Card, error)
	Enroll(ctx context.Context, sess session.Session, courseID string, price decimal.Decimal) error
}

// State is a snapshot of the orchestrator. Failed keeps whatever Ready data
// was loaded so the user can pick another card and retry.
type State struct {
	Phase    Phase
	Course   *model.Course
	Cards    []model.Card
	Selected *model.Card
	Err      error
}

// Orchestrator runs one checkout
type Orchestrator struct {
	gw Gateway

	mu       sync.Mutex
	phase    Phase
	course   *model.Course
	cards    []model.Card
	selected int
	err      error
	onChange func(State)
}

// New creates an idle orchestrator
func New(gw Gateway) *Orchestrator {
	return &Orchestrator{gw: gw, selected: -1}
}

// SetOnChange registers an observer called after every transition.
// fn runs with the orchestrator locked and must not call back into it.
func (o *Orchestrator) SetOnChange(fn func(State)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.onChange = fn
}

// Load fetches the course and the user's cards concurrently. Ready is reached
// only when both succeed; the first card is pre-selected.
func (o *Orchestrator) Load(ctx context.Context, sess session.Session, courseID string) error {
	o.mu.Lock()
	if o.phase == PhaseProcessing {
		o.mu.Unlock()
		return ErrPurchaseInProgress
	}
	o.phase = PhaseLoading
	o.course, o.cards, o.selected, o.err = nil, nil, -1, nil
	o.notifyLocked()
	o.mu.Unlock()

	var (
		course model.Course
		cards  []model.Card
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		course, err = o.gw.GetCourse(gctx, sess, courseID)
		return err
	})
	g.Go(func() error {
		var err error
		cards, err = o.gw.ListCards(gctx, sess)
		return err
	})
	err := g.Wait()

	o.mu.Lock()
	defer o.mu.Unlock()

	if err != nil {
		logger.Error("Checkout load failed", logger.F("course", courseID), logger.F("error", err))
		o.phase = PhaseFailed
		o.err = ErrLoadFailed
		o.notifyLocked()
		return ErrLoadFailed
	}

	o.course = &course
	o.cards = cards
	if len(cards) > 0 {
		o.selected = 0
	}
	o.phase = PhaseReady
	o.notifyLocked()
	return nil
}

// SelectCard overrides the selected card
func (o *Orchestrator) SelectCard(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.phase == PhaseProcessing {
		return ErrPurchaseInProgress
	}
	idx := slices.IndexFunc(o.cards, func(c model.Card) bool { return c.ID == id })
	if idx < 0 {
		return ErrUnknownCard
	}
	o.selected = idx
	if o.phase == PhaseFailed {
		o.phase, o.err = PhaseReady, nil
	}
	o.notifyLocked()
	return nil
}

// Purchase enrolls the session user with the selected card.
//
// Without a course, a card or a valid session it changes nothing and returns
// ErrNotReady. A balance below the price fails locally with
// ErrInsufficientFunds and no remote call. A backend rejection is returned
// as-is. On success onSuccess is called exactly once with the course.
func (o *Orchestrator) Purchase(ctx context.Context, sess session.Session, onSuccess func(model.Course)) error {
	o.mu.Lock()
	if o.phase == PhaseProcessing {
		o.mu.Unlock()
		return ErrPurchaseInProgress
	}
	if o.course == nil || o.selected < 0 || !sess.Valid() ||
		(o.phase != PhaseReady && o.phase != PhaseFailed) {
		o.mu.Unlock()
		return ErrNotReady
	}

	course := *o.course
	card := o.cards[o.selected]

	if !card.Covers(course.Price) {
		o.phase = PhaseFailed
		o.err = ErrInsufficientFunds
		o.notifyLocked()
		o.mu.Unlock()
		logger.Info("Purchase rejected locally",
			logger.F("course", course.ID),
			logger.F("price", course.Price.String()),
			logger.F("balance", card.Balance.String()))
		return ErrInsufficientFunds
	}

	o.phase, o.err = PhaseProcessing, nil
	o.notifyLocked()
	o.mu.Unlock()

	err := o.gw.Enroll(ctx, sess, course.ID, course.Price)

	o.mu.Lock()
	if err != nil {
		o.phase = PhaseFailed
		o.err = err
		o.notifyLocked()
		o.mu.Unlock()
		logger.Error("Enrollment failed", logger.F("course", course.ID), logger.F("error", err))
		return err
	}
	o.phase = PhaseCompleted
	o.notifyLocked()
	o.mu.Unlock()

	logger.Info("Enrollment completed", logger.F("course", course.ID), logger.F("price", course.Price.String()))
	if onSuccess != nil {
		onSuccess(course)
	}
	return nil
}

// Snapshot returns a copy of the current state
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() State {
	st := State{
		Phase: o.phase,
		Cards: slices.Clone(o.cards),
		Err:   o.err,
	}
	if o.course != nil {
		c := *o.course
		st.Course = &c
	}
	if o.selected >= 0 && o.selected < len(o.cards) {
		card := o.cards[o.selected]
		st.Selected = &card
	}
	return st
}

// notifyLocked must be called with mu held
func (o *Orchestrator) notifyLocked() {
	if o.onChange != nil {
		o.onChange(o.snapshotLocked())
	}
}
