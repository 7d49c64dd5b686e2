package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/existflow/edugo/internal/model"
	"github.com/existflow/edugo/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sess = session.Session{Credential: "T", SubjectID: "U"}

type fakeGateway struct {
	mu         sync.Mutex
	course     model.Course
	courseErr  error
	cards      []model.Card
	cardsErr   error
	enrollErr  error
	enrolls    int
	enrollHook func()
}

func (f *fakeGateway) GetCourse(context.Context, session.Session, string) (model.Course, error) {
	return f.course, f.courseErr
}

func (f *fakeGateway) ListCards(context.Context, session.Session) ([]model.Card, error) {
	return f.cards, f.cardsErr
}

func (f *fakeGateway) Enroll(context.Context, session.Session, string, decimal.Decimal) error {
	f.mu.Lock()
	f.enrolls++
	hook := f.enrollHook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return f.enrollErr
}

func newGateway(price int64, balances ...int64) *fakeGateway {
	gw := &fakeGateway{course: model.Course{ID: "c1", Title: "Intro to Go", Price: decimal.NewFromInt(price)}}
	for i, b := range balances {
		gw.cards = append(gw.cards, model.Card{ID: string(rune('a' + i)), Balance: decimal.NewFromInt(b)})
	}
	return gw
}

func TestLoadSelectsFirstCard(t *testing.T) {
	o := New(newGateway(10, 50, 5))
	assert.Equal(t, PhaseIdle, o.Snapshot().Phase)

	require.NoError(t, o.Load(context.Background(), sess, "c1"))
	st := o.Snapshot()
	assert.Equal(t, PhaseReady, st.Phase)
	require.NotNil(t, st.Selected)
	assert.Equal(t, "a", st.Selected.ID)
	assert.Len(t, st.Cards, 2)

	require.NoError(t, o.SelectCard("b"))
	assert.Equal(t, "b", o.Snapshot().Selected.ID)
	assert.ErrorIs(t, o.SelectCard("zzz"), ErrUnknownCard)
}

func TestLoadFailsIfEitherCallFails(t *testing.T) {
	gw := newGateway(10, 50)
	gw.cardsErr = errors.New("cards down")
	o := New(gw)
	assert.ErrorIs(t, o.Load(context.Background(), sess, "c1"), ErrLoadFailed)
	st := o.Snapshot()
	assert.Equal(t, PhaseFailed, st.Phase)
	assert.ErrorIs(t, st.Err, ErrLoadFailed)
	assert.Nil(t, st.Course)

	gw = newGateway(10, 50)
	gw.courseErr = errors.New("course down")
	o = New(gw)
	assert.ErrorIs(t, o.Load(context.Background(), sess, "c1"), ErrLoadFailed)
}

func TestInsufficientFundsMakesNoRemoteCall(t *testing.T) {
	gw := newGateway(10, 5)
	o := New(gw)
	require.NoError(t, o.Load(context.Background(), sess, "c1"))

	called := 0
	err := o.Purchase(context.Background(), sess, func(model.Course) { called++ })
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	st := o.Snapshot()
	assert.Equal(t, PhaseFailed, st.Phase)
	assert.ErrorIs(t, st.Err, ErrInsufficientFunds)
	assert.NotNil(t, st.Course)
	assert.Zero(t, gw.enrolls)
	assert.Zero(t, called)
}

func TestExactBalanceIsEnough(t *testing.T) {
	gw := newGateway(10, 10)
	o := New(gw)
	require.NoError(t, o.Load(context.Background(), sess, "c1"))
	require.NoError(t, o.Purchase(context.Background(), sess, nil))
	assert.Equal(t, PhaseCompleted, o.Snapshot().Phase)
}

func TestSuccessCallsContinuationOnce(t *testing.T) {
	gw := newGateway(10, 50)
	o := New(gw)
	require.NoError(t, o.Load(context.Background(), sess, "c1"))

	var got []model.Course
	require.NoError(t, o.Purchase(context.Background(), sess, func(c model.Course) { got = append(got, c) }))

	assert.Equal(t, PhaseCompleted, o.Snapshot().Phase)
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, 1, gw.enrolls)

	// a completed checkout does not enroll twice
	assert.ErrorIs(t, o.Purchase(context.Background(), sess, nil), ErrNotReady)
	assert.Equal(t, 1, gw.enrolls)
}

func TestBackendRejectionIsSurfacedVerbatim(t *testing.T) {
	gw := newGateway(10, 50)
	rejection := errors.New(`{"code":"42501","message":"new row violates row-level security policy"}`)
	gw.enrollErr = rejection
	o := New(gw)
	require.NoError(t, o.Load(context.Background(), sess, "c1"))

	called := false
	err := o.Purchase(context.Background(), sess, func(model.Course) { called = true })
	assert.Equal(t, rejection, err)
	st := o.Snapshot()
	assert.Equal(t, PhaseFailed, st.Phase)
	assert.Equal(t, rejection, st.Err)
	assert.False(t, called)

	// retry from Failed after the backend recovers
	gw.enrollErr = nil
	require.NoError(t, o.Purchase(context.Background(), sess, nil))
	assert.Equal(t, PhaseCompleted, o.Snapshot().Phase)
}

func TestPurchaseNoOpsWithoutPrerequisites(t *testing.T) {
	gw := newGateway(10)
	o := New(gw)

	assert.ErrorIs(t, o.Purchase(context.Background(), sess, nil), ErrNotReady)
	assert.Equal(t, PhaseIdle, o.Snapshot().Phase)

	require.NoError(t, o.Load(context.Background(), sess, "c1"))
	assert.Nil(t, o.Snapshot().Selected)
	assert.ErrorIs(t, o.Purchase(context.Background(), sess, nil), ErrNotReady)
	assert.Equal(t, PhaseReady, o.Snapshot().Phase)

	gw = newGateway(10, 50)
	o = New(gw)
	require.NoError(t, o.Load(context.Background(), sess, "c1"))
	assert.ErrorIs(t, o.Purchase(context.Background(), session.Session{}, nil), ErrNotReady)
	assert.Zero(t, gw.enrolls)
}

func TestReentryWhileProcessing(t *testing.T) {
	gw := newGateway(10, 50)
	o := New(gw)
	require.NoError(t, o.Load(context.Background(), sess, "c1"))

	var reentry error
	gw.enrollHook = func() {
		reentry = o.Purchase(context.Background(), sess, nil)
		assert.Equal(t, PhaseProcessing, o.Snapshot().Phase)
	}

	require.NoError(t, o.Purchase(context.Background(), sess, nil))
	assert.ErrorIs(t, reentry, ErrPurchaseInProgress)
	assert.Equal(t, 1, gw.enrolls)
}

func TestOnChangeSeesTransitions(t *testing.T) {
	o := New(newGateway(10, 50))
	var phases []Phase
	o.SetOnChange(func(st State) { phases = append(phases, st.Phase) })

	require.NoError(t, o.Load(context.Background(), sess, "c1"))
	require.NoError(t, o.Purchase(context.Background(), sess, nil))

	assert.Equal(t, []Phase{PhaseLoading, PhaseReady, PhaseProcessing, PhaseCompleted}, phases)
	assert.Equal(t, "completed", PhaseCompleted.String())
}
