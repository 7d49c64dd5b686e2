package tui

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/edugo/internal/model"
	"github.com/existflow/edugo/internal/notify"
	"github.com/existflow/edugo/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu        sync.Mutex
	courses   []model.Course
	cards     []model.Card
	enrolled  map[string]bool
	favorites map[string]bool
	favErr    error
}

func newBackend() *fakeBackend {
	return &fakeBackend{
		courses: []model.Course{
			{ID: "c1", Title: "Intro to Go", Category: "Tecnología", Price: decimal.NewFromInt(10),
				Sections: []model.Section{{ID: "s1", Name: "Basics", Tasks: []model.Task{
					{ID: "t1", Title: "Hello", Resources: []model.Resource{{ID: "r1", Kind: model.KindVideo, URL: "https://v/1"}}},
					{ID: "t2", Title: "Types", Resources: []model.Resource{}},
				}}}},
			{ID: "c2", Title: "Oil Painting", Category: "Artes y diseño", Price: decimal.RequireFromString("25.50"), Sections: []model.Section{}},
			{ID: "c3", Title: "Go Concurrency", Category: "Tecnología", Price: decimal.NewFromInt(600), Sections: []model.Section{}},
		},
		cards:     []model.Card{{ID: "k1", Number: "4111111111111111", Balance: decimal.NewFromInt(500)}},
		enrolled:  map[string]bool{},
		favorites: map[string]bool{},
	}
}

func (f *fakeBackend) ListCourses(context.Context, session.Session) ([]model.Course, error) {
	return f.courses, nil
}

func (f *fakeBackend) GetCourse(_ context.Context, _ session.Session, id string) (model.Course, error) {
	for _, c := range f.courses {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Course{}, errors.New("not found")
}

func (f *fakeBackend) ListCards(context.Context, session.Session) ([]model.Card, error) {
	return f.cards, nil
}

func (f *fakeBackend) Enroll(_ context.Context, _ session.Session, courseID string, _ decimal.Decimal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enrolled[courseID] = true
	return nil
}

func (f *fakeBackend) IsEnrolled(_ context.Context, _ session.Session, courseID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enrolled[courseID]
}

func (f *fakeBackend) IsFavorite(_ context.Context, _ session.Session, courseID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.favorites[courseID]
}

func (f *fakeBackend) AddFavorite(_ context.Context, _ session.Session, courseID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.favErr != nil {
		return f.favErr
	}
	f.favorites[courseID] = true
	return nil
}

func (f *fakeBackend) RemoveFavorite(_ context.Context, _ session.Session, courseID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.favErr != nil {
		return f.favErr
	}
	delete(f.favorites, courseID)
	return nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notify.Notice
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return nil
}

func newTestModel(t *testing.T, gw *fakeBackend, loggedIn bool) Model {
	t.Helper()
	ctx := context.Background()
	store, err := session.Open(ctx, &session.MemoryPersister{})
	require.NoError(t, err)
	if loggedIn {
		require.NoError(t, store.Login(ctx, session.Session{Credential: "tok", SubjectID: "u1"}))
	}

	m := NewModel(Deps{Gateway: gw, Sessions: store, Notifier: &recordingNotifier{}})
	t.Cleanup(m.Close)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

// send feeds msg to the model and runs the returned command once, feeding its
// message back when it is one the model produces itself
func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		return m
	}
	switch out := cmd().(type) {
	case refreshedMsg, detailMsg, checkoutLoadedMsg, purchaseMsg:
		next, _ = m.Update(out)
		m = next.(Model)
	}
	return m
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loaded(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(m.refreshCatalog()())
	return next.(Model)
}

func TestInitialLoadShowsAllCourses(t *testing.T) {
	m := loaded(t, newTestModel(t, newBackend(), true))

	assert.Len(t, m.catalog.Visible(), 3)
	assert.Equal(t, []string{model.AllCategories, "Tecnología", "Artes y diseño"}, m.categories())
	assert.Contains(t, m.View(), "Intro to Go")
}

func TestLoggedOutSkipsLoad(t *testing.T) {
	m := newTestModel(t, newBackend(), false)

	assert.Nil(t, m.refreshCatalog())
	assert.Contains(t, m.View(), "edugo auth login")
}

func TestCategoryCycling(t *testing.T) {
	m := loaded(t, newTestModel(t, newBackend(), true))

	m = send(t, m, keyRunes("c"))
	assert.Equal(t, "Tecnología", m.catalog.Snapshot().Category)
	assert.Len(t, m.catalog.Visible(), 2)

	m = send(t, m, keyRunes("c"))
	assert.Equal(t, "Artes y diseño", m.catalog.Snapshot().Category)
	assert.Len(t, m.catalog.Visible(), 1)

	m = send(t, m, keyRunes("c"))
	assert.Equal(t, model.AllCategories, m.catalog.Snapshot().Category)
	assert.Len(t, m.catalog.Visible(), 3)
}

func TestSearchFiltersWhileTyping(t *testing.T) {
	m := loaded(t, newTestModel(t, newBackend(), true))

	m = send(t, m, keyRunes("/"))
	require.Equal(t, ModeSearch, m.mode)

	m = send(t, m, keyRunes("go"))
	assert.Equal(t, "go", m.catalog.Snapshot().Query)
	assert.Len(t, m.catalog.Visible(), 2)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModeNormal, m.mode)
	assert.Len(t, m.catalog.Visible(), 2)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.catalog.Snapshot().Query)
	assert.Len(t, m.catalog.Visible(), 3)
}

func TestOpenDetailAndToggleFavorite(t *testing.T) {
	gw := newBackend()
	m := loaded(t, newTestModel(t, gw, true))

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ModeDetail, m.mode)
	require.NotNil(t, m.detail)
	assert.Equal(t, "c1", m.detail.Course.ID)
	assert.False(t, m.detail.Enrolled)
	assert.Nil(t, m.player)

	m = send(t, m, keyRunes("f"))
	assert.True(t, m.favorite.IsFavorite())
	m.favorite.Wait()
	assert.True(t, gw.IsFavorite(context.Background(), session.Session{}, "c1"))

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeNormal, m.mode)
}

func TestFavoriteRollbackReportsError(t *testing.T) {
	gw := newBackend()
	gw.favErr = errors.New("boom")
	m := loaded(t, newTestModel(t, gw, true))

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = send(t, m, keyRunes("f"))
	m.favorite.Wait()
	assert.False(t, m.favorite.IsFavorite())

	// leaving the page does not hide the failure
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	next, _ := m.Update(m.waitForRollback()())
	m = next.(Model)
	assert.Contains(t, m.message, "boom")
	assert.Contains(t, m.message, "Intro to Go")
}

func TestStaleDetailLoadIsDropped(t *testing.T) {
	m := loaded(t, newTestModel(t, newBackend(), true))

	next, first := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, first)
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m = send(t, m, keyRunes("j"))
	next, second := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, second)

	// the first course resolves after the second was opened
	next, _ = m.Update(first())
	m = next.(Model)
	assert.Nil(t, m.detail)
	assert.Nil(t, m.favorite)

	next, _ = m.Update(second())
	m = next.(Model)
	require.NotNil(t, m.detail)
	assert.Equal(t, "c2", m.detail.Course.ID)
	assert.Equal(t, "c2", m.favorite.CourseID())
}

func TestCheckoutPurchase(t *testing.T) {
	gw := newBackend()
	m := loaded(t, newTestModel(t, gw, true))

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = send(t, m, keyRunes("b"))
	require.Equal(t, ModeCheckout, m.mode)
	require.NotNil(t, m.checkout.Snapshot().Selected)
	assert.Contains(t, m.View(), "VISA")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModeDetail, m.mode)
	assert.True(t, m.detail.Enrolled)
	assert.Contains(t, m.message, "Purchase successful!")
	assert.Contains(t, m.message, "$10.00")
	assert.True(t, gw.IsEnrolled(context.Background(), session.Session{}, "c1"))

	// owned courses expose their content
	require.NotNil(t, m.player)
	url, ok := m.player.VideoURL()
	require.True(t, ok)
	assert.Equal(t, "https://v/1", url)

	m = send(t, m, keyRunes("j"))
	task, _ := m.player.Selected()
	assert.Equal(t, "t2", task.ID)
}

func TestCheckoutInsufficientFunds(t *testing.T) {
	gw := newBackend()
	m := loaded(t, newTestModel(t, gw, true))

	// Go Concurrency costs 600
	m = send(t, m, keyRunes("G"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, "c3", m.detail.Course.ID)
	m = send(t, m, keyRunes("b"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ModeCheckout, m.mode)
	assert.Contains(t, m.message, "Insufficient balance")
	assert.False(t, gw.IsEnrolled(context.Background(), session.Session{}, "c3"))
}

func TestLogoutResetsView(t *testing.T) {
	m := loaded(t, newTestModel(t, newBackend(), true))

	m = send(t, m, keyRunes("L"))
	msg := m.waitForSession()()
	next, _ := m.Update(msg)
	m = next.(Model)

	assert.False(t, m.loggedIn)
	assert.Equal(t, "Logged out", m.message)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
	assert.Equal(t, "Artes y...", truncate("Artes y diseño", 10))
}
