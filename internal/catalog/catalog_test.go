package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/existflow/edugo/internal/model"
	"github.com/existflow/edugo/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sess = session.Session{Credential: "T", SubjectID: "U"}

var (
	goCourse = model.Course{ID: "c1", Title: "Intro to Go", Category: "Tecnología", Price: decimal.NewFromInt(10)}
	painting = model.Course{ID: "c2", Title: "Oil Painting", Category: "Artes y diseño", Price: decimal.NewFromInt(20)}
)

// fakeSource returns queued results; a result with a gate blocks until the gate closes
type fakeSource struct {
	mu      sync.Mutex
	results []fakeResult
	calls   int
}

type fakeResult struct {
	courses []model.Course
	err     error
	gate    chan struct{}
}

func (f *fakeSource) push(r fakeResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, r)
}

func (f *fakeSource) ListCourses(ctx context.Context, _ session.Session) ([]model.Course, error) {
	f.mu.Lock()
	r := f.results[0]
	f.results = f.results[1:]
	f.calls++
	f.mu.Unlock()

	if r.gate != nil {
		<-r.gate
	}
	return r.courses, r.err
}

func ids(courses []model.Course) []string {
	out := make([]string, 0, len(courses))
	for _, c := range courses {
		out = append(out, c.ID)
	}
	return out
}

func TestFilterScenarios(t *testing.T) {
	all := []model.Course{goCourse, painting}

	assert.Equal(t, []string{"c1"}, ids(Filter(all, "go", model.AllCategories)))
	assert.Equal(t, []string{"c2"}, ids(Filter(all, "", "Artes y diseño")))
	assert.Equal(t, []string{"c2"}, ids(Filter(all, "", "ARTES Y DISEÑO")))
	assert.Equal(t, []string{"c1", "c2"}, ids(Filter(all, "", model.AllCategories)))
	assert.Empty(t, Filter(all, "go", "Artes y diseño"))
	assert.NotNil(t, Filter(nil, "", model.AllCategories))
}

func TestFilterQueryIsVerbatim(t *testing.T) {
	all := []model.Course{goCourse}
	assert.Empty(t, Filter(all, " go ", model.AllCategories))
	assert.Len(t, Filter(all, "INTRO", model.AllCategories), 1)
}

func TestCategories(t *testing.T) {
	other := model.Course{ID: "c3", Title: "Rust", Category: "tecnología"}
	assert.Equal(t, []string{"Todos", "Tecnología", "Artes y diseño"}, Categories([]model.Course{goCourse, painting, other}))
}

func TestRefreshKeepsFilters(t *testing.T) {
	src := &fakeSource{}
	c := New(src)
	c.SetSearch("go")
	assert.Empty(t, c.Visible())

	src.push(fakeResult{courses: []model.Course{goCourse, painting}})
	applied, err := c.Refresh(context.Background(), sess)
	require.NoError(t, err)
	assert.True(t, applied)

	st := c.Snapshot()
	assert.Equal(t, "go", st.Query)
	assert.Equal(t, model.AllCategories, st.Category)
	assert.Equal(t, []string{"c1"}, ids(st.Visible))
	assert.Len(t, st.All, 2)
	assert.False(t, st.Loading)

	c.SetCategory("Artes y diseño")
	assert.Empty(t, c.Visible())
	c.SetSearch("")
	assert.Equal(t, []string{"c2"}, ids(c.Visible()))
	c.SetCategory("")
	assert.Equal(t, model.AllCategories, c.Snapshot().Category)
}

func TestRefreshFailureKeepsPreviousLists(t *testing.T) {
	src := &fakeSource{}
	c := New(src)

	src.push(fakeResult{courses: []model.Course{goCourse}})
	_, err := c.Refresh(context.Background(), sess)
	require.NoError(t, err)

	boom := errors.New("boom")
	src.push(fakeResult{err: boom})
	applied, err := c.Refresh(context.Background(), sess)
	assert.True(t, applied)
	assert.ErrorIs(t, err, boom)

	st := c.Snapshot()
	assert.ErrorIs(t, st.Err, boom)
	assert.Equal(t, []string{"c1"}, ids(st.All))
	assert.Equal(t, []string{"c1"}, ids(st.Visible))

	src.push(fakeResult{courses: []model.Course{painting}})
	_, err = c.Refresh(context.Background(), sess)
	require.NoError(t, err)
	assert.NoError(t, c.Snapshot().Err)
}

func TestStaleRefreshIsDiscarded(t *testing.T) {
	src := &fakeSource{}
	c := New(src)

	slow := make(chan struct{})
	src.push(fakeResult{courses: []model.Course{painting}, gate: slow})
	src.push(fakeResult{courses: []model.Course{goCourse}})

	var firstApplied atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		applied, _ := c.Refresh(context.Background(), sess)
		firstApplied.Store(applied)
	}()

	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.calls == 1
	}, time.Second, time.Millisecond)
	assert.True(t, c.Snapshot().Loading)

	applied, err := c.Refresh(context.Background(), sess)
	require.NoError(t, err)
	assert.True(t, applied)

	close(slow)
	<-done

	assert.False(t, firstApplied.Load())
	assert.Equal(t, []string{"c1"}, ids(c.Snapshot().All))
	assert.False(t, c.Snapshot().Loading)
}

func TestSnapshotIsACopy(t *testing.T) {
	src := &fakeSource{}
	c := New(src)
	src.push(fakeResult{courses: []model.Course{goCourse}})
	_, _ = c.Refresh(context.Background(), sess)

	st := c.Snapshot()
	st.Visible[0].Title = "mutated"
	assert.Equal(t, "Intro to Go", c.Visible()[0].Title)

	found, ok := c.Find("c1")
	require.True(t, ok)
	assert.Equal(t, "c1", found.ID)
}

type staticSessions struct{ ok bool }

func (s staticSessions) Current() (session.Session, bool) { return sess, s.ok }

func TestAutoRefreshTriggerDebounces(t *testing.T) {
	src := &fakeSource{}
	src.push(fakeResult{courses: []model.Course{goCourse}})
	c := New(src)

	a := NewAutoRefresh(c, staticSessions{ok: true}, 0)
	defer a.Stop()
	a.debounceTime = 10 * time.Millisecond

	got := make(chan State, 1)
	a.SetOnRefresh(func(st State) { got <- st })

	a.Trigger()
	a.Trigger()
	assert.True(t, a.IsPending())

	select {
	case st := <-got:
		assert.Equal(t, []string{"c1"}, ids(st.All))
	case <-time.After(time.Second):
		t.Fatal("refresh callback not called")
	}
	assert.Equal(t, 1, src.calls)
}

func TestAutoRefreshPollsOnlyWithSession(t *testing.T) {
	src := &fakeSource{}
	c := New(src)

	a := NewAutoRefresh(c, staticSessions{ok: false}, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	a.Stop()
	a.Stop()

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Zero(t, src.calls)
}
