package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/existflow/edugo/internal/catalog"
	"github.com/existflow/edugo/internal/checkout"
	"github.com/existflow/edugo/internal/course"
	"github.com/existflow/edugo/internal/favorites"
	"github.com/existflow/edugo/internal/logger"
	"github.com/existflow/edugo/internal/model"
	"github.com/existflow/edugo/internal/notify"
	"github.com/existflow/edugo/internal/session"
	"github.com/shopspring/decimal"
)

// Backend is every remote call the TUI makes
type Backend interface {
	ListCourses(ctx context.Context, sess session.Session) ([]model.Course, error)
	GetCourse(ctx context.Context, sess session.Session, id string) (model.Course, error)
	ListCards(ctx context.Context, sess session.Session) ([]model.Card, error)
	Enroll(ctx context.Context, sess session.Session, courseID string, price decimal.Decimal) error
	IsEnrolled(ctx context.Context, sess session.Session, courseID string) bool
	IsFavorite(ctx context.Context, sess session.Session, courseID string) bool
	AddFavorite(ctx context.Context, sess session.Session, courseID string) error
	RemoveFavorite(ctx context.Context, sess session.Session, courseID string) error
}

// Deps wires the TUI to the backend and the session. Gateway and Sessions are required.
type Deps struct {
	Gateway         Backend
	Sessions        *session.Store
	Notifier        notify.Notifier
	RefreshInterval time.Duration
	Timeout         time.Duration
}

// Pane represents which pane is focused
type Pane int

const (
	PaneCategories Pane = iota
	PaneCourses
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
	ModeDetail
	ModeCheckout
	ModeHelp
)

// Model is the main TUI model
type Model struct {
	deps Deps

	// Catalog
	catalog     *catalog.Catalog
	auto        *catalog.AutoRefresh
	refreshChan chan catalog.State // Applied background refreshes

	// Session
	sess        session.Session
	loggedIn    bool
	sessionChan <-chan session.Session
	unwatch     func()

	// Detail page
	detailSeq  uint64 // Bumped per open; older loads are dropped
	detail     *course.Detail
	favorite   *favorites.Toggle
	rollbackCh chan rollbackMsg
	player     *course.Player
	tasks      []model.Task // Flattened section tasks, in order
	taskCursor int

	// Checkout page
	checkout   *checkout.Orchestrator
	cardCursor int

	// UI state
	width        int
	height       int
	pane         Pane
	mode         Mode
	catCursor    int
	courseCursor int
	loading      bool

	// Input
	input textinput.Model

	message string
}

// NewModel creates a new TUI model
func NewModel(deps Deps) Model {
	logger.Info("Initializing TUI model")

	if deps.Timeout <= 0 {
		deps.Timeout = 30 * time.Second
	}

	ti := textinput.New()
	ti.Placeholder = "Search courses..."
	ti.CharLimit = 128
	ti.Width = 40

	m := Model{
		deps:        deps,
		catalog:     catalog.New(deps.Gateway),
		refreshChan: make(chan catalog.State, 1), // Buffered to avoid blocking
		rollbackCh:  make(chan rollbackMsg, 1),
		pane:        PaneCourses,
		mode:        ModeNormal,
		input:       ti,
	}

	m.sess, m.loggedIn = deps.Sessions.Current()
	m.sessionChan, m.unwatch = deps.Sessions.Watch()

	m.auto = catalog.NewAutoRefresh(m.catalog, deps.Sessions, deps.RefreshInterval)
	refreshChan := m.refreshChan
	m.auto.SetOnRefresh(func(st catalog.State) {
		logger.Debug("Auto-refresh callback triggered", logger.F("visible", len(st.Visible)))
		// Keep only the newest state
		select {
		case refreshChan <- st:
		default:
			select {
			case <-refreshChan:
			default:
			}
			select {
			case refreshChan <- st:
			default:
			}
		}
	})

	if !m.loggedIn {
		m.message = "Not logged in. Run 'edugo auth login' first."
	}
	return m
}

// categories returns the selector entries, "Todos" first
func (m *Model) categories() []string {
	return m.catalog.Categories()
}

func (m *Model) currentCategory() string {
	cats := m.categories()
	if m.catCursor < len(cats) {
		return cats[m.catCursor]
	}
	return model.AllCategories
}

// syncCategoryCursor points the category cursor at the catalog's active category
func (m *Model) syncCategoryCursor() {
	active := m.catalog.Snapshot().Category
	for i, c := range m.categories() {
		if c == active {
			m.catCursor = i
			return
		}
	}
	m.catCursor = 0
}

func (m *Model) currentCourse() *model.Course {
	visible := m.catalog.Visible()
	if m.courseCursor < len(visible) {
		c := visible[m.courseCursor]
		return &c
	}
	return nil
}

// clampCursors keeps both cursors inside their lists after the data changed
func (m *Model) clampCursors() {
	m.syncCategoryCursor()
	if n := len(m.catalog.Visible()); m.courseCursor >= n {
		m.courseCursor = max(n-1, 0)
	}
}

// Close stops background work
func (m *Model) Close() {
	m.auto.Stop()
	if m.unwatch != nil {
		m.unwatch()
	}
}
