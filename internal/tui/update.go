package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/edugo/internal/catalog"
	"github.com/existflow/edugo/internal/checkout"
	"github.com/existflow/edugo/internal/course"
	"github.com/existflow/edugo/internal/favorites"
	"github.com/existflow/edugo/internal/logger"
	"github.com/existflow/edugo/internal/model"
	"github.com/existflow/edugo/internal/notify"
	"github.com/existflow/edugo/internal/session"
)

// tickMsg is sent every second for the header clock
type tickMsg time.Time

// refreshedMsg carries the result of a direct catalog refresh
type refreshedMsg struct {
	applied bool
	err     error
}

// autoRefreshMsg is sent when a background refresh applied
type autoRefreshMsg catalog.State

// sessionMsg is sent when the user logs in or out
type sessionMsg struct {
	sess   session.Session
	closed bool
}

// detailMsg carries a loaded detail page
type detailMsg struct {
	seq    uint64
	id     string
	detail course.Detail
	err    error
}

// rollbackMsg is sent when a favorite write failed and was reverted
type rollbackMsg struct {
	courseID string
	favorite bool
	err      error
}

// checkoutLoadedMsg is sent when checkout data arrived
type checkoutLoadedMsg struct {
	err error
}

// purchaseMsg carries the purchase outcome
type purchaseMsg struct {
	course model.Course
	err    error
}

// Init starts the clock, the first catalog load and the background listeners
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.refreshCatalog(),
		m.waitForAutoRefresh(),
		m.waitForSession(),
		m.waitForRollback(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.deps.Timeout)
}

// refreshCatalog reloads the course list right away
func (m Model) refreshCatalog() tea.Cmd {
	if !m.loggedIn {
		return nil
	}
	c, sess := m.catalog, m.sess
	ctx, cancel := m.context()
	return func() tea.Msg {
		defer cancel()
		applied, err := c.Refresh(ctx, sess)
		return refreshedMsg{applied: applied, err: err}
	}
}

// waitForAutoRefresh listens for background refreshes
func (m Model) waitForAutoRefresh() tea.Cmd {
	ch := m.refreshChan
	return func() tea.Msg {
		return autoRefreshMsg(<-ch)
	}
}

// waitForSession listens for login and logout
func (m Model) waitForSession() tea.Cmd {
	ch := m.sessionChan
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		return sessionMsg{sess: s, closed: !ok}
	}
}

// waitForRollback listens for reverted favorite writes
func (m Model) waitForRollback() tea.Cmd {
	ch := m.rollbackCh
	return func() tea.Msg {
		return <-ch
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, tickCmd()

	case refreshedMsg:
		if !msg.applied {
			// A newer refresh owns the result
			return m, nil
		}
		m.loading = false
		m.clampCursors()
		if msg.err != nil {
			m.message = "Failed to load courses: " + errorText(msg.err)
		}
		return m, nil

	case autoRefreshMsg:
		m.loading = false
		m.clampCursors()
		m.message = fmt.Sprintf("Catalog refreshed (%d courses)", len(msg.All))
		return m, m.waitForAutoRefresh()

	case sessionMsg:
		if msg.closed {
			return m, nil
		}
		return m.handleSession(msg.sess)

	case detailMsg:
		return m.handleDetailLoaded(msg)

	case rollbackMsg:
		// the user may have left the page by now, so name the course
		if c, ok := m.catalog.Find(msg.courseID); ok {
			m.message = fmt.Sprintf("Could not update favorite for %s: %s", c.Title, errorText(msg.err))
		} else {
			m.message = "Could not update favorite: " + errorText(msg.err)
		}
		return m, m.waitForRollback()

	case checkoutLoadedMsg:
		if msg.err != nil {
			m.message = "Could not load checkout: " + errorText(msg.err)
			return m, nil
		}
		m.cardCursor = 0
		if len(m.checkout.Snapshot().Cards) == 0 {
			m.message = "No cards on file. Add one with 'edugo cards add'."
		}
		return m, nil

	case purchaseMsg:
		return m.handlePurchased(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Handle mode-specific input
		switch m.mode {
		case ModeSearch:
			return m.updateSearch(msg)
		case ModeDetail:
			return m.handleDetailKeys(msg)
		case ModeCheckout:
			return m.handleCheckoutKeys(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}

		// Normal mode key handling
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

// handleNormalKeys handles key presses in the catalog view
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, keys.Tab):
		if m.pane == PaneCategories {
			m.pane = PaneCourses
		} else {
			m.pane = PaneCategories
		}

	case key.Matches(msg, keys.Left):
		m.pane = PaneCategories

	case key.Matches(msg, keys.Right):
		m.pane = PaneCourses

	case key.Matches(msg, keys.Up):
		m.handleUp()

	case key.Matches(msg, keys.Down):
		m.handleDown()

	case msg.String() == "G":
		if m.pane == PaneCourses {
			m.courseCursor = max(len(m.catalog.Visible())-1, 0)
		}

	case key.Matches(msg, keys.Category):
		m.cycleCategory()

	case key.Matches(msg, keys.Search):
		m.mode = ModeSearch
		m.input.SetValue(m.catalog.Snapshot().Query)
		m.input.CursorEnd()
		m.input.Focus()
		return m, nil

	case key.Matches(msg, keys.Enter):
		if m.pane == PaneCategories {
			m.pane = PaneCourses
			return m, nil
		}
		return m.openDetail()

	case key.Matches(msg, keys.Escape):
		if m.catalog.Snapshot().Query != "" {
			m.catalog.SetSearch("")
			m.clampCursors()
			m.message = "Search cleared"
		}

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp

	case key.Matches(msg, keys.Logout):
		m.handleLogout()

	case key.Matches(msg, keys.Refresh):
		if m.loggedIn {
			m.auto.Trigger()
			m.loading = true
			m.message = "Refreshing..."
		}
	}

	return m, nil
}

func (m *Model) handleUp() {
	if m.pane == PaneCategories {
		if m.catCursor > 0 {
			m.catCursor--
			m.applyCategory()
		}
		return
	}
	if m.courseCursor > 0 {
		m.courseCursor--
	}
}

func (m *Model) handleDown() {
	if m.pane == PaneCategories {
		if m.catCursor < len(m.categories())-1 {
			m.catCursor++
			m.applyCategory()
		}
		return
	}
	if m.courseCursor < len(m.catalog.Visible())-1 {
		m.courseCursor++
	}
}

// cycleCategory moves to the next category, wrapping to "Todos"
func (m *Model) cycleCategory() {
	cats := m.categories()
	if len(cats) == 0 {
		return
	}
	m.catCursor = (m.catCursor + 1) % len(cats)
	m.applyCategory()
}

func (m *Model) applyCategory() {
	m.catalog.SetCategory(m.currentCategory())
	m.courseCursor = 0
	m.message = ""
}

// updateSearch filters live while typing
func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeNormal
		m.input.Blur()
		m.catalog.SetSearch("")
		m.clampCursors()
		return m, nil
	case tea.KeyEnter:
		m.mode = ModeNormal
		m.input.Blur()
		m.message = fmt.Sprintf("%d course(s) match", len(m.catalog.Visible()))
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.catalog.SetSearch(m.input.Value())
	m.courseCursor = 0
	return m, cmd
}

func (m *Model) handleLogout() {
	if !m.loggedIn {
		m.message = "Not logged in"
		return
	}
	ctx, cancel := m.context()
	defer cancel()
	if err := m.deps.Sessions.Logout(ctx); err != nil {
		logger.Warn("Logout could not clear stored session", logger.F("error", err))
	}
}

func (m Model) handleSession(s session.Session) (tea.Model, tea.Cmd) {
	m.sess, m.loggedIn = s, s.Valid()
	if !m.loggedIn {
		m.mode = ModeNormal
		m.detail, m.favorite, m.checkout, m.player = nil, nil, nil, nil
		m.message = "Logged out"
		return m, m.waitForSession()
	}

	m.loading = true
	m.message = "Logged in"
	return m, tea.Batch(m.waitForSession(), m.refreshCatalog())
}

// openDetail loads the detail page of the selected course
func (m Model) openDetail() (tea.Model, tea.Cmd) {
	c := m.currentCourse()
	if c == nil || !m.loggedIn {
		return m, nil
	}

	m.mode = ModeDetail
	m.detail, m.favorite, m.player, m.tasks = nil, nil, nil, nil
	m.loading = true
	m.message = ""
	m.detailSeq++

	gw, sess, id, seq := m.deps.Gateway, m.sess, c.ID, m.detailSeq
	ctx, cancel := m.context()
	return m, func() tea.Msg {
		defer cancel()
		d, err := course.LoadDetail(ctx, gw, sess, id)
		return detailMsg{seq: seq, id: id, detail: d, err: err}
	}
}

// handleDetailLoaded applies a detail load only to the page that asked for it
func (m Model) handleDetailLoaded(msg detailMsg) (tea.Model, tea.Cmd) {
	if m.mode != ModeDetail || msg.seq != m.detailSeq {
		logger.Debug("Dropping stale course detail", logger.F("course", msg.id))
		return m, nil
	}
	m.loading = false
	if msg.err != nil {
		m.message = "Could not load course: " + errorText(msg.err)
		return m, nil
	}

	d := msg.detail
	m.detail = &d

	t := favorites.New(m.deps.Gateway, msg.id)
	t.Set(d.Favorite)
	ch := m.rollbackCh
	t.OnRollback(func(favorite bool, err error) {
		select {
		case ch <- rollbackMsg{courseID: msg.id, favorite: favorite, err: err}:
		default:
		}
	})
	m.favorite = t

	m.setPlayer()
	return m, nil
}

// setPlayer enables task browsing once the user owns the course
func (m *Model) setPlayer() {
	m.player, m.tasks, m.taskCursor = nil, nil, 0
	if m.detail == nil || !m.detail.Enrolled {
		return
	}
	m.player = course.NewPlayer(m.detail.Course)
	for _, s := range m.detail.Course.Sections {
		m.tasks = append(m.tasks, s.Tasks...)
	}
}

// handleDetailKeys handles the detail page
func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, keys.Escape), key.Matches(msg, keys.Left):
		m.mode = ModeNormal
		m.message = ""

	case key.Matches(msg, keys.Favorite):
		if m.favorite == nil {
			return m, nil
		}
		now, err := m.favorite.Toggle(context.Background(), m.sess)
		if err != nil {
			m.message = errorText(err)
			return m, nil
		}
		if now {
			m.message = "Added to favorites"
		} else {
			m.message = "Removed from favorites"
		}

	case key.Matches(msg, keys.Buy):
		return m.startCheckout()

	case key.Matches(msg, keys.Up):
		if m.player != nil && m.taskCursor > 0 {
			m.taskCursor--
			_ = m.player.Select(m.tasks[m.taskCursor].ID)
		}

	case key.Matches(msg, keys.Down):
		if m.player != nil && m.taskCursor < len(m.tasks)-1 {
			m.taskCursor++
			_ = m.player.Select(m.tasks[m.taskCursor].ID)
		}
	}

	return m, nil
}

// startCheckout opens checkout for the course on the detail page
func (m Model) startCheckout() (tea.Model, tea.Cmd) {
	if m.detail == nil {
		return m, nil
	}
	if m.detail.Enrolled {
		m.message = "You already own this course"
		return m, nil
	}

	m.mode = ModeCheckout
	m.checkout = checkout.New(m.deps.Gateway)
	m.cardCursor = 0
	m.message = ""

	orch, sess, id := m.checkout, m.sess, m.detail.Course.ID
	ctx, cancel := m.context()
	return m, func() tea.Msg {
		defer cancel()
		return checkoutLoadedMsg{err: orch.Load(ctx, sess, id)}
	}
}

// handleCheckoutKeys handles card selection and payment
func (m Model) handleCheckoutKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	state := m.checkout.Snapshot()

	switch {
	case key.Matches(msg, keys.Quit) && msg.String() == "ctrl+c":
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, keys.Escape):
		if state.Phase == checkout.PhaseProcessing {
			return m, nil
		}
		m.mode = ModeDetail
		m.checkout = nil
		m.message = ""

	case key.Matches(msg, keys.Up):
		if m.cardCursor > 0 {
			m.cardCursor--
			_ = m.checkout.SelectCard(state.Cards[m.cardCursor].ID)
		}

	case key.Matches(msg, keys.Down):
		if m.cardCursor < len(state.Cards)-1 {
			m.cardCursor++
			_ = m.checkout.SelectCard(state.Cards[m.cardCursor].ID)
		}

	case key.Matches(msg, keys.Enter):
		if state.Phase != checkout.PhaseReady && state.Phase != checkout.PhaseFailed {
			return m, nil
		}
		m.message = "Processing payment..."

		orch, sess, nt := m.checkout, m.sess, m.deps.Notifier
		ctx, cancel := m.context()
		return m, func() tea.Msg {
			defer cancel()
			var bought model.Course
			err := orch.Purchase(ctx, sess, func(c model.Course) {
				bought = c
				if nt != nil {
					notify.Fire(nt, notify.NoticeFor(c))
				}
			})
			return purchaseMsg{course: bought, err: err}
		}
	}

	return m, nil
}

func (m Model) handlePurchased(msg purchaseMsg) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(msg.err, checkout.ErrInsufficientFunds):
		m.message = "Insufficient balance. Pick another card."
		return m, nil
	case errors.Is(msg.err, checkout.ErrPurchaseInProgress):
		return m, nil
	case msg.err != nil:
		m.message = "Payment failed: " + errorText(msg.err)
		return m, nil
	}

	n := notify.NoticeFor(msg.course)
	m.message = n.Title() + " " + n.Body()
	m.mode = ModeDetail
	m.checkout = nil
	if m.detail != nil && m.detail.Course.ID == msg.course.ID {
		m.detail.Enrolled = true
		m.setPlayer()
	}
	return m, nil
}
