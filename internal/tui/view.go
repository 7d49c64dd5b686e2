package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/edugo/internal/checkout"
)

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	statusBar := m.renderStatusBar()

	var mainContent string
	switch m.mode {
	case ModeHelp:
		mainContent = m.renderHelp()
	case ModeDetail:
		mainContent = m.place(m.renderDetail())
	case ModeCheckout:
		mainContent = m.place(m.renderCheckout())
	default:
		mainContent = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), m.renderCourseList())
	}

	// Combine with status bar
	return lipgloss.JoinVertical(lipgloss.Left, mainContent, statusBar)
}

func (m Model) place(modal string) string {
	return lipgloss.Place(
		m.width, m.height-2,
		lipgloss.Center, lipgloss.Center,
		modal,
		lipgloss.WithWhitespaceChars(" "),
	)
}

func (m Model) renderSidebar() string {
	sidebarWidth := 22
	var s string

	// Header with time
	now := time.Now().Format("15:04:05")
	s += lipgloss.NewStyle().Bold(true).Foreground(Primary).Render("EduGo") + "\n"
	s += HelpStyle.Render(now) + "\n"
	s += lipgloss.NewStyle().Foreground(Border).Render("─────────────────") + "\n\n"

	for i, c := range m.categories() {
		cursor := "  "
		style := CategoryItemStyle
		if i == m.catCursor {
			cursor = "❯ "
			if m.pane == PaneCategories {
				style = CategoryItemSelectedStyle
			}
		}
		s += style.Render(cursor+truncate(c, 14)) + "\n"
	}

	s += "\n" + lipgloss.NewStyle().Foreground(Border).Render("─────────────────") + "\n"
	s += HelpStyle.Render("c next category")

	return SidebarStyle.Width(sidebarWidth).Height(m.height - 2).Render(s)
}

func (m Model) renderCourseList() string {
	width := m.width - 24
	var s string

	st := m.catalog.Snapshot()

	// Header
	header := fmt.Sprintf("%s (%d courses)", st.Category, len(st.Visible))
	if st.Query != "" {
		header += fmt.Sprintf("  /%s", st.Query)
	}
	s += lipgloss.NewStyle().Bold(true).Foreground(Primary).Render(header) + "\n"
	s += lipgloss.NewStyle().Foreground(Border).Render(repeat("─", width-4)) + "\n\n"

	switch {
	case !m.loggedIn:
		s += HelpStyle.Render("  Log in with 'edugo auth login' to browse the catalog.")
	case m.loading && len(st.All) == 0:
		s += HelpStyle.Render("  Loading courses...")
	case st.Err != nil && len(st.All) == 0:
		s += ErrorStyle.Render("  Could not load courses. Press 'r' to retry.")
	case len(st.Visible) == 0:
		s += HelpStyle.Render("  No courses match. Press Esc to clear the search.")
	}

	titleWidth := max(width-40, 10)
	for i, c := range st.Visible {
		cursor := "  "
		style := CourseItemStyle
		if i == m.courseCursor && m.pane == PaneCourses {
			cursor = "❯ "
			style = CourseItemSelectedStyle
		}

		title := style.Render(fmt.Sprintf("%s%-*s", cursor, titleWidth, truncate(c.Title, titleWidth)))
		category := CategoryStyle.Render(fmt.Sprintf(" %-18s ", truncate(c.Category, 18)))
		s += title + category + FormatPrice(c.Price) + "\n"
	}

	return CourseListStyle.Width(width).Height(m.height - 2).Render(s)
}

func (m Model) renderDetail() string {
	modalWidth := min(max(m.width-10, 40), 90)

	if m.detail == nil {
		if m.loading {
			return ModalStyle.Width(modalWidth).Render("Loading course...")
		}
		return ModalStyle.Width(modalWidth).Render(ErrorStyle.Render("Course unavailable") + "\n\n" + HelpStyle.Render("Esc:back"))
	}

	c := m.detail.Course
	var content string
	content += lipgloss.NewStyle().Bold(true).Foreground(Primary).Render(c.Title)
	if m.favorite != nil && m.favorite.IsFavorite() {
		content += "  " + FavoriteStyle.Render("♥")
	}
	content += "\n"
	content += CategoryStyle.Render(c.Category) + "  " + FormatPrice(c.Price) + "\n"
	content += HelpStyle.Render("by "+c.AuthorName()) + "\n\n"

	if c.Description != "" {
		content += lipgloss.NewStyle().Width(modalWidth-6).Render(c.Description) + "\n\n"
	}

	if m.detail.Enrolled {
		content += OwnedStyle.Render("✓ Enrolled") + "\n\n"
	}

	content += lipgloss.NewStyle().Foreground(Border).Render(repeat("─", modalWidth-6)) + "\n"

	if m.player != nil {
		content += m.renderTasks(modalWidth)
	} else {
		for _, s := range c.Sections {
			content += lipgloss.NewStyle().Bold(true).Render(s.Name) + "\n"
			for _, t := range s.Tasks {
				content += HelpStyle.Render("  • "+truncate(t.Title, modalWidth-12)) + "\n"
			}
		}
	}

	help := "f:favorite  b:buy  Esc:back"
	if m.detail.Enrolled {
		help = "↑↓:task  f:favorite  Esc:back"
	}
	content += "\n" + HelpStyle.Render(help)

	return ModalStyle.Width(modalWidth).Render(content)
}

// renderTasks lists the tasks of an owned course with the selected task's media
func (m Model) renderTasks(modalWidth int) string {
	if len(m.tasks) == 0 {
		return HelpStyle.Render("This course has no content yet.") + "\n"
	}

	var content string
	for i, t := range m.tasks {
		marker := "  "
		style := lipgloss.NewStyle()
		if i == m.taskCursor {
			marker = "❯ "
			style = lipgloss.NewStyle().Bold(true).Foreground(Primary)
		}
		content += style.Render(marker+truncate(t.Title, modalWidth-12)) + "\n"
	}

	task, ok := m.player.Selected()
	if !ok {
		return content
	}

	content += "\n"
	if task.Instructions != "" {
		content += lipgloss.NewStyle().Width(modalWidth-6).Render(task.Instructions) + "\n"
	}
	if url, ok := m.player.VideoURL(); ok {
		content += "▶ " + truncate(url, modalWidth-10) + "\n"
	}
	for _, r := range m.player.Attachments() {
		content += HelpStyle.Render("📎 "+r.Label()+" "+truncate(r.Target(), modalWidth-20)) + "\n"
	}
	return content
}

func (m Model) renderCheckout() string {
	modalWidth := 60
	if m.checkout == nil {
		return ""
	}
	st := m.checkout.Snapshot()

	var content string
	content += lipgloss.NewStyle().Bold(true).Foreground(Primary).Render("Checkout") + "  " + FormatPhase(st.Phase) + "\n\n"

	if st.Course == nil {
		if st.Phase == checkout.PhaseFailed {
			content += ErrorStyle.Render("Could not load checkout.") + "\n"
		} else {
			content += HelpStyle.Render("Loading...") + "\n"
		}
		content += "\n" + HelpStyle.Render("Esc:back")
		return ModalStyle.Width(modalWidth).Render(content)
	}

	content += fmt.Sprintf("%s  %s\n\n", truncate(st.Course.Title, modalWidth-20), FormatPrice(st.Course.Price))

	if len(st.Cards) == 0 {
		content += HelpStyle.Render("No cards on file. Add one with 'edugo cards add'.") + "\n"
	}
	for i, c := range st.Cards {
		marker := "  "
		style := lipgloss.NewStyle()
		if i == m.cardCursor {
			marker = "❯ "
			style = lipgloss.NewStyle().Bold(true).Foreground(Primary)
		}
		balance := "$" + c.Balance.StringFixed(2)
		if !c.Covers(st.Course.Price) {
			balance = ErrorStyle.Render(balance)
		}
		content += style.Render(fmt.Sprintf("%s%-22s", marker, c.Masked())) + " " + balance + "\n"
	}

	if st.Err != nil {
		content += "\n" + ErrorStyle.Render(errorText(st.Err)) + "\n"
	}

	content += "\n" + lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", modalWidth-6)) + "\n"
	content += HelpStyle.Render("↑↓:card  Enter:pay  Esc:back")

	return ModalStyle.Width(modalWidth).Render(content)
}

func (m Model) renderStatusBar() string {
	// When searching, show inline search input (like vim)
	if m.mode == ModeSearch {
		matches := fmt.Sprintf(" [%d match]", len(m.catalog.Visible()))
		return StatusBarStyle.Width(m.width).Render("/" + m.input.View() + matches)
	}

	help := "/:search  c:category  enter:open  r:refresh  ?:help  q:quit  L:logout"
	if m.message != "" {
		help = m.message
	}

	// Append refresh status (right aligned)
	status := ""
	if m.auto != nil && m.auto.IsPending() {
		status = "Refreshing..."
	} else if err := m.catalog.Snapshot().Err; err != nil {
		status = "Offline"
	}

	if status != "" {
		avail := m.width - lipgloss.Width(help) - len(status) - 2
		if avail > 0 {
			help += strings.Repeat(" ", avail) + status
		} else {
			help += " " + status
		}
	}

	return StatusBarStyle.Width(m.width).Render(help)
}

func (m Model) renderHelp() string {
	help := `
╭─── Keyboard Shortcuts ───╮
│                          │
│  Navigation              │
│  ──────────              │
│  j/↓    Move down        │
│  k/↑    Move up          │
│  h/l    Switch pane      │
│  Tab    Switch pane      │
│  G      Go to bottom     │
│                          │
│  Catalog                 │
│  ───────                 │
│  /       Search          │
│  c       Next category   │
│  Enter   Open course     │
│  r       Refresh         │
│                          │
│  Course                  │
│  ──────                  │
│  f       Favorite        │
│  b       Buy             │
│  Esc     Back            │
│                          │
│  Other                   │
│  ─────                   │
│  ?       Toggle help     │
│  L       Logout          │
│  q       Quit            │
│                          │
╰──────────────────────────╯

     Press any key to close
`
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, help)
}
