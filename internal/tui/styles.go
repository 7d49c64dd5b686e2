package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/edugo/internal/checkout"
	"github.com/shopspring/decimal"
)

// Color palette based on TUI design
var (
	// Status colors
	Owned     = lipgloss.Color("#95E1A3") // Green
	Favorited = lipgloss.Color("#FF6B6B") // Red
	Pending   = lipgloss.Color("#FFE66D") // Yellow
	ErrorRed  = lipgloss.Color("#FF6B6B") // Red
	PriceTag  = lipgloss.Color("#FFB347") // Orange

	// UI colors
	Primary    = lipgloss.Color("#4ECDC4")
	Secondary  = lipgloss.Color("#6C757D")
	Background = lipgloss.Color("#1a1a2e")
	Surface    = lipgloss.Color("#16213e")
	Text       = lipgloss.Color("#FFFFFF")
	TextMuted  = lipgloss.Color("#888888")
	Border     = lipgloss.Color("#333333")
	Highlight  = lipgloss.Color("#4ECDC4")
)

// Styles
var (
	// Header
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	// Sidebar
	SidebarStyle = lipgloss.NewStyle().
			Width(20).
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(Border).
			Padding(1, 1)

	// Course list
	CourseListStyle = lipgloss.NewStyle().
			Padding(1, 2)

	// Category item
	CategoryItemStyle = lipgloss.NewStyle().
				Padding(0, 1)

	CategoryItemSelectedStyle = lipgloss.NewStyle().
					Padding(0, 1).
					Background(Surface).
					Bold(true)

	// Course item
	CourseItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	CourseItemSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(Surface).
				Bold(true)

	// Badges
	PriceStyle    = lipgloss.NewStyle().Foreground(PriceTag).Bold(true)
	OwnedStyle    = lipgloss.NewStyle().Foreground(Owned).Bold(true)
	FavoriteStyle = lipgloss.NewStyle().Foreground(Favorited)
	CategoryStyle = lipgloss.NewStyle().Foreground(Secondary)
	ErrorStyle    = lipgloss.NewStyle().Foreground(ErrorRed)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	// Detail and checkout panels
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	// Help text
	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// FormatPrice renders a price badge, e.g. "$25.50"
func FormatPrice(p decimal.Decimal) string {
	return PriceStyle.Render("$" + p.StringFixed(2))
}

// FormatPhase renders a checkout phase with its status color
func FormatPhase(p checkout.Phase) string {
	switch p {
	case checkout.PhaseCompleted:
		return OwnedStyle.Render(p.String())
	case checkout.PhaseFailed:
		return ErrorStyle.Render(p.String())
	case checkout.PhaseLoading, checkout.PhaseProcessing:
		return lipgloss.NewStyle().Foreground(Pending).Render(p.String())
	default:
		return HelpStyle.Render(p.String())
	}
}
