package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all key bindings
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Tab      key.Binding
	Enter    key.Binding
	Search   key.Binding
	Category key.Binding
	Favorite key.Binding
	Buy      key.Binding
	Help     key.Binding
	Quit     key.Binding
	Escape   key.Binding
	Logout   key.Binding
	Refresh  key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Left:     key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "categories")),
	Right:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "courses")),
	Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch pane")),
	Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open/pay")),
	Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Category: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "next category")),
	Favorite: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "toggle favorite")),
	Buy:      key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "buy")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Escape:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Logout:   key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
	Refresh:  key.NewBinding(key.WithKeys("R", "r"), key.WithHelp("R", "refresh")),
}
