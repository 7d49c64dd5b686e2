package tui

import (
	"errors"
	"strings"

	"github.com/existflow/edugo/internal/gateway"
)

// truncate shortens a string to max runes with ellipsis
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// repeat creates a string by repeating s n times
func repeat(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(s, n)
}

// errorText prefers the backend's own message
func errorText(err error) string {
	var httpErr *gateway.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Message()
	}
	return err.Error()
}
