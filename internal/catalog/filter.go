package catalog

import (
	"strings"

	"github.com/existflow/edugo/internal/model"
)

// Matches reports whether a course passes both the title search and the category selector
func Matches(c model.Course, query, category string) bool {
	if !strings.Contains(strings.ToLower(c.Title), strings.ToLower(query)) {
		return false
	}
	return category == model.AllCategories || strings.EqualFold(c.Category, category)
}

// Filter returns the courses that match, preserving order. It never returns nil.
func Filter(courses []model.Course, query, category string) []model.Course {
	out := make([]model.Course, 0, len(courses))
	for _, c := range courses {
		if Matches(c, query, category) {
			out = append(out, c)
		}
	}
	return out
}

// Categories lists distinct categories in first-seen order with AllCategories first.
// Categories differing only in case are collapsed.
func Categories(courses []model.Course) []string {
	seen := map[string]bool{strings.ToLower(model.AllCategories): true}
	out := []string{model.AllCategories}
	for _, c := range courses {
		key := strings.ToLower(strings.TrimSpace(c.Category))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c.Category)
	}
	return out
}
