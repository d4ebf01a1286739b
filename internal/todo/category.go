package todo

import "strings"

// NoCategory is the pseudo-entry that heads every category index.
// It is never stored on a task.
const NoCategory = "no category"

// NormalizeCategory maps the sentinel and blank input to "" (absent).
func NormalizeCategory(c string) string {
	c = strings.TrimSpace(c)
	if c == "" || c == NoCategory {
		return ""
	}
	return c
}

// DeriveCategories returns the sentinel followed by each distinct category
// in order of first appearance in tasks.
func DeriveCategories(tasks []Task) []string {
	out := []string{NoCategory}
	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if t.Category == "" {
			continue
		}
		if _, ok := seen[t.Category]; ok {
			continue
		}
		seen[t.Category] = struct{}{}
		out = append(out, t.Category)
	}
	return out
}
