// Package todo holds the task list aggregate and its category bookkeeping.
package todo

import (
	"strings"

	"github.com/google/uuid"
)

type Task struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Completed   bool   `json:"completed" yaml:"completed"`
	// Category is "" when the task has no category.
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

// StatusFilter narrows a listing by completion state.
type StatusFilter string

const (
	StatusAll        StatusFilter = "all"
	StatusCompleted  StatusFilter = "completed"
	StatusIncomplete StatusFilter = "incomplete"
)

func ParseStatus(s string) (StatusFilter, error) {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "", StatusAll:
		return StatusAll, nil
	case StatusCompleted:
		return StatusCompleted, nil
	case StatusIncomplete:
		return StatusIncomplete, nil
	}
	return "", &ValidationError{Field: "status"}
}

type Filter struct {
	Category string
	Status   StatusFilter
}

func (f Filter) match(t Task) bool {
	if c := NormalizeCategory(f.Category); c != "" && t.Category != c {
		return false
	}
	switch f.Status {
	case StatusCompleted:
		return t.Completed
	case StatusIncomplete:
		return !t.Completed
	}
	return true
}

// newID is swapped in tests that need stable identifiers.
var newID = func() string { return uuid.NewString() }
