package todo

import "strings"

// List owns the ordered tasks and the category index derived from them.
// It is not safe for concurrent use.
type List struct {
	tasks      []Task
	categories []string
}

func NewList(tasks []Task) *List {
	l := &List{}
	l.Restore(tasks)
	return l
}

func (l *List) reindex() {
	l.categories = DeriveCategories(l.tasks)
}

func (l *List) indexOf(id string) int {
	for i := range l.tasks {
		if l.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *List) Create(title, description, category string) (Task, error) {
	if strings.TrimSpace(title) == "" {
		return Task{}, &ValidationError{Field: "title"}
	}
	if strings.TrimSpace(description) == "" {
		return Task{}, &ValidationError{Field: "description"}
	}
	t := Task{
		ID:          newID(),
		Title:       title,
		Description: description,
		Category:    NormalizeCategory(category),
	}
	l.tasks = append(l.tasks, t)
	l.reindex()
	return t, nil
}

func (l *List) List(f Filter) []Task {
	out := make([]Task, 0, len(l.tasks))
	for _, t := range l.tasks {
		if f.match(t) {
			out = append(out, t)
		}
	}
	return out
}

func (l *List) Get(id string) (Task, error) {
	i := l.indexOf(id)
	if i < 0 {
		return Task{}, ErrNotFound
	}
	return l.tasks[i], nil
}

func (l *List) Toggle(id string) (Task, error) {
	i := l.indexOf(id)
	if i < 0 {
		return Task{}, ErrNotFound
	}
	l.tasks[i].Completed = !l.tasks[i].Completed
	return l.tasks[i], nil
}

// Recategorize moves a task to category. The previous category drops out of
// the index when nothing references it anymore.
func (l *List) Recategorize(id, category string) (Task, error) {
	i := l.indexOf(id)
	if i < 0 {
		return Task{}, ErrNotFound
	}
	l.tasks[i].Category = NormalizeCategory(category)
	l.reindex()
	return l.tasks[i], nil
}

func (l *List) Delete(id string) (Task, error) {
	i := l.indexOf(id)
	if i < 0 {
		return Task{}, ErrNotFound
	}
	t := l.tasks[i]
	l.tasks = append(l.tasks[:i:i], l.tasks[i+1:]...)
	l.reindex()
	return t, nil
}

// DeleteCompleted removes every completed task and reports how many went.
func (l *List) DeleteCompleted() int {
	return l.removeWhere(func(t Task) bool { return t.Completed })
}

// DeleteCompletedInCategory fails with ErrNoMatch, leaving the list
// untouched, when the category has no completed tasks.
func (l *List) DeleteCompletedInCategory(category string) (int, error) {
	c := NormalizeCategory(category)
	if c == "" {
		// no task carries the sentinel
		return 0, ErrNoMatch
	}
	n := l.removeWhere(func(t Task) bool { return t.Completed && t.Category == c })
	if n == 0 {
		return 0, ErrNoMatch
	}
	return n, nil
}

// DeleteCategory removes every task in category, completed or not.
func (l *List) DeleteCategory(category string) (int, error) {
	c := NormalizeCategory(category)
	if c == "" {
		return 0, ErrNoMatch
	}
	n := l.removeWhere(func(t Task) bool { return t.Category == c })
	if n == 0 {
		return 0, ErrNoMatch
	}
	return n, nil
}

func (l *List) removeWhere(drop func(Task) bool) int {
	kept := make([]Task, 0, len(l.tasks))
	for _, t := range l.tasks {
		if !drop(t) {
			kept = append(kept, t)
		}
	}
	n := len(l.tasks) - len(kept)
	if n > 0 {
		l.tasks = kept
		l.reindex()
	}
	return n
}

func (l *List) Categories() []string {
	return append([]string(nil), l.categories...)
}

// Remaining counts tasks not yet completed.
func (l *List) Remaining() int {
	n := 0
	for _, t := range l.tasks {
		if !t.Completed {
			n++
		}
	}
	return n
}

func (l *List) Len() int { return len(l.tasks) }

// Snapshot returns a copy of the tasks in order.
func (l *List) Snapshot() []Task {
	return append([]Task(nil), l.tasks...)
}

// Restore replaces the tasks wholesale, normalizing categories on the way in.
func (l *List) Restore(tasks []Task) {
	l.tasks = make([]Task, len(tasks))
	for i, t := range tasks {
		t.Category = NormalizeCategory(t.Category)
		l.tasks[i] = t
	}
	l.reindex()
}
