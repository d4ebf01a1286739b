// Package task is the Task Store: the todo list aggregate plus persistence
// and change notification.
package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"todo-svc/internal/store"
	"todo-svc/internal/todo"
	"todo-svc/pkg/mq"
)

// TopicChanged receives one Event per successful mutation.
const TopicChanged = "todo.changed"

type Event struct {
	Op       string `json:"op"`
	ID       string `json:"id,omitempty"`
	Category string `json:"category,omitempty"`
	Affected int    `json:"affected"`
}

type Manager struct {
	mu   sync.Mutex
	list *todo.List
	st   store.Backend
	pub  mq.Publisher
	log  *slog.Logger
}

type Option func(*Manager)

func WithPublisher(p mq.Publisher) Option { return func(m *Manager) { m.pub = p } }
func WithLogger(l *slog.Logger) Option    { return func(m *Manager) { m.log = l } }

func NewManager(st store.Backend, opts ...Option) *Manager {
	m := &Manager{
		list: todo.NewList(nil),
		st:   st,
		pub:  mq.Noop{},
		log:  slog.Default(),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Load replaces the in-memory list with what the backend holds.
func (m *Manager) Load(ctx context.Context) error {
	snap, err := m.st.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list.Restore(snap.Tasks)
	m.log.Info("tasks loaded", "tasks", m.list.Len(), "categories", len(m.list.Categories()))
	return nil
}

// mutate runs fn against the list and persists the result. On any error the
// list is rolled back so callers never observe a partial change.
func (m *Manager) mutate(ctx context.Context, fn func(l *todo.List) (Event, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := m.list.Snapshot()
	ev, err := fn(m.list)
	if err != nil {
		m.list.Restore(before)
		return err
	}
	snap := store.Snapshot{Tasks: m.list.Snapshot(), Categories: m.list.Categories()}
	if err := m.st.Save(ctx, snap); err != nil {
		m.list.Restore(before)
		m.log.Error("persist failed", "op", ev.Op, "err", err)
		return fmt.Errorf("saving tasks: %w", err)
	}
	m.log.Info("task list changed", "op", ev.Op, "id", ev.ID, "category", ev.Category, "affected", ev.Affected)

	payload, err := json.Marshal(ev)
	if err == nil {
		err = m.pub.Publish(TopicChanged, payload)
	}
	if err != nil {
		m.log.Warn("publish failed", "op", ev.Op, "err", err)
	}
	return nil
}

func (m *Manager) Create(ctx context.Context, title, description, category string) (todo.Task, error) {
	var out todo.Task
	err := m.mutate(ctx, func(l *todo.List) (Event, error) {
		t, err := l.Create(title, description, category)
		out = t
		return Event{Op: "create", ID: t.ID, Category: t.Category, Affected: 1}, err
	})
	return out, err
}

func (m *Manager) Toggle(ctx context.Context, id string) (todo.Task, error) {
	var out todo.Task
	err := m.mutate(ctx, func(l *todo.List) (Event, error) {
		t, err := l.Toggle(id)
		out = t
		return Event{Op: "toggle", ID: id, Category: t.Category, Affected: 1}, err
	})
	return out, err
}

func (m *Manager) Recategorize(ctx context.Context, id, category string) (todo.Task, error) {
	var out todo.Task
	err := m.mutate(ctx, func(l *todo.List) (Event, error) {
		t, err := l.Recategorize(id, category)
		out = t
		return Event{Op: "recategorize", ID: id, Category: t.Category, Affected: 1}, err
	})
	return out, err
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.mutate(ctx, func(l *todo.List) (Event, error) {
		t, err := l.Delete(id)
		return Event{Op: "delete", ID: id, Category: t.Category, Affected: 1}, err
	})
}

func (m *Manager) DeleteCompleted(ctx context.Context) (int, error) {
	var n int
	err := m.mutate(ctx, func(l *todo.List) (Event, error) {
		n = l.DeleteCompleted()
		return Event{Op: "delete_completed", Affected: n}, nil
	})
	return n, err
}

func (m *Manager) DeleteCompletedInCategory(ctx context.Context, category string) (int, error) {
	var n int
	err := m.mutate(ctx, func(l *todo.List) (Event, error) {
		var err error
		n, err = l.DeleteCompletedInCategory(category)
		return Event{Op: "delete_completed_in_category", Category: category, Affected: n}, err
	})
	return n, err
}

func (m *Manager) DeleteCategory(ctx context.Context, category string) (int, error) {
	var n int
	err := m.mutate(ctx, func(l *todo.List) (Event, error) {
		var err error
		n, err = l.DeleteCategory(category)
		return Event{Op: "delete_category", Category: category, Affected: n}, err
	})
	return n, err
}

func (m *Manager) List(ctx context.Context, f todo.Filter) []todo.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list.List(f)
}

func (m *Manager) Get(ctx context.Context, id string) (todo.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list.Get(id)
}

func (m *Manager) Categories(ctx context.Context) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list.Categories()
}

func (m *Manager) Remaining(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list.Remaining()
}
