package store

import (
	"context"
	"sync"

	"todo-svc/internal/todo"
)

// Memory keeps the snapshot in process. Nothing survives a restart.
type Memory struct {
	mu   sync.Mutex
	snap Snapshot
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Load(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copySnapshot(m.snap), nil
}

func (m *Memory) Save(ctx context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = copySnapshot(snap)
	return nil
}

func (m *Memory) Close() error { return nil }

func copySnapshot(s Snapshot) Snapshot {
	return Snapshot{
		Tasks:      append([]todo.Task(nil), s.Tasks...),
		Categories: append([]string(nil), s.Categories...),
	}
}
