package store

import (
	"context"
	"encoding/json"
	"fmt"

	"todo-svc/internal/todo"
)

const (
	KeyTodos      = "todos"
	KeyCategories = "categories"
)

// Local stores the list under two fixed keys of a KV, each a JSON array.
type Local struct {
	kv KV
}

func NewLocal(kv KV) *Local { return &Local{kv: kv} }

func (l *Local) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	if raw, ok := l.kv.Get(KeyTodos); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &snap.Tasks); err != nil {
			return Snapshot{}, fmt.Errorf("decoding %s: %w", KeyTodos, err)
		}
	}
	if raw, ok := l.kv.Get(KeyCategories); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &snap.Categories); err != nil {
			return Snapshot{}, fmt.Errorf("decoding %s: %w", KeyCategories, err)
		}
	}
	if len(snap.Categories) == 0 {
		snap.Categories = []string{todo.NoCategory}
	}
	return snap, nil
}

func (l *Local) Save(ctx context.Context, snap Snapshot) error {
	tasks := snap.Tasks
	if tasks == nil {
		tasks = []todo.Task{}
	}
	tb, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	cb, err := json.Marshal(snap.Categories)
	if err != nil {
		return err
	}
	return l.kv.SetMany(map[string]string{
		KeyTodos:      string(tb),
		KeyCategories: string(cb),
	})
}

func (l *Local) Close() error { return nil }
