// Package store persists the task list. Every backend saves and loads the
// whole list at once.
package store

import (
	"context"
	"errors"
	"fmt"

	"todo-svc/internal/todo"
)

// Snapshot is the persisted form of the list: tasks in order plus the
// category index derived from them at save time.
type Snapshot struct {
	Tasks      []todo.Task
	Categories []string
}

type Backend interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

const (
	BackendMemory = "memory"
	BackendLocal  = "local"
	BackendMySQL  = "mysql"
)

type Config struct {
	Backend string
	// Path is the key/value file used by the local backend.
	Path string
	DSN  string
}

var ErrUnknownBackend = errors.New("unknown store backend")

func Open(ctx context.Context, cfg Config) (Backend, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemory(), nil
	case BackendLocal:
		kv, err := OpenFileKV(cfg.Path)
		if err != nil {
			return nil, err
		}
		return NewLocal(kv), nil
	case BackendMySQL:
		return New(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
