// Package collector pulls tasks from outside sources into the task store.
package collector

import (
	"context"
	"fmt"

	"todo-svc/internal/todo"
)

// Sink is the write side of task.Manager that collectors feed.
type Sink interface {
	Create(ctx context.Context, title, description, category string) (todo.Task, error)
	Toggle(ctx context.Context, id string) (todo.Task, error)
}

type Collector interface {
	// Collect adds every task it finds to sink and reports how many.
	Collect(ctx context.Context, sink Sink) (int, error)
}

// importTasks creates each task under a fresh id and carries over its
// completed state. It stops at the first failure.
func importTasks(ctx context.Context, sink Sink, tasks []todo.Task) (int, error) {
	n := 0
	for _, t := range tasks {
		created, err := sink.Create(ctx, t.Title, t.Description, t.Category)
		if err != nil {
			return n, fmt.Errorf("importing %q: %w", t.Title, err)
		}
		if t.Completed {
			if _, err := sink.Toggle(ctx, created.ID); err != nil {
				return n, fmt.Errorf("importing %q: %w", t.Title, err)
			}
		}
		n++
	}
	return n, nil
}
