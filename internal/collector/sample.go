package collector

import (
	"context"

	"todo-svc/internal/todo"
)

// SampleCollector seeds a fresh list with two example tasks.
type SampleCollector struct{}

func NewSampleCollector() *SampleCollector { return &SampleCollector{} }

func (SampleCollector) Collect(ctx context.Context, sink Sink) (int, error) {
	return importTasks(ctx, sink, []todo.Task{
		{Title: "Example task 1", Description: "Plan the week and write down the first three steps.", Category: "Work"},
		{Title: "Example task 2", Description: "Milk, bread, coffee.", Completed: true, Category: "Shopping"},
	})
}
