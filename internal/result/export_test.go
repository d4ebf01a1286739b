package result

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"todo-svc/internal/task"
	"todo-svc/internal/todo"
	"todo-svc/pkg/mq"
)

type fakeLister struct {
	tasks []todo.Task
	calls int
}

func (f *fakeLister) List(ctx context.Context, flt todo.Filter) []todo.Task {
	f.calls++
	return todo.NewList(f.tasks).List(flt)
}

// changingLister publishes a change event while the export is reading.
type changingLister struct {
	fakeLister
	bus *mq.Bus
}

func (c *changingLister) List(ctx context.Context, flt todo.Filter) []todo.Task {
	out := c.fakeLister.List(ctx, flt)
	if c.calls == 1 {
		c.tasks = append(c.tasks, todo.Task{ID: "4", Title: "Late", Description: "x"})
		_ = c.bus.Publish(task.TopicChanged, []byte(`{"op":"create"}`))
	}
	return out
}

func sampleTasks() []todo.Task {
	return []todo.Task{
		{ID: "1", Title: "Report", Description: "<p>q3</p>", Category: "Work"},
		{ID: "2", Title: "Milk", Description: "2l", Completed: true, Category: "Shop"},
		{ID: "3", Title: "Call", Description: "mom"},
	}
}

func TestExportFormats(t *testing.T) {
	ctx := context.Background()
	src := &fakeLister{tasks: sampleTasks()}
	e, err := NewExporter(src, time.Minute, nil)
	if err != nil {
		t.Fatal(err)
	}

	b, err := e.Export(ctx, "json", todo.Filter{Category: "Work"})
	if err != nil {
		t.Fatal(err)
	}
	var got []todo.Task
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("json export = %+v", got)
	}

	b, err = e.Export(ctx, "CSV", todo.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 || rows[3][4] != todo.NoCategory || rows[2][3] != "true" {
		t.Fatalf("csv rows = %v", rows)
	}

	b, err = e.Export(ctx, "yaml", todo.Filter{Status: todo.StatusCompleted})
	if err != nil {
		t.Fatal(err)
	}
	var y []todo.Task
	if err := yaml.Unmarshal(b, &y); err != nil {
		t.Fatal(err)
	}
	if len(y) != 1 || y[0].Title != "Milk" {
		t.Fatalf("yaml export = %+v", y)
	}

	b, err = e.Export(ctx, "pdf", todo.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("pdf export starts with %q", b[:8])
	}

	if _, err := e.Export(ctx, "xml", todo.Filter{}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestExportCachePurgedOnChange(t *testing.T) {
	ctx := context.Background()
	bus := mq.NewBus()
	src := &fakeLister{tasks: sampleTasks()}
	e, err := NewExporter(src, time.Minute, bus)
	if err != nil {
		t.Fatal(err)
	}

	_, _ = e.Export(ctx, "json", todo.Filter{})
	_, _ = e.Export(ctx, "json", todo.Filter{})
	if src.calls != 1 {
		t.Fatalf("expected cached second export, lister called %d times", src.calls)
	}

	if err := bus.Publish(task.TopicChanged, []byte(`{"op":"create"}`)); err != nil {
		t.Fatal(err)
	}
	_, _ = e.Export(ctx, "json", todo.Filter{})
	if src.calls != 2 {
		t.Fatalf("expected fresh export after change, lister called %d times", src.calls)
	}
}

func TestExportDoesNotCacheAcrossChange(t *testing.T) {
	ctx := context.Background()
	bus := mq.NewBus()
	src := &changingLister{fakeLister: fakeLister{tasks: sampleTasks()}, bus: bus}
	e, err := NewExporter(src, time.Minute, bus)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.Export(ctx, "json", todo.Filter{}); err != nil {
		t.Fatal(err)
	}
	b, err := e.Export(ctx, "json", todo.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	var got []todo.Task
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Fatalf("second export has %d tasks, stale output was cached", len(got))
	}
	if src.calls != 2 {
		t.Fatalf("lister called %d times", src.calls)
	}
}

func TestExportSkipsCachingUnknownCategory(t *testing.T) {
	ctx := context.Background()
	src := &fakeLister{tasks: sampleTasks()}
	e, err := NewExporter(src, time.Minute, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, _ = e.Export(ctx, "json", todo.Filter{Category: "nope"})
	_, _ = e.Export(ctx, "json", todo.Filter{Category: "nope"})
	if src.calls != 2 {
		t.Fatalf("empty export for unknown category was cached, lister called %d times", src.calls)
	}
}

func TestContentType(t *testing.T) {
	for format, want := range map[string]string{
		"json": "application/json",
		"csv":  "text/csv",
		"yaml": "application/yaml",
		"PDF":  "application/pdf",
	} {
		if got := ContentType(format); got != want {
			t.Fatalf("ContentType(%q) = %q, want %q", format, got, want)
		}
	}
}
