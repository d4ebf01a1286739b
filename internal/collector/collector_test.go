package collector

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"todo-svc/internal/result"
	"todo-svc/internal/store"
	"todo-svc/internal/task"
	"todo-svc/internal/todo"
)

func newManager(t *testing.T) *task.Manager {
	t.Helper()
	m := task.NewManager(store.NewMemory(), task.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err := m.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestSampleCollector(t *testing.T) {
	ctx := context.Background()
	m := newManager(t)
	n, err := NewSampleCollector().Collect(ctx, m)
	if err != nil || n != 2 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if got := m.Categories(ctx); !reflect.DeepEqual(got, []string{todo.NoCategory, "Work", "Shopping"}) {
		t.Fatalf("categories = %v", got)
	}
	if m.Remaining(ctx) != 1 {
		t.Fatalf("remaining = %d", m.Remaining(ctx))
	}
}

func TestFileCollectorReadsExports(t *testing.T) {
	ctx := context.Background()
	src := newManager(t)
	if _, err := NewSampleCollector().Collect(ctx, src); err != nil {
		t.Fatal(err)
	}
	ex, err := result.NewExporter(src, time.Minute, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, format := range []string{"json", "yaml", "csv"} {
		t.Run(format, func(t *testing.T) {
			b, err := ex.Export(ctx, format, todo.Filter{})
			if err != nil {
				t.Fatal(err)
			}
			path := filepath.Join(t.TempDir(), "tasks."+format)
			if err := os.WriteFile(path, b, 0o644); err != nil {
				t.Fatal(err)
			}

			dst := newManager(t)
			n, err := NewFileCollector(path).Collect(ctx, dst)
			if err != nil || n != 2 {
				t.Fatalf("n=%d err=%v", n, err)
			}
			got := dst.List(ctx, todo.Filter{Status: todo.StatusCompleted})
			if len(got) != 1 || got[0].Category != "Shopping" {
				t.Fatalf("completed tasks = %+v", got)
			}
			if !reflect.DeepEqual(dst.Categories(ctx), src.Categories(ctx)) {
				t.Fatalf("categories = %v", dst.Categories(ctx))
			}
		})
	}
}

func TestFileCollectorStopsOnInvalidTask(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	body := `[{"title":"ok","description":"x"},{"title":"","description":"x"}]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	n, err := NewFileCollector(path).Collect(context.Background(), newManager(t))
	if !todo.IsValidation(err) || n != 1 {
		t.Fatalf("n=%d err=%v", n, err)
	}

	if _, err := NewFileCollector(filepath.Join(t.TempDir(), "tasks.txt")).Collect(context.Background(), newManager(t)); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := parse(".xml", nil); err == nil {
		t.Fatal("expected error for unsupported type")
	}
	if _, err := parseCSV([]byte("id,title\n1,A\n")); err == nil {
		t.Fatal("expected error for missing description column")
	}
}

func TestRemoteCollectorRetries(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if r.URL.Path != "/api/todos" || r.URL.Query().Get("category") != "Work" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode([]todo.Task{
			{ID: "remote-1", Title: "A", Description: "x", Category: "Work", Completed: true},
		})
	}))
	defer ts.Close()

	ctx := context.Background()
	m := newManager(t)
	c := NewRemoteCollector(ts.URL + "/")
	c.Category = "Work"
	n, err := c.Collect(ctx, m)
	if err != nil || n != 1 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d", calls.Load())
	}
	got := m.List(ctx, todo.Filter{})
	if len(got) != 1 || got[0].ID == "remote-1" || !got[0].Completed {
		t.Fatalf("imported = %+v", got)
	}
}

func TestRemoteCollectorDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer ts.Close()

	if _, err := NewRemoteCollector(ts.URL).Collect(context.Background(), newManager(t)); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d", calls.Load())
	}
}
