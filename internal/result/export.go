package result

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jung-kurt/gofpdf"
	"gopkg.in/yaml.v3"

	"todo-svc/internal/task"
	"todo-svc/internal/todo"
	"todo-svc/pkg/cache"
	"todo-svc/pkg/mq"
)

// Lister is the read side of task.Manager.
type Lister interface {
	List(ctx context.Context, f todo.Filter) []todo.Task
}

type Exporter struct {
	src   Lister
	cache *cache.MemoryCache[[]byte]
	// gen counts change events; output rendered across a change is not cached.
	gen atomic.Uint64
}

// NewExporter caches rendered output for ttl. When sub is non-nil the cache
// is purged on every task change.
func NewExporter(src Lister, ttl time.Duration, sub mq.Subscriber) (*Exporter, error) {
	e := &Exporter{src: src, cache: cache.NewMemory[[]byte](ttl)}
	if sub != nil {
		err := sub.Subscribe(task.TopicChanged, func([]byte) error {
			e.gen.Add(1)
			e.cache.Purge()
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return e, nil
}

func ContentType(format string) string {
	switch strings.ToLower(format) {
	case "csv":
		return "text/csv"
	case "yaml":
		return "application/yaml"
	case "pdf":
		return "application/pdf"
	}
	return "application/json"
}

func (e *Exporter) Export(ctx context.Context, format string, f todo.Filter) ([]byte, error) {
	format = strings.ToLower(format)
	key := format + "|" + todo.NormalizeCategory(f.Category) + "|" + string(f.Status)
	if b, ok := e.cache.Get(key); ok {
		return b, nil
	}
	gen := e.gen.Load()
	all := e.src.List(ctx, f)
	b, err := render(format, all)
	if err != nil {
		return nil, err
	}
	// an empty result for an unknown category would only pin a dead key
	if len(all) > 0 || todo.NormalizeCategory(f.Category) == "" {
		if e.gen.Load() == gen {
			e.cache.Set(key, b)
		}
	}
	return b, nil
}

func render(format string, all []todo.Task) ([]byte, error) {
	switch format {
	case "json":
		return json.MarshalIndent(all, "", "  ")
	case "yaml":
		return yaml.Marshal(all)
	case "csv":
		var b bytes.Buffer
		w := csv.NewWriter(&b)
		_ = w.Write([]string{"id", "title", "description", "completed", "category"})
		for _, t := range all {
			_ = w.Write([]string{t.ID, t.Title, t.Description, strconv.FormatBool(t.Completed), categoryLabel(t)})
		}
		w.Flush()
		return b.Bytes(), w.Error()
	case "pdf":
		pdf := gofpdf.New("P", "mm", "A4", "")
		tr := pdf.UnicodeTranslatorFromDescriptor("")
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 14)
		pdf.Cell(40, 10, "Task List")
		pdf.Ln(12)
		pdf.SetFont("Arial", "", 10)
		for _, t := range all {
			mark := "[ ]"
			if t.Completed {
				mark = "[x]"
			}
			line := fmt.Sprintf("%s %s (%s)", mark, t.Title, categoryLabel(t))
			pdf.MultiCell(0, 6, tr(line), "0", "L", false)
		}
		var buf bytes.Buffer
		if err := pdf.Output(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown format %s", format)
	}
}

func categoryLabel(t todo.Task) string {
	if t.Category == "" {
		return todo.NoCategory
	}
	return t.Category
}
