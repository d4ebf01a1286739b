package collector

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"todo-svc/internal/todo"
)

// FileCollector reads a json, yaml or csv export back in. The format comes
// from the file extension.
type FileCollector struct {
	Path string
}

func NewFileCollector(path string) *FileCollector { return &FileCollector{Path: path} }

func (c *FileCollector) Collect(ctx context.Context, sink Sink) (int, error) {
	b, err := os.ReadFile(c.Path)
	if err != nil {
		return 0, err
	}
	tasks, err := parse(strings.ToLower(filepath.Ext(c.Path)), b)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", c.Path, err)
	}
	return importTasks(ctx, sink, tasks)
}

func parse(ext string, b []byte) ([]todo.Task, error) {
	var tasks []todo.Task
	switch ext {
	case ".json":
		err := json.Unmarshal(b, &tasks)
		return tasks, err
	case ".yaml", ".yml":
		err := yaml.Unmarshal(b, &tasks)
		return tasks, err
	case ".csv":
		return parseCSV(b)
	}
	return nil, fmt.Errorf("unsupported file type %q", ext)
}

// parseCSV expects the header written by the csv export; columns may come
// in any order.
func parseCSV(b []byte) ([]todo.Task, error) {
	rows, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	col := map[string]int{}
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"title", "description"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	tasks := make([]todo.Task, 0, len(rows)-1)
	for _, row := range rows[1:] {
		done, _ := strconv.ParseBool(field(row, "completed"))
		tasks = append(tasks, todo.Task{
			Title:       field(row, "title"),
			Description: field(row, "description"),
			Completed:   done,
			Category:    field(row, "category"),
		})
	}
	return tasks, nil
}
