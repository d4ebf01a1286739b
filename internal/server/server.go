// Package server exposes the task list as a JSON collection service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"todo-svc/internal/result"
	"todo-svc/internal/task"
	"todo-svc/internal/todo"
)

type Server struct {
	mgr       *task.Manager
	exporter  *result.Exporter
	log       *slog.Logger
	staticDir string
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.log = l } }

// WithStaticDir serves the built client from dir for every non-API path.
func WithStaticDir(dir string) Option { return func(s *Server) { s.staticDir = dir } }

func New(mgr *task.Manager, ex *result.Exporter, opts ...Option) *Server {
	s := &Server{mgr: mgr, exporter: ex, log: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /api/todos", s.handleList)
	mux.HandleFunc("POST /api/todos", s.handleCreate)
	mux.HandleFunc("GET /api/todos/{id}", s.handleGet)
	mux.HandleFunc("PATCH /api/todos/{id}/toggle", s.handleToggle)
	mux.HandleFunc("PATCH /api/todos/{id}/category", s.handleRecategorize)
	mux.HandleFunc("DELETE /api/todos/{id}", s.handleDelete)
	mux.HandleFunc("DELETE /api/todos/completed", s.handleDeleteCompleted)
	mux.HandleFunc("DELETE /api/todos/category/{name}/completed", s.handleDeleteCompletedInCategory)
	mux.HandleFunc("DELETE /api/todos/category/{name}", s.handleDeleteCategory)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusNotFound, errStr("no such endpoint"))
	})
	if s.staticDir != "" {
		mux.Handle("/", spaHandler(s.staticDir))
	}
	return s.logRequests(cors(mux))
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	s.log.Info("listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	status, err := todo.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	f := todo.Filter{Category: r.URL.Query().Get("category"), Status: status}
	writeJSON(w, http.StatusOK, s.mgr.List(r.Context(), f))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	t, err := s.mgr.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type createReq struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	t, err := s.mgr.Create(r.Context(), req.Title, req.Description, req.Category)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	t, err := s.mgr.Toggle(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type categoryReq struct {
	Category string `json:"category"`
}

func (s *Server) handleRecategorize(w http.ResponseWriter, r *http.Request) {
	var req categoryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	t, err := s.mgr.Recategorize(r.Context(), r.PathValue("id"), req.Category)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type deleteResp struct {
	Message string `json:"message"`
	Deleted int    `json:"deleted"`
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.mgr.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResp{Message: "task deleted", Deleted: 1})
}

func (s *Server) handleDeleteCompleted(w http.ResponseWriter, r *http.Request) {
	n, err := s.mgr.DeleteCompleted(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResp{Message: "completed tasks deleted", Deleted: n})
}

func (s *Server) handleDeleteCompletedInCategory(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	n, err := s.mgr.DeleteCompletedInCategory(r.Context(), name)
	if err != nil {
		s.fail(w, fmt.Errorf("category %q: %w", name, err))
		return
	}
	writeJSON(w, http.StatusOK, deleteResp{
		Message: fmt.Sprintf("completed tasks in category %q deleted", name),
		Deleted: n,
	})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	n, err := s.mgr.DeleteCategory(r.Context(), name)
	if err != nil {
		s.fail(w, fmt.Errorf("category %q: %w", name, err))
		return
	}
	writeJSON(w, http.StatusOK, deleteResp{
		Message: fmt.Sprintf("all tasks in category %q deleted", name),
		Deleted: n,
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.mgr.Categories(r.Context()))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = "json"
	}
	status, err := todo.ParseStatus(q.Get("status"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	b, err := s.exporter.Export(r.Context(), format, todo.Filter{Category: q.Get("category"), Status: status})
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	w.Header().Set("Content-Type", result.ContentType(format))
	_, _ = w.Write(b)
}

// fail maps domain errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case todo.IsValidation(err):
		writeErr(w, http.StatusBadRequest, err)
	case errors.Is(err, todo.ErrNotFound), errors.Is(err, todo.ErrNoMatch):
		writeErr(w, http.StatusNotFound, err)
	default:
		s.log.Error("request failed", "err", err)
		writeErr(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

type errStr string

func (e errStr) Error() string { return string(e) }

// spaHandler serves files from dir and falls back to index.html so client
// side routes resolve.
func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := filepath.Join(dir, filepath.FromSlash(filepath.Clean("/"+r.URL.Path)))
		if fi, err := os.Stat(p); err != nil || fi.IsDir() {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		files.ServeHTTP(w, r)
	})
}
