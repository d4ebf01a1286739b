package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	cfg, err := Load(New(""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":5000" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Store.Backend != "local" {
		t.Fatalf("backend = %q", cfg.Store.Backend)
	}
	if !strings.HasSuffix(cfg.Store.Path, "store.yaml") {
		t.Fatalf("path = %q", cfg.Store.Path)
	}
	if cfg.Export.CacheTTL != time.Minute {
		t.Fatalf("ttl = %s", cfg.Export.CacheTTL)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "todo.yaml")
	body := `server:
  addr: ":8080"
  static_dir: ./client/build
store:
  backend: memory
export:
  cache_ttl: 30s
log:
  level: debug
  format: json
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TODO_SERVER_ADDR", ":9090")

	cfg, err := Load(New(path))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("env override lost: addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.StaticDir != "./client/build" || cfg.Store.Backend != "memory" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Export.CacheTTL != 30*time.Second || cfg.Log.Format != "json" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Export: ExportConfig{CacheTTL: time.Minute},
			Log:    LogConfig{Level: "info", Format: "text"},
		}
	}
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"memory ok", func(c *Config) { c.Store.Backend = "memory" }, ""},
		{"local needs path", func(c *Config) { c.Store.Backend = "local" }, "store.path"},
		{"mysql needs dsn", func(c *Config) { c.Store.Backend = "mysql" }, "store.dsn"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "redis" }, "store.backend"},
		{"zero ttl", func(c *Config) { c.Store.Backend = "memory"; c.Export.CacheTTL = 0 }, "cache_ttl"},
		{"bad level", func(c *Config) { c.Store.Backend = "memory"; c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Store.Backend = "memory"; c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
