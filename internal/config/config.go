// Package config loads todo-svc settings from todo.yaml and TODO_* env vars.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"todo-svc/internal/store"
)

type Config struct {
	Server ServerConfig
	Store  store.Config
	Export ExportConfig
	Log    LogConfig
}

type ServerConfig struct {
	Addr string
	// StaticDir, when set, is served for every non-API path.
	StaticDir string
}

type ExportConfig struct {
	CacheTTL time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// DefaultDir is where the local store and config live unless overridden.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "todo-svc")
}

// New returns a viper instance with defaults, env binding and search paths
// set. Callers bind flags to it before calling Load.
func New(configFile string) *viper.Viper {
	v := viper.New()
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.static_dir", "")
	v.SetDefault("store.backend", store.BackendLocal)
	v.SetDefault("store.path", filepath.Join(DefaultDir(), "store.yaml"))
	v.SetDefault("store.dsn", "")
	v.SetDefault("export.cache_ttl", time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix("TODO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("todo")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultDir())
	}
	return v
}

// Load reads the config file if one exists and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	cfg := &Config{
		Server: ServerConfig{
			Addr:      v.GetString("server.addr"),
			StaticDir: v.GetString("server.static_dir"),
		},
		Store: store.Config{
			Backend: v.GetString("store.backend"),
			Path:    v.GetString("store.path"),
			DSN:     v.GetString("store.dsn"),
		},
		Export: ExportConfig{CacheTTL: v.GetDuration("export.cache_ttl")},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case store.BackendMemory:
	case store.BackendLocal:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the %s backend", store.BackendLocal)
		}
	case store.BackendMySQL:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the %s backend", store.BackendMySQL)
		}
	default:
		return fmt.Errorf("store.backend %q: must be one of memory, local, mysql", c.Store.Backend)
	}
	if c.Export.CacheTTL <= 0 {
		return fmt.Errorf("export.cache_ttl must be positive, got %s", c.Export.CacheTTL)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format %q: must be text or json", c.Log.Format)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", s, err)
	}
	return l, nil
}

// Logger builds the process logger described by c.
func (c LogConfig) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
