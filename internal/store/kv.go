package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// KV is a device-local string key/value store.
type KV interface {
	Get(key string) (string, bool)
	Set(key, val string) error
	// SetMany writes every pair or none of them.
	SetMany(kvs map[string]string) error
}

// FileKV keeps all keys in one YAML document and rewrites it on every Set.
type FileKV struct {
	mu   sync.Mutex
	path string
	m    map[string]string
}

// OpenFileKV reads path if it exists. A missing file is an empty store.
func OpenFileKV(path string) (*FileKV, error) {
	if path == "" {
		return nil, errors.New("store: local backend needs a path")
	}
	kv := &FileKV{path: path, m: make(map[string]string)}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return kv, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &kv.m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if kv.m == nil {
		kv.m = make(map[string]string)
	}
	return kv, nil
}

func (kv *FileKV) Get(key string) (string, bool) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	v, ok := kv.m[key]
	return v, ok
}

func (kv *FileKV) Set(key, val string) error {
	return kv.SetMany(map[string]string{key: val})
}

// SetMany updates all keys and flushes once. On a failed flush the previous
// values are restored in memory, and the file on disk is left untouched.
func (kv *FileKV) SetMany(kvs map[string]string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	type prior struct {
		val string
		had bool
	}
	prev := make(map[string]prior, len(kvs))
	for k, v := range kvs {
		old, had := kv.m[k]
		prev[k] = prior{val: old, had: had}
		kv.m[k] = v
	}
	if err := kv.flush(); err != nil {
		for k, p := range prev {
			if p.had {
				kv.m[k] = p.val
			} else {
				delete(kv.m, k)
			}
		}
		return err
	}
	return nil
}

// flush writes to a temp file and renames it over the target.
func (kv *FileKV) flush() error {
	b, err := yaml.Marshal(kv.m)
	if err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}
	dir := filepath.Dir(kv.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".store-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, kv.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", kv.path, err)
	}
	return nil
}
