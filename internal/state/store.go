// internal/state/store.go
package state

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Store is a durable scalar key/value store. Each Set is written through
// before it returns; there is no multi-key atomicity.
type Store interface {
	Int(key string, def int64) int64
	SetInt(key string, v int64) error
	Bool(key string, def bool) bool
	SetBool(key string, v bool) error
}

// FileStore keeps every key in one yaml document and rewrites the whole file
// atomically (temp file + rename) on every Set.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]any
}

// OpenFileStore loads path, creating its directory when needed. A missing
// file is an empty store.
func OpenFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("state: path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "state: create directory")
	}

	fs := &FileStore{path: path, values: make(map[string]any)}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, errors.Wrap(err, "state: read")
	}
	if err := yaml.Unmarshal(raw, &fs.values); err != nil {
		return nil, errors.Wrapf(err, "state: parse %s", path)
	}
	if fs.values == nil {
		fs.values = make(map[string]any)
	}
	return fs, nil
}

// Path returns the backing file.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Int(key string, def int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch v := f.values[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case uint64:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return def
	}
}

func (f *FileStore) SetInt(key string, v int64) error {
	return f.set(key, v)
}

func (f *FileStore) Bool(key string, def bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if v, ok := f.values[key].(bool); ok {
		return v
	}
	return def
}

func (f *FileStore) SetBool(key string, v bool) error {
	return f.set(key, v)
}

func (f *FileStore) set(key string, v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.values[key]
	f.values[key] = v
	if err := f.flush(); err != nil {
		// keep memory in line with disk
		if had {
			f.values[key] = prev
		} else {
			delete(f.values, key)
		}
		return err
	}
	return nil
}

func (f *FileStore) flush() error {
	data, err := yaml.Marshal(f.values)
	if err != nil {
		return errors.Wrap(err, "state: marshal")
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".state-*")
	if err != nil {
		return errors.Wrap(err, "state: create temp")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "state: write temp")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "state: sync temp")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "state: close temp")
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return errors.Wrap(err, "state: rename")
	}
	return nil
}

// MemStore is an in-memory Store. FailWith makes every Set fail.
type MemStore struct {
	mu       sync.Mutex
	ints     map[string]int64
	bools    map[string]bool
	FailWith error
	Writes   int
}

func NewMemStore() *MemStore {
	return &MemStore{ints: map[string]int64{}, bools: map[string]bool{}}
}

func (m *MemStore) Int(key string, def int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.ints[key]; ok {
		return v
	}
	return def
}

func (m *MemStore) SetInt(key string, v int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.ints[key] = v
	m.Writes++
	return nil
}

func (m *MemStore) Bool(key string, def bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.bools[key]; ok {
		return v
	}
	return def
}

func (m *MemStore) SetBool(key string, v bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.bools[key] = v
	m.Writes++
	return nil
}
