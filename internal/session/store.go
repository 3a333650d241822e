// Package session holds the logged-in shopper's persisted state.
//
// The state is a small set of string-valued keys (token, username, balance)
// behind the Store contract. A Session is created once per process and passed
// explicitly to every component that needs a bearer token or the wallet
// balance.
package session

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dunglas/httpsfv"
)

// Store is a string key/value store.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
	Clear() error
}

// MemoryStore keeps values in process memory. Tests use it directly.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string)
	return nil
}

// FileStore persists values to a single file so the CLI keeps its login
// between invocations. The file holds one RFC 8941 dictionary line:
//
//	balance="5000", token="eyJhbGciOi...", username="crio.do"
//
// Every call reads or rewrites the whole file.
type FileStore struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
}

// NewFileStore returns a store backed by path. The file is created on first write.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &FileStore{path: path, logger: logger}
}

// Get reports an unreadable file as a missing key and logs the cause.
func (f *FileStore) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.load()
	if err != nil {
		f.logger.Warn("unreadable session file",
			slog.String("path", f.path),
			slog.String("key", key),
			slog.String("error", err.Error()))
		return "", false
	}
	v, ok := values[key]
	return v, ok
}

func (f *FileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.load()
	if err != nil {
		return err
	}
	values[key] = value
	return f.save(values)
}

func (f *FileStore) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.save(values)
}

func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clearing session file: %w", err)
	}
	return nil
}

func (f *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session file: %w", err)
	}
	values, err := decodeDictionary(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing session file %s: %w", f.path, err)
	}
	return values, nil
}

func (f *FileStore) save(values map[string]string) error {
	line, err := encodeDictionary(values)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(line + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return os.Rename(tmp.Name(), f.path)
}

// decodeDictionary parses a dictionary whose members are all string items.
// Non-string members are skipped.
func decodeDictionary(line string) (map[string]string, error) {
	values := make(map[string]string)
	line = strings.TrimSpace(line)
	if line == "" {
		return values, nil
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{line})
	if err != nil {
		return nil, err
	}
	for _, name := range dict.Names() {
		member, _ := dict.Get(name)
		item, ok := member.(httpsfv.Item)
		if !ok {
			continue
		}
		if s, ok := item.Value.(string); ok {
			values[name] = s
		}
	}
	return values, nil
}

func encodeDictionary(values map[string]string) (string, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	dict := httpsfv.NewDictionary()
	for _, k := range keys {
		dict.Add(k, httpsfv.NewItem(values[k]))
	}
	return httpsfv.Marshal(dict)
}
