package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists the ordered token list.
type Store interface {
	// Read returns the persisted list. A missing backing document is not an error.
	Read(ctx context.Context) ([]string, error)
	// Write replaces the persisted list.
	Write(ctx context.Context, values []string) error
	// Clear replaces the persisted list with an empty one.
	Clear(ctx context.Context) error
}

// FileStore keeps the history as a pretty-printed JSON array on local disk.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the JSON document at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the location of the backing document.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Read(ctx context.Context) ([]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse history file %s: %w", f.path, err)
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}

func (f *FileStore) Write(ctx context.Context, values []string) error {
	if values == nil {
		values = []string{}
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	// Write to a sibling temp file and rename so readers never see a partial document.
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp history file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close history file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace history file: %w", err)
	}
	return nil
}

func (f *FileStore) Clear(ctx context.Context) error {
	return f.Write(ctx, []string{})
}

// MemoryStore is an in-process Store. Errors can be injected for tests.
type MemoryStore struct {
	mu       sync.Mutex
	values   []string
	ReadErr  error
	WriteErr error
	writes   int
}

// NewMemoryStore returns a MemoryStore seeded with values.
func NewMemoryStore(values ...string) *MemoryStore {
	return &MemoryStore{values: append([]string{}, values...)}
}

func (m *MemoryStore) Read(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return append([]string{}, m.values...), nil
}

func (m *MemoryStore) Write(ctx context.Context, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.values = append([]string{}, values...)
	m.writes++
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	return m.Write(ctx, []string{})
}

// Writes reports how many successful writes the store has seen.
func (m *MemoryStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
