package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"creatorstribe/internal/models"
)

// StorageKey names the persisted record.
const StorageKey = "auth-storage"

// Persisted is everything that survives a restart. Transient fields such as
// the pending email or the error message are never written.
type Persisted struct {
	User            *models.User `json:"user"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

type Store interface {
	Load(ctx context.Context) (Persisted, bool, error)
	Save(ctx context.Context, p Persisted) error
	Clear(ctx context.Context) error
}

// FileStore keeps the record as <dir>/auth-storage.json.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, StorageKey+".json")}
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load(_ context.Context) (Persisted, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return Persisted{}, false, nil
	}
	if err != nil {
		return Persisted{}, false, fmt.Errorf("read %s: %w", StorageKey, err)
	}

	var p Persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		return Persisted{}, false, fmt.Errorf("decode %s: %w", StorageKey, err)
	}
	return p, true, nil
}

func (f *FileStore) Save(_ context.Context, p Persisted) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode %s: %w", StorageKey, err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", StorageKey, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("write %s: %w", StorageKey, err)
	}
	return nil
}

func (f *FileStore) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear %s: %w", StorageKey, err)
	}
	return nil
}

// MemoryStore is a Store that lives only as long as the process.
type MemoryStore struct {
	mu    sync.Mutex
	value *Persisted
}

func (m *MemoryStore) Load(_ context.Context) (Persisted, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.value == nil {
		return Persisted{}, false, nil
	}
	return *m.value, true, nil
}

func (m *MemoryStore) Save(_ context.Context, p Persisted) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = &p
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = nil
	return nil
}
