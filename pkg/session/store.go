package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Record is a persisted bearer token. A zero ExpiresAt never expires.
type Record struct {
	Token     string
	ExpiresAt time.Time
}

func (r Record) expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// Store persists the single token of the console session. Load returns a
// zero Record when nothing is stored.
type Store interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, rec Record) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the token for the life of the process.
type MemoryStore struct {
	mu  sync.RWMutex
	rec Record
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec, nil
}

func (s *MemoryStore) Save(ctx context.Context, rec Record) error {
	s.mu.Lock()
	s.rec = rec
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.rec = Record{}
	s.mu.Unlock()
	return nil
}

// FileStore keeps the token in a small JSON document under a configurable key,
// mirroring browser local storage.
type FileStore struct {
	mu   sync.Mutex
	path string
	key  string
}

// NewFileStore constructs a FileStore writing to path.
func NewFileStore(path, key string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("session file path is required")
	}
	if key == "" {
		key = DefaultTokenKey
	}
	return &FileStore{path: path, key: key}, nil
}

func (s *FileStore) Load(ctx context.Context) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("read session file: %w", err)
	}
	doc := map[string]string{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return Record{}, fmt.Errorf("parse session file: %w", err)
		}
	}
	rec := Record{Token: doc[s.key]}
	if exp := doc[s.key+"ExpiresAt"]; exp != "" {
		if t, err := time.Parse(time.RFC3339, exp); err == nil {
			rec.ExpiresAt = t
		}
	}
	return rec, nil
}

func (s *FileStore) Save(ctx context.Context, rec Record) error {
	doc := map[string]string{s.key: rec.Token}
	if !rec.ExpiresAt.IsZero() {
		doc[s.key+"ExpiresAt"] = rec.ExpiresAt.UTC().Format(time.RFC3339)
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
