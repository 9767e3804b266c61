package embedding

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore is a JSON-file-backed embedding cache. Writes accumulate in
// memory with a dirty flag; Save persists atomically by writing a temp
// file and renaming it over the target, so a crash mid-save never leaves
// a truncated cache.
type FileStore struct {
	mu      sync.RWMutex
	path    string
	entries map[string][]float32
	dirty   bool
}

// NewFileStore opens or creates a file-backed store. A missing file
// yields an empty store; a corrupted file is an error so silent cache
// loss is visible at startup.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:    path,
		entries: make(map[string][]float32),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding cache: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		return nil, fmt.Errorf("embedding cache %s is corrupted: %w", path, err)
	}
	return s, nil
}

// Get returns the cached vector for a key.
func (s *FileStore) Get(key string) ([]float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vec, ok := s.entries[key]
	return vec, ok
}

// Put stores a vector in memory and marks the store dirty.
func (s *FileStore) Put(key string, vector []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = vector
	s.dirty = true
}

// Len returns the number of cached entries.
func (s *FileStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Save persists the cache if dirty. Write-then-rename keeps the previous
// file intact until the new one is complete.
func (s *FileStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	data, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding cache: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write embedding cache: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace embedding cache: %w", err)
	}

	s.dirty = false
	return nil
}

// Close saves any pending writes.
func (s *FileStore) Close() error {
	return s.Save()
}
