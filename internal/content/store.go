// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package content

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store is the durable home of the serialised content document.
type Store interface {
	// Read returns the whole document. It returns an error satisfying
	// errors.Is(err, os.ErrNotExist) when nothing has been written yet.
	Read() ([]byte, error)
	// Write replaces the whole document.
	Write(data []byte) error
}

// FileStore keeps the document in a single file on disk.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the file at path. The file and
// its directory are created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Read returns the file contents.
func (s *FileStore) Read() ([]byte, error) {
	return os.ReadFile(s.path)
}

// Write replaces the file atomically: the data goes to a temp file in the
// same directory which is then renamed over the target, so readers never
// observe a half-written document.
func (s *FileStore) Write(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create content dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".content-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// MemoryStore keeps the document in memory. Useful in tests and for
// running without a writable disk.
type MemoryStore struct {
	mu       sync.Mutex
	data     []byte
	written  bool
	writeErr error
	writes   int
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Read returns a copy of the last written document.
func (s *MemoryStore) Read() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.written {
		return nil, fmt.Errorf("memory store: %w", os.ErrNotExist)
	}
	return append([]byte(nil), s.data...), nil
}

// Write stores a copy of data, or fails with the error set by FailWrites.
func (s *MemoryStore) Write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.data = append([]byte(nil), data...)
	s.written = true
	s.writes++
	return nil
}

// FailWrites makes every subsequent Write return err. Pass nil to recover.
func (s *MemoryStore) FailWrites(err error) {
	s.mu.Lock()
	s.writeErr = err
	s.mu.Unlock()
}

// Writes returns how many successful writes the store has seen.
func (s *MemoryStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
