// Package filesystem provides a local-disk blob store implementation.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kyberchat/kyberchat/pkg/blob"
)

// Store is a filesystem-backed implementation of blob.Store.
// Blobs are plain files under a single root directory.
type Store struct {
	root   string
	closed bool
	mu     sync.RWMutex
}

// New creates a filesystem blob store rooted at dir, creating the
// directory if needed. The directory is private to the server process;
// blobs hold ciphertext but their existence and sizes are still metadata.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory not configured")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Store{root: dir}, nil
}

// path resolves a blob name to its on-disk path.
// Names must be flat: anything with separators or dot components is
// rejected so request-supplied names cannot escape the root.
func (s *Store) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return "", blob.ErrInvalidName
	}
	return filepath.Join(s.root, name), nil
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// guard runs the checks shared by every operation: the store must be open
// and the name must resolve to a path inside the root.
func (s *Store) guard(name string) (string, error) {
	if s.isClosed() {
		return "", blob.ErrStoreClosed
	}
	return s.path(name)
}

// Put stores a blob under the given name, replacing any existing blob.
// The write goes through a temp file and rename so a crashed upload never
// leaves a partial blob under its final name.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	dst, err := s.guard(name)
	if err != nil {
		return err
	}
	return s.writeAtomic(dst, data)
}

// writeAtomic writes data to a temp file and renames it over dst. Keeping
// the temp file in the root guarantees both ends of the rename live on the
// same mount, which is what makes the rename atomic.
func (s *Store) writeAtomic(dst string, data []byte) error {
	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	switch {
	case werr != nil:
		os.Remove(tmp.Name())
		return fmt.Errorf("write blob: %w", werr)
	case cerr != nil:
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", cerr)
	}

	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename blob into place: %w", err)
	}
	return nil
}

// Get retrieves a complete blob.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	path, err := s.guard(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return nil, blob.ErrBlobNotFound
	case err != nil:
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

// Delete removes a blob. Deleting a missing blob is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	path, err := s.guard(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// HealthCheck verifies the root directory still exists and is a directory.
func (s *Store) HealthCheck(ctx context.Context) error {
	if s.isClosed() {
		return blob.ErrStoreClosed
	}

	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("upload directory health check failed: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("upload path %s is not a directory", s.root)
	}
	return nil
}

// Ensure Store implements blob.Store.
var _ blob.Store = (*Store)(nil)
