// Package blob defines the storage interface for encrypted attachment blobs.
//
// Attachments are encrypted client-side before upload, so backends store
// opaque ciphertext under server-generated names and never interpret the
// contents. Implementations live in subpackages (filesystem, s3).
package blob

import (
	"context"
	"errors"
)

// Common errors returned by Store implementations.
var (
	// ErrBlobNotFound is returned when a requested blob doesn't exist.
	ErrBlobNotFound = errors.New("blob not found")

	// ErrInvalidName is returned for names that could escape the store,
	// such as path traversal attempts.
	ErrInvalidName = errors.New("invalid blob name")

	// ErrStoreClosed is returned when operations are attempted on a closed store.
	ErrStoreClosed = errors.New("store is closed")
)

// Store defines the interface for attachment blob backends.
//
// Names are flat identifiers (no separators); the server generates them as
// random hex with an .enc suffix, but Get and Delete receive names from
// request paths, so implementations must reject anything that resolves
// outside the store with ErrInvalidName.
type Store interface {
	// Put stores a blob under the given name, replacing any existing blob.
	Put(ctx context.Context, name string, data []byte) error

	// Get retrieves a complete blob.
	// Returns ErrBlobNotFound if the blob doesn't exist.
	Get(ctx context.Context, name string) ([]byte, error)

	// Delete removes a blob. Returns nil if the blob doesn't exist.
	Delete(ctx context.Context, name string) error

	// Close releases any resources held by the store.
	Close() error

	// HealthCheck verifies the backend is accessible and operational.
	HealthCheck(ctx context.Context) error
}
