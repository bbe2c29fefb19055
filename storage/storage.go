// Package storage provides the local cache of enriched catalog records.
package storage

import (
	"context"
	"errors"
	"fmt"

	"vidsync/catalog"
)

// Sentinel errors for common storage conditions.
var (
	// ErrNotFound indicates the requested record was not found.
	ErrNotFound = errors.New("storage: not found")
	// ErrInvalidInput indicates invalid or malformed input was provided.
	ErrInvalidInput = errors.New("storage: invalid input")
	// ErrStorageCorrupt indicates data corruption was detected.
	ErrStorageCorrupt = errors.New("storage: data corruption detected")
	// ErrLockTimeout indicates a timeout acquiring the store's file lock.
	ErrLockTimeout = errors.New("storage: lock acquisition timeout")
)

// StorageError wraps storage errors with operation context.
// Use errors.As() to extract this error type and get operation details:
//
//	var storErr *storage.StorageError
//	if errors.As(err, &storErr) {
//		fmt.Printf("Failed to %s %s: %v\n", storErr.Op, storErr.ID, storErr.Err)
//	}
type StorageError struct {
	// Op is the operation that failed ("read", "write", "upsert", ...).
	Op string
	// ID is the content id if applicable.
	ID string
	// Err is the underlying error that occurred.
	Err error
}

// Error returns a string representation of the storage error.
func (e *StorageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("storage: %s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *StorageError) Unwrap() error { return e.Err }

// Store is the keyed persistent cache of enriched records.
// Implementations must be safe for concurrent use.
type Store interface {
	// UpsertMerge merges one (listing, detail) envelope pair into the
	// store: descriptive fields are replaced, user-owned fields are
	// preserved. It returns the records that were written.
	UpsertMerge(ctx context.Context, listing, detail *catalog.Envelope) ([]Record, error)

	// Get retrieves a record by content id.
	Get(ctx context.Context, contentID string) (Record, error)

	// Search returns records whose title contains substring
	// (case-insensitive), newest first.
	Search(ctx context.Context, substring string) ([]Record, error)

	// MarkPosition records a playback position. Unknown ids are
	// silently discarded, never an error.
	MarkPosition(ctx context.Context, contentID string, seconds float64) error

	// SetFavorite flags or unflags a record. Unknown ids are silently
	// discarded, like MarkPosition.
	SetFavorite(ctx context.Context, contentID string, favorite bool) error

	// Count returns the number of records in the store.
	Count(ctx context.Context) (int, error)

	// Close releases any resources held by the store.
	Close() error
}
