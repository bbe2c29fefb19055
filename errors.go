package vidsync

import (
	"vidsync/catalog"
	"vidsync/retry"
	"vidsync/storage"
	"vidsync/transport"
)

// Error handling types exported for library users.
//
// All error types support the standard error handling patterns:
//
// Using errors.Is() for sentinel errors:
//
//	if errors.Is(err, vidsync.ErrNoResults) {
//		fmt.Println("Nothing matched")
//	}
//
// Using errors.As() for wrapped errors:
//
//	var storErr *vidsync.StorageError
//	if errors.As(err, &storErr) {
//		fmt.Printf("Failed to %s %s: %v\n", storErr.Op, storErr.ID, storErr.Err)
//	}

// Type aliases for convenient error handling.
type (
	// DecodeError wraps errors decoding a remote envelope.
	DecodeError = catalog.DecodeError
	// StorageError wraps errors during storage operations.
	StorageError = storage.StorageError
	// RateLimitError reports a rate-limited request and its retry delay.
	RateLimitError = transport.RateLimitError
	// StatusError reports a non-success HTTP status.
	StatusError = transport.StatusError
	// ExhaustedError wraps errors that persisted after all retries.
	ExhaustedError = retry.ExhaustedError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrNoResults indicates a remote search matched nothing. Callers
	// treat it as a successful empty outcome.
	ErrNoResults = catalog.ErrNoResults

	// Storage errors
	// ErrNotFound indicates a record was not found in the cache.
	ErrNotFound = storage.ErrNotFound
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = storage.ErrInvalidInput
	// ErrStorageCorrupt indicates data corruption was detected.
	ErrStorageCorrupt = storage.ErrStorageCorrupt
	// ErrLockTimeout indicates a timeout acquiring a file lock.
	ErrLockTimeout = storage.ErrLockTimeout

	// Transport errors
	// ErrNoResponse indicates the remote returned no usable response.
	ErrNoResponse = transport.ErrNoResponse
	// ErrRequestFailed indicates the request failed before a response.
	ErrRequestFailed = transport.ErrRequestFailed
)

// IsRetryable determines if an error should be retried.
// It returns false for permanent errors like context cancellation.
func IsRetryable(err error) bool {
	return retry.IsRetryable(err)
}
