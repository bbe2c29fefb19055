//go:build windows

package storage

import (
	"errors"
	"os"
	"time"
)

// fileLock provides advisory file locking for cross-process synchronization.
// On Windows, exclusive file creation stands in for flock(2).
type fileLock struct {
	path string
	held bool
}

// newFileLock creates a file lock. The lock is not acquired until lock()
// is called. The lock file is created at path + ".lock".
func newFileLock(path string) *fileLock {
	return &fileLock{path: path + ".lock"}
}

// lock acquires an exclusive lock with the specified timeout.
// Returns ErrLockTimeout if the lock cannot be acquired within the timeout.
func (l *fileLock) lock(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			f.Close()
			l.held = true
			return nil
		}
		if !errors.Is(err, os.ErrExist) {
			return &StorageError{Op: "lock", ID: l.path, Err: err}
		}
		time.Sleep(10 * time.Millisecond)
	}
	return ErrLockTimeout
}

// unlock releases the lock.
func (l *fileLock) unlock() error {
	if !l.held {
		return nil
	}
	l.held = false
	return os.Remove(l.path)
}
