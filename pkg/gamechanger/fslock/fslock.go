// Package fslock provides cross-process advisory locks on files.
package fslock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/types"
)

// retryInterval is how long Acquire sleeps between attempts.
const retryInterval = 25 * time.Millisecond

// ErrUnsupported is returned on platforms without a file locking primitive.
var ErrUnsupported = errors.New("file locking not supported on this platform")

// Acquire takes an exclusive lock on lockPath, creating the file if needed.
// It retries until timeout elapses and then fails with an error wrapping
// types.ErrLocked. The returned function releases the lock.
func Acquire(lockPath string, timeout time.Duration) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", types.Classify(err))
	}

	deadline := time.Now().Add(timeout)
	for {
		err = tryLock(f)
		if err == nil {
			return func() error {
				unlockErr := unlock(f)
				closeErr := f.Close()
				return errors.Join(unlockErr, closeErr)
			}, nil
		}
		if errors.Is(err, ErrUnsupported) || time.Now().After(deadline) {
			_ = f.Close()
			return nil, fmt.Errorf("%w: %s held by another process: %w", types.ErrLocked, lockPath, err)
		}
		time.Sleep(retryInterval)
	}
}

// Lock blocks until an exclusive lock on f is held.
func Lock(f *os.File) error {
	return lock(f)
}

// Unlock releases a lock taken with Lock.
func Unlock(f *os.File) error {
	return unlock(f)
}
