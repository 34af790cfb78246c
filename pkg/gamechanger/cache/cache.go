// Package cache keeps a persistent record of file digests so unchanged
// files are not re-hashed on every backup.
package cache

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/logging"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/manifest"
)

var logger = logging.Get("cache")

var _ manifest.HashCache = (*HashCache)(nil)

// HashCache is a Badger-backed digest cache. Lookups read through to the
// store; new digests are buffered and written in one batch by Flush.
type HashCache struct {
	store *Store

	mu      sync.Mutex
	pending map[string]*HashEntry
	hits    int
	misses  int
}

// Open opens or creates a hash cache in dir.
func Open(dir string) (*HashCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	store, err := OpenStore(dir)
	if err != nil {
		return nil, fmt.Errorf("opening hash cache: %w", err)
	}
	return &HashCache{store: store, pending: make(map[string]*HashEntry)}, nil
}

// Lookup returns the cached digest for path if its size and mtime still match.
func (c *HashCache) Lookup(path string, size int64, modTime time.Time) (digest.Digest, bool) {
	c.mu.Lock()
	entry, ok := c.pending[path]
	c.mu.Unlock()

	if !ok {
		var err error
		entry, err = c.store.Get(path)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				logger.Warn("hash cache read failed", "path", path, "error", err)
			}
			c.count(false)
			return "", false
		}
	}

	if entry.Size != size || entry.Mtime != modTime.UnixNano() {
		c.count(false)
		return "", false
	}
	d := digest.Digest(entry.Digest)
	if d.Validate() != nil {
		c.count(false)
		return "", false
	}
	c.count(true)
	return d, true
}

// Store records a freshly computed digest. It is persisted by Flush.
func (c *HashCache) Store(path string, size int64, modTime time.Time, d digest.Digest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[path] = &HashEntry{Size: size, Mtime: modTime.UnixNano(), Digest: d.String()}
}

// Flush writes buffered digests to the store.
func (c *HashCache) Flush() error {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[string]*HashEntry)
	c.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}
	if err := c.store.PutBatch(pending); err != nil {
		return fmt.Errorf("writing hash cache: %w", err)
	}
	logger.Debug("hash cache flushed", "entries", len(pending))
	return nil
}

// Stats returns lookup hits and misses since Open.
func (c *HashCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Clear removes every cached digest and returns how many were removed.
func (c *HashCache) Clear() (int, error) {
	c.mu.Lock()
	c.pending = make(map[string]*HashEntry)
	c.mu.Unlock()
	return c.store.DeletePrefix("")
}

// Len returns the number of persisted entries.
func (c *HashCache) Len() (int, error) {
	return c.store.Count()
}

// Close flushes pending digests and closes the store.
func (c *HashCache) Close() error {
	flushErr := c.Flush()
	return errors.Join(flushErr, c.store.Close())
}

func (c *HashCache) count(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}
