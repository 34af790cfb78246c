package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// CacheVersion is bumped whenever the entry format or hash algorithm changes.
// Entries written under another version are never returned.
const CacheVersion = 1

// KeySeparator separates the version prefix from the file path in keys.
const KeySeparator = '\x00'

// HashEntry is the cached digest of one file at a given size and mtime.
type HashEntry struct {
	Size   int64
	Mtime  int64 // UnixNano
	Digest string
}

// Encode serializes the entry using gob.
func (e *HashEntry) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes an entry produced by Encode.
func (e *HashEntry) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

// MakeKey builds the key for an absolute file path: v<version>\x00<path>.
func MakeKey(path string) []byte {
	return append(KeyPrefix(), path...)
}

// KeyPrefix returns the prefix shared by all keys of the current version.
func KeyPrefix() []byte {
	return []byte(fmt.Sprintf("v%d%c", CacheVersion, KeySeparator))
}

// ParseKey returns the file path encoded in a key, or false for foreign keys.
func ParseKey(key []byte) (string, bool) {
	prefix := KeyPrefix()
	if !bytes.HasPrefix(key, prefix) {
		return "", false
	}
	return string(key[len(prefix):]), true
}
