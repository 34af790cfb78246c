package manifest

import (
	"slices"
	"sort"
	"time"

	"github.com/opencontainers/go-digest"
)

// FormatVersion is the serialized manifest format version.
const FormatVersion = 1

// Algorithm is the content hash algorithm used by every manifest.
const Algorithm = digest.SHA256

// Status describes whether a file's content could be read when the manifest was built.
type Status string

const (
	// StatusOK means the file was hashed.
	StatusOK Status = "ok"

	// StatusUnreadable means the file could not be opened or read (permission or sharing lock).
	// Such entries have no hash and are skipped by capture, restore and hash comparison.
	StatusUnreadable Status = "unreadable"
)

// FileEntry describes one regular file. Entries are immutable once recorded.
type FileEntry struct {
	RelativePath string        `json:"relativePath"`
	SourcePath   string        `json:"absoluteSourcePath"`
	Size         int64         `json:"sizeBytes"`
	Hash         digest.Digest `json:"contentHash,omitempty"`
	ModTime      time.Time     `json:"modifiedTime"`
	Status       Status        `json:"status"`
	Error        string        `json:"error,omitempty"`
}

// Readable reports whether the entry carries a content hash.
func (e FileEntry) Readable() bool {
	return e.Status != StatusUnreadable && e.Hash != ""
}

// Manifest is a deterministic inventory of files, ordered by relative path.
type Manifest struct {
	Version   int         `json:"version"`
	Algorithm string      `json:"hashAlgorithm"`
	RootPaths []string    `json:"rootPaths"`
	CreatedAt time.Time   `json:"createdAt"`
	Entries   []FileEntry `json:"entries"`
	Warnings  []string    `json:"warnings,omitempty"`
}

// Summary aggregates a manifest's entries.
type Summary struct {
	Files      int   `json:"files"`
	Bytes      int64 `json:"bytes"`
	Unreadable int   `json:"unreadable"`
}

// Summary counts files, bytes and unreadable entries.
func (m *Manifest) Summary() Summary {
	var s Summary
	for _, e := range m.Entries {
		s.Files++
		s.Bytes += e.Size
		if !e.Readable() {
			s.Unreadable++
		}
	}
	return s
}

// Lookup returns the entry for a relative path using binary search.
func (m *Manifest) Lookup(rel string) (FileEntry, bool) {
	i := sort.Search(len(m.Entries), func(i int) bool { return m.Entries[i].RelativePath >= rel })
	if i < len(m.Entries) && m.Entries[i].RelativePath == rel {
		return m.Entries[i], true
	}
	return FileEntry{}, false
}

// Equal reports whether two manifests describe the same roots and files.
// CreatedAt and Warnings are ignored.
func (m *Manifest) Equal(other *Manifest) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.Algorithm != other.Algorithm || !slices.Equal(m.RootPaths, other.RootPaths) {
		return false
	}
	return slices.EqualFunc(m.Entries, other.Entries, func(a, b FileEntry) bool {
		return a.RelativePath == b.RelativePath &&
			a.SourcePath == b.SourcePath &&
			a.Size == b.Size &&
			a.Hash == b.Hash &&
			a.ModTime.Equal(b.ModTime) &&
			a.Status == b.Status
	})
}
