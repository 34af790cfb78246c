package snapshot

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/manifest"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/services"
)

// Kind distinguishes file backups from service backups.
type Kind string

const (
	KindFiles    Kind = "files"
	KindServices Kind = "services"
)

// ParseKind accepts "files"/"file" and "services"/"service". Empty means any.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "files", "file":
		return KindFiles, nil
	case "services", "service":
		return KindServices, nil
	}
	return "", fmt.Errorf("unknown backup kind %q", s)
}

// File names inside a backup directory.
const (
	MetaFile     = "backup.json"
	ManifestFile = "manifest.json"
	ServicesFile = "services.json"
	DataDir      = "data"
)

// MetaVersion is the backup.json format version.
const MetaVersion = 1

// Meta is the content of backup.json.
type Meta struct {
	Version   int       `json:"version"`
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Files     int       `json:"files,omitempty"`
	Bytes     int64     `json:"bytes,omitempty"`
	Services  int       `json:"services,omitempty"`
	Skipped   int       `json:"skipped,omitempty"`
	Warnings  []string  `json:"warnings,omitempty"`
}

// Summary is the listing view of a backup.
type Summary struct {
	ID        string    `json:"id" yaml:"id"`
	Kind      Kind      `json:"kind" yaml:"kind"`
	Label     string    `json:"label,omitempty" yaml:"label,omitempty"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	Files     int       `json:"files,omitempty" yaml:"files,omitempty"`
	Bytes     int64     `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	Services  int       `json:"services,omitempty" yaml:"services,omitempty"`
	Path      string    `json:"path" yaml:"path"`
}

// Backup is an immutable, loaded snapshot. Exactly one of Manifest and
// Document is set, according to Kind.
type Backup struct {
	ID        string
	Kind      Kind
	Label     string
	CreatedAt time.Time

	// Path is the backup's storage location.
	Path string

	Manifest *manifest.Manifest
	Document *services.Document

	Meta Meta
}

// Summary returns the listing view of b.
func (b *Backup) Summary() Summary {
	return Summary{
		ID:        b.ID,
		Kind:      b.Kind,
		Label:     b.Label,
		CreatedAt: b.CreatedAt,
		Files:     b.Meta.Files,
		Bytes:     b.Meta.Bytes,
		Services:  b.Meta.Services,
		Path:      b.Path,
	}
}

// DataPath returns where the stored copy of a manifest entry lives.
func (b *Backup) DataPath(rel string) string {
	return filepath.Join(b.Path, DataDir, filepath.FromSlash(rel))
}
