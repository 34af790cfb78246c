// Package snapshot persists point-in-time copies of configuration files and
// service state dumps, and enumerates, loads and prunes them.
//
// Each backup is a directory named by its id under the store root:
//
//	<root>/<id>/backup.json     metadata
//	<root>/<id>/manifest.json   file backups
//	<root>/<id>/services.json   service backups
//	<root>/<id>/data/<rel>      copied file contents
//
// Captures are staged in a hidden directory and published with a single
// rename, so a backup is either fully visible or absent.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/fslock"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/logging"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/manifest"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/services"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/types"
)

var logger = logging.Get("snapshot")

const (
	lockFile      = ".lock"
	stagingPrefix = ".staging-"
	trashPrefix   = ".trash-"

	// DefaultLockTimeout is how long a capture waits for another process.
	DefaultLockTimeout = 10 * time.Second
)

// Store is a directory of backups.
type Store struct {
	root        string
	workers     int
	now         func() time.Time
	lockTimeout time.Duration

	mu sync.Mutex

	// copyHook runs before each file is copied. Tests use it to inject failures.
	copyHook func(rel string) error
}

// Option configures a Store.
type Option func(*Store)

// WithWorkers bounds copy parallelism. Zero or less uses runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithClock overrides the clock used for backup ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLockTimeout sets how long captures and prunes wait for the store lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// Open opens the store at root, creating it if needed, and removes staging
// leftovers from interrupted captures when no other process holds the lock.
func Open(root string, opts ...Option) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving backup root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating backup root: %w", types.Classify(err))
	}

	s := &Store{
		root:        abs,
		workers:     runtime.NumCPU(),
		now:         time.Now,
		lockTimeout: DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	if release, err := fslock.Acquire(filepath.Join(abs, lockFile), 0); err == nil {
		s.removeLeftovers()
		_ = release()
	}
	return s, nil
}

// Root returns the store's absolute root directory.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) lock() (func(), error) {
	s.mu.Lock()
	release, err := fslock.Acquire(filepath.Join(s.root, lockFile), s.lockTimeout)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	return func() {
		if err := release(); err != nil {
			logger.Warn("releasing store lock", "error", err)
		}
		s.mu.Unlock()
	}, nil
}

func (s *Store) removeLeftovers() {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, stagingPrefix) || strings.HasPrefix(name, trashPrefix) {
			if err := os.RemoveAll(filepath.Join(s.root, name)); err != nil {
				logger.Warn("removing leftover directory", "path", name, "error", err)
			} else {
				logger.Debug("removed leftover directory", "path", name)
			}
		}
	}
}

// CaptureFiles copies every readable entry of m into a new backup.
func (s *Store) CaptureFiles(ctx context.Context, m *manifest.Manifest, label string) (*Backup, error) {
	if m == nil {
		return nil, errors.New("capture: no manifest")
	}
	return s.capture(ctx, KindFiles, label, func(staging string, meta *Meta) (any, error) {
		res, err := s.copyFiles(ctx, filepath.Join(staging, DataDir), m)
		if err != nil {
			return nil, err
		}
		stored := *m
		stored.Entries = res.entries
		stored.Warnings = mergeWarnings(m.Warnings, res.warnings)

		if err := writeJSON(filepath.Join(staging, ManifestFile), &stored); err != nil {
			return nil, err
		}
		meta.Files = res.copied
		meta.Bytes = res.bytes
		meta.Skipped = res.skipped
		meta.Warnings = stored.Warnings
		return &stored, nil
	})
}

// CaptureServices stores a service state document as a new backup.
func (s *Store) CaptureServices(ctx context.Context, doc *services.Document, label string) (*Backup, error) {
	if doc == nil {
		return nil, errors.New("capture: no service document")
	}
	return s.capture(ctx, KindServices, label, func(staging string, meta *Meta) (any, error) {
		stored := doc.Clone()
		stored.Sort()
		if err := writeJSON(filepath.Join(staging, ServicesFile), stored); err != nil {
			return nil, err
		}
		meta.Services = len(stored.Services)
		return stored, nil
	})
}

// SnapshotServices captures doc with a "pre-apply" label. It lets a Store
// act as the services.Adapter's safety snapshotter.
func (s *Store) SnapshotServices(ctx context.Context, doc *services.Document) (string, error) {
	b, err := s.CaptureServices(ctx, doc, "pre-apply")
	if err != nil {
		return "", err
	}
	return b.ID, nil
}

var _ services.Snapshotter = (*Store)(nil)

type stageFunc func(staging string, meta *Meta) (any, error)

func (s *Store) capture(ctx context.Context, kind Kind, label string, stage stageFunc) (b *Backup, err error) {
	start := time.Now()
	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	createdAt := s.now().UTC()
	id := MakeID(createdAt, label)
	final := filepath.Join(s.root, id)
	if _, statErr := os.Lstat(final); statErr == nil {
		return nil, fmt.Errorf("%w: backup %s already exists", types.ErrLocked, id)
	}

	logger.Info("capture started", "backup", id, "kind", kind)

	staging := filepath.Join(s.root, stagingPrefix+uuid.NewString())
	if err := os.Mkdir(staging, 0o755); err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", types.Classify(err))
	}
	defer func() {
		if err != nil {
			if rmErr := os.RemoveAll(staging); rmErr != nil {
				logger.Warn("removing staging directory", "path", staging, "error", rmErr)
			}
			logger.Warn("capture failed", "backup", id, "error", err)
		}
	}()

	meta := Meta{
		Version:   MetaVersion,
		ID:        id,
		Kind:      kind,
		Label:     strings.TrimSpace(label),
		CreatedAt: createdAt,
	}
	payload, err := stage(staging, &meta)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", id, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: capture %s interrupted: %w", types.ErrIncomplete, id, err)
	}
	if err := writeJSON(filepath.Join(staging, MetaFile), &meta); err != nil {
		return nil, fmt.Errorf("capture %s: %w", id, err)
	}
	if err := os.Rename(staging, final); err != nil {
		return nil, fmt.Errorf("publishing backup %s: %w", id, types.Classify(err))
	}

	b = &Backup{ID: id, Kind: kind, Label: meta.Label, CreatedAt: createdAt, Path: final, Meta: meta}
	switch p := payload.(type) {
	case *manifest.Manifest:
		b.Manifest = p
	case *services.Document:
		b.Document = p
	}

	logger.Info("backup captured",
		"backup", id,
		"kind", kind,
		"files", meta.Files,
		"bytes", meta.Bytes,
		"services", meta.Services,
		"skipped", meta.Skipped,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return b, nil
}

// List returns summaries of every backup, newest first. Hidden entries and
// directories without backup.json are ignored.
func (s *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Summary{}, nil
		}
		return nil, fmt.Errorf("listing backups: %w", types.Classify(err))
	}

	out := make([]Summary, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(s.root, e.Name())
		meta, err := readMeta(dir)
		if err != nil {
			if !errors.Is(err, types.ErrNotFound) {
				logger.Warn("skipping unreadable backup", "path", dir, "error", err)
			}
			continue
		}
		out = append(out, Summary{
			ID:        meta.ID,
			Kind:      meta.Kind,
			Label:     meta.Label,
			CreatedAt: meta.CreatedAt,
			Files:     meta.Files,
			Bytes:     meta.Bytes,
			Services:  meta.Services,
			Path:      dir,
		})
	}
	sortNewestFirst(out)
	return out, nil
}

// ListKind returns List filtered to one kind. An empty kind returns all.
func (s *Store) ListKind(kind Kind) ([]Summary, error) {
	all, err := s.List()
	if err != nil || kind == "" {
		return all, err
	}
	out := all[:0]
	for _, sum := range all {
		if sum.Kind == kind {
			out = append(out, sum)
		}
	}
	return out, nil
}

// Load returns the backup with the given id.
func (s *Store) Load(id string) (*Backup, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	return LoadDir(filepath.Join(s.root, id))
}

// Latest returns the newest backup of kind, or of any kind when kind is empty.
func (s *Store) Latest(kind Kind) (*Backup, error) {
	list, err := s.ListKind(kind)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		if kind == "" {
			return nil, fmt.Errorf("%w: no backups in %s", types.ErrNotFound, s.root)
		}
		return nil, fmt.Errorf("%w: no %s backups in %s", types.ErrNotFound, kind, s.root)
	}
	return LoadDir(list[0].Path)
}

// Resolve finds a backup by reference: empty for the newest of kind, a
// 1-based index into ListKind(kind), a directory or file path, or an id.
// A backup of another kind fails with ErrIncompatibleKind.
func (s *Store) Resolve(ref string, kind Kind) (*Backup, error) {
	ref = strings.TrimSpace(ref)

	var (
		b   *Backup
		err error
	)
	switch {
	case ref == "":
		return s.Latest(kind)
	case isIndex(ref):
		n, _ := strconv.Atoi(ref)
		list, listErr := s.ListKind(kind)
		if listErr != nil {
			return nil, listErr
		}
		if n < 1 || n > len(list) {
			return nil, fmt.Errorf("%w: backup #%d (have %d)", types.ErrNotFound, n, len(list))
		}
		b, err = LoadDir(list[n-1].Path)
	case strings.ContainsAny(ref, `/\`) || filepath.IsAbs(ref):
		b, err = LoadDir(ref)
	default:
		b, err = s.Load(ref)
	}
	if err != nil {
		return nil, err
	}
	if kind != "" && b.Kind != kind {
		return nil, fmt.Errorf("%w: %s is a %s backup, want %s", types.ErrIncompatibleKind, b.ID, b.Kind, kind)
	}
	return b, nil
}

// Prune removes the oldest backups beyond maxBackups across the whole store,
// newest kept. A limit of zero or less keeps everything. It returns the
// removed ids.
func (s *Store) Prune(maxBackups int) ([]string, error) {
	return s.prune("", maxBackups)
}

// PruneKind is Prune restricted to backups of one kind; others are untouched.
func (s *Store) PruneKind(kind Kind, maxBackups int) ([]string, error) {
	return s.prune(kind, maxBackups)
}

func (s *Store) prune(kind Kind, maxBackups int) ([]string, error) {
	if maxBackups <= 0 {
		return nil, nil
	}

	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	list, err := s.ListKind(kind)
	if err != nil {
		return nil, err
	}
	if len(list) <= maxBackups {
		return nil, nil
	}

	var removed []string
	var errs []error
	for _, sum := range list[maxBackups:] {
		if err := s.remove(sum); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, sum.ID)
		logger.Info("backup pruned", "backup", sum.ID, "kind", sum.Kind)
	}
	sort.Strings(removed)
	return removed, errors.Join(errs...)
}

// remove hides a backup with a rename before deleting it, so List never
// sees a half-deleted directory.
func (s *Store) remove(sum Summary) error {
	trash := filepath.Join(s.root, trashPrefix+uuid.NewString())
	if err := os.Rename(sum.Path, trash); err != nil {
		return fmt.Errorf("pruning %s: %w", sum.ID, types.Classify(err))
	}
	if err := os.RemoveAll(trash); err != nil {
		return fmt.Errorf("pruning %s: %w", sum.ID, types.Classify(err))
	}
	return nil
}

// LoadDir loads a backup from a directory, or from the directory containing
// the given backup.json, manifest.json or services.json file.
func LoadDir(path string) (*Backup, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("loading backup %s: %w", path, types.Classify(err))
	}
	if info.Mode().IsRegular() {
		abs = filepath.Dir(abs)
	}

	meta, err := readMeta(abs)
	if err != nil {
		return nil, err
	}

	b := &Backup{
		ID:        meta.ID,
		Kind:      meta.Kind,
		Label:     meta.Label,
		CreatedAt: meta.CreatedAt,
		Path:      abs,
		Meta:      *meta,
	}
	switch meta.Kind {
	case KindFiles:
		var m manifest.Manifest
		if err := readJSON(filepath.Join(abs, ManifestFile), &m); err != nil {
			return nil, err
		}
		b.Manifest = &m
	case KindServices:
		var doc services.Document
		if err := readJSON(filepath.Join(abs, ServicesFile), &doc); err != nil {
			return nil, err
		}
		b.Document = &doc
	default:
		return nil, fmt.Errorf("backup %s has unknown kind %q", abs, meta.Kind)
	}
	return b, nil
}

func readMeta(dir string) (*Meta, error) {
	var meta Meta
	if err := readJSON(filepath.Join(dir, MetaFile), &meta); err != nil {
		return nil, err
	}
	if meta.ID == "" {
		meta.ID = filepath.Base(dir)
	}
	return &meta, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", types.ErrNotFound, path)
		}
		return fmt.Errorf("reading %s: %w", path, types.Classify(err))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return types.Classify(err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func sortNewestFirst(list []Summary) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
}

func isIndex(ref string) bool {
	for _, r := range ref {
		if r < '0' || r > '9' {
			return false
		}
	}
	return ref != ""
}

func mergeWarnings(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	sort.Strings(out)
	return out
}
