// Package manifest builds deterministic, hash-bearing inventories of the
// files under a set of source roots.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/logging"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/types"
)

var logger = logging.Get("manifest")

// HashCache remembers digests of files whose size and modification time
// have not changed since they were last hashed.
type HashCache interface {
	Lookup(path string, size int64, modTime time.Time) (digest.Digest, bool)
	Store(path string, size int64, modTime time.Time, d digest.Digest)
}

// Options configures a Builder.
type Options struct {
	// Roots are the directories or single files to inventory.
	Roots []string

	// Exclude holds glob patterns; see Matcher for the matching rules.
	Exclude []string

	// Workers bounds hashing parallelism. Zero uses runtime.NumCPU().
	Workers int

	// Cache is consulted before hashing and updated afterwards. Optional.
	Cache HashCache

	// AllowMissing turns missing roots into warnings instead of NotFound errors.
	AllowMissing bool

	// Now overrides the CreatedAt clock. Optional.
	Now func() time.Time
}

// Builder produces manifests.
type Builder struct {
	opts    Options
	exclude *Matcher
}

// NewBuilder creates a Builder.
func NewBuilder(opts Options) *Builder {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Builder{opts: opts}
}

// candidate is a regular file discovered by the walk, waiting to be hashed.
type candidate struct {
	rel  string
	abs  string
	info fs.FileInfo
}

// walkState collects walk output from fastwalk's concurrent callbacks.
type walkState struct {
	mu       sync.Mutex
	seen     map[string]bool
	files    []candidate
	warnings []string
}

func (w *walkState) add(c candidate) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.seen[c.abs] {
		return
	}
	w.seen[c.abs] = true
	w.files = append(w.files, c)
}

func (w *walkState) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Warn(msg)
	w.mu.Lock()
	w.warnings = append(w.warnings, msg)
	w.mu.Unlock()
}

// Build walks the roots and hashes every regular file found. Symbolic links
// are never followed. Files that cannot be read are recorded as unreadable
// and reported in Warnings. Cancelling ctx aborts the build with an error
// wrapping types.ErrIncomplete.
func (b *Builder) Build(ctx context.Context) (*Manifest, error) {
	if len(b.opts.Roots) == 0 {
		return nil, fmt.Errorf("%w: no source roots given", types.ErrNotFound)
	}

	exclude, err := NewMatcher(b.opts.Exclude)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrConfig, err)
	}
	b.exclude = exclude

	start := time.Now()
	roots, err := absRoots(b.opts.Roots)
	if err != nil {
		return nil, err
	}

	ws := &walkState{seen: make(map[string]bool)}
	multi := len(roots) > 1
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, incomplete(err)
		}
		if err := b.walkRoot(ctx, root, multi, ws); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, incomplete(err)
	}

	entries, err := b.hashAll(ctx, ws.files)
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		Version:   FormatVersion,
		Algorithm: string(Algorithm),
		RootPaths: roots,
		CreatedAt: b.opts.Now().UTC(),
		Entries:   entries,
		Warnings:  ws.warnings,
	}
	for _, e := range entries {
		if !e.Readable() {
			m.Warnings = append(m.Warnings, fmt.Sprintf("unreadable: %s: %s", e.SourcePath, e.Error))
		}
	}
	sort.Strings(m.Warnings)

	sum := m.Summary()
	logger.Info("manifest built",
		"roots", len(roots),
		"files", sum.Files,
		"bytes", sum.Bytes,
		"unreadable", sum.Unreadable,
		"elapsed", time.Since(start).Round(time.Millisecond))

	return m, nil
}

func absRoots(roots []string) ([]string, error) {
	out := make([]string, 0, len(roots))
	seen := make(map[string]bool, len(roots))
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("resolving root %s: %w", r, err)
		}
		abs = filepath.Clean(abs)
		if !seen[abs] {
			seen[abs] = true
			out = append(out, abs)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (b *Builder) walkRoot(ctx context.Context, root string, multi bool, ws *walkState) error {
	info, err := os.Lstat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if b.opts.AllowMissing {
			ws.warn("missing source: %s", root)
			return nil
		}
		return fmt.Errorf("%w: source %s", types.ErrNotFound, root)
	case err != nil:
		return fmt.Errorf("stat %s: %w", root, types.Classify(err))
	case info.Mode()&fs.ModeSymlink != 0:
		ws.warn("skipping symlinked source: %s", root)
		return nil
	case info.Mode().IsRegular():
		rel := filepath.Base(root)
		if multi {
			rel = RootKey(root)
		}
		if !b.excluded(rel) {
			ws.add(candidate{rel: rel, abs: root, info: info})
		}
		return nil
	case !info.IsDir():
		ws.warn("skipping non-regular source: %s", root)
		return nil
	}

	conf := fastwalk.Config{Follow: false}
	walkErr := fastwalk.Walk(&conf, root, func(p string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fastwalk.ErrSkipFiles
		}
		if err != nil {
			ws.warn("walk error: %s: %v", p, err)
			return nil
		}
		if p == root {
			return nil
		}

		relToRoot, relErr := filepath.Rel(root, p)
		if relErr != nil {
			ws.warn("walk error: %s: %v", p, relErr)
			return nil
		}
		rel := filepath.ToSlash(relToRoot)
		if multi {
			rel = RootKey(p)
		}

		if b.excluded(filepath.ToSlash(relToRoot)) {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		fi, statErr := d.Info()
		if statErr != nil {
			ws.warn("stat error: %s: %v", p, statErr)
			return nil
		}
		ws.add(candidate{rel: rel, abs: p, info: fi})
		return nil
	})

	if ctx.Err() != nil {
		return incomplete(ctx.Err())
	}
	if walkErr != nil && !errors.Is(walkErr, fastwalk.ErrSkipFiles) {
		return fmt.Errorf("walking %s: %w", root, types.Classify(walkErr))
	}
	return nil
}

func (b *Builder) excluded(rel string) bool {
	return b.exclude.Match(rel)
}

func (b *Builder) hashAll(ctx context.Context, files []candidate) ([]FileEntry, error) {
	entries := make([]FileEntry, len(files))

	g := new(errgroup.Group)
	g.SetLimit(b.opts.Workers)
	for i, c := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entries[i] = b.hashOne(c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, incomplete(err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].RelativePath < entries[j].RelativePath })
	for i := 1; i < len(entries); i++ {
		if entries[i].RelativePath == entries[i-1].RelativePath {
			return nil, fmt.Errorf("duplicate relative path %q from %s and %s",
				entries[i].RelativePath, entries[i-1].SourcePath, entries[i].SourcePath)
		}
	}
	return entries, nil
}

func (b *Builder) hashOne(c candidate) FileEntry {
	entry := FileEntry{
		RelativePath: c.rel,
		SourcePath:   c.abs,
		Size:         c.info.Size(),
		ModTime:      c.info.ModTime().UTC(),
		Status:       StatusOK,
	}

	if b.opts.Cache != nil {
		if d, ok := b.opts.Cache.Lookup(c.abs, entry.Size, entry.ModTime); ok {
			entry.Hash = d
			return entry
		}
	}

	d, err := HashFile(c.abs)
	if err != nil {
		entry.Status = StatusUnreadable
		entry.Error = types.Classify(err).Error()
		logger.Warn("file unreadable", "path", c.abs, "error", err)
		return entry
	}
	entry.Hash = d

	if b.opts.Cache != nil {
		b.opts.Cache.Store(c.abs, entry.Size, entry.ModTime, d)
	}
	return entry
}

// HashFile computes the content digest of a file with the manifest algorithm.
func HashFile(p string) (digest.Digest, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()

	d, err := Algorithm.FromReader(f)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", p, err)
	}
	return d, nil
}

// RootKey turns an absolute path into a slash-separated key without a
// volume colon or leading separator, e.g. C:\Users\me -> C/Users/me.
func RootKey(abs string) string {
	vol := filepath.VolumeName(abs)
	rest := filepath.ToSlash(abs[len(vol):])
	vol = strings.TrimSuffix(vol, ":")
	return strings.Trim(path.Join(filepath.ToSlash(vol), rest), "/")
}

func incomplete(err error) error {
	return fmt.Errorf("%w: manifest build interrupted: %w", types.ErrIncomplete, err)
}
