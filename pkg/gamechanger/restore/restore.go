// Package restore copies backed-up files to their original locations and
// replays stored service state.
package restore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/logging"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/manifest"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/services"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/snapshot"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/types"
)

var logger = logging.Get("restore")

// Options controls a restore.
type Options struct {
	// DryRun plans every file without writing anything.
	DryRun bool

	// Force downgrades permission, lock and integrity failures to warnings.
	Force bool

	// Verify checks stored bytes against the manifest hash while copying.
	Verify bool
}

// Action is what happened, or would happen in a dry run, to one file.
type Action string

const (
	ActionRestore      Action = "restore"
	ActionUnchanged    Action = "unchanged"
	ActionSkipped      Action = "skipped"
	ActionFailed       Action = "failed"
	ActionNotAttempted Action = "not-attempted"
)

// FileResult is the outcome for one manifest entry.
type FileResult struct {
	RelativePath string `json:"relativePath" yaml:"relativePath"`
	Destination  string `json:"destination" yaml:"destination"`
	Action       Action `json:"action" yaml:"action"`
	Warning      string `json:"warning,omitempty" yaml:"warning,omitempty"`
	Error        string `json:"error,omitempty" yaml:"error,omitempty"`

	err error
}

// Result summarizes a restore. Dry runs and real runs share its shape.
type Result struct {
	BackupID   string                `json:"backupId" yaml:"backupId"`
	Kind       snapshot.Kind         `json:"kind" yaml:"kind"`
	DryRun     bool                  `json:"dryRun" yaml:"dryRun"`
	Files      []FileResult          `json:"files,omitempty" yaml:"files,omitempty"`
	Restored   int                   `json:"restored" yaml:"restored"`
	Unchanged  int                   `json:"unchanged" yaml:"unchanged"`
	Skipped    int                   `json:"skipped" yaml:"skipped"`
	Failed     int                   `json:"failed" yaml:"failed"`
	Warnings   []string              `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Services   *services.ApplyResult `json:"services,omitempty" yaml:"services,omitempty"`
	Incomplete bool                  `json:"incomplete" yaml:"incomplete"`
}

// Engine restores backups.
type Engine struct {
	adapter *services.Adapter
	workers int
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers bounds file restore parallelism.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// NewEngine creates an Engine. adapter may be nil when only file backups
// will be restored.
func NewEngine(adapter *services.Adapter, opts ...Option) *Engine {
	e := &Engine{adapter: adapter, workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Restore brings the live system back to the state stored in b. File
// restores never delete destination files that are absent from the
// manifest. Per-file failures are collected into a
// *types.PartialFailureError returned alongside the full result.
func (e *Engine) Restore(ctx context.Context, b *snapshot.Backup, opts Options) (*Result, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: no backup to restore", types.ErrNotFound)
	}
	res := &Result{BackupID: b.ID, Kind: b.Kind, DryRun: opts.DryRun}

	switch b.Kind {
	case snapshot.KindServices:
		return e.restoreServices(ctx, b, opts, res)
	case snapshot.KindFiles:
		return e.restoreFiles(ctx, b, opts, res)
	}
	return nil, fmt.Errorf("backup %s has unknown kind %q", b.ID, b.Kind)
}

func (e *Engine) restoreServices(ctx context.Context, b *snapshot.Backup, opts Options, res *Result) (*Result, error) {
	if b.Document == nil {
		return nil, fmt.Errorf("%w: backup %s has no service document", types.ErrNotFound, b.ID)
	}
	if e.adapter == nil {
		return nil, errors.New("service restore requires a service adapter")
	}
	logger.Info("service restore started", "backup", b.ID, "services", len(b.Document.Services), "dry_run", opts.DryRun)

	applied, err := e.adapter.Apply(ctx, b.Document, opts.DryRun)
	res.Services = applied
	if applied != nil {
		res.Restored = len(applied.Applied)
		res.Unchanged = len(applied.Unchanged)
		res.Failed = len(applied.Failed)
		res.Incomplete = applied.Incomplete
	}
	return res, err
}

func (e *Engine) restoreFiles(ctx context.Context, b *snapshot.Backup, opts Options, res *Result) (*Result, error) {
	if b.Manifest == nil {
		return nil, fmt.Errorf("%w: backup %s has no manifest", types.ErrNotFound, b.ID)
	}
	start := time.Now()
	entries := b.Manifest.Entries
	logger.Info("restore started", "backup", b.ID, "files", len(entries), "dry_run", opts.DryRun,
		"force", opts.Force, "verify", opts.Verify)

	results := make([]FileResult, len(entries))
	var mu sync.Mutex
	cancelled := false

	g := new(errgroup.Group)
	g.SetLimit(e.workers)
	for i, entry := range entries {
		g.Go(func() error {
			if ctx.Err() != nil {
				mu.Lock()
				cancelled = true
				mu.Unlock()
				results[i] = FileResult{RelativePath: entry.RelativePath, Destination: entry.SourcePath, Action: ActionNotAttempted}
				return nil
			}
			results[i] = restoreOne(b, entry, opts)
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].RelativePath < results[j].RelativePath })
	res.Files = results
	res.Incomplete = cancelled

	var failed []types.ItemError
	for _, r := range results {
		switch r.Action {
		case ActionRestore:
			res.Restored++
		case ActionUnchanged:
			res.Unchanged++
		case ActionSkipped:
			res.Skipped++
		case ActionFailed:
			res.Failed++
			failed = append(failed, types.NewItemError(r.RelativePath, r.err))
		}
		if r.Warning != "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %s", r.RelativePath, r.Warning))
		}
	}

	logger.Info("restore finished",
		"backup", b.ID,
		"restored", res.Restored,
		"unchanged", res.Unchanged,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"dry_run", opts.DryRun,
		"incomplete", res.Incomplete,
		"elapsed", time.Since(start).Round(time.Millisecond))

	if res.Incomplete {
		return res, fmt.Errorf("%w: restore of %s interrupted: %w", types.ErrIncomplete, b.ID, ctx.Err())
	}
	return res, types.NewPartialFailure("restore", res.Restored+res.Unchanged, failed)
}

func restoreOne(b *snapshot.Backup, entry manifest.FileEntry, opts Options) FileResult {
	r := FileResult{RelativePath: entry.RelativePath, Destination: entry.SourcePath}

	if !entry.Readable() {
		r.Action = ActionSkipped
		r.Warning = "not captured: " + entry.Error
		return r
	}

	src := b.DataPath(entry.RelativePath)
	if _, err := os.Stat(src); err != nil {
		return failure(r, fmt.Errorf("stored copy missing: %w", types.Classify(err)), opts.Force)
	}

	if d, err := manifest.HashFile(entry.SourcePath); err == nil && d == entry.Hash {
		r.Action = ActionUnchanged
		return r
	}

	if opts.DryRun {
		if opts.Verify {
			d, err := manifest.HashFile(src)
			if err != nil {
				return failure(r, types.Classify(err), opts.Force)
			}
			if d != entry.Hash {
				var ok bool
				if r, ok = integrity(r, entry, d, opts.Force); !ok {
					return r
				}
			}
		}
		r.Action = ActionRestore
		return r
	}

	if err := writeFile(src, entry, opts, &r); err != nil {
		return failure(r, err, opts.Force)
	}
	if r.Action == "" {
		r.Action = ActionRestore
	}
	return r
}

// integrity records a hash mismatch. It reports false when the file must be skipped.
func integrity(r FileResult, entry manifest.FileEntry, got digest.Digest, force bool) (FileResult, bool) {
	err := fmt.Errorf("%w: stored copy hashes to %s, manifest says %s", types.ErrIntegrityViolation, got, entry.Hash)
	if force {
		r.Warning = err.Error()
		logger.Warn("integrity mismatch restored anyway", "path", entry.RelativePath)
		return r, true
	}
	logger.Warn("integrity mismatch", "path", entry.RelativePath)
	r.Action = ActionFailed
	r.Error = err.Error()
	r.err = err
	return r, false
}

func failure(r FileResult, err error, force bool) FileResult {
	if force && (types.IsPermission(err) || isLockError(err)) {
		r.Action = ActionSkipped
		r.Warning = err.Error()
		logger.Warn("restore skipped", "path", r.Destination, "error", err)
		return r
	}
	r.Action = ActionFailed
	r.Error = err.Error()
	r.err = err
	logger.Warn("restore failed", "path", r.Destination, "error", err)
	return r
}

// writeFile copies src into a temporary sibling of the destination, checks
// the hash when verifying, and renames it into place.
func writeFile(src string, entry manifest.FileEntry, opts Options, r *FileResult) error {
	dst := entry.SourcePath
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return types.Classify(err)
	}

	mode := fs.FileMode(0o644)
	readOnly := false
	if info, err := os.Stat(dst); err == nil {
		mode = info.Mode().Perm() | 0o200
		readOnly = info.Mode().Perm()&0o200 == 0
	}

	in, err := os.Open(src)
	if err != nil {
		return types.Classify(err)
	}
	defer in.Close()

	tmp := filepath.Join(dir, "."+filepath.Base(dst)+".restore-"+uuid.NewString()[:8])
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, mode)
	if err != nil {
		return types.Classify(err)
	}
	keep := false
	defer func() {
		if !keep {
			_ = os.Remove(tmp)
		}
	}()

	digester := manifest.Algorithm.Digester()
	if _, err := io.Copy(io.MultiWriter(out, digester.Hash()), in); err != nil {
		_ = out.Close()
		return types.Classify(err)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if opts.Verify {
		if got := digester.Digest(); got != entry.Hash {
			var ok bool
			if *r, ok = integrity(*r, entry, got, opts.Force); !ok {
				return nil
			}
		}
	}

	if err := os.Chtimes(tmp, entry.ModTime, entry.ModTime); err != nil {
		return types.Classify(err)
	}
	if readOnly {
		if err := os.Chmod(dst, mode); err != nil {
			return types.Classify(err)
		}
	}
	if err := os.Rename(tmp, dst); err != nil {
		return types.Classify(err)
	}
	keep = true
	logger.Debug("file restored", "path", dst)
	return nil
}
