package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/manifest"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/types"
)

// copyResult is the manifest as actually stored, plus what was skipped.
type copyResult struct {
	entries  []manifest.FileEntry
	copied   int
	bytes    int64
	skipped  int
	warnings []string
}

// copyFiles copies every readable entry of m into dataDir. Source files that
// can no longer be opened are marked unreadable; any other failure aborts.
func (s *Store) copyFiles(ctx context.Context, dataDir string, m *manifest.Manifest) (*copyResult, error) {
	res := &copyResult{entries: slices.Clone(m.Entries)}
	var mu sync.Mutex
	warn := func(msg string) {
		mu.Lock()
		res.warnings = append(res.warnings, msg)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range res.entries {
		e := &res.entries[i]
		if !e.Readable() {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if s.copyHook != nil {
				if err := s.copyHook(e.RelativePath); err != nil {
					return err
				}
			}

			dst := filepath.Join(dataDir, filepath.FromSlash(e.RelativePath))
			d, n, err := copyFile(e.SourcePath, dst)
			if err != nil {
				var srcErr *sourceError
				if errors.As(err, &srcErr) {
					logger.Warn("source unreadable during capture", "path", e.SourcePath, "error", srcErr.err)
					warn(fmt.Sprintf("unreadable: %s: %v", e.SourcePath, srcErr.err))
					e.Status = manifest.StatusUnreadable
					e.Hash = ""
					e.Error = types.Classify(srcErr.err).Error()
					return nil
				}
				return fmt.Errorf("copying %s: %w", e.RelativePath, err)
			}
			if d != e.Hash || n != e.Size {
				logger.Warn("file changed after hashing", "path", e.SourcePath)
				warn(fmt.Sprintf("changed during capture: %s", e.SourcePath))
				e.Hash = d
				e.Size = n
			}
			if err := os.Chtimes(dst, e.ModTime, e.ModTime); err != nil {
				return fmt.Errorf("setting times on %s: %w", e.RelativePath, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: capture interrupted: %w", types.ErrIncomplete, ctx.Err())
		}
		return nil, err
	}

	for _, e := range res.entries {
		if e.Readable() {
			res.copied++
			res.bytes += e.Size
		}
	}
	res.skipped = len(res.entries) - res.copied
	slices.Sort(res.warnings)
	return res, nil
}

// sourceError marks a failure to open the file being captured.
type sourceError struct {
	err error
}

func (e *sourceError) Error() string { return e.err.Error() }
func (e *sourceError) Unwrap() error { return e.err }

// copyFile copies src to dst, hashing the bytes written.
func copyFile(src, dst string) (d digest.Digest, n int64, err error) {
	in, err := os.Open(src)
	if err != nil {
		return "", 0, &sourceError{err: err}
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", 0, err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", 0, err
	}

	digester := manifest.Algorithm.Digester()
	n, err = io.Copy(io.MultiWriter(out, digester.Hash()), in)
	if err != nil {
		_ = out.Close()
		return "", 0, err
	}
	if err := out.Close(); err != nil {
		return "", 0, err
	}
	return digester.Digest(), n, nil
}
