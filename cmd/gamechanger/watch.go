package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/manifest"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/snapshot"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/watcher"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Back up automatically when the configured files change",
	Long: `Watch every configured source and take an "auto" backup once changes have
settled for the debounce period. Backups whose content equals the newest
file backup are skipped, and old backups are pruned to max_backups after
each capture. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "quiet period before a backup (default: watch.debounce)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	debounce := cfg.Watch.Debounce
	if watchDebounce > 0 {
		debounce = watchDebounce
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	sources, err := cfg.ResolveSources()
	if err != nil {
		return err
	}

	w, err := watcher.New(debounce, watcher.WithIgnore(watchIgnore(store.Root(), cfg.HashCache.Path, sources, cfg.Exclude)))
	if err != nil {
		return err
	}
	defer w.Close()

	watched := 0
	for _, src := range sources {
		if err := w.Watch(src); err != nil {
			printWarning(cmd, "not watching %s: %v", src, err)
			continue
		}
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("none of the %d configured sources can be watched", len(sources))
	}

	printInfo(cmd, "Watching %d sources (debounce %s). Press Ctrl+C to stop.", watched, debounce)
	logger.Info("watch started", "sources", watched, "debounce", debounce)

	return w.Run(ctx, func(ctx context.Context, changed []string) error {
		return autoBackup(ctx, cmd, store, changed)
	})
}

// autoBackup captures an "auto" backup unless the content matches the newest one.
func autoBackup(ctx context.Context, cmd *cobra.Command, store *snapshot.Store, changed []string) error {
	hc := openHashCache()
	defer closeHashCache(hc)

	m, err := buildManifest(ctx, hc)
	if err != nil {
		return err
	}
	if latest, err := store.Latest(snapshot.KindFiles); err == nil && sameContent(latest.Manifest, m) {
		logger.Info("changes left content identical, no backup taken", "paths", len(changed))
		return nil
	}

	if dryRun {
		printInfo(cmd, "%s  dry run: would back up after %d changes", time.Now().Format("15:04:05"), len(changed))
		return nil
	}

	b, err := store.CaptureFiles(ctx, m, "auto")
	if err != nil {
		return err
	}
	printInfo(cmd, "%s  backup %s (%d files, %d changed paths)", b.CreatedAt.Local().Format("15:04:05"), b.ID, b.Meta.Files, len(changed))

	if cfg.MaxBackups > 0 {
		removed, err := store.Prune(cfg.MaxBackups)
		if len(removed) > 0 {
			logger.Info("old backups pruned", "removed", len(removed))
		}
		return err
	}
	return nil
}

// sameContent reports whether two manifests hold the same paths with the
// same hashes. Modification times and source locations are ignored.
func sameContent(a, b *manifest.Manifest) bool {
	if a == nil || b == nil || len(a.Entries) != len(b.Entries) {
		return false
	}
	for i := range a.Entries {
		x, y := a.Entries[i], b.Entries[i]
		if x.RelativePath != y.RelativePath || x.Hash != y.Hash || x.Status != y.Status {
			return false
		}
	}
	return true
}

// watchIgnore drops events inside the backup store and the hash cache, and
// events on paths the manifest would exclude. Patterns see the path relative
// to its source, as the manifest builder does.
func watchIgnore(backupRoot, cacheDir string, sources, exclude []string) func(string) bool {
	inside := func(p, dir string) bool {
		if dir == "" {
			return false
		}
		rel, err := filepath.Rel(dir, p)
		return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
	}
	matcher, err := manifest.NewMatcher(exclude)
	if err != nil {
		logger.Warn("ignoring invalid exclude patterns", "error", err)
	}
	return func(p string) bool {
		if inside(p, backupRoot) || inside(p, cacheDir) {
			return true
		}
		return matcher.Match(relToSource(p, sources))
	}
}

// relToSource returns p relative to the deepest source directory containing
// it, slash separated, or its base name when no source does.
func relToSource(p string, sources []string) string {
	best := ""
	for _, src := range sources {
		rel, err := filepath.Rel(src, p)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if best == "" || len(rel) < len(best) {
			best = rel
		}
	}
	if best == "" {
		return filepath.Base(p)
	}
	return filepath.ToSlash(best)
}
