package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/cache"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/compare"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/config"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/logging"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/manifest"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/services"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/snapshot"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/tuner"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/types"
)

var logger = logging.Get("cli")

// cfg is the configuration loaded by initializeApp.
var cfg *config.Config

// newController opens the OS service manager. Tests replace it.
var newController = services.NewSystemController

// initializeApp is the root PersistentPreRunE hook. It loads and validates
// the configuration, creates the XDG directories and starts logging.
func initializeApp(cmd *cobra.Command, _ []string) error {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipBootstrap] == "true" {
			return nil
		}
	}

	loaded, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	if err := ensureDirectories(); err != nil {
		return err
	}

	consoleLevel := ""
	if verbose {
		consoleLevel = "debug"
	}
	logCfg, err := loaded.LoggingInit(consoleLevel)
	if err != nil {
		return err
	}
	if logCfg.Path == "" {
		logCfg.Path = filepath.Join(config.StateDir(), "gamechanger.log")
	}
	if err := logging.Init(logCfg); err != nil {
		return fmt.Errorf("%w: %w", types.ErrConfig, err)
	}

	cfg = loaded
	logger.Debug("configuration loaded", "file", cfg.File, "backup_root", cfg.BackupRoot, "command", cmd.CommandPath())
	return nil
}

// ensureDirectories creates the config, data and state directories.
func ensureDirectories() error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	for _, dir := range []string{configDir, config.DataDir(), config.StateDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, types.Classify(err))
		}
	}
	return nil
}

// openStore validates the backup root and opens the backup store.
func openStore() (*snapshot.Store, error) {
	if err := cfg.EnsureBackupRoot(); err != nil {
		return nil, err
	}
	return snapshot.Open(cfg.BackupRoot, snapshot.WithWorkers(tuner.Workers(cfg.Workers).Copy))
}

// openHashCache opens the digest cache. A cache that cannot be opened is
// logged and skipped; nil means hash everything.
func openHashCache() *cache.HashCache {
	if noCache || !cfg.HashCache.Enabled {
		return nil
	}
	hc, err := cache.Open(cfg.HashCache.Path)
	if err != nil {
		logger.Warn("hash cache unavailable", "path", cfg.HashCache.Path, "error", err)
		return nil
	}
	return hc
}

// closeHashCache flushes and closes hc, reporting failures as warnings.
func closeHashCache(hc *cache.HashCache) {
	if hc == nil {
		return
	}
	hits, misses := hc.Stats()
	if err := hc.Close(); err != nil {
		logger.Warn("closing hash cache", "error", err)
	}
	logger.Debug("hash cache closed", "hits", hits, "misses", misses)
}

// buildManifest inventories the configured sources. Missing sources are
// warnings so one uninstalled tool does not block the backup.
func buildManifest(ctx context.Context, hc *cache.HashCache) (*manifest.Manifest, error) {
	sources, err := cfg.ResolveSources()
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no backup sources configured", types.ErrConfig)
	}

	opts := manifest.Options{
		Roots:        sources,
		Exclude:      cfg.Exclude,
		Workers:      tuner.Workers(cfg.Workers).Hash,
		AllowMissing: true,
	}
	if hc != nil {
		opts.Cache = hc
	}
	m, err := manifest.NewBuilder(opts).Build(ctx)
	if err != nil {
		return nil, err
	}
	if len(m.Entries) == 0 {
		return nil, fmt.Errorf("%w: none of the %d configured sources exist", types.ErrNotFound, len(sources))
	}
	return m, nil
}

// serviceAdapter returns an adapter over the Windows service manager that
// records safety snapshots in store.
func serviceAdapter(store *snapshot.Store) (*services.Adapter, error) {
	ctrl, err := newController()
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedPlatform) {
			return nil, fmt.Errorf("services commands need Windows: %w", err)
		}
		return nil, err
	}
	return services.NewAdapter(ctrl, services.WithSnapshotter(store)), nil
}

// compareEngine builds a comparison engine with the configured risk patterns
// added to the built-in ones.
func compareEngine(opts ...compare.Option) *compare.Engine {
	rules := compare.DefaultRules()
	rules.High = append(rules.High, cfg.Risk.High...)
	rules.Medium = append(rules.Medium, cfg.Risk.Medium...)
	return compare.NewEngine(append([]compare.Option{compare.WithRules(rules)}, opts...)...)
}
