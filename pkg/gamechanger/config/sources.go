package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/logging"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/types"
)

var logger = logging.Get("config")

// LoadSourcesFile reads a backup_files.txt style list of paths, one per line.
//
//	# DCS            group header, ignored as a path
//	; comment        also "// comment"
//	$SavedGamesPath/DCS/Config
//	%LOCALAPPDATA%\Quad-Views-Foveated\settings.cfg
//
// Blank lines are skipped. Placeholders and environment references are
// expanded with ExpandSource.
func LoadSourcesFile(path, savedGames string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sources file: %w", types.Classify(err))
	}
	defer f.Close()

	var (
		sources []string
		group   string
	)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		switch {
		case line == "", strings.HasPrefix(line, ";"), strings.HasPrefix(line, "//"):
			continue
		case strings.HasPrefix(line, "#"):
			group = strings.TrimSpace(strings.TrimLeft(line, "# "))
			continue
		}
		src := ExpandSource(line, savedGames)
		logger.Debug("source", "group", group, "path", src)
		sources = append(sources, src)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading sources file %s: %w", path, err)
	}
	return sources, nil
}

// WriteDefault writes a commented config file to path, or to ConfigPath
// when path is empty. An existing file is left alone and reported with
// created=false.
func WriteDefault(path string) (written string, created bool, err error) {
	if path == "" {
		if path, err = ConfigPath(); err != nil {
			return "", false, err
		}
	}
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !os.IsNotExist(err) {
		return "", false, fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultTemplate()), 0o644); err != nil {
		return "", false, fmt.Errorf("failed to write default config: %w", err)
	}
	return path, true, nil
}

func defaultTemplate() string {
	var sources, exclude strings.Builder
	for _, s := range DefaultSources {
		fmt.Fprintf(&sources, "  - %q\n", s)
	}
	for _, e := range DefaultExclusions {
		fmt.Fprintf(&exclude, "  - %q\n", e)
	}

	return fmt.Sprintf(`# GameChanger configuration

# Where backups are stored (default: $XDG_DATA_HOME/gamechanger/backups)
# backup_root: D:\GameChanger\Backups

# Your "Saved Games" folder; used by the $SavedGamesPath placeholder
saved_games_path: %q

# Backups kept by prune, counting every kind (0 keeps everything)
max_backups: %d

# Files and directories to back up. $SavedGamesPath, {SavedGamesPath},
# %%VAR%% and $VAR are expanded.
sources:
%s
# Optional backup_files.txt with one path per line ('#' group headers,
# ';' and '//' comments). Its entries are added to sources.
sources_file: ""

# Patterns skipped while backing up, matched against relative paths and base names
exclude:
%s
# Parallel hashing and copying workers (0 sizes the pool from CPU and memory)
workers: 0

# Remember file digests between runs so unchanged files are not re-hashed
hash_cache:
  enabled: true
  # path: ""

services:
  optimize:
    # SafeToDisable, GamingOptimized, VRSpecific
    categories:
      - SafeToDisable
      - GamingOptimized
    # Per-service startup type (Automatic, Manual, Disabled) or Skip
    overrides: {}

# Extra path patterns for comparison risk (empty keeps the built-in lists)
risk:
  high: []
  medium: []

watch:
  # Quiet period after the last change before a backup is taken
  debounce: %s

logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means $XDG_STATE_HOME/gamechanger/gamechanger.log)
  path: ""
  rotation:
    max_size: 10MB
    max_age: 30       # days
    max_backups: 5
    daily: true
  components:
    snapshot: info
    restore: info
    services: info
    compare: info
    watcher: warn
`, DefaultSavedGamesPath, DefaultMaxBackups, sources.String(), exclude.String(), DefaultWatchDebounce)
}
