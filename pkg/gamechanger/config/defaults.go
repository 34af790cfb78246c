// Package config loads gamechanger settings from config.yaml, GAMECHANGER_
// environment variables and built-in defaults.
package config

import "time"

// Default configuration values.
const (
	// DefaultSavedGamesPath is where DCS keeps its per-user configuration.
	DefaultSavedGamesPath = "~/Saved Games"

	// DefaultMaxBackups is how many backups prune keeps across all kinds.
	DefaultMaxBackups = 10

	// DefaultWatchDebounce is how long watch waits for writes to settle.
	DefaultWatchDebounce = 2 * time.Second

	// ConfigFileName is the configuration file looked up in ConfigDir.
	ConfigFileName = "config.yaml"

	// EnvPrefix prefixes environment overrides, e.g. GAMECHANGER_MAX_BACKUPS.
	EnvPrefix = "GAMECHANGER"

	appName = "gamechanger"
)

// DefaultSources are backed up when neither sources nor sources_file is set.
var DefaultSources = []string{
	"$SavedGamesPath/DCS/Config",
	"$SavedGamesPath/DCS.openbeta/Config",
}

// DefaultExclusions skip logs, tracks and caches that DCS rewrites constantly.
var DefaultExclusions = []string{
	"*.log",
	"*.trk",
	"*.tmp",
	"Logs",
	"Tracks",
	"Temp",
	"Screenshots",
}

// DefaultOptimizeCategories are the service categories optimize touches.
var DefaultOptimizeCategories = []string{"SafeToDisable", "GamingOptimized"}
