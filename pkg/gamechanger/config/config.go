package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/logging"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/manifest"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/types"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// HashCacheConfig configures the persistent digest cache.
type HashCacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// OptimizeConfig selects which services optimize changes and how.
type OptimizeConfig struct {
	Categories []string          `mapstructure:"categories"`
	Overrides  map[string]string `mapstructure:"overrides"`
}

// ServicesConfig configures the service commands.
type ServicesConfig struct {
	Optimize OptimizeConfig `mapstructure:"optimize"`
}

// RiskConfig overrides the comparison risk patterns. Empty lists keep the defaults.
type RiskConfig struct {
	High   []string `mapstructure:"high"`
	Medium []string `mapstructure:"medium"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// Config represents the application configuration.
type Config struct {
	BackupRoot     string          `mapstructure:"backup_root"`
	SavedGamesPath string          `mapstructure:"saved_games_path"`
	MaxBackups     int             `mapstructure:"max_backups"`
	Sources        []string        `mapstructure:"sources"`
	SourcesFile    string          `mapstructure:"sources_file"`
	Exclude        []string        `mapstructure:"exclude"`
	Workers        int             `mapstructure:"workers"`
	HashCache      HashCacheConfig `mapstructure:"hash_cache"`
	Services       ServicesConfig  `mapstructure:"services"`
	Risk           RiskConfig      `mapstructure:"risk"`
	Watch          WatchConfig     `mapstructure:"watch"`
	Logging        LoggingConfig   `mapstructure:"logging"`

	// File is the config file that was read, empty when only defaults applied.
	File string `mapstructure:"-"`
}

// Load reads configuration. An explicit file must exist; otherwise
// config.yaml is looked up in ConfigDir and a missing file means defaults.
// Environment variables are prefixed with GAMECHANGER_ (for example
// GAMECHANGER_BACKUP_ROOT or GAMECHANGER_HASH_CACHE_ENABLED).
//
// Paths are expanded (~, %VAR%, $VAR) but not validated; call Validate.
func Load(file string) (*Config, error) {
	v := viper.New()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(strings.TrimSuffix(ConfigFileName, filepath.Ext(ConfigFileName)))
		v.SetConfigType("yaml")
		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: reading config file: %w", types.ErrConfig, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: decoding config: %w", types.ErrConfig, err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.expand()
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backup_root", filepath.Join(DataDir(), "backups"))
	v.SetDefault("saved_games_path", DefaultSavedGamesPath)
	v.SetDefault("max_backups", DefaultMaxBackups)
	v.SetDefault("sources", DefaultSources)
	v.SetDefault("sources_file", "")
	v.SetDefault("exclude", DefaultExclusions)
	v.SetDefault("workers", 0)
	v.SetDefault("hash_cache.enabled", true)
	v.SetDefault("hash_cache.path", filepath.Join(CacheDir(), "hashes"))
	v.SetDefault("services.optimize.categories", DefaultOptimizeCategories)
	v.SetDefault("services.optimize.overrides", map[string]string{})
	v.SetDefault("risk.high", []string{})
	v.SetDefault("risk.medium", []string{})
	v.SetDefault("watch.debounce", DefaultWatchDebounce)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{
		"snapshot": "info",
		"restore":  "info",
		"services": "info",
		"compare":  "info",
		"watcher":  "warn",
	})
}

func (c *Config) expand() {
	c.BackupRoot = ExpandPath(c.BackupRoot)
	c.SavedGamesPath = ExpandPath(c.SavedGamesPath)
	c.SourcesFile = ExpandPath(c.SourcesFile)
	c.HashCache.Path = ExpandPath(c.HashCache.Path)
	c.Logging.Path = ExpandPath(c.Logging.Path)
}

// Validate checks the loaded values. Every failure wraps types.ErrConfig.
func (c *Config) Validate() error {
	var problems []string
	if !filepath.IsAbs(c.BackupRoot) {
		problems = append(problems, fmt.Sprintf("backup_root %q must be an absolute path", c.BackupRoot))
	}
	if !filepath.IsAbs(c.SavedGamesPath) {
		problems = append(problems, fmt.Sprintf("saved_games_path %q must be an absolute path", c.SavedGamesPath))
	}
	if c.MaxBackups < 0 {
		problems = append(problems, fmt.Sprintf("max_backups %d must not be negative", c.MaxBackups))
	}
	if c.Workers < 0 {
		problems = append(problems, fmt.Sprintf("workers %d must not be negative", c.Workers))
	}
	if c.Watch.Debounce < 0 {
		problems = append(problems, fmt.Sprintf("watch.debounce %s must not be negative", c.Watch.Debounce))
	}
	if _, err := manifest.NewMatcher(c.Exclude); err != nil {
		problems = append(problems, fmt.Sprintf("exclude: %v", err))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		problems = append(problems, fmt.Sprintf("logging.level: %v", err))
	}
	for comp, lvl := range c.Logging.Components {
		if _, err := logging.ParseLevel(lvl); err != nil {
			problems = append(problems, fmt.Sprintf("logging.components.%s: %v", comp, err))
		}
	}
	if c.Logging.Rotation.MaxSize != "" {
		if _, err := types.ParseSize(c.Logging.Rotation.MaxSize); err != nil {
			problems = append(problems, fmt.Sprintf("logging.rotation.max_size: %v", err))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", types.ErrConfig, strings.Join(problems, "; "))
	}
	return nil
}

// LoggingInit converts the logging section for logging.Init.
func (c *Config) LoggingInit(consoleLevel string) (logging.Config, error) {
	rot := logging.DefaultRotationConfig()
	if c.Logging.Rotation.MaxSize != "" {
		size, err := types.ParseSize(c.Logging.Rotation.MaxSize)
		if err != nil {
			return logging.Config{}, fmt.Errorf("%w: logging.rotation.max_size: %w", types.ErrConfig, err)
		}
		rot.MaxSize = size
	}
	rot.MaxAge = c.Logging.Rotation.MaxAge
	rot.MaxBackups = c.Logging.Rotation.MaxBackups
	rot.Daily = c.Logging.Rotation.Daily

	return logging.Config{
		Level:        c.Logging.Level,
		Path:         c.Logging.Path,
		Rotation:     rot,
		Components:   c.Logging.Components,
		ConsoleLevel: consoleLevel,
	}, nil
}

// ResolveSources returns the backup sources with placeholders and
// environment references expanded. Entries from sources_file come after
// the sources list.
func (c *Config) ResolveSources() ([]string, error) {
	out := make([]string, 0, len(c.Sources))
	for _, s := range c.Sources {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, ExpandSource(s, c.SavedGamesPath))
		}
	}
	if c.SourcesFile != "" {
		fromFile, err := LoadSourcesFile(c.SourcesFile, c.SavedGamesPath)
		if err != nil {
			return nil, err
		}
		out = append(out, fromFile...)
	}
	return out, nil
}

// EnsureBackupRoot creates the backup root and checks that it is writable
// by creating and removing a probe file.
func (c *Config) EnsureBackupRoot() error {
	if err := os.MkdirAll(c.BackupRoot, 0o755); err != nil {
		return fmt.Errorf("creating backup root: %w", types.Classify(err))
	}
	probe, err := os.CreateTemp(c.BackupRoot, ".gamechanger-probe-*")
	if err != nil {
		return fmt.Errorf("backup root %s is not writable: %w", c.BackupRoot, types.Classify(err))
	}
	name := probe.Name()
	_ = probe.Close()
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("removing probe file: %w", types.Classify(err))
	}
	return nil
}

// ConfigDir returns the configuration directory. XDG_CONFIG_HOME is read
// on every call so tests and shells can redirect it.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, appName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", appName), nil
}

// ConfigPath returns the default config file location.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// DataDir returns $XDG_DATA_HOME/gamechanger/, the default home of the backups.
func DataDir() string {
	return filepath.Join(xdg.DataHome, appName)
}

// StateDir returns $XDG_STATE_HOME/gamechanger/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, appName)
}

// CacheDir returns $XDG_CACHE_HOME/gamechanger/ for the hash cache.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, appName)
}

var (
	windowsEnvRef = regexp.MustCompile(`%([A-Za-z_][A-Za-z0-9_()]*)%`)
	savedGamesRef = strings.NewReplacer("$SavedGamesPath", "\x00", "{SavedGamesPath}", "\x00")
)

// ExpandPath expands a leading ~ and %VAR%, $VAR or ${VAR} references.
// Unset variables are left as written.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	path = windowsEnvRef.ReplaceAllStringFunc(path, func(m string) string {
		if v, ok := os.LookupEnv(m[1 : len(m)-1]); ok {
			return v
		}
		return m
	})
	path = os.Expand(path, func(name string) string {
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return "${" + name + "}"
	})
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return filepath.Clean(path)
}

// ExpandSource substitutes the $SavedGamesPath and {SavedGamesPath}
// placeholders, then expands the result like ExpandPath.
func ExpandSource(source, savedGames string) string {
	s := savedGamesRef.Replace(source)
	s = ExpandPath(s)
	return strings.ReplaceAll(s, "\x00", savedGames)
}
