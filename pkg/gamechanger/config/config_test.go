package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/types"
)

// isolate points HOME and XDG_CONFIG_HOME at a fresh directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	return home
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.File != "" {
		t.Errorf("File = %q, want empty without a config file", cfg.File)
	}
	if cfg.MaxBackups != DefaultMaxBackups {
		t.Errorf("MaxBackups = %d, want %d", cfg.MaxBackups, DefaultMaxBackups)
	}
	if want := filepath.Join(home, "Saved Games"); cfg.SavedGamesPath != want {
		t.Errorf("SavedGamesPath = %q, want %q", cfg.SavedGamesPath, want)
	}
	if !strings.HasSuffix(filepath.ToSlash(cfg.BackupRoot), "gamechanger/backups") {
		t.Errorf("BackupRoot = %q", cfg.BackupRoot)
	}
	if len(cfg.Sources) != len(DefaultSources) {
		t.Errorf("Sources = %v, want %v", cfg.Sources, DefaultSources)
	}
	if len(cfg.Exclude) != len(DefaultExclusions) {
		t.Errorf("len(Exclude) = %d, want %d", len(cfg.Exclude), len(DefaultExclusions))
	}
	if !cfg.HashCache.Enabled || cfg.HashCache.Path == "" {
		t.Errorf("HashCache = %+v, want enabled with a path", cfg.HashCache)
	}
	if cfg.Watch.Debounce != DefaultWatchDebounce {
		t.Errorf("Watch.Debounce = %s", cfg.Watch.Debounce)
	}
	if len(cfg.Services.Optimize.Categories) != 2 {
		t.Errorf("Optimize.Categories = %v", cfg.Services.Optimize.Categories)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Rotation.MaxSize != "10MB" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FromXDGConfigHome(t *testing.T) {
	isolate(t)
	xdgHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdgHome)

	backups := filepath.Join(t.TempDir(), "backups")
	path := writeConfig(t, filepath.Join(xdgHome, "gamechanger"), `
backup_root: `+filepath.ToSlash(backups)+`
max_backups: 3
workers: 2
sources:
  - "{SavedGamesPath}/DCS/Config"
exclude:
  - "*.bak"
hash_cache:
  enabled: false
services:
  optimize:
    categories: [SafeToDisable]
    overrides:
      WSearch: Skip
risk:
  high: [mods]
watch:
  debounce: 500ms
logging:
  level: debug
`)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.File != path {
		t.Errorf("File = %q, want %q", cfg.File, path)
	}
	if cfg.BackupRoot != filepath.Clean(backups) {
		t.Errorf("BackupRoot = %q, want %q", cfg.BackupRoot, backups)
	}
	if cfg.MaxBackups != 3 || cfg.Workers != 2 {
		t.Errorf("MaxBackups = %d, Workers = %d", cfg.MaxBackups, cfg.Workers)
	}
	if cfg.HashCache.Enabled {
		t.Error("HashCache.Enabled should be false")
	}
	if got := cfg.Services.Optimize.Overrides["wsearch"]; got != "Skip" {
		t.Errorf("override = %q (keys are lower-cased by the loader)", got)
	}
	if len(cfg.Risk.High) != 1 || cfg.Risk.High[0] != "mods" {
		t.Errorf("Risk.High = %v", cfg.Risk.High)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Errorf("Watch.Debounce = %s", cfg.Watch.Debounce)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	isolate(t)

	path := writeConfig(t, t.TempDir(), "max_backups: 7\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%s) error = %v", path, err)
	}
	if cfg.MaxBackups != 7 {
		t.Errorf("MaxBackups = %d, want 7", cfg.MaxBackups)
	}

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, types.ErrConfig) {
		t.Errorf("missing explicit file error = %v, want ErrConfig", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	home := isolate(t)
	writeConfig(t, filepath.Join(home, ".config", "gamechanger"), "max_backups: [\n")

	if _, err := Load(""); !errors.Is(err, types.ErrConfig) {
		t.Errorf("Load() error = %v, want ErrConfig", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("GAMECHANGER_MAX_BACKUPS", "4")
	t.Setenv("GAMECHANGER_HASH_CACHE_ENABLED", "false")
	t.Setenv("GAMECHANGER_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxBackups != 4 {
		t.Errorf("MaxBackups = %d, want 4", cfg.MaxBackups)
	}
	if cfg.HashCache.Enabled {
		t.Error("HashCache.Enabled should follow the environment")
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	abs := t.TempDir()
	valid := func() *Config {
		return &Config{
			BackupRoot:     abs,
			SavedGamesPath: abs,
			MaxBackups:     10,
			Logging:        LoggingConfig{Level: "info", Rotation: RotationConfig{MaxSize: "10MB"}},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unlimited backups", func(c *Config) { c.MaxBackups = 0 }, ""},
		{"relative backup root", func(c *Config) { c.BackupRoot = "backups" }, "backup_root"},
		{"relative saved games", func(c *Config) { c.SavedGamesPath = "Saved Games" }, "saved_games_path"},
		{"negative max backups", func(c *Config) { c.MaxBackups = -1 }, "max_backups"},
		{"negative workers", func(c *Config) { c.Workers = -2 }, "workers"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad component level", func(c *Config) { c.Logging.Components = map[string]string{"snapshot": "x"} }, "logging.components.snapshot"},
		{"bad rotation size", func(c *Config) { c.Logging.Rotation.MaxSize = "huge" }, "max_size"},
		{"bad exclude pattern", func(c *Config) { c.Exclude = []string{"Logs/", "[oops"} }, "exclude"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, types.ErrConfig) {
				t.Fatalf("Validate() = %v, want ErrConfig", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %q, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home := isolate(t)
	t.Setenv("GC_TEST_DIR", "/opt/games")

	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"~", home},
		{"~/Saved Games", filepath.Join(home, "Saved Games")},
		{"$GC_TEST_DIR/DCS", filepath.Clean("/opt/games/DCS")},
		{"${GC_TEST_DIR}/DCS", filepath.Clean("/opt/games/DCS")},
		{"%GC_TEST_DIR%/DCS", filepath.Clean("/opt/games/DCS")},
		{"%GC_UNSET_VAR%/x", filepath.Clean("%GC_UNSET_VAR%/x")},
		{"/plain/path/", filepath.Clean("/plain/path")},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExpandSource(t *testing.T) {
	saved := filepath.Join(t.TempDir(), "Saved Games")

	for _, in := range []string{"$SavedGamesPath/DCS/Config", "{SavedGamesPath}/DCS/Config"} {
		want := filepath.Join(saved, "DCS", "Config")
		if got := ExpandSource(in, saved); filepath.Clean(got) != want {
			t.Errorf("ExpandSource(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadSourcesFile(t *testing.T) {
	t.Setenv("GC_APPDATA", "/appdata")
	saved := "/games/Saved Games"

	content := "\ufeff# DCS\n" +
		"$SavedGamesPath/DCS/Config\n" +
		"\n" +
		"; a comment\n" +
		"// another\n" +
		"   {SavedGamesPath}/DCS/Config/options.lua   \n" +
		"## VR\n" +
		"%GC_APPDATA%/Quad-Views-Foveated/settings.cfg\n"
	path := filepath.Join(t.TempDir(), "backup_files.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadSourcesFile(path, saved)
	if err != nil {
		t.Fatalf("LoadSourcesFile() error = %v", err)
	}
	want := []string{
		filepath.Join(saved, "DCS", "Config"),
		filepath.Join(saved, "DCS", "Config", "options.lua"),
		filepath.Clean("/appdata/Quad-Views-Foveated/settings.cfg"),
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if filepath.Clean(got[i]) != want[i] {
			t.Errorf("source %d = %q, want %q", i, got[i], want[i])
		}
	}

	if _, err := LoadSourcesFile(filepath.Join(t.TempDir(), "none.txt"), saved); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("missing sources file error = %v, want ErrNotFound", err)
	}
}

func TestResolveSources(t *testing.T) {
	saved := filepath.Join(t.TempDir(), "Saved Games")
	file := filepath.Join(t.TempDir(), "backup_files.txt")
	if err := os.WriteFile(file, []byte("$SavedGamesPath/Mods\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{
		SavedGamesPath: saved,
		Sources:        []string{"$SavedGamesPath/DCS/Config", "  "},
		SourcesFile:    file,
	}
	got, err := cfg.ResolveSources()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || filepath.Clean(got[0]) != filepath.Join(saved, "DCS", "Config") || filepath.Clean(got[1]) != filepath.Join(saved, "Mods") {
		t.Errorf("ResolveSources() = %v", got)
	}
}

func TestEnsureBackupRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a", "b", "backups")
	cfg := &Config{BackupRoot: root}
	if err := cfg.EnsureBackupRoot(); err != nil {
		t.Fatalf("EnsureBackupRoot() error = %v", err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("probe file left behind: %v", entries)
	}

	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.BackupRoot = filepath.Join(blocker, "backups")
	if err := cfg.EnsureBackupRoot(); err == nil {
		t.Error("EnsureBackupRoot() under a regular file should fail")
	}

	if runtime.GOOS != "windows" && os.Geteuid() != 0 {
		ro := filepath.Join(t.TempDir(), "ro")
		if err := os.Mkdir(ro, 0o555); err != nil {
			t.Fatal(err)
		}
		cfg.BackupRoot = ro
		if err := cfg.EnsureBackupRoot(); !types.IsPermission(err) {
			t.Errorf("read-only root error = %v, want permission", err)
		}
	}
}

func TestWriteDefault(t *testing.T) {
	home := isolate(t)

	path, created, err := WriteDefault("")
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if !created {
		t.Error("first WriteDefault should create the file")
	}
	if want := filepath.Join(home, ".config", "gamechanger", ConfigFileName); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	if err := os.WriteFile(path, []byte("max_backups: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, created, err := WriteDefault(""); err != nil || created {
		t.Errorf("second WriteDefault created=%v err=%v, want untouched", created, err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "max_backups: 2\n" {
		t.Error("existing config was overwritten")
	}
}

func TestDefaultTemplateLoads(t *testing.T) {
	isolate(t)

	path, _, err := WriteDefault(filepath.Join(t.TempDir(), "gc", ConfigFileName))
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(default template) error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default template should validate: %v", err)
	}
	if cfg.MaxBackups != DefaultMaxBackups || cfg.Watch.Debounce != DefaultWatchDebounce {
		t.Errorf("template values differ from defaults: %+v", cfg)
	}
	if len(cfg.Sources) != len(DefaultSources) {
		t.Errorf("Sources = %v", cfg.Sources)
	}
}

func TestLoggingInit(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{
		Level:      "debug",
		Path:       "/tmp/gc.log",
		Rotation:   RotationConfig{MaxSize: "1MB", MaxAge: 3, MaxBackups: 2, Daily: true},
		Components: map[string]string{"snapshot": "warn"},
	}}
	lc, err := cfg.LoggingInit("info")
	if err != nil {
		t.Fatal(err)
	}
	if lc.Rotation.MaxSize != types.MiB || lc.Rotation.MaxAge != 3 || lc.Rotation.MaxBackups != 2 || !lc.Rotation.Daily {
		t.Errorf("Rotation = %+v", lc.Rotation)
	}
	if lc.ConsoleLevel != "info" || lc.Level != "debug" || lc.Components["snapshot"] != "warn" {
		t.Errorf("logging config = %+v", lc)
	}

	cfg.Logging.Rotation.MaxSize = "lots"
	if _, err := cfg.LoggingInit(""); !errors.Is(err, types.ErrConfig) {
		t.Errorf("LoggingInit() error = %v, want ErrConfig", err)
	}
}
