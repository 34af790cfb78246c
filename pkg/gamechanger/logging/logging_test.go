package logging_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/logging"
)

// These tests share the package's global state and do not run in parallel.

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	return string(content)
}

func TestInit(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     logging.Config
		wantErr bool
	}{
		{
			name: "defaults",
			cfg:  logging.Config{Level: "info", Path: filepath.Join(dir, "a.log")},
		},
		{
			name: "component overrides",
			cfg: logging.Config{
				Level:      "info",
				Path:       filepath.Join(dir, "b.log"),
				Components: map[string]string{"snapshot": "debug", "restore": "warn"},
			},
		},
		{
			name:    "invalid level",
			cfg:     logging.Config{Level: "loud", Path: filepath.Join(dir, "c.log")},
			wantErr: true,
		},
		{
			name: "invalid component level",
			cfg: logging.Config{
				Level:      "info",
				Path:       filepath.Join(dir, "d.log"),
				Components: map[string]string{"compare": "chatty"},
			},
			wantErr: true,
		},
		{
			name:    "invalid console level",
			cfg:     logging.Config{Level: "info", Path: filepath.Join(dir, "e.log"), ConsoleLevel: "nope"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := logging.Init(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Init() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				if closeErr := logging.Close(); closeErr != nil {
					t.Errorf("Close() error = %v", closeErr)
				}
			}
		})
	}
}

func TestLoggerObtainedBeforeInit(t *testing.T) {
	early := logging.Get("early")
	early.Info("dropped before init")

	path := filepath.Join(t.TempDir(), "early.log")
	if err := logging.Init(logging.Config{Level: "info", Path: path}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	early.Info("written after init", "backup", "2026-01-01T00-00-00.000Z")
	if err := logging.Close(); err != nil {
		t.Fatal(err)
	}

	content := readLog(t, path)
	if strings.Contains(content, "dropped before init") {
		t.Error("messages before Init should be discarded")
	}
	if !strings.Contains(content, "written after init") {
		t.Errorf("package-level logger should follow Init, got: %s", content)
	}
	if !strings.Contains(content, "early") {
		t.Error("component prefix missing")
	}
}

func TestLogLevels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "levels.log")
	if err := logging.Init(logging.Config{Level: "warn", Path: path}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	logger := logging.Get("levels")
	logger.Debug("debug hidden")
	logger.Info("info hidden")
	logger.Warn("warn shown")
	logger.Error("error shown")
	if err := logging.Close(); err != nil {
		t.Fatal(err)
	}

	content := readLog(t, path)
	for _, hidden := range []string{"debug hidden", "info hidden"} {
		if strings.Contains(content, hidden) {
			t.Errorf("%q should be filtered at warn level", hidden)
		}
	}
	for _, shown := range []string{"warn shown", "error shown"} {
		if !strings.Contains(content, shown) {
			t.Errorf("%q should be logged at warn level", shown)
		}
	}
}

func TestComponentLevelOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "component.log")
	err := logging.Init(logging.Config{
		Level:      "error",
		Path:       path,
		Components: map[string]string{"manifest": "debug"},
	})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	logging.Get("restore").Info("restore info hidden")
	logging.Get("manifest").Debug("manifest debug shown")
	if err := logging.Close(); err != nil {
		t.Fatal(err)
	}

	content := readLog(t, path)
	if strings.Contains(content, "restore info hidden") {
		t.Error("default level should filter info")
	}
	if !strings.Contains(content, "manifest debug shown") {
		t.Error("component override should allow debug")
	}
}

func TestWithAddsFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "with.log")
	if err := logging.Init(logging.Config{Level: "info", Path: path}); err != nil {
		t.Fatal(err)
	}

	logging.Get("snapshot").With("backup", "nightly").Info("captured", "files", 3)
	if err := logging.Close(); err != nil {
		t.Fatal(err)
	}

	content := readLog(t, path)
	if !strings.Contains(content, "backup=nightly") || !strings.Contains(content, "files=3") {
		t.Errorf("expected structured fields, got: %s", content)
	}
}

func TestGetReturnsSameLogger(t *testing.T) {
	if logging.Get("same") != logging.Get("same") {
		t.Error("Get should cache loggers per component")
	}
	if logging.Get("same").Component() != "same" {
		t.Error("Component() mismatch")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    logging.Level
		wantErr bool
	}{
		{"debug", logging.LevelDebug, false},
		{"INFO", logging.LevelInfo, false},
		{"warning", logging.LevelWarn, false},
		{"error", logging.LevelError, false},
		{"", logging.LevelInfo, false},
		{"verbose", logging.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := logging.ParseLevel(tt.input)
		if tt.wantErr {
			if !errors.Is(err, logging.ErrInvalidLevel) {
				t.Errorf("ParseLevel(%q) error = %v, want ErrInvalidLevel", tt.input, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v", tt.input, got, err, tt.want)
		}
		if got.String() == "unknown" {
			t.Errorf("Level(%d).String() = unknown", got)
		}
	}
}

func TestDefaultLogPath(t *testing.T) {
	path := logging.DefaultLogPath()
	if filepath.Base(path) != "gamechanger.log" {
		t.Errorf("DefaultLogPath() = %s", path)
	}
}
