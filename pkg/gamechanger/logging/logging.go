// Package logging provides component loggers with file rotation for
// gamechanger. Loggers may be obtained at package init time; they stay
// silent until Init is called and pick up the configuration afterwards.
//
// Basic usage:
//
//	if err := logging.Init(logging.Config{Level: "info"}); err != nil {
//	    return err
//	}
//	defer logging.Close()
//
//	logging.Get("snapshot").Info("capture started", "root", root)
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level represents a logging level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l Level) toCharmLevel() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a string into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the default log level (debug, info, warn, error).
	Level string

	// Path is the log file path. Empty uses DefaultLogPath().
	Path string

	// Rotation configures log file rotation.
	Rotation RotationConfig

	// Components maps component names to level overrides.
	Components map[string]string

	// ConsoleLevel enables stderr output at the given level. Empty disables it.
	ConsoleLevel string
}

// Logger is a component logger. The zero value is not usable; use Get.
type Logger struct {
	component string
	args      []interface{}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.log(LevelDebug, msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.log(LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log(LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.log(LevelError, msg, args...)
}

// With returns a logger that adds the given key/value pairs to every message.
func (l *Logger) With(args ...interface{}) *Logger {
	merged := make([]interface{}, 0, len(l.args)+len(args))
	merged = append(merged, l.args...)
	merged = append(merged, args...)
	return &Logger{component: l.component, args: merged}
}

// Component returns the component name.
func (l *Logger) Component() string {
	return l.component
}

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	if len(l.args) > 0 {
		args = append(append([]interface{}{}, l.args...), args...)
	}
	for _, sink := range registry.sinks(l.component) {
		logTo(sink, level, msg, args...)
	}
}

func logTo(logger *log.Logger, level Level, msg string, args ...interface{}) {
	switch level {
	case LevelDebug:
		logger.Debug(msg, args...)
	case LevelInfo:
		logger.Info(msg, args...)
	case LevelWarn:
		logger.Warn(msg, args...)
	case LevelError:
		logger.Error(msg, args...)
	}
}

// state holds the global logging configuration and per-component backends.
type state struct {
	mu          sync.RWMutex
	initialized bool
	writer      *RotatingWriter
	level       Level
	components  map[string]Level
	consoleOn   bool
	console     Level
	backends    map[string][]*log.Logger
	loggers     map[string]*Logger
}

var registry = &state{
	components: make(map[string]Level),
	backends:   make(map[string][]*log.Logger),
	loggers:    make(map[string]*Logger),
}

// Init configures the logging system. Calling it again replaces the previous
// configuration; loggers obtained earlier follow the new settings.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	components := make(map[string]Level, len(cfg.Components))
	for comp, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", comp, err)
		}
		components[comp] = parsed
	}

	var consoleLevel Level
	consoleOn := cfg.ConsoleLevel != ""
	if consoleOn {
		if consoleLevel, err = ParseLevel(cfg.ConsoleLevel); err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
	}

	path := cfg.Path
	if path == "" {
		path = DefaultLogPath()
	}

	writer, err := NewRotatingWriter(path, cfg.Rotation)
	if err != nil {
		return fmt.Errorf("creating log writer: %w", err)
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	if registry.writer != nil {
		_ = registry.writer.Close()
	}

	registry.writer = writer
	registry.level = level
	registry.components = components
	registry.consoleOn = consoleOn
	registry.console = consoleLevel
	registry.backends = make(map[string][]*log.Logger)
	registry.initialized = true

	return nil
}

// Get returns the logger for a component.
func Get(component string) *Logger {
	registry.mu.RLock()
	logger, ok := registry.loggers[component]
	registry.mu.RUnlock()
	if ok {
		return logger
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()
	if logger, ok := registry.loggers[component]; ok {
		return logger
	}
	logger = &Logger{component: component}
	registry.loggers[component] = logger
	return logger
}

// sinks returns the charm loggers a component writes to, building them on first use.
func (s *state) sinks(component string) []*log.Logger {
	s.mu.RLock()
	if !s.initialized {
		s.mu.RUnlock()
		return nil
	}
	sinks, ok := s.backends[component]
	s.mu.RUnlock()
	if ok {
		return sinks
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return nil
	}
	if sinks, ok := s.backends[component]; ok {
		return sinks
	}

	level := s.level
	if override, ok := s.components[component]; ok {
		level = override
	}

	sinks = []*log.Logger{newCharmLogger(s.writer, level, time.RFC3339, component)}
	if s.consoleOn {
		sinks = append(sinks, newCharmLogger(os.Stderr, s.console, "15:04:05", component))
	}
	s.backends[component] = sinks
	return sinks
}

func newCharmLogger(w io.Writer, level Level, timeFormat, component string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level.toCharmLevel(),
		ReportTimestamp: true,
		TimeFormat:      timeFormat,
		Prefix:          component,
	})
}

// Close flushes and closes the log file. Loggers go silent until the next Init.
func Close() error {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if !registry.initialized {
		return nil
	}

	registry.initialized = false
	registry.backends = make(map[string][]*log.Logger)

	if registry.writer != nil {
		err := registry.writer.Close()
		registry.writer = nil
		if err != nil {
			return fmt.Errorf("closing log writer: %w", err)
		}
	}
	return nil
}

// DefaultLogPath returns $XDG_STATE_HOME/gamechanger/gamechanger.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "gamechanger", "gamechanger.log")
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level:    "info",
		Path:     DefaultLogPath(),
		Rotation: DefaultRotationConfig(),
	}
}
