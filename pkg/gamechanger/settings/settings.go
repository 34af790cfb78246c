// Package settings parses simulator configuration files (Lua tables, JSON,
// cfg/ini) into flat key/value maps and diffs them setting by setting.
package settings

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
)

// ErrUnsupported is returned for file types without a parser.
var ErrUnsupported = errors.New("unsupported settings format")

// Values maps a dotted setting key to its textual value.
type Values map[string]string

// Format is a settings file syntax.
type Format string

const (
	FormatLua  Format = "lua"
	FormatJSON Format = "json"
	FormatINI  Format = "ini"
)

// DetectFormat picks a format from a file name's extension.
func DetectFormat(name string) (Format, bool) {
	switch strings.ToLower(path.Ext(strings.ReplaceAll(name, `\`, "/"))) {
	case ".lua":
		return FormatLua, true
	case ".json":
		return FormatJSON, true
	case ".cfg", ".ini":
		return FormatINI, true
	}
	return "", false
}

// Supported reports whether name has a parser.
func Supported(name string) bool {
	_, ok := DetectFormat(name)
	return ok
}

// Parse flattens the settings in data, choosing the parser from name.
func Parse(name string, data []byte) (Values, error) {
	format, ok := DetectFormat(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, name)
	}
	return ParseFormat(format, data)
}

// ParseFormat flattens data in the given format.
func ParseFormat(format Format, data []byte) (Values, error) {
	switch format {
	case FormatLua:
		return parseLua(data)
	case FormatJSON:
		return parseJSON(data)
	case FormatINI:
		return parseINI(data)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, format)
}

// ChangeKind classifies a setting difference.
type ChangeKind string

const (
	Added    ChangeKind = "added"
	Removed  ChangeKind = "removed"
	Modified ChangeKind = "modified"
)

// Change is one setting that differs between two versions of a file.
type Change struct {
	Key    string     `json:"key" yaml:"key"`
	Kind   ChangeKind `json:"kind" yaml:"kind"`
	Before string     `json:"before,omitempty" yaml:"before,omitempty"`
	After  string     `json:"after,omitempty" yaml:"after,omitempty"`
	Impact Impact     `json:"impact" yaml:"impact"`
}

// Diff returns the settings that differ between before and after, sorted by key.
func Diff(before, after Values) []Change {
	keys := make(map[string]bool, len(before)+len(after))
	for k := range before {
		keys[k] = true
	}
	for k := range after {
		keys[k] = true
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var changes []Change
	for _, k := range sorted {
		b, inBefore := before[k]
		a, inAfter := after[k]
		switch {
		case inBefore && !inAfter:
			changes = append(changes, Change{Key: k, Kind: Removed, Before: b, Impact: Assess(k)})
		case !inBefore && inAfter:
			changes = append(changes, Change{Key: k, Kind: Added, After: a, Impact: Assess(k)})
		case a != b:
			changes = append(changes, Change{Key: k, Kind: Modified, Before: b, After: a, Impact: Assess(k)})
		}
	}
	return changes
}

// Impact is the likely performance effect of changing a setting.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"

	// ImpactInput marks controller and binding settings, which do not affect performance.
	ImpactInput Impact = "input"
)

var (
	inputPatterns = []string{
		"joy", "stick", "button", "axis", "input_device", "controller",
		"bind", "key_", "mouse_", "device_", "keymap",
		"throttle", "rudder", "pedal", "hat", "pov", "trigger",
	}
	highImpactPatterns = []string{
		"resolution", "msaa", "ssaa", "shadow", "texture", "visib",
		"preload", "forest", "water", "effects", "clouds", "terrain",
		"fps", "vsync", "fullscreen", "gamma", "brightness",
	}
	mediumImpactPatterns = []string{"audio", "sound", "voice", "volume", "comm", "sensitivity", "option"}
)

// Assess classifies a setting key by substring patterns.
func Assess(key string) Impact {
	k := strings.ToLower(key)
	switch {
	case containsAny(k, inputPatterns):
		return ImpactInput
	case containsAny(k, highImpactPatterns):
		return ImpactHigh
	case containsAny(k, mediumImpactPatterns):
		return ImpactMedium
	}
	return ImpactLow
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	if strings.HasPrefix(key, "[") {
		return prefix + key
	}
	return prefix + "." + key
}
