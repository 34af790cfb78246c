package compare

import (
	"strings"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/services"
)

// RiskLevel grades how likely a change is to affect the simulator.
type RiskLevel string

const (
	RiskHigh          RiskLevel = "high"
	RiskMedium        RiskLevel = "medium"
	RiskLow           RiskLevel = "low"
	RiskInformational RiskLevel = "informational"
)

// Rank orders levels; higher is riskier.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	}
	return 0
}

// Rules are the path patterns that raise a file change above RiskLow.
//
// A pattern made only of letters and digits matches a whole path token
// (the path is split on separators, dots, dashes, underscores and spaces),
// optionally followed by a plural "s". Any other pattern matches as a
// case-insensitive substring of the slash-separated path.
type Rules struct {
	High   []string `mapstructure:"high" json:"high" yaml:"high"`
	Medium []string `mapstructure:"medium" json:"medium" yaml:"medium"`
}

var (
	inputPatterns = []string{
		"config/input", "input", "joystick", "keyboard", "mouse", "binds", "bindings",
		"trackir", "headtracking", "opentrack", "throttle", "pedals",
	}
	vrPatterns = []string{
		"vr", "openxr", "openvr", "steamvr", "pimax", "pitool", "pimaxclient",
		"quad-views", "foveated", "oculus", "varjo", "wmr", "xrframetools",
	}
	graphicsPatterns = []string{
		"options.lua", "graphics", "autoexec.cfg", "monitorsetup", "shader",
		"display", "video", "resolution",
	}
	systemPatterns = []string{"nvidia", "capframex", "discord", "programdata", "frameview"}
	dcsPatterns    = []string{"dcs", "saved games"}
)

// DefaultRules treats input bindings and VR runtime files as high risk and
// graphics or display configuration as medium risk.
func DefaultRules() Rules {
	high := append(append([]string(nil), inputPatterns...), vrPatterns...)
	medium := append(append([]string(nil), graphicsPatterns...), "nvidia")
	return Rules{High: high, Medium: medium}
}

// FileRisk grades a change to the file at rel.
func (r Rules) FileRisk(rel string) RiskLevel {
	p := newPathMatcher(rel)
	switch {
	case p.any(r.High):
		return RiskHigh
	case p.any(r.Medium):
		return RiskMedium
	}
	return RiskLow
}

// ServiceRisk grades a change to a service of the given category.
func ServiceRisk(c services.Category) RiskLevel {
	switch c {
	case services.VRSpecific, services.KeepRunning:
		return RiskHigh
	case services.GamingOptimized:
		return RiskMedium
	}
	return RiskLow
}

// Category labels used in file reports.
const (
	CategoryInput    = "Input"
	CategoryVR       = "VR"
	CategoryGraphics = "Graphics"
	CategoryDCS      = "DCS"
	CategorySystem   = "System"
	CategoryOther    = "Other"
)

// FileCategory groups a file for reporting by the first matching family.
func FileCategory(rel string) string {
	p := newPathMatcher(rel)
	switch {
	case p.any(inputPatterns):
		return CategoryInput
	case p.any(vrPatterns):
		return CategoryVR
	case p.any(graphicsPatterns):
		return CategoryGraphics
	case p.any(systemPatterns):
		return CategorySystem
	case p.any(dcsPatterns):
		return CategoryDCS
	}
	return CategoryOther
}

type pathMatcher struct {
	path   string
	tokens map[string]bool
}

func newPathMatcher(rel string) pathMatcher {
	p := strings.ToLower(strings.ReplaceAll(rel, `\`, "/"))
	fields := strings.FieldsFunc(p, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	tokens := make(map[string]bool, len(fields))
	for _, f := range fields {
		tokens[f] = true
	}
	return pathMatcher{path: p, tokens: tokens}
}

func (m pathMatcher) any(patterns []string) bool {
	for _, pat := range patterns {
		if m.match(strings.ToLower(pat)) {
			return true
		}
	}
	return false
}

func (m pathMatcher) match(pat string) bool {
	if pat == "" {
		return false
	}
	if isWord(pat) {
		return m.tokens[pat] || m.tokens[pat+"s"]
	}
	return strings.Contains(m.path, pat)
}

func isWord(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
