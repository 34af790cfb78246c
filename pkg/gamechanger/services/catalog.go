// Package services reads and changes the startup type and run state of a
// fixed catalog of Windows services, and derives gaming-optimized targets
// from the catalog's categories.
package services

import (
	"fmt"
	"slices"
	"strings"
)

// Category is the static gaming-impact classification of a service.
type Category string

const (
	SafeToDisable   Category = "SafeToDisable"
	GamingOptimized Category = "GamingOptimized"
	KeepRunning     Category = "KeepRunning"
	VRSpecific      Category = "VRSpecific"
)

var categoryOrder = []Category{SafeToDisable, GamingOptimized, VRSpecific, KeepRunning}

// Categories returns every category in display order.
func Categories() []Category {
	return slices.Clone(categoryOrder)
}

// Rank orders categories for deterministic processing. Unknown categories sort last.
func (c Category) Rank() int {
	if i := slices.Index(categoryOrder, c); i >= 0 {
		return i
	}
	return len(categoryOrder)
}

// ParseCategory accepts a category name case-insensitively. The original
// tool's OptionalToDisable and DoNotDisable names are accepted as aliases.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "safetodisable":
		return SafeToDisable, nil
	case "gamingoptimized", "optionaltodisable":
		return GamingOptimized, nil
	case "keeprunning", "donotdisable":
		return KeepRunning, nil
	case "vrspecific", "vr":
		return VRSpecific, nil
	}
	return "", fmt.Errorf("unknown service category %q", s)
}

// StartupType is a service's start mode.
type StartupType string

const (
	Automatic StartupType = "Automatic"
	Manual    StartupType = "Manual"
	Disabled  StartupType = "Disabled"
)

// ParseStartupType accepts Automatic, Manual or Disabled case-insensitively.
func ParseStartupType(s string) (StartupType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "automatic", "auto":
		return Automatic, nil
	case "manual", "demand":
		return Manual, nil
	case "disabled":
		return Disabled, nil
	}
	return "", fmt.Errorf("unknown startup type %q", s)
}

// RunState is whether a service is currently running.
type RunState string

const (
	Running RunState = "Running"
	Stopped RunState = "Stopped"
)

// Definition is one entry of the static catalog.
type Definition struct {
	Name        string   `json:"serviceName" yaml:"serviceName"`
	DisplayName string   `json:"displayName" yaml:"displayName"`
	Category    Category `json:"category" yaml:"category"`
	Group       string   `json:"group" yaml:"group"`
	Rationale   string   `json:"rationale" yaml:"rationale"`
}

// Catalog is an immutable set of service definitions. Names are matched
// case-insensitively, as the Windows service manager does.
type Catalog struct {
	defs   []Definition
	byName map[string]int
}

// NewCatalog builds a catalog, rejecting empty or duplicate names.
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{
		defs:   make([]Definition, 0, len(defs)),
		byName: make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		key := strings.ToLower(d.Name)
		if key == "" {
			return nil, fmt.Errorf("catalog entry without a service name")
		}
		if _, dup := c.byName[key]; dup {
			return nil, fmt.Errorf("duplicate catalog entry %q", d.Name)
		}
		c.byName[key] = len(c.defs)
		c.defs = append(c.defs, d)
	}
	slices.SortStableFunc(c.defs, func(a, b Definition) int {
		if r := a.Category.Rank() - b.Category.Rank(); r != 0 {
			return r
		}
		return strings.Compare(a.Name, b.Name)
	})
	for i, d := range c.defs {
		c.byName[strings.ToLower(d.Name)] = i
	}
	return c, nil
}

// All returns a copy of the definitions ordered by category rank, then name.
func (c *Catalog) All() []Definition {
	return slices.Clone(c.defs)
}

// Lookup finds the definition for a service name.
func (c *Catalog) Lookup(name string) (Definition, bool) {
	i, ok := c.byName[strings.ToLower(name)]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	return len(c.defs)
}

// ByCategory returns the definitions of one category.
func (c *Catalog) ByCategory(cat Category) []Definition {
	var out []Definition
	for _, d := range c.defs {
		if d.Category == cat {
			out = append(out, d)
		}
	}
	return out
}

var defaultCatalog = mustCatalog(defaultDefinitions)

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

func mustCatalog(defs []Definition) *Catalog {
	c, err := NewCatalog(defs)
	if err != nil {
		panic(err)
	}
	return c
}
