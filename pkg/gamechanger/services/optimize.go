package services

import (
	"fmt"
	"slices"
	"strings"
)

// Policy selects which services an optimize run changes.
type Policy struct {
	// Categories whose services are optimized. KeepRunning is never changed.
	Categories []Category

	// Overrides maps a service name to a fixed startup type, or to "Skip"
	// to leave the service alone regardless of its category.
	Overrides map[string]string
}

// OverrideSkip leaves a service untouched.
const OverrideSkip = "Skip"

// DefaultPolicy optimizes SafeToDisable and GamingOptimized services.
func DefaultPolicy() Policy {
	return Policy{Categories: []Category{SafeToDisable, GamingOptimized}}
}

// ParsePolicy builds a Policy from configuration strings.
func ParsePolicy(categories []string, overrides map[string]string) (Policy, error) {
	p := Policy{Overrides: make(map[string]string, len(overrides))}
	for _, s := range categories {
		c, err := ParseCategory(s)
		if err != nil {
			return Policy{}, err
		}
		if !slices.Contains(p.Categories, c) {
			p.Categories = append(p.Categories, c)
		}
	}
	for name, v := range overrides {
		if strings.EqualFold(v, OverrideSkip) {
			p.Overrides[strings.ToLower(name)] = OverrideSkip
			continue
		}
		t, err := ParseStartupType(v)
		if err != nil {
			return Policy{}, fmt.Errorf("override for %s: %w", name, err)
		}
		p.Overrides[strings.ToLower(name)] = string(t)
	}
	return p, nil
}

// ComputeOptimizedTarget derives the gaming-optimized state from current:
// SafeToDisable services become Disabled and Stopped, GamingOptimized
// services become Manual with their run state kept, and everything else is
// unchanged. It does not modify current.
func ComputeOptimizedTarget(current *Document) *Document {
	return ComputeTarget(current, DefaultPolicy())
}

// ComputeTarget derives a target state from current using policy.
func ComputeTarget(current *Document, policy Policy) *Document {
	target := current.Clone()
	if target == nil {
		return nil
	}
	for i, rec := range target.Services {
		target.Services[i] = applyPolicy(rec, policy)
	}
	target.Sort()
	return target
}

func applyPolicy(rec Record, policy Policy) Record {
	if rec.Category == KeepRunning {
		return rec
	}
	if v, ok := policy.Overrides[strings.ToLower(rec.Name)]; ok {
		if v == OverrideSkip {
			return rec
		}
		rec.StartupType = StartupType(v)
		if rec.StartupType == Disabled {
			rec.RunState = Stopped
		}
		return rec
	}
	if !slices.Contains(policy.Categories, rec.Category) {
		return rec
	}
	switch rec.Category {
	case SafeToDisable:
		rec.StartupType = Disabled
		rec.RunState = Stopped
	case GamingOptimized, VRSpecific:
		rec.StartupType = Manual
	}
	return rec
}
