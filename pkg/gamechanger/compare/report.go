package compare

import (
	"time"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/settings"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/snapshot"
)

// ChangeKind classifies one identity in a comparison.
type ChangeKind string

const (
	Added     ChangeKind = "added"
	Removed   ChangeKind = "removed"
	Modified  ChangeKind = "modified"
	Unchanged ChangeKind = "unchanged"
)

// Change is one file or service that differs between two backups.
type Change struct {
	// Identity is the relative path of a file or the name of a service.
	Identity string     `json:"identity" yaml:"identity"`
	Kind     ChangeKind `json:"changeKind" yaml:"changeKind"`
	Before   string     `json:"beforeValue,omitempty" yaml:"beforeValue,omitempty"`
	After    string     `json:"afterValue,omitempty" yaml:"afterValue,omitempty"`
	Risk     RiskLevel  `json:"riskLevel" yaml:"riskLevel"`
	Category string     `json:"category" yaml:"category"`

	SizeBefore int64 `json:"sizeBefore,omitempty" yaml:"sizeBefore,omitempty"`
	SizeAfter  int64 `json:"sizeAfter,omitempty" yaml:"sizeAfter,omitempty"`

	// Settings holds setting-level differences for parseable config files.
	Settings []settings.Change `json:"settings,omitempty" yaml:"settings,omitempty"`

	// Note explains why Settings is empty for a modified config file.
	Note string `json:"note,omitempty" yaml:"note,omitempty"`
}

// Ref identifies one side of a comparison.
type Ref struct {
	ID        string    `json:"id" yaml:"id"`
	Label     string    `json:"label,omitempty" yaml:"label,omitempty"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	Path      string    `json:"path" yaml:"path"`
}

func refOf(b *snapshot.Backup) Ref {
	return Ref{ID: b.ID, Label: b.Label, CreatedAt: b.CreatedAt, Path: b.Path}
}

// RiskSummary counts changes per risk level. Informational counts
// unchanged entries whether or not they are listed.
type RiskSummary struct {
	High          int `json:"high" yaml:"high"`
	Medium        int `json:"medium" yaml:"medium"`
	Low           int `json:"low" yaml:"low"`
	Informational int `json:"informational" yaml:"informational"`
}

func (s *RiskSummary) add(r RiskLevel) {
	switch r {
	case RiskHigh:
		s.High++
	case RiskMedium:
		s.Medium++
	case RiskLow:
		s.Low++
	default:
		s.Informational++
	}
}

// Overall is the highest non-informational level with a non-zero count.
func (s RiskSummary) Overall() RiskLevel {
	switch {
	case s.High > 0:
		return RiskHigh
	case s.Medium > 0:
		return RiskMedium
	case s.Low > 0:
		return RiskLow
	}
	return RiskInformational
}

// KindSummary counts changes per kind.
type KindSummary struct {
	Added     int `json:"added" yaml:"added"`
	Removed   int `json:"removed" yaml:"removed"`
	Modified  int `json:"modified" yaml:"modified"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
}

func (s *KindSummary) add(k ChangeKind) {
	switch k {
	case Added:
		s.Added++
	case Removed:
		s.Removed++
	case Modified:
		s.Modified++
	case Unchanged:
		s.Unchanged++
	}
}

// Report is the result of comparing two backups of the same kind.
type Report struct {
	Baseline    Ref           `json:"baseline" yaml:"baseline"`
	Candidate   Ref           `json:"candidate" yaml:"candidate"`
	Kind        snapshot.Kind `json:"kind" yaml:"kind"`
	GeneratedAt time.Time     `json:"generatedAt" yaml:"generatedAt"`

	// Changes are ordered by risk, highest first, then by identity.
	Changes []Change `json:"changes" yaml:"changes"`

	RiskSummary RiskSummary `json:"riskSummary" yaml:"riskSummary"`
	Counts      KindSummary `json:"counts" yaml:"counts"`
	OverallRisk RiskLevel   `json:"overallRisk" yaml:"overallRisk"`
	Warnings    []string    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// HasChanges reports whether anything was added, removed or modified.
func (r *Report) HasChanges() bool {
	return r.Counts.Added+r.Counts.Removed+r.Counts.Modified > 0
}

// ByCategory groups the report's changes by category, keeping their order.
func (r *Report) ByCategory() map[string][]Change {
	out := make(map[string][]Change)
	for _, c := range r.Changes {
		out[c.Category] = append(out[c.Category], c)
	}
	return out
}
