// Package compare diffs two backups of the same kind and grades every
// difference by risk.
package compare

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/logging"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/manifest"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/services"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/settings"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/snapshot"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/types"
)

var logger = logging.Get("compare")

// maxSettingsFileSize bounds the config files parsed for setting detail.
const maxSettingsFileSize = 8 << 20

// Engine compares backups.
type Engine struct {
	rules            Rules
	now              func() time.Time
	settingsDetail   bool
	includeUnchanged bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithRules replaces the default file risk rules.
func WithRules(r Rules) Option {
	return func(e *Engine) { e.rules = r }
}

// WithClock sets the clock used for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSettingsDetail toggles setting-level diffs for modified config files.
// It is on by default.
func WithSettingsDetail(on bool) Option {
	return func(e *Engine) { e.settingsDetail = on }
}

// IncludeUnchanged lists unchanged entries in the report as informational.
func IncludeUnchanged() Option {
	return func(e *Engine) { e.includeUnchanged = true }
}

// NewEngine creates an Engine with DefaultRules.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{rules: DefaultRules(), now: time.Now, settingsDetail: true}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Compare diffs two backups with the default engine.
func Compare(baseline, candidate *snapshot.Backup) (*Report, error) {
	return NewEngine().Compare(baseline, candidate)
}

// Compare diffs baseline against candidate. Neither backup is modified.
func (e *Engine) Compare(baseline, candidate *snapshot.Backup) (*Report, error) {
	if baseline == nil || candidate == nil {
		return nil, errors.New("compare: both backups are required")
	}
	if baseline.Kind != candidate.Kind {
		return nil, fmt.Errorf("%w: %s backup %s vs %s backup %s", types.ErrIncompatibleKind,
			baseline.Kind, baseline.ID, candidate.Kind, candidate.ID)
	}

	start := time.Now()
	r := &Report{
		Baseline:    refOf(baseline),
		Candidate:   refOf(candidate),
		Kind:        baseline.Kind,
		GeneratedAt: e.now().UTC(),
	}

	var changes []Change
	switch baseline.Kind {
	case snapshot.KindFiles:
		if baseline.Manifest == nil || candidate.Manifest == nil {
			return nil, fmt.Errorf("compare: file backup without manifest")
		}
		changes = e.compareFiles(baseline, candidate, r)
	case snapshot.KindServices:
		if baseline.Document == nil || candidate.Document == nil {
			return nil, fmt.Errorf("compare: service backup without document")
		}
		changes = compareServices(baseline.Document, candidate.Document)
	default:
		return nil, fmt.Errorf("compare: unknown backup kind %q", baseline.Kind)
	}

	for _, c := range changes {
		r.Counts.add(c.Kind)
		r.RiskSummary.add(c.Risk)
		if c.Kind != Unchanged || e.includeUnchanged {
			r.Changes = append(r.Changes, c)
		}
	}
	sortChanges(r.Changes)
	if r.Changes == nil {
		r.Changes = []Change{}
	}
	r.OverallRisk = r.RiskSummary.Overall()
	sort.Strings(r.Warnings)

	logger.Info("comparison finished",
		"baseline", baseline.ID,
		"candidate", candidate.ID,
		"kind", r.Kind,
		"added", r.Counts.Added,
		"removed", r.Counts.Removed,
		"modified", r.Counts.Modified,
		"high", r.RiskSummary.High,
		"medium", r.RiskSummary.Medium,
		"low", r.RiskSummary.Low,
		"overall", r.OverallRisk,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return r, nil
}

func sortChanges(cs []Change) {
	sort.SliceStable(cs, func(i, j int) bool {
		if a, b := cs[i].Risk.Rank(), cs[j].Risk.Rank(); a != b {
			return a > b
		}
		return cs[i].Identity < cs[j].Identity
	})
}

func (e *Engine) compareFiles(baseline, candidate *snapshot.Backup, r *Report) []Change {
	before := indexEntries(baseline.Manifest)
	after := indexEntries(candidate.Manifest)

	keys := make([]string, 0, len(before)+len(after))
	for k := range before {
		keys = append(keys, k)
	}
	for k := range after {
		if _, ok := before[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	changes := make([]Change, 0, len(keys))
	for _, rel := range keys {
		b, inBefore := before[rel]
		a, inAfter := after[rel]
		c := Change{Identity: rel, Category: FileCategory(rel), Risk: e.rules.FileRisk(rel)}

		switch {
		case inBefore && !inAfter:
			c.Kind = Removed
			c.Before = string(b.Hash)
			c.SizeBefore = b.Size
			if !b.Readable() {
				r.warn("unreadable in baseline %s: %s", baseline.ID, rel)
			}
		case !inBefore && inAfter:
			c.Kind = Added
			c.After = string(a.Hash)
			c.SizeAfter = a.Size
			if !a.Readable() {
				r.warn("unreadable in candidate %s: %s", candidate.ID, rel)
			}
		case !b.Readable() || !a.Readable():
			side := baseline.ID
			if b.Readable() {
				side = candidate.ID
			}
			r.warn("unreadable in %s, not compared: %s", side, rel)
			continue
		case b.Hash != a.Hash || b.Size != a.Size:
			c.Kind = Modified
			c.Before, c.After = string(b.Hash), string(a.Hash)
			c.SizeBefore, c.SizeAfter = b.Size, a.Size
			if e.settingsDetail && settings.Supported(rel) {
				c.Settings, c.Note = settingsDiff(baseline, candidate, rel)
			}
		default:
			c.Kind = Unchanged
			c.Risk = RiskInformational
			c.Before, c.After = string(b.Hash), string(a.Hash)
			c.SizeBefore, c.SizeAfter = b.Size, a.Size
		}
		changes = append(changes, c)
	}
	return changes
}

func indexEntries(m *manifest.Manifest) map[string]manifest.FileEntry {
	out := make(map[string]manifest.FileEntry, len(m.Entries))
	for _, e := range m.Entries {
		out[e.RelativePath] = e
	}
	return out
}

// settingsDiff parses the stored copies of rel in both backups. A file that
// cannot be read or parsed yields a note instead of settings.
func settingsDiff(baseline, candidate *snapshot.Backup, rel string) ([]settings.Change, string) {
	before, err := readSettings(baseline, rel)
	if err != nil {
		logger.Debug("settings detail unavailable", "backup", baseline.ID, "path", rel, "error", err)
		return nil, err.Error()
	}
	after, err := readSettings(candidate, rel)
	if err != nil {
		logger.Debug("settings detail unavailable", "backup", candidate.ID, "path", rel, "error", err)
		return nil, err.Error()
	}
	return settings.Diff(before, after), ""
}

func readSettings(b *snapshot.Backup, rel string) (settings.Values, error) {
	p := b.DataPath(rel)
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("stored copy missing in %s", b.ID)
	}
	if info.Size() > maxSettingsFileSize {
		return nil, fmt.Errorf("stored copy too large to parse (%d bytes)", info.Size())
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading stored copy: %w", err)
	}
	return settings.Parse(rel, data)
}

func compareServices(before, after *services.Document) []Change {
	b := indexRecords(before)
	a := indexRecords(after)

	keys := make([]string, 0, len(b)+len(a))
	for k := range b {
		keys = append(keys, k)
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	changes := make([]Change, 0, len(keys))
	for _, k := range keys {
		rb, inBefore := b[k]
		ra, inAfter := a[k]

		var c Change
		switch {
		case inBefore && !inAfter:
			c = Change{Identity: rb.Name, Kind: Removed, Before: serviceState(rb), Category: string(rb.Category)}
			c.Risk = ServiceRisk(rb.Category)
		case !inBefore && inAfter:
			c = Change{Identity: ra.Name, Kind: Added, After: serviceState(ra), Category: string(ra.Category)}
			c.Risk = ServiceRisk(ra.Category)
		default:
			c = Change{
				Identity: ra.Name,
				Kind:     Unchanged,
				Before:   serviceState(rb),
				After:    serviceState(ra),
				Category: string(ra.Category),
				Risk:     RiskInformational,
			}
			if rb.StartupType != ra.StartupType || rb.RunState != ra.RunState {
				c.Kind = Modified
				c.Risk = ServiceRisk(ra.Category)
			}
		}
		changes = append(changes, c)
	}
	return changes
}

func indexRecords(d *services.Document) map[string]services.Record {
	out := make(map[string]services.Record, len(d.Services))
	for _, r := range d.Services {
		out[strings.ToLower(r.Name)] = r
	}
	return out
}

func serviceState(r services.Record) string {
	return fmt.Sprintf("%s/%s", r.StartupType, r.RunState)
}

func (r *Report) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	logger.Warn(msg)
	r.Warnings = append(r.Warnings, msg)
}
