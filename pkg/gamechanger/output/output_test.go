package output

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/compare"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/restore"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/services"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/settings"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/snapshot"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/types"
)

var created = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func sampleReport() *compare.Report {
	return &compare.Report{
		Baseline:    compare.Ref{ID: "2026-06-01T08-00-00.000Z", Label: "before", CreatedAt: created},
		Candidate:   compare.Ref{ID: "2026-06-01T09-00-00.000Z", CreatedAt: created.Add(time.Hour)},
		Kind:        snapshot.KindFiles,
		GeneratedAt: created.Add(2 * time.Hour),
		Changes: []compare.Change{
			{
				Identity: "Config/Input/F-16C/joystick/Throttle.diff.lua", Kind: compare.Modified,
				Before: "sha256:aaaaaaaaaaaaaaaaaaaa", After: "sha256:bbbbbbbbbbbbbbbbbbbb",
				SizeBefore: 1024, SizeAfter: 2048, Risk: compare.RiskHigh, Category: compare.CategoryInput,
			},
			{
				Identity: "Config/options.lua", Kind: compare.Modified,
				Before: "sha256:cccccccccccccccccccc", After: "sha256:dddddddddddddddddddd",
				SizeBefore: 10, SizeAfter: 12, Risk: compare.RiskMedium, Category: compare.CategoryGraphics,
				Settings: []settings.Change{
					{Key: "options.graphics.msaaMode", Kind: settings.Modified, Before: "2", After: "4", Impact: settings.ImpactHigh},
				},
			},
			{
				Identity: "Mods/notes.txt", Kind: compare.Added,
				After: "sha256:eeeeeeeeeeeeeeeeeeee", SizeAfter: 5, Risk: compare.RiskLow, Category: compare.CategoryOther,
			},
		},
		RiskSummary: compare.RiskSummary{High: 1, Medium: 1, Low: 1, Informational: 4},
		Counts:      compare.KindSummary{Added: 1, Modified: 2, Unchanged: 4},
		OverallRisk: compare.RiskHigh,
		Warnings:    []string{"unreadable in after, not compared: Config/locked.lua"},
	}
}

func sampleBackups() []snapshot.Summary {
	return []snapshot.Summary{
		{ID: "2026-06-01T09-00-00.000Z", Kind: snapshot.KindServices, Label: "pre-apply", CreatedAt: created.Add(time.Hour), Services: 42},
		{ID: "2026-06-01T08-00-00.000Z", Kind: snapshot.KindFiles, Label: "before", CreatedAt: created, Files: 12, Bytes: 3 << 20},
	}
}

func sampleRestore() *restore.Result {
	return &restore.Result{
		BackupID: "2026-06-01T08-00-00.000Z",
		Kind:     snapshot.KindFiles,
		DryRun:   true,
		Files: []restore.FileResult{
			{RelativePath: "Config/options.lua", Destination: "/games/Config/options.lua", Action: restore.ActionRestore},
			{RelativePath: "Config/locked.lua", Destination: "/games/Config/locked.lua", Action: restore.ActionSkipped, Warning: "source was unreadable at capture"},
		},
		Restored: 1,
		Skipped:  1,
		Warnings: []string{"source was unreadable at capture"},
	}
}

func sampleApply() *services.ApplyResult {
	return &services.ApplyResult{
		SafetySnapshot: "2026-06-01T09-00-00.000Z",
		Changes: []services.Change{
			{
				Name: "DiagTrack", Category: services.SafeToDisable,
				FromStartup: services.Automatic, ToStartup: services.Disabled,
				FromRun: services.Running, ToRun: services.Stopped,
				Actions: []services.Action{services.ActionStop, services.ActionSetStartup},
			},
			{
				Name: "WSearch", Category: services.GamingOptimized,
				FromStartup: services.Automatic, ToStartup: services.Manual,
				FromRun: services.Running, ToRun: services.Running,
				Actions: []services.Action{services.ActionSetStartup},
			},
		},
		Applied: []services.Record{{Name: "DiagTrack"}},
		Failed:  []types.ItemError{{Item: "WSearch", Message: "access denied"}},
	}
}

func sampleServices() *services.Document {
	return &services.Document{
		CapturedAt: created,
		Services: []services.Record{
			{Name: "DiagTrack", DisplayName: "Connected User Experiences and Telemetry", Category: services.SafeToDisable, StartupType: services.Automatic, RunState: services.Running},
		},
		Missing: []string{"Fax"},
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register("test", func() Formatter { return &PlainFormatter{} })

	f, err := reg.Get("test")
	require.NoError(t, err)
	assert.IsType(t, &PlainFormatter{}, f)

	_, err = reg.Get("missing")
	assert.Error(t, err)

	assert.Equal(t, []string{"test"}, reg.Available())
}

func TestDefaultRegistryHasAllFormats(t *testing.T) {
	assert.Equal(t,
		[]string{"csv", "json", "jsonl", "markdown", "paths", "plain", "pretty", "template", "tsv", "yaml"},
		Available())
}

func TestFormatForPath(t *testing.T) {
	tests := map[string]string{
		"report.md":       "markdown",
		"REPORT.MARKDOWN": "markdown",
		"out/report.json": "json",
		"report.yml":      "yaml",
		"report.yaml":     "yaml",
		"changes.csv":     "csv",
		"changes.tsv":     "tsv",
		"report.txt":      "plain",
		"report":          "plain",
	}
	for path, want := range tests {
		assert.Equal(t, want, FormatForPath(path), path)
	}
}

func TestEmptyResult(t *testing.T) {
	for _, name := range Available() {
		if name == "template" {
			continue
		}
		f, err := Get(name)
		require.NoError(t, err)
		var buf bytes.Buffer
		err = f.Format(&buf, &Result{})
		assert.True(t, errors.Is(err, ErrEmptyResult), "%s: %v", name, err)
	}
}

func TestRender(t *testing.T) {
	out, err := Render("paths", &Result{Backups: sampleBackups()})
	require.NoError(t, err)
	assert.Equal(t, "2026-06-01T09-00-00.000Z\n2026-06-01T08-00-00.000Z\n", string(out))

	_, err = Render("xml", &Result{Backups: sampleBackups()})
	assert.Error(t, err)
}
