package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/compare"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/restore"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/snapshot"
)

func format(t *testing.T, f Formatter, r *Result) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, r))
	return buf.String()
}

func TestJSONFormatter_Report(t *testing.T) {
	out := format(t, &JSONFormatter{}, &Result{Report: sampleReport()})

	var decoded compare.Report
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, compare.RiskHigh, decoded.OverallRisk)
	require.Len(t, decoded.Changes, 3)
	assert.Equal(t, "Config/Input/F-16C/joystick/Throttle.diff.lua", decoded.Changes[0].Identity)

	assert.Contains(t, out, `"changeKind": "modified"`)
	assert.Contains(t, out, `"riskLevel": "high"`)
	assert.Contains(t, out, `"beforeValue": "sha256:aaaaaaaaaaaaaaaaaaaa"`)
	assert.True(t, strings.HasPrefix(out, "{\n  "), "output should be indented")
}

func TestJSONFormatter_Backups(t *testing.T) {
	out := format(t, &JSONFormatter{}, &Result{Backups: sampleBackups()})

	var decoded []snapshot.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, sampleBackups(), decoded)
}

func TestJSONLFormatter(t *testing.T) {
	out := format(t, &JSONLFormatter{}, &Result{Report: sampleReport()})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		var c compare.Change
		require.NoError(t, json.Unmarshal([]byte(line), &c))
		assert.NotEmpty(t, c.Identity)
	}

	out = format(t, &JSONLFormatter{}, &Result{Restore: sampleRestore()})
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
}

func TestYAMLFormatter(t *testing.T) {
	out := format(t, &YAMLFormatter{}, &Result{Report: sampleReport()})

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "high", decoded["overallRisk"])
	assert.Contains(t, out, "changeKind: modified")
	assert.Contains(t, out, "identity: Config/options.lua")
}

func TestPlainFormatter_Report(t *testing.T) {
	out := format(t, &PlainFormatter{}, &Result{Report: sampleReport()})

	lines := strings.Split(out, "\n")
	assert.True(t, strings.HasPrefix(lines[0], "RISK"))
	assert.Contains(t, lines[1], "high")
	assert.Contains(t, lines[1], "Config/Input/F-16C/joystick/Throttle.diff.lua")
	assert.Contains(t, lines[1], "aaaaaaaaaaaa (1.0 KiB)")
	assert.Contains(t, out, "1 added, 0 removed, 2 modified, 4 unchanged")
	assert.Contains(t, out, "overall high")
	assert.Contains(t, out, "warning: unreadable in after")
	assert.NotContains(t, out, "\x1b[", "plain output must not contain ANSI escapes")
}

func TestPlainFormatter_Restore(t *testing.T) {
	out := format(t, &PlainFormatter{}, &Result{Restore: sampleRestore()})

	assert.Contains(t, out, "ACTION")
	assert.Contains(t, out, "/games/Config/options.lua")
	assert.Contains(t, out, "dry run: 2026-06-01T08-00-00.000Z: 1 restored, 0 unchanged, 1 skipped, 0 failed")
}

func TestPlainFormatter_Services(t *testing.T) {
	out := format(t, &PlainFormatter{}, &Result{Services: sampleServices()})
	assert.Contains(t, out, "DiagTrack")
	assert.Contains(t, out, "SafeToDisable")
	assert.Contains(t, out, "1 services, 1 not installed")

	out = format(t, &PlainFormatter{}, &Result{Apply: sampleApply()})
	assert.Contains(t, out, "Automatic/Running")
	assert.Contains(t, out, "Disabled/Stopped")
	assert.Contains(t, out, "stop,set-startup")
	assert.Contains(t, out, "failed: access denied")
	assert.Contains(t, out, "safety snapshot 2026-06-01T09-00-00.000Z")

	res := &restore.Result{Kind: snapshot.KindServices, Services: sampleApply()}
	out = format(t, &PlainFormatter{}, &Result{Restore: res})
	assert.Contains(t, out, "WSearch")
}

func TestCSVFormatter(t *testing.T) {
	out := format(t, &CSVFormatter{}, &Result{Backups: sampleBackups()})

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"#", "ID", "KIND", "LABEL", "CREATED", "CONTENT"}, records[0])
	assert.Equal(t, "1", records[1][0])
	assert.Equal(t, "42 services", records[1][5])
	assert.Equal(t, "12 files, 3.0 MiB", records[2][5])
}

func TestTSVFormatter(t *testing.T) {
	out := format(t, &TSVFormatter{}, &Result{Report: sampleReport()})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Len(t, strings.Split(lines[1], "\t"), 6)
}

func TestMarkdownFormatter_Report(t *testing.T) {
	out := format(t, &MarkdownFormatter{}, &Result{Report: sampleReport()})

	assert.Contains(t, out, "# GameChanger comparison: files")
	assert.Contains(t, out, "**Overall risk:** HIGH")
	assert.Contains(t, out, "## High risk (1)")
	assert.Contains(t, out, "## Medium risk (1)")
	assert.Contains(t, out, "## Low risk (1)")
	assert.Contains(t, out, "| modified | Input | `Config/Input/F-16C/joystick/Throttle.diff.lua` |")
	assert.Contains(t, out, "- `options.graphics.msaaMode`: `2` → `4` (high)")
	assert.Contains(t, out, "## Warnings")
	assert.Less(t, strings.Index(out, "## High risk"), strings.Index(out, "## Medium risk"))
}

func TestMarkdownFormatter_EmptyReport(t *testing.T) {
	rep := sampleReport()
	rep.Changes = []compare.Change{}
	rep.Warnings = nil
	out := format(t, &MarkdownFormatter{}, &Result{Report: rep})

	assert.Contains(t, out, "No differences found.")
	assert.NotContains(t, out, "risk (")
}

func TestMarkdownFormatter_EscapesPipes(t *testing.T) {
	backups := sampleBackups()
	backups[0].Label = "a|b"
	out := format(t, &MarkdownFormatter{}, &Result{Backups: backups})
	assert.Contains(t, out, `a\|b`)
}

func TestPrettyFormatter_Report(t *testing.T) {
	out := format(t, &PrettyFormatter{}, &Result{Report: sampleReport()})

	assert.Contains(t, out, "Comparison of files backups")
	assert.Contains(t, out, "HIGH")
	assert.Contains(t, out, "Config/options.lua")
	assert.Contains(t, out, "~ options.graphics.msaaMode: 2 → 4")
	assert.Contains(t, out, "Warnings:")
	assert.Less(t, strings.Index(out, "Throttle.diff.lua"), strings.Index(out, "Config/options.lua"))
}

func TestPrettyFormatter_EmptyListing(t *testing.T) {
	out := format(t, &PrettyFormatter{}, &Result{Backups: []snapshot.Summary{}})
	assert.Contains(t, out, "No backups yet")
	assert.Contains(t, out, "0 backups")
}

func TestTemplateFormatter(t *testing.T) {
	f := NewTemplateFormatter(`{{range .Backups}}{{.ID}} {{bytes .Bytes}}{{"\n"}}{{end}}`)
	out := format(t, f, &Result{Backups: sampleBackups()})
	assert.Equal(t, "2026-06-01T09-00-00.000Z 0 B\n2026-06-01T08-00-00.000Z 3.0 MiB\n", out)

	f.SetTemplate(`{{with .Report}}{{range .Changes}}{{short .After}} {{end}}{{end}}`)
	out = format(t, f, &Result{Report: sampleReport()})
	assert.Equal(t, "bbbbbbbbbbbb dddddddddddd eeeeeeeeeeee ", out)

	f.SetTemplate(`{{.Nope`)
	var buf bytes.Buffer
	assert.Error(t, f.Format(&buf, &Result{}))
}

func TestPathsFormatter(t *testing.T) {
	out := format(t, &PathsFormatter{}, &Result{Report: sampleReport()})
	assert.Equal(t, "Config/Input/F-16C/joystick/Throttle.diff.lua\nConfig/options.lua\nMods/notes.txt\n", out)

	out = format(t, &PathsFormatter{}, &Result{Apply: sampleApply()})
	assert.Equal(t, "DiagTrack\nWSearch\n", out)
}
