package output

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/services"
)

// PlainFormatter writes an aligned, uncolored table followed by a short
// summary. It suits scripting, piping and report files.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	header, rows, err := r.table()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(header, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if line := summaryLine(r); line != "" {
		w.WriteString("\n" + line + "\n")
	}
	for _, warning := range r.warnings() {
		w.WriteString("warning: " + warning + "\n")
	}
	return nil
}

// summaryLine is the one-line totals shown under plain and pretty tables.
func summaryLine(r *Result) string {
	switch {
	case r.Report != nil:
		rep := r.Report
		return fmt.Sprintf("%s %s -> %s: %d added, %d removed, %d modified, %d unchanged; risk high=%d medium=%d low=%d; overall %s",
			rep.Kind, rep.Baseline.ID, rep.Candidate.ID,
			rep.Counts.Added, rep.Counts.Removed, rep.Counts.Modified, rep.Counts.Unchanged,
			rep.RiskSummary.High, rep.RiskSummary.Medium, rep.RiskSummary.Low, rep.OverallRisk)
	case r.Backups != nil:
		return fmt.Sprintf("%d backups", len(r.Backups))
	case r.Restore != nil && r.Restore.Services != nil:
		return applySummary(r.Restore.Services)
	case r.Restore != nil:
		res := r.Restore
		prefix := ""
		if res.DryRun {
			prefix = "dry run: "
		}
		s := fmt.Sprintf("%s%s: %d restored, %d unchanged, %d skipped, %d failed",
			prefix, res.BackupID, res.Restored, res.Unchanged, res.Skipped, res.Failed)
		if res.Incomplete {
			s += " (incomplete)"
		}
		return s
	case r.Services != nil:
		s := fmt.Sprintf("%d services", len(r.Services.Services))
		if len(r.Services.Missing) > 0 {
			s += fmt.Sprintf(", %d not installed", len(r.Services.Missing))
		}
		return s
	case r.Apply != nil:
		return applySummary(r.Apply)
	}
	return ""
}

func applySummary(a *services.ApplyResult) string {
	prefix := ""
	if a.DryRun {
		prefix = "dry run: "
	}
	s := fmt.Sprintf("%s%d changes, %d applied, %d unchanged, %d failed",
		prefix, len(a.Changes), len(a.Applied), len(a.Unchanged), len(a.Failed))
	if a.SafetySnapshot != "" {
		s += "; safety snapshot " + a.SafetySnapshot
	}
	if a.Incomplete {
		s += " (incomplete)"
	}
	return s
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
