package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/compare"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/settings"
)

// PrettyFormatter formats output with colors and styling using lipgloss.
// It produces output suitable for terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	header, rows, err := r.table()
	if err != nil {
		return err
	}

	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")

	if len(rows) == 0 {
		w.WriteString(styles.dim.Render("  "+emptyMessage(r)) + "\n")
	} else {
		w.WriteString(f.formatTable(r, header, rows))
	}

	if line := summaryLine(r); line != "" {
		w.WriteString(styles.footer.Render(styles.value.Render(line)))
		w.WriteString("\n")
	}

	if warnings := r.warnings(); len(warnings) > 0 {
		w.WriteString("\n")
		w.WriteString(f.formatWarnings(warnings))
	}
	return nil
}

// formatHeader builds the header box for the payload.
func (f *PrettyFormatter) formatHeader(r *Result) string {
	var lines []string
	field := func(label, value string) string {
		return styles.label.Render(label) + " " + styles.value.Render(value)
	}

	switch {
	case r.Report != nil:
		rep := r.Report
		lines = append(lines,
			styles.title.Render(fmt.Sprintf("Comparison of %s backups", rep.Kind)),
			field("Baseline: ", refLine(rep.Baseline)),
			field("Candidate:", refLine(rep.Candidate)),
			styles.label.Render("Overall risk:")+" "+styles.risk(rep.OverallRisk).Render(strings.ToUpper(string(rep.OverallRisk))))
	case r.Backups != nil:
		var total int64
		for _, b := range r.Backups {
			total += b.Bytes
		}
		lines = append(lines,
			styles.title.Render("Backups"),
			field("Stored:", fmt.Sprintf("%d backups, %s", len(r.Backups), humanize.IBytes(uint64(total)))))
	case r.Restore != nil:
		title := "Restore"
		if r.Restore.DryRun {
			title = "Restore (dry run)"
		}
		lines = append(lines, styles.title.Render(title), field("Backup:", r.Restore.BackupID))
	case r.Services != nil:
		lines = append(lines,
			styles.title.Render("Windows services"),
			field("Captured:", r.Services.CapturedAt.Local().Format("2006-01-02 15:04:05")))
		if len(r.Services.Missing) > 0 {
			lines = append(lines, field("Not installed:", strings.Join(r.Services.Missing, ", ")))
		}
	case r.Apply != nil:
		title := "Service changes"
		if r.Apply.DryRun {
			title = "Service changes (dry run)"
		}
		lines = append(lines, styles.title.Render(title))
		if r.Apply.SafetySnapshot != "" {
			lines = append(lines, field("Safety snapshot:", r.Apply.SafetySnapshot))
		}
	}
	return styles.header.Render(strings.Join(lines, "\n"))
}

func refLine(r compare.Ref) string {
	s := r.ID
	if r.Label != "" {
		s += " (" + r.Label + ")"
	}
	if !r.CreatedAt.IsZero() {
		s += "  " + humanize.Time(r.CreatedAt)
	}
	return s
}

func emptyMessage(r *Result) string {
	switch {
	case r.Report != nil:
		return "No differences found"
	case r.Backups != nil:
		return "No backups yet"
	case r.Apply != nil, r.Restore != nil && r.Restore.Services != nil:
		return "All services already in the requested state"
	}
	return "Nothing to show"
}

// formatTable aligns the columns on their unstyled width, then styles each cell.
func (f *PrettyFormatter) formatTable(r *Result, header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var sb strings.Builder
	cells := make([]string, len(header))
	for i, h := range header {
		cells[i] = styles.column.Render(padRight(h, widths[i]))
	}
	sb.WriteString("  " + strings.TrimRight(strings.Join(cells, "  "), " ") + "\n")

	for n, row := range rows {
		for i, cell := range row {
			cells[i] = styles.cell(header[i], cell).Render(padRight(cell, widths[i]))
		}
		sb.WriteString("  " + strings.TrimRight(strings.Join(cells, "  "), " ") + "\n")

		if r.Report != nil {
			sb.WriteString(f.formatSettings(r.Report.Changes[n]))
		}
	}
	return sb.String()
}

// formatSettings lists setting-level differences under a report row.
func (f *PrettyFormatter) formatSettings(c compare.Change) string {
	var sb strings.Builder
	if c.Note != "" {
		sb.WriteString(styles.dim.Render("      "+c.Note) + "\n")
	}
	for _, s := range c.Settings {
		var text string
		switch s.Kind {
		case settings.Added:
			text = fmt.Sprintf("+ %s = %s", s.Key, s.After)
		case settings.Removed:
			text = fmt.Sprintf("- %s (was %s)", s.Key, s.Before)
		default:
			text = fmt.Sprintf("~ %s: %s → %s", s.Key, s.Before, s.After)
		}
		sb.WriteString("      " + styles.value.Render(text) + " " + styles.dim.Render("["+string(s.Impact)+"]") + "\n")
	}
	return sb.String()
}

// formatWarnings builds a warning block.
func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder

	sb.WriteString(styles.caution.Bold(true).Render("Warnings:"))
	sb.WriteString("\n")
	for _, warning := range warnings {
		sb.WriteString(styles.caution.Render("  " + warning))
		sb.WriteString("\n")
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
