package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/compare"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/settings"
)

// MarkdownFormatter writes a GitHub-flavored Markdown document. Reports
// get a summary and one section per risk level; every other payload is
// written as a single table.
type MarkdownFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *MarkdownFormatter) Format(w *bytes.Buffer, r *Result) error {
	if r != nil && r.Report != nil {
		f.report(w, r.Report)
		return nil
	}
	header, rows, err := r.table()
	if err != nil {
		return err
	}
	writeMarkdownTable(w, header, rows)
	if line := summaryLine(r); line != "" {
		fmt.Fprintf(w, "\n_%s_\n", escapeMarkdown(line))
	}
	return nil
}

func (f *MarkdownFormatter) report(w *bytes.Buffer, rep *compare.Report) {
	fmt.Fprintf(w, "# GameChanger comparison: %s\n\n", rep.Kind)
	fmt.Fprintf(w, "- **Baseline:** %s\n", describeRef(rep.Baseline))
	fmt.Fprintf(w, "- **Candidate:** %s\n", describeRef(rep.Candidate))
	fmt.Fprintf(w, "- **Generated:** %s\n", rep.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "- **Overall risk:** %s\n\n", strings.ToUpper(string(rep.OverallRisk)))

	w.WriteString("## Summary\n\n")
	writeMarkdownTable(w,
		[]string{"Added", "Removed", "Modified", "Unchanged", "High", "Medium", "Low"},
		[][]string{{
			fmt.Sprint(rep.Counts.Added), fmt.Sprint(rep.Counts.Removed),
			fmt.Sprint(rep.Counts.Modified), fmt.Sprint(rep.Counts.Unchanged),
			fmt.Sprint(rep.RiskSummary.High), fmt.Sprint(rep.RiskSummary.Medium),
			fmt.Sprint(rep.RiskSummary.Low),
		}})

	if len(rep.Changes) == 0 {
		w.WriteString("\nNo differences found.\n")
	}

	levels := []compare.RiskLevel{compare.RiskHigh, compare.RiskMedium, compare.RiskLow, compare.RiskInformational}
	for _, level := range levels {
		var changes []compare.Change
		for _, c := range rep.Changes {
			if c.Risk == level {
				changes = append(changes, c)
			}
		}
		if len(changes) == 0 {
			continue
		}

		fmt.Fprintf(w, "\n## %s risk (%d)\n\n", titleCase(string(level)), len(changes))
		rows := make([][]string, 0, len(changes))
		for _, c := range changes {
			before, after := changeValues(rep.Kind, c)
			rows = append(rows, []string{string(c.Kind), c.Category, "`" + c.Identity + "`", before, after})
		}
		writeMarkdownTable(w, []string{"Change", "Category", "Identity", "Before", "After"}, rows)

		for _, c := range changes {
			if len(c.Settings) == 0 && c.Note == "" {
				continue
			}
			fmt.Fprintf(w, "\n### `%s`\n\n", c.Identity)
			if c.Note != "" {
				fmt.Fprintf(w, "_Setting detail unavailable: %s_\n", escapeMarkdown(c.Note))
			}
			for _, s := range c.Settings {
				switch s.Kind {
				case settings.Added:
					fmt.Fprintf(w, "- `%s`: added `%s` (%s)\n", s.Key, s.After, s.Impact)
				case settings.Removed:
					fmt.Fprintf(w, "- `%s`: removed, was `%s` (%s)\n", s.Key, s.Before, s.Impact)
				default:
					fmt.Fprintf(w, "- `%s`: `%s` → `%s` (%s)\n", s.Key, s.Before, s.After, s.Impact)
				}
			}
		}
	}

	if len(rep.Warnings) > 0 {
		w.WriteString("\n## Warnings\n\n")
		for _, warning := range rep.Warnings {
			fmt.Fprintf(w, "- %s\n", escapeMarkdown(warning))
		}
	}
}

func describeRef(r compare.Ref) string {
	s := "`" + r.ID + "`"
	if r.Label != "" {
		s += " " + escapeMarkdown(r.Label)
	}
	if !r.CreatedAt.IsZero() {
		s += " (" + r.CreatedAt.Local().Format("2006-01-02 15:04:05") + ")"
	}
	return s
}

func writeMarkdownTable(w *bytes.Buffer, header []string, rows [][]string) {
	w.WriteString("| " + strings.Join(header, " | ") + " |\n")
	seps := make([]string, len(header))
	for i := range seps {
		seps[i] = "---"
	}
	w.WriteString("|" + strings.Join(seps, "|") + "|\n")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = escapeMarkdownPipe(cell)
		}
		w.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

// escapeMarkdownPipe escapes pipe characters in a string for Markdown tables.
func escapeMarkdownPipe(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func escapeMarkdown(s string) string {
	return strings.NewReplacer("_", `\_`, "*", `\*`, "|", `\|`).Replace(s)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func init() {
	Register("markdown", func() Formatter {
		return &MarkdownFormatter{}
	})
}

// Ensure MarkdownFormatter implements Formatter.
var _ Formatter = (*MarkdownFormatter)(nil)
