package output

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/compare"
)

// ANSI 256-color codes of the pretty theme.
const (
	colorAccent  = lipgloss.Color("39")
	colorGood    = lipgloss.Color("42")
	colorCaution = lipgloss.Color("214")
	colorAlert   = lipgloss.Color("196")
	colorDim     = lipgloss.Color("245")
	colorText    = lipgloss.Color("255")
)

// theme groups the lipgloss styles used by the pretty formatter.
type theme struct {
	header lipgloss.Style
	footer lipgloss.Style

	title   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	dim     lipgloss.Style
	good    lipgloss.Style
	caution lipgloss.Style
	alert   lipgloss.Style
	ident   lipgloss.Style
	digest  lipgloss.Style
	column  lipgloss.Style
}

var styles = newTheme()

func newTheme() theme {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	box := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	return theme{
		header: box.BorderForeground(colorAccent).MarginBottom(1),
		footer: box.BorderForeground(colorDim).MarginTop(1),

		title:   fg(colorAccent).Bold(true),
		label:   fg(colorDim),
		value:   fg(colorText),
		dim:     fg(colorDim),
		good:    fg(colorGood),
		caution: fg(colorCaution),
		alert:   fg(colorAlert),
		ident:   fg(colorText),
		digest:  fg(colorAccent).Bold(true),
		column:  fg(colorDim).Bold(true),
	}
}

// risk styles a risk level: high red and bold, medium orange, low green.
func (t theme) risk(r compare.RiskLevel) lipgloss.Style {
	switch r {
	case compare.RiskHigh:
		return t.alert.Bold(true)
	case compare.RiskMedium:
		return t.caution
	case compare.RiskLow:
		return t.good
	}
	return t.dim
}

// outcome styles a restore action or service apply status.
func (t theme) outcome(status string) lipgloss.Style {
	switch {
	case strings.HasPrefix(status, "failed"):
		return t.alert
	case status == "skipped", status == "not-attempted":
		return t.caution
	case status == "unchanged":
		return t.dim
	}
	return t.good
}

// cell styles one table cell by its column header.
func (t theme) cell(column, raw string) lipgloss.Style {
	switch column {
	case "RISK":
		return t.risk(compare.RiskLevel(raw))
	case "IDENTITY", "PATH", "SERVICE", "ID":
		return t.ident
	case "STATUS", "ACTION":
		return t.outcome(raw)
	case "CONTENT", "BEFORE", "AFTER":
		return t.digest
	}
	return t.dim
}
