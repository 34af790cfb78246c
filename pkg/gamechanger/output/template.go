package output

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
)

// TemplateFormatter renders a Result through a text/template. The template
// sees the Result itself, so {{.Report.Changes}}, {{.Backups}} or
// {{.Apply.Changes}} are reachable depending on the command. Helpers:
//
//	{{date .CreatedAt "2006-01-02"}}  {{ago .CreatedAt}}
//	{{bytes .Bytes}}  {{short .After}}  {{upper .Risk}}
type TemplateFormatter struct {
	mu     sync.Mutex
	tmpl   *template.Template
	parsed error
}

// NewTemplateFormatter parses text. A parse error is reported by Format.
func NewTemplateFormatter(text string) *TemplateFormatter {
	f := &TemplateFormatter{}
	f.SetTemplate(text)
	return f
}

// SetTemplate replaces the template.
func (f *TemplateFormatter) SetTemplate(text string) {
	tmpl, err := template.New("gamechanger").Funcs(template.FuncMap{
		"date":  formatDate,
		"ago":   humanize.Time,
		"bytes": func(n int64) string { return humanize.IBytes(uint64(max(n, 0))) },
		"short": shortHash,
		"upper": func(v any) string { return strings.ToUpper(fmt.Sprint(v)) },
	}).Parse(text)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.tmpl, f.parsed = tmpl, err
}

// Format writes the formatted output to the buffer.
func (f *TemplateFormatter) Format(w *bytes.Buffer, r *Result) error {
	f.mu.Lock()
	tmpl, err := f.tmpl, f.parsed
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return tmpl.Execute(w, r)
}

func formatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}

// defaultTemplate prints one tab-separated line per change or backup.
const defaultTemplate = `{{with .Report}}{{range .Changes}}{{upper .Risk}}	{{.Kind}}	{{.Identity}}
{{end}}{{end}}{{range .Backups}}{{.ID}}	{{.Kind}}	{{date .CreatedAt "2006-01-02 15:04:05"}}
{{end}}`

func init() {
	Register("template", func() Formatter {
		return NewTemplateFormatter(defaultTemplate)
	})
}

// Ensure TemplateFormatter implements Formatter.
var _ Formatter = (*TemplateFormatter)(nil)
