package output

import (
	"bytes"
)

// PathsFormatter writes one identity per line: changed file paths or
// service names for a report, backup ids for a listing, destinations for a
// restore. Only the identities are written.
type PathsFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PathsFormatter) Format(w *bytes.Buffer, r *Result) error {
	names, err := r.identities()
	if err != nil {
		return err
	}
	for _, n := range names {
		w.WriteString(n)
		w.WriteByte('\n')
	}
	return nil
}

func (r *Result) identities() ([]string, error) {
	var out []string
	switch {
	case r == nil:
		return nil, ErrEmptyResult
	case r.Report != nil:
		for _, c := range r.Report.Changes {
			out = append(out, c.Identity)
		}
	case r.Backups != nil:
		for _, b := range r.Backups {
			out = append(out, b.ID)
		}
	case r.Restore != nil && r.Restore.Services != nil:
		for _, c := range r.Restore.Services.Changes {
			out = append(out, c.Name)
		}
	case r.Restore != nil:
		for _, f := range r.Restore.Files {
			out = append(out, f.Destination)
		}
	case r.Services != nil:
		for _, s := range r.Services.Services {
			out = append(out, s.Name)
		}
	case r.Apply != nil:
		for _, c := range r.Apply.Changes {
			out = append(out, c.Name)
		}
	default:
		return nil, ErrEmptyResult
	}
	return out, nil
}

func init() {
	Register("paths", func() Formatter {
		return &PathsFormatter{}
	})
}

// Ensure PathsFormatter implements Formatter.
var _ Formatter = (*PathsFormatter)(nil)
