package output

import (
	"bytes"
	"encoding/json"
)

// JSONFormatter writes the payload as a single indented JSON document.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	v, err := r.payload()
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)

// JSONLFormatter writes one compact JSON object per line: report changes,
// backup summaries, restored files or service records. It suits streaming
// into tools like jq.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	items, err := r.items()
	if err != nil {
		return err
	}
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return nil
}

// items returns the payload's list elements.
func (r *Result) items() ([]any, error) {
	var out []any
	switch {
	case r == nil:
		return nil, ErrEmptyResult
	case r.Report != nil:
		for _, c := range r.Report.Changes {
			out = append(out, c)
		}
	case r.Backups != nil:
		for _, b := range r.Backups {
			out = append(out, b)
		}
	case r.Restore != nil && r.Restore.Services != nil:
		for _, c := range r.Restore.Services.Changes {
			out = append(out, c)
		}
	case r.Restore != nil:
		for _, f := range r.Restore.Files {
			out = append(out, f)
		}
	case r.Services != nil:
		for _, s := range r.Services.Services {
			out = append(out, s)
		}
	case r.Apply != nil:
		for _, c := range r.Apply.Changes {
			out = append(out, c)
		}
	default:
		return nil, ErrEmptyResult
	}
	return out, nil
}

func init() {
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

// Ensure JSONLFormatter implements Formatter.
var _ Formatter = (*JSONLFormatter)(nil)
