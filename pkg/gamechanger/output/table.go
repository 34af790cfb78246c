package output

import (
	"bytes"
	"encoding/csv"
	"strings"
)

var tsvEscaper = strings.NewReplacer("\t", " ", "\n", " ")

// TSVFormatter writes the table as tab-separated values with a header row.
type TSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	header, rows, err := r.table()
	if err != nil {
		return err
	}
	w.WriteString(strings.Join(header, "\t") + "\n")
	for _, row := range rows {
		for i, cell := range row {
			row[i] = tsvEscaper.Replace(cell)
		}
		w.WriteString(strings.Join(row, "\t") + "\n")
	}
	return nil
}

func init() {
	Register("tsv", func() Formatter {
		return &TSVFormatter{}
	})
}

// Ensure TSVFormatter implements Formatter.
var _ Formatter = (*TSVFormatter)(nil)

// CSVFormatter writes the table as RFC 4180 comma-separated values.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *Result) error {
	header, rows, err := r.table()
	if err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}

func init() {
	Register("csv", func() Formatter {
		return &CSVFormatter{}
	})
}

// Ensure CSVFormatter implements Formatter.
var _ Formatter = (*CSVFormatter)(nil)
