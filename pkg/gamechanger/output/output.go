// Package output renders gamechanger results (comparison reports, backup
// listings, restore outcomes and service state) in several formats.
//
// Formatters are kept in a registry and selected by name at runtime:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, &output.Result{Report: report}); err != nil {
//	    return err
//	}
package output

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/compare"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/logging"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/restore"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/services"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/snapshot"
)

var logger = logging.Get("output")

// ErrEmptyResult is returned when a Result carries no payload.
var ErrEmptyResult = errors.New("nothing to render")

// Result is the value handed to a formatter. Exactly one payload field is
// expected to be set.
type Result struct {
	Report   *compare.Report
	Backups  []snapshot.Summary
	Restore  *restore.Result
	Services *services.Document
	Apply    *services.ApplyResult
}

// payload returns the set field for the structured encoders.
func (r *Result) payload() (any, error) {
	switch {
	case r == nil:
		return nil, ErrEmptyResult
	case r.Report != nil:
		return r.Report, nil
	case r.Backups != nil:
		return r.Backups, nil
	case r.Restore != nil:
		return r.Restore, nil
	case r.Services != nil:
		return r.Services, nil
	case r.Apply != nil:
		return r.Apply, nil
	}
	return nil, ErrEmptyResult
}

// table flattens the payload into a header and rows for the tabular formats.
func (r *Result) table() ([]string, [][]string, error) {
	switch {
	case r == nil:
		return nil, nil, ErrEmptyResult
	case r.Report != nil:
		header := []string{"RISK", "CHANGE", "CATEGORY", "IDENTITY", "BEFORE", "AFTER"}
		rows := make([][]string, 0, len(r.Report.Changes))
		for _, c := range r.Report.Changes {
			before, after := changeValues(r.Report.Kind, c)
			rows = append(rows, []string{string(c.Risk), string(c.Kind), c.Category, c.Identity, before, after})
		}
		return header, rows, nil
	case r.Backups != nil:
		header := []string{"#", "ID", "KIND", "LABEL", "CREATED", "CONTENT"}
		rows := make([][]string, 0, len(r.Backups))
		for i, b := range r.Backups {
			rows = append(rows, []string{
				strconv.Itoa(i + 1), b.ID, string(b.Kind), b.Label,
				b.CreatedAt.Local().Format("2006-01-02 15:04:05"), backupContent(b),
			})
		}
		return header, rows, nil
	case r.Restore != nil:
		if r.Restore.Services != nil {
			return applyTable(r.Restore.Services)
		}
		header := []string{"ACTION", "PATH", "DETAIL"}
		rows := make([][]string, 0, len(r.Restore.Files))
		for _, f := range r.Restore.Files {
			detail := f.Error
			if detail == "" {
				detail = f.Warning
			}
			rows = append(rows, []string{string(f.Action), f.Destination, detail})
		}
		return header, rows, nil
	case r.Services != nil:
		header := []string{"SERVICE", "CATEGORY", "STARTUP", "STATE", "DISPLAY NAME"}
		rows := make([][]string, 0, len(r.Services.Services))
		for _, s := range r.Services.Services {
			rows = append(rows, []string{s.Name, string(s.Category), string(s.StartupType), string(s.RunState), s.DisplayName})
		}
		return header, rows, nil
	case r.Apply != nil:
		return applyTable(r.Apply)
	}
	return nil, nil, ErrEmptyResult
}

func applyTable(a *services.ApplyResult) ([]string, [][]string, error) {
	failed := make(map[string]string, len(a.Failed))
	for _, f := range a.Failed {
		failed[strings.ToLower(f.Item)] = f.Message
	}
	header := []string{"SERVICE", "CATEGORY", "FROM", "TO", "ACTIONS", "STATUS"}
	rows := make([][]string, 0, len(a.Changes))
	for _, c := range a.Changes {
		status := "applied"
		switch {
		case failed[strings.ToLower(c.Name)] != "":
			status = "failed: " + failed[strings.ToLower(c.Name)]
		case a.DryRun:
			status = "planned"
		}
		actions := make([]string, 0, len(c.Actions))
		for _, act := range c.Actions {
			actions = append(actions, string(act))
		}
		rows = append(rows, []string{
			c.Name, string(c.Category),
			fmt.Sprintf("%s/%s", c.FromStartup, c.FromRun),
			fmt.Sprintf("%s/%s", c.ToStartup, c.ToRun),
			strings.Join(actions, ","), status,
		})
	}
	return header, rows, nil
}

// changeValues renders the before and after sides of a change. File
// hashes are shortened and paired with sizes.
func changeValues(kind snapshot.Kind, c compare.Change) (string, string) {
	if kind == snapshot.KindServices {
		return c.Before, c.After
	}
	side := func(hash string, size int64) string {
		if hash == "" {
			return ""
		}
		return fmt.Sprintf("%s (%s)", shortHash(hash), humanize.IBytes(uint64(size)))
	}
	return side(c.Before, c.SizeBefore), side(c.After, c.SizeAfter)
}

func shortHash(h string) string {
	if _, hex, ok := strings.Cut(h, ":"); ok {
		h = hex
	}
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func backupContent(b snapshot.Summary) string {
	if b.Kind == snapshot.KindServices {
		return fmt.Sprintf("%d services", b.Services)
	}
	return fmt.Sprintf("%d files, %s", b.Files, humanize.IBytes(uint64(b.Bytes)))
}

// warnings gathers the warnings carried by the payload.
func (r *Result) warnings() []string {
	switch {
	case r.Report != nil:
		return r.Report.Warnings
	case r.Restore != nil:
		return r.Restore.Warnings
	}
	return nil
}

// Formatter is the interface that all output formatters must implement.
type Formatter interface {
	// Format writes the formatted output to the buffer.
	Format(w *bytes.Buffer, r *Result) error
}

// FormatterFactory is a function that creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates a new formatter registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a formatter factory to the registry, replacing any
// existing formatter with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns a sorted list of all registered formatter names.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

// FormatForPath infers a formatter name from a report file's extension.
// Unknown extensions get plain text.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return "markdown"
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".csv":
		return "csv"
	case ".tsv":
		return "tsv"
	}
	return "plain"
}

// Render formats r with the named formatter from the default registry.
func Render(name string, r *Result) ([]byte, error) {
	f, err := Get(name)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := f.Format(&buf, r); err != nil {
		return nil, err
	}
	logger.Debug("rendered output", "format", name, "bytes", buf.Len())
	return buf.Bytes(), nil
}
