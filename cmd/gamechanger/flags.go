package main

import (
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/output"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/snapshot"
)

// Global flags.
var (
	cfgFile      string
	verbose      bool
	dryRun       bool
	force        bool
	outputFormat string
	noCache      bool
)

// formatFor picks the formatter name: --format wins, then the extension
// of the report file, then pretty.
func formatFor(outPath string) string {
	switch {
	case outputFormat != "":
		return outputFormat
	case outPath != "":
		return output.FormatForPath(outPath)
	}
	return "pretty"
}

// kindFlag parses a --kind value. Empty means every kind.
func kindFlag(value string) (snapshot.Kind, error) {
	return snapshot.ParseKind(value)
}
