package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/output"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/types"
)

// render formats res and writes it to outPath, or to stdout when outPath is empty.
func render(cmd *cobra.Command, res *output.Result, outPath string) error {
	name := formatFor(outPath)
	data, err := output.Render(name, res)
	if err != nil {
		return fmt.Errorf("rendering %s output: %w (available: %v)", name, err, output.Available())
	}

	if outPath == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", types.Classify(err))
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", types.Classify(err))
	}
	printInfo(cmd, "Report written to %s", outPath)
	return nil
}
