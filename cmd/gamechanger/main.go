// Package main provides the entry point for the gamechanger CLI.
package main

import (
	"fmt"
	"os"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/logging"
)

func main() {
	err := Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	_ = logging.Close()
	os.Exit(exitCode(err))
}
