package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

// skipBootstrap marks commands that run without loading the configuration.
const skipBootstrap = "skip-bootstrap"

var rootCmd = &cobra.Command{
	Use:   "gamechanger",
	Short: "Back up, restore and compare DCS configuration and Windows services",
	Long: `GameChanger snapshots your DCS World configuration files and the state of
gaming-relevant Windows services, restores them, and reports what changed
between two snapshots with a risk rating for every difference.

Examples:
  gamechanger backup --name before-patch   # Snapshot the configured files
  gamechanger list                         # Show stored backups, newest first
  gamechanger compare --latest             # What changed since the previous backup
  gamechanger restore 2 --dry-run          # Preview restoring the second newest backup
  gamechanger services optimize            # Tune services, with a safety snapshot
  gamechanger watch                        # Back up automatically after changes`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initializeApp,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ~/.config/gamechanger/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug output on stderr")
	flags.BoolVarP(&dryRun, "dry-run", "d", false, "show what would happen without changing anything")
	flags.BoolVarP(&force, "force", "f", false, "skip confirmations and downgrade per-item failures to warnings")
	flags.StringVar(&outputFormat, "format", "", "output format: pretty, plain, json, jsonl, yaml, markdown, csv, tsv, paths")
	flags.BoolVar(&noCache, "no-cache", false, "hash every file instead of using the hash cache")
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// printInfo prints a status line to the command's stdout.
func printInfo(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}

// printWarning prints a warning to the command's stderr.
func printWarning(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.ErrOrStderr(), "Warning: "+format+"\n", args...)
}

// errAborted is returned when the user declines a confirmation.
var errAborted = errors.New("aborted")

// confirm asks a yes/no question unless --force or --dry-run is set.
func confirm(cmd *cobra.Command, question string) bool {
	if force || dryRun {
		return true
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
