package main

import (
	"github.com/spf13/cobra"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/snapshot"
)

var (
	pruneMax  int
	pruneKind string
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete the oldest backups beyond the retention limit",
	Long: `Keep the newest --max backups (default: max_backups from the configuration)
and delete the rest. The limit counts backups of every kind unless --kind
restricts pruning to one. A limit of 0 keeps everything.`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func init() {
	pruneCmd.Flags().IntVar(&pruneMax, "max", -1, "backups to keep (default: max_backups)")
	pruneCmd.Flags().StringVar(&pruneKind, "kind", "", "only prune one kind: files or services")
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, _ []string) error {
	kind, err := kindFlag(pruneKind)
	if err != nil {
		return err
	}
	limit := cfg.MaxBackups
	if pruneMax >= 0 {
		limit = pruneMax
	}
	if limit == 0 {
		printInfo(cmd, "Retention is unlimited; nothing to prune.")
		return nil
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	if dryRun {
		list, err := store.ListKind(kind)
		if err != nil {
			return err
		}
		doomed := pruneCandidates(list, limit)
		for _, sum := range doomed {
			printInfo(cmd, "Would remove %s (%s)", sum.ID, sum.Kind)
		}
		printInfo(cmd, "Dry run: %d backups would be removed", len(doomed))
		return nil
	}

	var removed []string
	if kind == "" {
		removed, err = store.Prune(limit)
	} else {
		removed, err = store.PruneKind(kind, limit)
	}
	for _, id := range removed {
		printInfo(cmd, "Removed %s", id)
	}
	printInfo(cmd, "%d backups removed", len(removed))
	return err
}

// pruneCandidates returns the backups a prune would remove from a
// newest-first list.
func pruneCandidates(list []snapshot.Summary, limit int) []snapshot.Summary {
	if limit <= 0 || len(list) <= limit {
		return nil
	}
	return list[limit:]
}
