package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/compare"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/output"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/snapshot"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/types"
)

var (
	compareBackup1 string
	compareBackup2 string
	compareLatest  bool
	compareOutput  string
	compareAll     bool
	compareKind    string
	compareNoDiff  bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Report what changed between two backups",
	Long: `Compare two backups of the same kind and rate every difference by its likely
performance impact (high, medium, low, informational).

Without arguments, or with --latest, the newest backup is compared with the
one before it. --backup1 alone compares that backup with the newest one.
Backups may be given as index, id or directory.

The report goes to stdout, or to --output; its format follows --format or
the output file's extension (.md, .json, .yaml, .csv, .tsv, anything else
is plain text).`,
	Args: cobra.NoArgs,
	RunE: runCompare,
}

func init() {
	f := compareCmd.Flags()
	f.StringVar(&compareBackup1, "backup1", "", "baseline (older) backup: index, id or directory")
	f.StringVar(&compareBackup2, "backup2", "", "candidate (newer) backup: index, id or directory")
	f.BoolVar(&compareLatest, "latest", false, "compare the newest backup with the previous one")
	f.StringVarP(&compareOutput, "output", "o", "", "write the report to this file")
	f.BoolVar(&compareAll, "all", false, "include unchanged items in the report")
	f.StringVar(&compareKind, "kind", "files", "backup kind for index lookups and --latest: files or services")
	f.BoolVar(&compareNoDiff, "no-settings", false, "skip setting-level diffs of config files")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, _ []string) error {
	kind, err := kindFlag(compareKind)
	if err != nil {
		return err
	}
	if compareLatest && (compareBackup1 != "" || compareBackup2 != "") {
		return errors.New("--latest cannot be combined with --backup1 or --backup2")
	}
	if compareBackup2 != "" && compareBackup1 == "" {
		return errors.New("--backup2 needs --backup1")
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	baseline, candidate, err := comparePair(store, kind, compareBackup1, compareBackup2)
	if err != nil {
		return err
	}

	opts := []compare.Option{compare.WithSettingsDetail(!compareNoDiff)}
	if compareAll {
		opts = append(opts, compare.IncludeUnchanged())
	}
	report, err := compareEngine(opts...).Compare(baseline, candidate)
	if err != nil {
		return err
	}
	return render(cmd, &output.Result{Report: report}, compareOutput)
}

// comparePair resolves the baseline and candidate. With no references the
// two newest backups of kind are used.
func comparePair(store *snapshot.Store, kind snapshot.Kind, ref1, ref2 string) (baseline, candidate *snapshot.Backup, err error) {
	if ref1 == "" {
		list, err := store.ListKind(kind)
		if err != nil {
			return nil, nil, err
		}
		if len(list) < 2 {
			return nil, nil, fmt.Errorf("%w: need two %s backups to compare, have %d", types.ErrNotFound, kind, len(list))
		}
		if baseline, err = snapshot.LoadDir(list[1].Path); err != nil {
			return nil, nil, err
		}
		if candidate, err = snapshot.LoadDir(list[0].Path); err != nil {
			return nil, nil, err
		}
		return baseline, candidate, nil
	}

	if baseline, err = store.Resolve(ref1, lookupKind(ref1, kind)); err != nil {
		return nil, nil, err
	}
	// The candidate defaults to the newest backup of the baseline's kind.
	if candidate, err = store.Resolve(ref2, lookupKind(ref2, baseline.Kind)); err != nil {
		return nil, nil, err
	}
	return baseline, candidate, nil
}

// lookupKind returns kind for index and empty references, which need it to
// pick from a list, and no kind for ids and paths so a mismatch surfaces as
// an incompatible comparison.
func lookupKind(ref string, kind snapshot.Kind) snapshot.Kind {
	if ref == "" {
		return kind
	}
	if _, err := strconv.Atoi(ref); err == nil {
		return kind
	}
	return ""
}
