package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/output"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/restore"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/snapshot"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/tuner"
)

var (
	restoreFolder string
	restoreLast   bool
	restoreVerify bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore [index|id]",
	Short: "Restore files from a backup",
	Long: `Copy the files of a backup back to where they were captured from.

The backup is chosen by its 1-based index in 'gamechanger list --kind files',
by id, by --backup-folder, or with --last (the default) for the newest one.
Files that already match are left alone and files absent from the backup are
never deleted. Use --dry-run to preview and --verify to check stored bytes
against their recorded hash while copying.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRestore,
}

func init() {
	restoreCmd.Flags().StringVar(&restoreFolder, "backup-folder", "", "restore from this backup directory")
	restoreCmd.Flags().BoolVar(&restoreLast, "last", false, "restore the most recent backup")
	restoreCmd.Flags().BoolVar(&restoreVerify, "verify", false, "verify stored content hashes while restoring")
	rootCmd.AddCommand(restoreCmd)
}

// backupRef picks the reference from positional args, --backup-folder and --last.
func backupRef(args []string, folder string, last bool) (string, error) {
	given := 0
	ref := ""
	if len(args) == 1 {
		given++
		ref = args[0]
	}
	if folder != "" {
		given++
		ref = folder
	}
	if last {
		given++
		ref = ""
	}
	if given > 1 {
		return "", errors.New("choose one of an index or id, --backup-folder and --last")
	}
	return ref, nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	ref, err := backupRef(args, restoreFolder, restoreLast)
	if err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	b, err := store.Resolve(ref, snapshot.KindFiles)
	if err != nil {
		return err
	}

	if !confirm(cmd, fmt.Sprintf("Restore %d files from %s?", b.Meta.Files, b.ID)) {
		return errAborted
	}

	engine := restore.NewEngine(nil, restore.WithWorkers(tuner.Workers(cfg.Workers).Copy))
	res, restoreErr := engine.Restore(cmd.Context(), b, restore.Options{
		DryRun: dryRun,
		Force:  force,
		Verify: restoreVerify,
	})
	if res != nil {
		if err := render(cmd, &output.Result{Restore: res}, ""); err != nil {
			return errors.Join(restoreErr, err)
		}
	}
	return restoreErr
}
