package main

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/output"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/snapshot"
)

var backupName string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up the configured files",
	Long: `Snapshot every configured source (DCS Config folders, VR runtime settings and
anything listed in sources_file) into a new backup under backup_root.

Files that are locked or unreadable are recorded and reported but do not
stop the backup. With --dry-run the sources are inventoried and nothing is
written.`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

func init() {
	backupCmd.Flags().StringVar(&backupName, "name", "", "label for the backup (becomes part of its id)")
	rootCmd.AddCommand(backupCmd)
}

func runBackup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := openStore()
	if err != nil {
		return err
	}
	hc := openHashCache()
	defer closeHashCache(hc)

	m, err := buildManifest(ctx, hc)
	if err != nil {
		return err
	}

	if dryRun {
		sum := m.Summary()
		printInfo(cmd, "Dry run: would back up %d files (%s) from %d sources, %d unreadable",
			sum.Files, humanize.IBytes(uint64(sum.Bytes)), len(m.RootPaths), sum.Unreadable)
		for _, w := range m.Warnings {
			printWarning(cmd, "%s", w)
		}
		return nil
	}

	b, err := store.CaptureFiles(ctx, m, backupName)
	if err != nil {
		return err
	}
	for _, w := range b.Meta.Warnings {
		printWarning(cmd, "%s", w)
	}
	return render(cmd, &output.Result{Backups: []snapshot.Summary{b.Summary()}}, "")
}
