package main

import (
	"github.com/spf13/cobra"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/output"
)

var listKind string

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored backups, newest first",
	Long: `List the backups under backup_root, newest first. The position in this list
is the index accepted by restore, compare and services restore.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listKind, "kind", "", "only list one kind: files or services")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	kind, err := kindFlag(listKind)
	if err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	list, err := store.ListKind(kind)
	if err != nil {
		return err
	}
	return render(cmd, &output.Result{Backups: list}, "")
}
