package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/gamechanger/pkg/gamechanger/output"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/restore"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/services"
	"github.com/jamesainslie/gamechanger/pkg/gamechanger/snapshot"
)

var (
	servicesBackupName string
	servicesBackupFile string
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "Inspect, back up, optimize and restore Windows services",
	Long: `Work with the catalog of Windows services that affect gaming performance:
telemetry, indexing and update services that are safe to disable, services
that can run on demand, VR runtimes and the services that must keep running.

Changing services needs an elevated (administrator) shell. Every change is
preceded by a safety snapshot of the current state.`,
}

var servicesScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Show the current state of the cataloged services",
	Args:  cobra.NoArgs,
	RunE:  runServicesScan,
}

var servicesBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the current service state",
	Args:  cobra.NoArgs,
	RunE:  runServicesBackup,
}

var servicesListCmd = &cobra.Command{
	Use:   "list-backups",
	Short: "List service backups, newest first",
	Args:  cobra.NoArgs,
	RunE:  runServicesList,
}

var servicesOptimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Apply the gaming service profile",
	Long: `Move the services in the configured categories (services.optimize.categories)
to their gaming profile: SafeToDisable services are disabled and stopped,
GamingOptimized services are set to manual. Per-service overrides apply.

The workflow is scan, plan, safety snapshot, apply, scan again, capture an
"optimized" backup and report the difference between the two snapshots.
--dry-run shows the plan only.`,
	Args: cobra.NoArgs,
	RunE: runServicesOptimize,
}

var servicesRestoreCmd = &cobra.Command{
	Use:   "restore [index|id]",
	Short: "Return services to a backed-up state",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runServicesRestore,
}

func init() {
	servicesBackupCmd.Flags().StringVar(&servicesBackupName, "name", "services", "label for the backup")
	servicesRestoreCmd.Flags().StringVar(&servicesBackupFile, "backup-file", "", "services.json or backup directory to restore")

	servicesCmd.AddCommand(servicesScanCmd)
	servicesCmd.AddCommand(servicesBackupCmd)
	servicesCmd.AddCommand(servicesListCmd)
	servicesCmd.AddCommand(servicesOptimizeCmd)
	servicesCmd.AddCommand(servicesRestoreCmd)
	rootCmd.AddCommand(servicesCmd)
}

func runServicesScan(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	adapter, err := serviceAdapter(store)
	if err != nil {
		return err
	}
	doc, err := adapter.Scan(cmd.Context())
	if err != nil {
		return err
	}
	return render(cmd, &output.Result{Services: doc}, "")
}

func runServicesBackup(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	adapter, err := serviceAdapter(store)
	if err != nil {
		return err
	}
	doc, err := adapter.Scan(cmd.Context())
	if err != nil {
		return err
	}
	if dryRun {
		printInfo(cmd, "Dry run: would back up the state of %d services", len(doc.Services))
		return nil
	}
	b, err := store.CaptureServices(cmd.Context(), doc, servicesBackupName)
	if err != nil {
		return err
	}
	return render(cmd, &output.Result{Backups: []snapshot.Summary{b.Summary()}}, "")
}

func runServicesList(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	list, err := store.ListKind(snapshot.KindServices)
	if err != nil {
		return err
	}
	return render(cmd, &output.Result{Backups: list}, "")
}

func runServicesOptimize(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	policy, err := services.ParsePolicy(cfg.Services.Optimize.Categories, cfg.Services.Optimize.Overrides)
	if err != nil {
		return fmt.Errorf("services.optimize: %w", err)
	}
	if len(policy.Categories) == 0 && len(policy.Overrides) == 0 {
		printInfo(cmd, "No service categories enabled for optimization (services.optimize.categories).")
		return nil
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	adapter, err := serviceAdapter(store)
	if err != nil {
		return err
	}

	current, err := adapter.Scan(ctx)
	if err != nil {
		return err
	}
	target := services.ComputeTarget(current, policy)

	if dryRun {
		plan, planErr := adapter.Apply(ctx, target, true)
		if plan != nil {
			if err := render(cmd, &output.Result{Apply: plan}, ""); err != nil {
				return errors.Join(planErr, err)
			}
		}
		return planErr
	}

	if !confirm(cmd, "Change Windows services to the gaming profile?") {
		return errAborted
	}

	res, applyErr := adapter.Apply(ctx, target, false)
	if res == nil {
		return applyErr
	}
	if err := render(cmd, &output.Result{Apply: res}, ""); err != nil {
		return errors.Join(applyErr, err)
	}
	if len(res.Applied) == 0 || res.SafetySnapshot == "" {
		return applyErr
	}

	reportErr := optimizeReport(cmd, store, adapter, res.SafetySnapshot)
	return errors.Join(applyErr, reportErr)
}

// optimizeReport captures the optimized state and compares it with the
// safety snapshot taken before the changes.
func optimizeReport(cmd *cobra.Command, store *snapshot.Store, adapter *services.Adapter, safetyID string) error {
	ctx := cmd.Context()

	after, err := adapter.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scanning optimized state: %w", err)
	}
	optimized, err := store.CaptureServices(ctx, after, "optimized")
	if err != nil {
		return err
	}
	safety, err := store.Load(safetyID)
	if err != nil {
		return err
	}
	report, err := compareEngine().Compare(safety, optimized)
	if err != nil {
		return err
	}
	printInfo(cmd, "")
	return render(cmd, &output.Result{Report: report}, "")
}

func runServicesRestore(cmd *cobra.Command, args []string) error {
	ref, err := backupRef(args, servicesBackupFile, false)
	if err != nil {
		return err
	}
	store, err := openStore()
	if err != nil {
		return err
	}
	b, err := store.Resolve(ref, snapshot.KindServices)
	if err != nil {
		return err
	}
	adapter, err := serviceAdapter(store)
	if err != nil {
		return err
	}

	if !confirm(cmd, fmt.Sprintf("Restore %d services from %s?", b.Meta.Services, b.ID)) {
		return errAborted
	}

	res, restoreErr := restore.NewEngine(adapter).Restore(cmd.Context(), b, restore.Options{DryRun: dryRun, Force: force})
	if res != nil {
		if err := render(cmd, &output.Result{Restore: res}, ""); err != nil {
			return errors.Join(restoreErr, err)
		}
	}
	return restoreErr
}
