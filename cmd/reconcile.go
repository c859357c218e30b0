package cmd

import (
	"context"
	"errors"
	"time"

	instancesApp "github.com/AzielCF/az-hub/instances/application"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Keep the instance store aligned with the bridge",
	Long: `Sweeps the bridge session list on an interval and fixes local state:
stale statuses, rotated tokens, zombie sessions and optionally restarts
sessions missing on the bridge.`,
	Run: runReconcile,
}

var monitorCmd = &cobra.Command{
	Use:   "monitor-instances",
	Short: "Run a single reconciliation sweep and exit",
	Run:   runMonitor,
}

func init() {
	reconcileCmd.Flags().Int("interval", 10, "seconds between sweeps (minimum 3)")
	reconcileCmd.Flags().Float64("sleep-per-instance", 0.2, "seconds to pause between instances within a sweep")
	reconcileCmd.Flags().Bool("start-if-missing", false, "recreate on the bridge sessions that exist locally but not remotely")
	reconcileCmd.Flags().Int("only-stale-seconds", 0, "only check instances not updated in the last N seconds (0 = all)")
	reconcileCmd.Flags().Int("max", 0, "maximum instances per sweep (0 = no limit)")
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(monitorCmd)
}

func reconcilerOptions(cmd *cobra.Command) instancesApp.ReconcilerOptions {
	interval, _ := cmd.Flags().GetInt("interval")
	sleepPer, _ := cmd.Flags().GetFloat64("sleep-per-instance")
	startIfMissing, _ := cmd.Flags().GetBool("start-if-missing")
	onlyStale, _ := cmd.Flags().GetInt("only-stale-seconds")
	max, _ := cmd.Flags().GetInt("max")

	return instancesApp.ReconcilerOptions{
		Interval:         time.Duration(interval) * time.Second,
		SleepPerInstance: time.Duration(sleepPer * float64(time.Second)),
		StartIfMissing:   startIfMissing,
		OnlyStaleSeconds: onlyStale,
		Max:              max,
	}
}

func runReconcile(cmd *cobra.Command, _ []string) {
	reconciler := instancesApp.NewReconciler(instanceRepo, bridgeClient, reconcilerOptions(cmd))

	ctx, cancel := signalContext()
	defer cancel()

	if err := reconciler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logrus.Fatalf("[RECONCILE] Loop ended: %v", err)
	}
	StopApp()
}

func runMonitor(_ *cobra.Command, _ []string) {
	reconciler := instancesApp.NewReconciler(instanceRepo, bridgeClient, instancesApp.ReconcilerOptions{})

	stats, err := reconciler.Sweep(context.Background())
	if err != nil {
		logrus.Fatalf("[MONITOR] Sweep failed: %v", err)
	}
	logrus.Infof("[MONITOR] %d scanned, %d updated, %d zombies, %d errors in %s",
		stats.Scanned, stats.Updated, stats.Zombies, stats.Errors, stats.Duration.Round(time.Millisecond))
	StopApp()
}
