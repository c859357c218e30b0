package cmd

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var dispatcherCmd = &cobra.Command{
	Use:   "dispatcher",
	Short: "Process the campaign send queue",
	Long: `Promotes due campaigns, claims queued items and sends them through the
bridge respecting each instance's pacing gate.`,
	Run: runDispatcher,
}

func init() {
	dispatcherCmd.Flags().Bool("once", false, "run a single queue cycle and exit")
	dispatcherCmd.Flags().Int("max-items", 20, "items to claim per cycle (1-500)")
	dispatcherCmd.Flags().Int("sleep", 5, "seconds between cycles (minimum 1)")
	rootCmd.AddCommand(dispatcherCmd)
}

func runDispatcher(cmd *cobra.Command, _ []string) {
	once, _ := cmd.Flags().GetBool("once")
	maxItems, _ := cmd.Flags().GetInt("max-items")
	sleep, _ := cmd.Flags().GetInt("sleep")

	if maxItems < 1 {
		maxItems = 1
	}
	if maxItems > 500 {
		maxItems = 500
	}
	if sleep < 1 {
		sleep = 1
	}

	if once {
		stats, err := dispatchWorker.ProcessQueue(context.Background(), maxItems)
		if err != nil {
			logrus.Fatalf("[DISPATCH] Cycle failed: %v", err)
		}
		logrus.Infof("[DISPATCH] %d promoted, %d claimed, %d sent, %d failed, %d deferred",
			stats.Promoted, stats.Claimed, stats.Sent, stats.Failed, stats.Deferred)
		StopApp()
		return
	}

	ctx, cancel := signalContext()
	defer cancel()

	dispatchWorker.Run(ctx, maxItems, time.Duration(sleep)*time.Second)
	StopApp()
}
