package cmd

import (
	"context"
	"errors"

	"github.com/AzielCF/az-hub/infrastructure/listener"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var listenerCmd = &cobra.Command{
	Use:   "listener",
	Short: "Ingest bridge events over a persistent websocket",
	Long: `Connects to the bridge's websocket channel and feeds every frame
through the same pipeline as the HTTP webhook. Reconnects automatically.`,
	Run: runListener,
}

func init() {
	rootCmd.AddCommand(listenerCmd)
}

func runListener(_ *cobra.Command, _ []string) {
	l := listener.New(cfg, processor)

	ctx, cancel := signalContext()
	defer cancel()

	if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logrus.Fatalf("[LISTENER] Stopped: %v", err)
	}
	StopApp()
}
