package main

import (
	"context"
	"os"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/output"
	"github.com/spf13/cobra"
)

var overlaySyncCmd = &cobra.Command{
	Use:   "sync NAME",
	Short: "Sync one overlay",
	Args:  cobra.ExactArgs(1),
	Run:   runOverlaySync,
}

func init() {
	overlayCmd.AddCommand(overlaySyncCmd)
}

func runOverlaySync(cmd *cobra.Command, args []string) {
	a := mustApp()

	if err := a.overlays().Sync(context.Background(), args[0]); err != nil {
		logger.Error("syncing %s: %v", args[0], err)
		os.Exit(1)
	}
	output.PrintSuccess("%s synced", args[0])
}
