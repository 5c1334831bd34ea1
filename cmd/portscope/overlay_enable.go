package main

import (
	"context"
	"errors"
	"os"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/output"
	"github.com/portscope/portscope/internal/overlay"
	"github.com/spf13/cobra"
)

var overlayEnableCmd = &cobra.Command{
	Use:   "enable NAME",
	Short: "Enable an overlay and sync it",
	Long: `Enable an overlay through eselect repository and run its initial sync. A
failed sync leaves the overlay enabled; retry with 'overlay sync'.`,
	Args: cobra.ExactArgs(1),
	Run:  runOverlayEnable,
}

func init() {
	overlayCmd.AddCommand(overlayEnableCmd)
}

func runOverlayEnable(cmd *cobra.Command, args []string) {
	a := mustApp()

	err := a.overlays().EnableAndSync(context.Background(), args[0])
	if errors.Is(err, overlay.ErrSyncFailed) {
		output.PrintWarning("%s enabled but its initial sync failed, retry with 'portscope overlay sync %s'", args[0], args[0])
		os.Exit(1)
	}
	if err != nil {
		logger.Error("enabling %s: %v", args[0], err)
		os.Exit(1)
	}

	output.PrintSuccess("%s enabled and synced", args[0])
}
