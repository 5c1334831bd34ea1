package main

import (
	"context"
	"os"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/output"
	"github.com/spf13/cobra"
)

var overlayRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Remove an overlay",
	Long:  `Remove an overlay and its checkout through eselect repository.`,
	Args:  cobra.ExactArgs(1),
	Run:   runOverlayRemove,
}

func init() {
	overlayCmd.AddCommand(overlayRemoveCmd)
}

func runOverlayRemove(cmd *cobra.Command, args []string) {
	a := mustApp()

	if err := a.overlays().Remove(context.Background(), args[0]); err != nil {
		logger.Error("removing %s: %v", args[0], err)
		os.Exit(1)
	}
	output.PrintSuccess("%s removed", args[0])
}
