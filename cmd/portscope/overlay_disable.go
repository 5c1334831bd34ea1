package main

import (
	"context"
	"os"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/output"
	"github.com/spf13/cobra"
)

var overlayDisableCmd = &cobra.Command{
	Use:   "disable NAME",
	Short: "Disable an overlay",
	Long:  `Disable an overlay through eselect repository, keeping its checkout on disk.`,
	Args:  cobra.ExactArgs(1),
	Run:   runOverlayDisable,
}

func init() {
	overlayCmd.AddCommand(overlayDisableCmd)
}

func runOverlayDisable(cmd *cobra.Command, args []string) {
	a := mustApp()

	if err := a.overlays().Disable(context.Background(), args[0]); err != nil {
		logger.Error("disabling %s: %v", args[0], err)
		os.Exit(1)
	}
	output.PrintSuccess("%s disabled", args[0])
}
