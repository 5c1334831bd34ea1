package main

import (
	"context"
	"fmt"
	"os"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/output"
	"github.com/portscope/portscope/internal/overlay"
	"github.com/spf13/cobra"
)

var overlayListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the public overlay catalog",
	Long: `List every overlay from the public catalog, annotated with whether it is
installed locally, enabled, and how many packages only it carries.`,
	Args: cobra.NoArgs,
	Run:  runOverlayList,
}

func init() {
	overlayCmd.AddCommand(overlayListCmd)
}

func runOverlayList(cmd *cobra.Command, args []string) {
	a := mustApp()

	infos, stale, err := a.overlays().List(context.Background())
	if err != nil {
		logger.Error("listing overlays: %v", err)
		os.Exit(1)
	}
	if stale {
		output.PrintWarning("catalog refresh failed, showing cached data")
	}

	for _, info := range infos {
		printOverlayLine(info)
	}
}

func printOverlayLine(info overlay.Info) {
	marker := output.Dim.Sprint("[ ]")
	switch {
	case info.SyncFailed:
		marker = output.Masked.Sprint("[!]")
	case info.Enabled:
		marker = output.Installed.Sprint("[E]")
	case info.Installed:
		marker = output.Available.Sprint("[i]")
	}

	line := fmt.Sprintf("%s %s", marker, output.Overlay.Sprint(info.Name))
	if info.Status == "official" {
		line += output.Success.Sprint(" *")
	}
	if info.PackageCount != nil {
		line += output.Dim.Sprintf(" (%d packages)", *info.PackageCount)
	}
	fmt.Println(line)

	if info.Description != "" {
		fmt.Printf("      %s\n", info.Description)
	}
}
