package main

import (
	"fmt"

	"github.com/portscope/portscope/internal/common/output"
	"github.com/spf13/cobra"
)

var overlayEnabledCmd = &cobra.Command{
	Use:   "enabled",
	Short: "List enabled overlays",
	Long:  `List the overlays enabled through portscope, without touching the network.`,
	Args:  cobra.NoArgs,
	Run:   runOverlayEnabled,
}

func init() {
	overlayCmd.AddCommand(overlayEnabledCmd)
}

func runOverlayEnabled(cmd *cobra.Command, args []string) {
	a := mustApp()

	infos := a.overlays().Enabled()
	if len(infos) == 0 {
		output.PrintInfo("no overlays enabled")
		return
	}

	for _, info := range infos {
		line := output.Overlay.Sprint(info.Name)
		if info.SyncFailed {
			line += output.Masked.Sprint(" (sync failed)")
		} else if !info.LastSync.IsZero() {
			line += output.Dim.Sprintf(" (synced %s)", info.LastSync.Format("2006-01-02 15:04"))
		}
		fmt.Println(line)
	}
}
