package main

import (
	"context"
	"os"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/output"
	"github.com/spf13/cobra"
)

var (
	updateRemote bool
	updateWorld  bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Rebuild the eix index",
	Long: `Rebuild the eix index from the local repositories. With --remote, also
fetch the remote package cache so uninstalled overlays become searchable.
With --world, upgrade the whole system afterwards.`,
	Args: cobra.NoArgs,
	Run:  runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&updateRemote, "remote", false, "Also fetch the eix remote cache")
	updateCmd.Flags().BoolVar(&updateWorld, "world", false, "Upgrade @world after updating the index")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) {
	a := mustApp()
	ctx := context.Background()

	if err := a.eix.Update(ctx); err != nil {
		logger.Error("eix index rebuild failed: %v", err)
		os.Exit(1)
	}
	output.PrintSuccess("eix index rebuilt")

	if updateRemote {
		if err := a.eix.RemoteUpdate(ctx); err != nil {
			logger.Error("remote cache fetch failed: %v", err)
			os.Exit(1)
		}
		output.PrintSuccess("remote cache fetched")
	}

	if updateWorld {
		res, err := a.emerge.UpdateWorld(ctx)
		a.finishMutation(res, err, "world updated")
	}
}
