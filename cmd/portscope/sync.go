package main

import (
	"context"
	"os"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/output"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync all repositories",
	Long:  `Sync every configured repository and rebuild the eix index afterwards.`,
	Args:  cobra.NoArgs,
	Run:   runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) {
	a := mustApp()
	ctx := context.Background()

	res, err := a.emerge.Sync(ctx, "")
	if err != nil {
		logger.Error("sync failed: %v", err)
		os.Exit(1)
	}
	if res.Detached {
		output.PrintInfo("sync handed to the configured terminal, run 'portscope update' once it finishes")
		return
	}

	if err := a.eix.Update(ctx); err != nil {
		logger.Error("eix index rebuild failed: %v", err)
		os.Exit(1)
	}
	output.PrintSuccess("repositories synced")
}
