package main

import (
	"context"
	"os"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/output"
	"github.com/spf13/cobra"
)

var newsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Purge read news items",
	Long:  `Delete read news items through eselect and forget their local read marks.`,
	Args:  cobra.NoArgs,
	Run:   runNewsPurge,
}

func init() {
	newsCmd.AddCommand(newsPurgeCmd)
}

func runNewsPurge(cmd *cobra.Command, args []string) {
	a := mustApp()

	if err := a.news().Purge(context.Background()); err != nil {
		logger.Error("purging news: %v", err)
		os.Exit(1)
	}
	output.PrintSuccess("read news items purged")
}
