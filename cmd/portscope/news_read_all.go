package main

import (
	"context"
	"os"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/output"
	"github.com/spf13/cobra"
)

var newsReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every news item read",
	Args:  cobra.NoArgs,
	Run:   runNewsReadAll,
}

func init() {
	newsCmd.AddCommand(newsReadAllCmd)
}

func runNewsReadAll(cmd *cobra.Command, args []string) {
	a := mustApp()
	ctx := context.Background()

	tracker := a.news()
	items, err := tracker.List(ctx)
	if err != nil {
		logger.Error("listing news: %v", err)
		os.Exit(1)
	}
	if err := tracker.MarkAllRead(ctx, items); err != nil {
		logger.Error("marking read: %v", err)
		os.Exit(1)
	}
	output.PrintSuccess("%d news items marked read", len(items))
}
