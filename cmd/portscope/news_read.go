package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/output"
	"github.com/spf13/cobra"
)

var newsReadCmd = &cobra.Command{
	Use:   "read INDEX",
	Short: "Read a news item",
	Long:  `Print the body of a news item and mark it read.`,
	Args:  cobra.ExactArgs(1),
	Run:   runNewsRead,
}

func init() {
	newsCmd.AddCommand(newsReadCmd)
}

func runNewsRead(cmd *cobra.Command, args []string) {
	a := mustApp()
	ctx := context.Background()

	index, err := strconv.Atoi(args[0])
	if err != nil {
		logger.Error("invalid news index: %s", args[0])
		os.Exit(1)
	}

	tracker := a.news()
	items, err := tracker.List(ctx)
	if err != nil {
		logger.Error("listing news: %v", err)
		os.Exit(1)
	}

	for _, item := range items {
		if item.Index != index {
			continue
		}

		output.Println(output.Header, item.Title)
		if item.Author != "" {
			output.Plain("Author: %s", item.Author)
		}
		if item.Posted != "" {
			output.Plain("Posted: %s", item.Posted)
		}
		if item.Content != "" {
			fmt.Printf("\n%s\n", item.Content)
		}

		if err := tracker.MarkRead(ctx, item); err != nil {
			logger.Error("marking read: %v", err)
			os.Exit(1)
		}
		return
	}

	logger.Error("no news item with index %d", index)
	os.Exit(1)
}
