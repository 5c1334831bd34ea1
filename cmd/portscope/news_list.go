package main

import (
	"context"
	"fmt"
	"os"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/output"
	"github.com/spf13/cobra"
)

var newsUnreadOnly bool

var newsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List repository news items",
	Args:  cobra.NoArgs,
	Run:   runNewsList,
}

func init() {
	newsListCmd.Flags().BoolVarP(&newsUnreadOnly, "unread", "u", false, "Only show unread items")
	newsCmd.AddCommand(newsListCmd)
}

func runNewsList(cmd *cobra.Command, args []string) {
	a := mustApp()

	items, err := a.news().List(context.Background())
	if err != nil {
		logger.Error("listing news: %v", err)
		os.Exit(1)
	}

	shown := 0
	for _, item := range items {
		if newsUnreadOnly && item.Read {
			continue
		}
		shown++
		fmt.Printf("%s %3d  %s  %s\n",
			output.FormatReadState(item.Read), item.Index, item.Date, item.Title)
	}
	if shown == 0 {
		output.PrintInfo("no news items")
	}
}
