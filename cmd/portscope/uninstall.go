package main

import (
	"context"

	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall ATOM",
	Short: "Uninstall a package",
	Long:  `Remove a package and its unneeded dependencies through an elevated emerge run.`,
	Args:  cobra.ExactArgs(1),
	Run:   runUninstall,
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) {
	a := mustApp()

	res, err := a.emerge.Uninstall(context.Background(), args[0])
	a.finishMutation(res, err, "uninstalled "+args[0])
}
