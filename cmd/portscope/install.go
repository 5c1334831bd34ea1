package main

import (
	"context"
	"errors"
	"os"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/output"
	"github.com/portscope/portscope/internal/common/privilege"
	"github.com/portscope/portscope/internal/common/run"
	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install ATOM",
	Short: "Install a package",
	Long:  `Install a package through an elevated emerge run.`,
	Args:  cobra.ExactArgs(1),
	Run:   runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) {
	a := mustApp()

	res, err := a.emerge.Install(context.Background(), args[0])
	a.finishMutation(res, err, "installed "+args[0])
}

// finishMutation reports the outcome of an elevated package operation and
// drops cached search results, which the operation just outdated. Detached
// runs were handed to a terminal emulator and their result is not known
// here.
func (a *app) finishMutation(res run.Result, err error, success string) {
	if err != nil {
		if errors.Is(err, privilege.ErrPermissionDenied) {
			logger.Error("privilege escalation declined")
		} else {
			logger.Error("%v", err)
		}
		os.Exit(1)
	}

	a.cache.InvalidatePrefix("browse/")

	if res.Detached {
		output.PrintInfo("command handed to the configured terminal")
		return
	}
	output.PrintSuccess("%s", success)
}
