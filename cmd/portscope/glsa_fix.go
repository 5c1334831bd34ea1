package main

import (
	"context"
	"os"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/output"
	"github.com/spf13/cobra"
)

var glsaFixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Apply the resolutions for every applicable advisory",
	Long: `Run glsa-check with elevated privileges to resolve every advisory that
affects installed packages. Does nothing on a clean system.`,
	Args: cobra.NoArgs,
	Run:  runGlsaFix,
}

func init() {
	glsaCmd.AddCommand(glsaFixCmd)
}

func runGlsaFix(cmd *cobra.Command, args []string) {
	a := mustApp()

	if err := a.glsa().FixAll(context.Background()); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
	output.PrintSuccess("advisories resolved")
}
