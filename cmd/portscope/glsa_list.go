package main

import (
	"context"
	"fmt"
	"os"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/output"
	"github.com/spf13/cobra"
)

var glsaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List advisories affecting installed packages",
	Args:  cobra.NoArgs,
	Run:   runGlsaList,
}

func init() {
	glsaCmd.AddCommand(glsaListCmd)
}

func runGlsaList(cmd *cobra.Command, args []string) {
	a := mustApp()

	advisories, err := a.glsa().List(context.Background())
	if err != nil {
		logger.Error("checking advisories: %v", err)
		os.Exit(1)
	}
	if len(advisories) == 0 {
		output.PrintSuccess("no advisories affect this system")
		return
	}

	for _, adv := range advisories {
		severity := output.Warning
		if adv.ImpactType == "high" {
			severity = output.Masked
		}
		fmt.Printf("%s %s %s %s\n",
			output.FormatReadState(adv.Read),
			adv.ID,
			severity.Sprintf("[%s]", adv.ImpactType),
			adv.Title)
	}
}
