package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/output"
	"github.com/spf13/cobra"
)

var glsaShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one advisory in full",
	Args:  cobra.ExactArgs(1),
	Run:   runGlsaShow,
}

func init() {
	glsaCmd.AddCommand(glsaShowCmd)
}

func runGlsaShow(cmd *cobra.Command, args []string) {
	a := mustApp()

	tracker := a.glsa()
	adv, err := tracker.Show(context.Background(), args[0])
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	output.Println(output.Header, fmt.Sprintf("GLSA %s: %s", adv.ID, adv.Title))
	output.Plain("Severity:  %s", adv.ImpactType)
	if adv.Announced != "" {
		output.Plain("Announced: %s", adv.Announced)
	}
	if adv.Revised != "" {
		output.Plain("Revised:   %s", adv.Revised)
	}
	if adv.Synopsis != "" {
		output.Plain("\n%s", adv.Synopsis)
	}

	if len(adv.Affected) > 0 {
		output.Plain("\nAffected packages:")
		for _, pkg := range adv.Affected {
			line := "  " + output.FormatPackage("", pkg.Name)
			for _, r := range pkg.Vulnerable {
				line += output.Masked.Sprintf(" %s %s", r.Range, r.Value)
			}
			for _, r := range pkg.Unaffected {
				line += output.Success.Sprintf(" (%s %s ok)", r.Range, r.Value)
			}
			fmt.Println(line)
		}
	}

	if adv.Description != "" {
		output.Plain("\n%s", adv.Description)
	}
	if adv.Impact != "" {
		output.Plain("\nImpact: %s", adv.Impact)
	}
	if adv.Workaround != "" {
		output.Plain("\nWorkaround: %s", adv.Workaround)
	}

	for _, res := range adv.Resolutions {
		if res.Text != "" {
			output.Plain("\n%s", res.Text)
		}
		if res.Code != "" {
			output.Println(output.Dim, "\n  "+strings.ReplaceAll(res.Code, "\n", "\n  "))
		}
	}

	if len(adv.References) > 0 {
		output.Plain("\nReferences:")
		for _, ref := range adv.References {
			output.Plain("  %s", ref)
		}
	}

	if err := tracker.MarkRead(adv.ID); err != nil {
		logger.Error("marking read: %v", err)
		os.Exit(1)
	}
}
