package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/output"
	"github.com/portscope/portscope/internal/eix"
	"github.com/spf13/cobra"
)

var showEbuild bool

var showCmd = &cobra.Command{
	Use:   "show ATOM",
	Short: "Show package details",
	Long:  `Show full metadata for a package, optionally with its ebuild source.`,
	Args:  cobra.ExactArgs(1),
	Run:   runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showEbuild, "ebuild", false, "Print the ebuild source of the preferred version")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) {
	a := mustApp()

	meta, err := a.eix.Metadata(context.Background(), args[0])
	if err != nil {
		if errors.Is(err, eix.ErrPackageNotFound) {
			logger.Error("package not found: %s", args[0])
		} else {
			logger.Error("%v", err)
		}
		os.Exit(1)
	}

	pkg := &meta.Package
	output.Println(output.Header, pkg.FullName())
	if pkg.Description != "" {
		output.Plain("%s", pkg.Description)
	}
	if pkg.Homepage != "" {
		output.Plain("Homepage: %s", pkg.Homepage)
	}
	if len(pkg.Licenses) > 0 {
		output.Plain("License:  %s", strings.Join(pkg.Licenses, " "))
	}
	if pkg.Completeness != eix.Full {
		output.PrintWarning("incomplete record, missing: %s", strings.Join(pkg.Missing, ", "))
	}

	output.Plain("")
	for _, v := range pkg.Versions {
		printVersionLine(v)
	}

	if v, ok := pkg.PreferredVersion(); ok {
		if len(v.UseEnabled) > 0 {
			output.Plain("\nEnabled USE:  %s", strings.Join(v.UseEnabled, " "))
		}
		if len(v.UseDisabled) > 0 {
			output.Plain("Disabled USE: %s", strings.Join(v.UseDisabled, " "))
		}
	}

	if showEbuild {
		if meta.EbuildSource == "" {
			output.PrintWarning("ebuild source not available")
		} else {
			output.Plain("\n%s", output.Dim.Sprint(meta.EbuildPath))
			fmt.Print(meta.EbuildSource)
		}
	}
}

func printVersionLine(v eix.Version) {
	marker := " "
	if v.Installed {
		marker = output.Installed.Sprint("I")
	}

	line := fmt.Sprintf("  [%s] %s", marker, v.ID)
	if v.Slot != "" && v.Slot != "0" {
		line += ":" + v.Slot
	}
	if v.Repository != "" {
		line += output.Overlay.Sprintf(" ::%s", v.Repository)
	}
	if len(v.Masks) > 0 {
		line += output.Masked.Sprintf(" [%s]", strings.Join(v.Masks, ","))
	}
	fmt.Println(line)

	if len(v.IUse) > 0 {
		output.Plain("       USE: %s", strings.Join(v.IUse, " "))
	}
}
