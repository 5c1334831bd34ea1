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

var searchInstalled bool

var searchCmd = &cobra.Command{
	Use:   "search TERM...",
	Short: "Search packages",
	Long: `Search the eix index. A term starting with "-" is passed to eix verbatim
as search flags, replacing the configured defaults.`,
	Args: cobra.ArbitraryArgs,
	Run:  runSearch,
}

func init() {
	searchCmd.Flags().BoolVarP(&searchInstalled, "installed", "I", false, "Restrict to installed packages")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	a := mustApp()
	ctx := context.Background()

	if len(args) == 0 && !searchInstalled {
		logger.Error("no search term given")
		os.Exit(1)
	}

	var pkgs []eix.Package
	var err error
	if len(args) == 0 {
		pkgs, err = a.eix.Installed(ctx)
	} else {
		pkgs, err = a.eix.Search(ctx, strings.Join(args, " "))
	}
	if err != nil {
		switch {
		case errors.Is(err, eix.ErrQueryTooShort):
			logger.Error("search term too short, need at least %d characters", a.cfg.Browse.MinimumCharacters)
		case errors.Is(err, eix.ErrNotAvailable):
			logger.Error("eix is not available, install it and run eix-update")
		default:
			logger.Error("search failed: %v", err)
		}
		os.Exit(1)
	}

	if searchInstalled && len(args) > 0 {
		installed := pkgs[:0]
		for _, p := range pkgs {
			if p.IsInstalled() {
				installed = append(installed, p)
			}
		}
		pkgs = installed
	}

	if len(pkgs) == 0 {
		output.PrintInfo("no packages found")
		return
	}
	for i := range pkgs {
		printPackageLine(&pkgs[i])
	}
}

func printPackageLine(p *eix.Package) {
	ver := ""
	if v, ok := p.PreferredVersion(); ok {
		ver = v.ID
	}
	fmt.Printf("%s %s %s\n",
		output.FormatInstallState(p.IsInstalled()),
		output.FormatPackage(p.Category, p.Name),
		output.Dim.Sprint(ver))
	if p.Description != "" {
		fmt.Printf("      %s\n", p.Description)
	}
}
