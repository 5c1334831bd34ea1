package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/portscope/portscope/internal/cache"
	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/output"
	"github.com/spf13/cobra"
)

var usePackages bool

var useCmd = &cobra.Command{
	Use:   "use [FLAG]",
	Short: "Inspect USE flags",
	Long: `Without arguments, list every USE flag known to eix. With a flag name,
show its descriptions and how many packages expose it.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runUse,
}

func init() {
	useCmd.Flags().BoolVarP(&usePackages, "packages", "p", false, "List the packages exposing the flag")
	rootCmd.AddCommand(useCmd)
}

func runUse(cmd *cobra.Command, args []string) {
	a := mustApp()
	ctx := context.Background()

	if len(args) == 0 {
		listUseFlags(ctx, a)
		return
	}

	flag := strings.TrimSpace(args[0])
	if len(flag) < a.cfg.Use.MinimumCharacters {
		logger.Error("flag name too short, need at least %d characters", a.cfg.Use.MinimumCharacters)
		os.Exit(1)
	}

	descriptions, err := a.eix.UseFlagDescriptions(ctx)
	if err != nil {
		logger.Error("loading flag descriptions: %v", err)
		os.Exit(1)
	}

	output.Println(output.Header, flag)
	for _, d := range descriptions[flag] {
		if d.Local {
			output.Plain("  %s: %s", output.FormatPackage("", d.Package), d.Description)
		} else {
			output.Plain("  %s", d.Description)
		}
	}

	count, err := a.eix.CountWithUseFlag(ctx, flag)
	if err != nil {
		logger.Error("counting packages: %v", err)
		os.Exit(1)
	}
	output.Plain("\n%d packages expose %s", count, flag)

	if usePackages {
		pkgs, err := a.eix.WithUseFlag(ctx, flag)
		if err != nil {
			logger.Error("listing packages: %v", err)
			os.Exit(1)
		}
		for i := range pkgs {
			printPackageLine(&pkgs[i])
		}
	}
}

// listUseFlags serves the full registry from the result cache; building it
// walks every package record and is too slow to repeat on each call.
func listUseFlags(ctx context.Context, a *app) {
	maxAge := time.Duration(a.cfg.Use.CacheMaxAge) * time.Hour
	res, err := cache.GetOrRefresh(ctx, a.cache, cache.Key("use", "registry"), maxAge,
		func(ctx context.Context) ([]string, error) {
			return a.eix.AllUseFlags(ctx)
		})
	if err != nil {
		logger.Error("loading USE flag registry: %v", err)
		os.Exit(1)
	}
	if res.Stale {
		output.PrintWarning("registry refresh failed, showing cached data from %s", res.FetchedAt.Format(time.DateTime))
	}

	for _, flag := range res.Value {
		fmt.Println(flag)
	}
}
