package main

import (
	"context"
	"errors"
	"os"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/output"
	"github.com/portscope/portscope/internal/eix"
	"github.com/portscope/portscope/internal/tree"
	"github.com/spf13/cobra"
)

var depsDepth int

var depsCmd = &cobra.Command{
	Use:   "deps ATOM",
	Short: "Show the dependency tree of a package",
	Long: `Walk the build and runtime dependencies of a package breadth-first and
render them as a tree. Branches beyond the depth limit are truncated and
dependency cycles are marked instead of recursed into.`,
	Args: cobra.ExactArgs(1),
	Run:  runDeps,
}

func init() {
	depsCmd.Flags().IntVarP(&depsDepth, "depth", "d", 0, "Maximum tree depth (default from configuration)")
	rootCmd.AddCommand(depsCmd)
}

func runDeps(cmd *cobra.Command, args []string) {
	a := mustApp()

	depth := depsDepth
	if depth <= 0 {
		depth = a.cfg.Browse.Depth
	}

	edges, err := a.eix.Dependencies(context.Background(), args[0], depth)
	if err != nil {
		if errors.Is(err, eix.ErrPackageNotFound) {
			logger.Error("package not found: %s", args[0])
		} else {
			logger.Error("dependency walk failed: %v", err)
		}
		os.Exit(1)
	}
	if len(edges) == 0 {
		output.PrintInfo("%s has no resolvable dependencies", args[0])
		return
	}

	treeEdges := make([]tree.Edge, len(edges))
	for i, e := range edges {
		treeEdges[i] = tree.Edge{Parent: e.Parent, Child: e.Child, Kind: string(e.Kind)}
	}

	for _, root := range tree.Build([]string{args[0]}, treeEdges, depth, a.cfg.Browse.Expand) {
		printTree(root)
	}
}
