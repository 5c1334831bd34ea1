package main

import (
	"context"
	"errors"
	"os"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/eix"
	"github.com/portscope/portscope/internal/tree"
	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files ATOM",
	Short: "Show the installed files of a package",
	Long:  `List the files an installed package owns, arranged as a directory tree.`,
	Args:  cobra.ExactArgs(1),
	Run:   runFiles,
}

func init() {
	rootCmd.AddCommand(filesCmd)
}

func runFiles(cmd *cobra.Command, args []string) {
	a := mustApp()

	paths, err := a.eix.InstalledFiles(context.Background(), args[0])
	if err != nil {
		switch {
		case errors.Is(err, eix.ErrPackageNotFound):
			logger.Error("%s is not installed", args[0])
		case errors.Is(err, eix.ErrNotAvailable):
			logger.Error("%v", err)
		default:
			logger.Error("listing files failed: %v", err)
		}
		os.Exit(1)
	}

	entries := make([]tree.FileEntry, len(paths))
	for i, path := range paths {
		entries[i] = tree.FileEntry{Path: path, Kind: classifyPath(path)}
	}

	printTree(tree.BuildFileTree(entries, a.cfg.Browse.Expand))
}

// classifyPath distinguishes symlinks from regular files; the listing tool
// reports plain paths only. A path that cannot be inspected stays a file.
func classifyPath(path string) string {
	fi, err := os.Lstat(path)
	if err != nil {
		return tree.FileKindFile
	}
	switch {
	case fi.Mode()&os.ModeSymlink != 0:
		return tree.FileKindSymlink
	case fi.IsDir():
		return tree.FileKindDir
	default:
		return tree.FileKindFile
	}
}
