package main

import (
	"fmt"

	"github.com/portscope/portscope/internal/common/output"
	"github.com/portscope/portscope/internal/eix"
	"github.com/portscope/portscope/internal/tree"
)

// printTree renders a node and its descendants with box-drawing guides
func printTree(n *tree.Node) {
	fmt.Println(treeLabel(n))
	printChildren(n, "")
}

func printChildren(n *tree.Node, prefix string) {
	for i, child := range n.Children {
		connector, childPrefix := "├── ", prefix+"│   "
		if i == len(n.Children)-1 {
			connector, childPrefix = "└── ", prefix+"    "
		}
		fmt.Println(prefix + connector + treeLabel(child))
		printChildren(child, childPrefix)
	}
}

func treeLabel(n *tree.Node) string {
	if n.Marker != tree.MarkerNone {
		return output.Dim.Sprint(n.Label)
	}
	switch n.Kind {
	case tree.FileKindDir:
		return output.Header.Sprint(n.Label)
	case tree.FileKindSymlink:
		return output.Info.Sprint(n.Label)
	case string(eix.KindBuild):
		return n.Label + output.Dim.Sprint(" (build)")
	default:
		return n.Label
	}
}
