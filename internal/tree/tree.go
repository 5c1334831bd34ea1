// Package tree builds bounded display trees from dependency edge lists and
// from flat file listings. Building is pure: no queries run here, inputs
// are whatever the adapters already fetched.
package tree

import (
	"sort"
	"strings"
)

// Marker classifies synthetic nodes inserted during the build
type Marker int

const (
	// MarkerNone is a regular node
	MarkerNone Marker = iota
	// MarkerTruncated replaces children beyond the depth limit
	MarkerTruncated
	// MarkerCycle replaces a node already present on its own ancestry path
	MarkerCycle
)

// String returns the display suffix for a marker
func (m Marker) String() string {
	switch m {
	case MarkerTruncated:
		return "…"
	case MarkerCycle:
		return "(cycle)"
	default:
		return ""
	}
}

// Node is one tree node
type Node struct {
	Label    string
	Children []*Node
	Depth    int
	// Leaf is true when the node terminates its branch
	Leaf   bool
	Marker Marker
	// Expanded is the presentation default; it never affects structure
	Expanded bool
	// Kind carries adapter-specific annotation, e.g. the dependency class
	// or a file-type tag
	Kind string
}

// Edge is one parent-child relation in the input
type Edge struct {
	Parent string
	Child  string
	// Kind annotates the relation and is copied to the child node
	Kind string
}

// Build assembles a tree per root from an edge list.
//
// Children beyond depthLimit levels are replaced by a single truncation
// marker node. A child already present on its root-to-node path becomes a
// cycle marker leaf instead of recursing, so cyclic edge lists always
// terminate. autoExpand only sets the Expanded default on non-leaf nodes.
func Build(roots []string, edges []Edge, depthLimit int, autoExpand bool) []*Node {
	children := make(map[string][]Edge)
	for _, e := range edges {
		children[e.Parent] = append(children[e.Parent], e)
	}

	nodes := make([]*Node, len(roots))
	for i, root := range roots {
		path := map[string]struct{}{root: {}}
		nodes[i] = buildNode(root, "", 0, depthLimit, children, path, autoExpand)
	}
	return nodes
}

func buildNode(label, kind string, depth, depthLimit int, children map[string][]Edge, path map[string]struct{}, autoExpand bool) *Node {
	node := &Node{
		Label: label,
		Depth: depth,
		Kind:  kind,
	}

	edges := children[label]
	if len(edges) == 0 {
		node.Leaf = true
		return node
	}

	if depth >= depthLimit {
		node.Children = []*Node{{
			Label:  MarkerTruncated.String(),
			Depth:  depth + 1,
			Marker: MarkerTruncated,
			Leaf:   true,
		}}
		return node
	}

	for _, e := range edges {
		if _, onPath := path[e.Child]; onPath {
			node.Children = append(node.Children, &Node{
				Label:  e.Child + " " + MarkerCycle.String(),
				Depth:  depth + 1,
				Marker: MarkerCycle,
				Kind:   e.Kind,
				Leaf:   true,
			})
			continue
		}

		path[e.Child] = struct{}{}
		node.Children = append(node.Children, buildNode(e.Child, e.Kind, depth+1, depthLimit, children, path, autoExpand))
		delete(path, e.Child)
	}

	node.Expanded = autoExpand
	return node
}

// FileKind tags entries of a file tree
const (
	FileKindDir     = "dir"
	FileKindFile    = "file"
	FileKindSymlink = "sym"
)

// FileEntry is one installed path with its classification from the listing
type FileEntry struct {
	Path string
	// Kind is FileKindFile or FileKindSymlink; directories are inferred
	Kind string
}

// BuildFileTree arranges flat path listings into a directory tree rooted
// at "/". Intermediate directories are inferred from path prefixes;
// entries keep their listed classification. Children sort directories
// first, then by name.
func BuildFileTree(entries []FileEntry, autoExpand bool) *Node {
	root := &Node{Label: "/", Kind: FileKindDir, Expanded: autoExpand}
	index := map[string]*Node{"": root}

	for _, entry := range entries {
		parts := strings.Split(strings.Trim(entry.Path, "/"), "/")
		if len(parts) == 1 && parts[0] == "" {
			continue
		}

		prefix := ""
		parent := root
		for i, part := range parts {
			key := prefix + "/" + part
			node, ok := index[key]
			if ok && i < len(parts)-1 && node.Kind != FileKindDir {
				// A listed entry turned out to be the parent of a later one.
				node.Kind = FileKindDir
				node.Expanded = autoExpand
			}
			if !ok {
				kind := FileKindDir
				if i == len(parts)-1 {
					kind = entry.Kind
					if kind == "" {
						kind = FileKindFile
					}
				}
				node = &Node{
					Label:    part,
					Depth:    i + 1,
					Kind:     kind,
					Expanded: autoExpand && kind == FileKindDir,
				}
				parent.Children = append(parent.Children, node)
				index[key] = node
			}
			parent = node
			prefix = key
		}
	}

	finalizeFileTree(root)
	return root
}

func finalizeFileTree(node *Node) {
	if len(node.Children) == 0 {
		node.Leaf = node.Kind != FileKindDir
		node.Expanded = false
		return
	}

	sort.Slice(node.Children, func(i, j int) bool {
		a, b := node.Children[i], node.Children[j]
		if (a.Kind == FileKindDir) != (b.Kind == FileKindDir) {
			return a.Kind == FileKindDir
		}
		return a.Label < b.Label
	})

	for _, child := range node.Children {
		finalizeFileTree(child)
	}
}
