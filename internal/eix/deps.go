package eix

import (
	"context"
	"errors"
	"strings"

	"github.com/portscope/portscope/internal/common/ebuild"
	"github.com/portscope/portscope/internal/common/logger"
)

// DependencyKind distinguishes the portage dependency classes
type DependencyKind string

const (
	// KindBuild is DEPEND
	KindBuild DependencyKind = "depend"
	// KindRuntime is RDEPEND
	KindRuntime DependencyKind = "rdepend"
)

// Edge is one parent-to-dependency relation. Atoms are unqualified
// (category/name), with version constraints and USE conditions stripped.
type Edge struct {
	Parent string         `json:"parent"`
	Child  string         `json:"child"`
	Kind   DependencyKind `json:"kind"`
}

// Dependencies resolves the dependency edges of atom breadth-first up to
// depth levels. Each discovered package is queried at most once; packages
// that cannot be resolved contribute no edges but do not fail the walk.
func (c *Client) Dependencies(ctx context.Context, atom string, depth int) ([]Edge, error) {
	if depth < 1 {
		return nil, nil
	}

	var edges []Edge
	visited := map[string]struct{}{atom: {}}
	frontier := []string{atom}

	for level := 0; level < depth && len(frontier) > 0; level++ {
		var next []string
		for _, parent := range frontier {
			if err := ctx.Err(); err != nil {
				return edges, err
			}

			pkg, err := c.ByAtom(ctx, parent)
			if err != nil {
				if errors.Is(err, ErrPackageNotFound) {
					continue
				}
				if level == 0 {
					return nil, err
				}
				logger.Debug("dependency walk skipping %s: %v", parent, err)
				continue
			}

			version, ok := pkg.PreferredVersion()
			if !ok {
				continue
			}

			for _, dep := range extractAtoms(version.Depend) {
				edges = append(edges, Edge{Parent: parent, Child: dep, Kind: KindBuild})
				if _, seen := visited[dep]; !seen {
					visited[dep] = struct{}{}
					next = append(next, dep)
				}
			}
			for _, dep := range extractAtoms(version.RDepend) {
				edges = append(edges, Edge{Parent: parent, Child: dep, Kind: KindRuntime})
				if _, seen := visited[dep]; !seen {
					visited[dep] = struct{}{}
					next = append(next, dep)
				}
			}
		}
		frontier = next
	}

	return edges, nil
}

// extractAtoms pulls plain category/name atoms out of a raw dependency
// string, dropping group operators, USE conditionals, version constraints,
// slots and USE bracket expressions.
func extractAtoms(dep string) []string {
	seen := make(map[string]struct{})
	var atoms []string

	for _, token := range strings.Fields(dep) {
		if token == "||" || token == "(" || token == ")" || strings.HasSuffix(token, "?") {
			continue
		}

		token = strings.TrimLeft(token, "!<>=~")
		if i := strings.IndexByte(token, '['); i >= 0 {
			token = token[:i]
		}
		if i := strings.IndexByte(token, ':'); i >= 0 {
			token = token[:i]
		}
		if token == "" {
			continue
		}

		atom, err := ebuild.ParseAtom(token)
		if err != nil {
			continue
		}

		name := atom.FullName()
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		atoms = append(atoms, name)
	}

	return atoms
}
