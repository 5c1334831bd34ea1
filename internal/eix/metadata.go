package eix

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/run"
)

// Metadata is the full detail view of one package
type Metadata struct {
	Package Package `json:"package"`
	// EbuildPath locates the ebuild of the preferred version inside the
	// repository tree; empty when it could not be resolved
	EbuildPath string `json:"ebuild_path,omitempty"`
	// EbuildSource is the raw ebuild text, empty when unreadable
	EbuildSource string `json:"ebuild_source,omitempty"`
}

// Metadata fetches the package record for atom and reads the ebuild source
// of its preferred version from the main tree. A missing or unreadable
// ebuild degrades the result instead of failing it; the package data is
// still worth showing.
func (c *Client) Metadata(ctx context.Context, atom string) (Metadata, error) {
	pkg, err := c.ByAtom(ctx, atom)
	if err != nil {
		return Metadata{}, err
	}

	md := Metadata{Package: pkg}

	version, ok := pkg.PreferredVersion()
	if !ok || version.ID == "" {
		return md, nil
	}

	// Only the main tree location is known; overlay ebuilds would need
	// their own repository path resolution.
	if version.Repository != "" && version.Repository != "gentoo" {
		return md, nil
	}

	path := filepath.Join(c.RepoPath(ctx), pkg.Category, pkg.Name,
		fmt.Sprintf("%s-%s.ebuild", pkg.Name, version.ID))
	source, err := os.ReadFile(path)
	if err != nil {
		logger.Debug("ebuild source unavailable at %s: %v", path, err)
		return md, nil
	}

	md.EbuildPath = path
	md.EbuildSource = string(source)
	return md, nil
}

// InstalledFiles lists the files a package installed, via qlist
func (c *Client) InstalledFiles(ctx context.Context, atom string) ([]string, error) {
	res, err := c.runner.Run(ctx, run.Request{
		Argv:    []string{"qlist", atom},
		Capture: true,
	})
	if err != nil {
		if errors.Is(err, run.ErrBinaryNotFound) {
			return nil, fmt.Errorf("%w: qlist (app-portage/portage-utils)", ErrNotAvailable)
		}
		var exitErr *run.ExitError
		if errors.As(err, &exitErr) {
			// qlist exits non-zero for packages that are not installed
			return nil, fmt.Errorf("%w: %s is not installed", ErrPackageNotFound, atom)
		}
		return nil, fmt.Errorf("qlist failed: %w", err)
	}

	var files []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}
