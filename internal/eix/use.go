package eix

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/portscope/portscope/internal/common/run"
)

// UseFlag is one USE flag from the registry
type UseFlag struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	// Local is true when the description comes from use.local.desc and
	// applies to a specific package
	Local bool `json:"local,omitempty"`
	// Package qualifies local flags with the package they describe
	Package string `json:"package,omitempty"`
}

// AllUseFlags lists every USE flag known to eix, with the output modifier
// characters (+ ! ? *) stripped and duplicates removed. Order follows
// first appearance in the eix output.
func (c *Client) AllUseFlags(ctx context.Context) ([]string, error) {
	argv := []string{"eix", "--print-all-useflags"}
	if c.hasRemoteCache(ctx) {
		argv = []string{"eix", "-R", "--print-all-useflags"}
	}

	res, err := c.runner.Run(ctx, run.Request{Argv: argv, Capture: true})
	if err != nil {
		return nil, fmt.Errorf("eix useflag listing failed: %w", err)
	}

	seen := make(map[string]struct{})
	var flags []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		flag := strings.Trim(strings.TrimSpace(line), "+!?*")
		if flag == "" || !containsAlnum(flag) {
			continue
		}
		if _, ok := seen[flag]; ok {
			continue
		}
		seen[flag] = struct{}{}
		flags = append(flags, flag)
	}

	return flags, nil
}

func containsAlnum(s string) bool {
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return true
		}
	}
	return false
}

// UseFlagDescriptions joins the flag registry with the profile description
// files of the main tree: use.desc for global flags and use.local.desc for
// per-package ones. Flags with no description entry come back with an
// empty Description.
func (c *Client) UseFlagDescriptions(ctx context.Context) (map[string][]UseFlag, error) {
	profiles := filepath.Join(c.RepoPath(ctx), "profiles")

	descriptions := make(map[string][]UseFlag)

	global, err := parseUseDesc(filepath.Join(profiles, "use.desc"))
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	for flag, desc := range global {
		descriptions[flag] = append(descriptions[flag], UseFlag{Name: flag, Description: desc})
	}

	local, err := parseUseLocalDesc(filepath.Join(profiles, "use.local.desc"))
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	for flag, entries := range local {
		descriptions[flag] = append(descriptions[flag], entries...)
	}

	return descriptions, nil
}

// parseUseDesc reads lines of the form "flag - description"
func parseUseDesc(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		flag, desc, found := strings.Cut(line, " - ")
		if !found {
			continue
		}
		out[strings.TrimSpace(flag)] = strings.TrimSpace(desc)
	}
	return out, scanner.Err()
}

// parseUseLocalDesc reads lines of the form "cat/pkg:flag - description"
func parseUseLocalDesc(path string) (map[string][]UseFlag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string][]UseFlag)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		prefix, desc, found := strings.Cut(line, " - ")
		if !found {
			continue
		}
		pkg, flag, found := strings.Cut(strings.TrimSpace(prefix), ":")
		if !found {
			continue
		}
		out[flag] = append(out[flag], UseFlag{
			Name:        flag,
			Description: strings.TrimSpace(desc),
			Local:       true,
			Package:     pkg,
		})
	}
	return out, scanner.Err()
}
