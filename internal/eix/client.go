package eix

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/portscope/portscope/internal/cache"
	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/run"
)

// defaultRepoPath is used when portageq cannot resolve the tree location
const defaultRepoPath = "/var/db/repos/gentoo"

// Client issues eix and portage tool queries.
//
// The remote-cache probe and the repository path lookup run at most once
// per Client; both answers are stable for the life of a process.
type Client struct {
	runner      run.Runner
	searchFlags []string
	minChars    int

	cache       *cache.Store
	cacheMaxAge time.Duration

	remoteOnce sync.Once
	remote     bool

	repoOnce sync.Once
	repoPath string
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithResultCache serves search results from the shared cache store under
// "browse/<flags>/<term>" keys, refreshing entries older than maxAge.
// Index rebuilds invalidate the whole browse namespace.
func WithResultCache(store *cache.Store, maxAge time.Duration) ClientOption {
	return func(c *Client) {
		c.cache = store
		c.cacheMaxAge = maxAge
	}
}

// NewClient creates a Client. searchFlags are appended to plain search
// terms; minChars is the minimum accepted term length.
func NewClient(runner run.Runner, searchFlags []string, minChars int, opts ...ClientOption) *Client {
	c := &Client{
		runner:      runner,
		searchFlags: searchFlags,
		minChars:    minChars,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HasCache reports whether the local eix cache exists and is readable
func (c *Client) HasCache(ctx context.Context) bool {
	res, err := c.runner.Run(ctx, run.Request{
		Argv:    []string{"eix", "-Qq0"},
		Capture: true,
	})
	return err == nil && res.ExitCode == 0
}

// hasRemoteCache probes for the eix remote cache once per client
func (c *Client) hasRemoteCache(ctx context.Context) bool {
	c.remoteOnce.Do(func() {
		res, err := c.runner.Run(ctx, run.Request{
			Argv:    []string{"eix", "-QRq0"},
			Capture: true,
		})
		c.remote = err == nil && res.ExitCode == 0
		logger.Debug("eix remote cache available: %v", c.remote)
	})
	return c.remote
}

// quietFlag returns the base query flag, extended to cover the remote
// cache when present. extra characters slot between Q and the closer,
// e.g. quietFlag(ctx, "") is "-Q" or "-RQ".
func (c *Client) quietFlag(ctx context.Context, suffix string) string {
	if c.hasRemoteCache(ctx) {
		return "-RQ" + suffix
	}
	return "-Q" + suffix
}

// searchArgv builds the eix invocation for a term.
//
// A term that starts with "-" carries its own flags and replaces the
// configured search flags entirely; anything else gets the configured
// flags prepended.
func (c *Client) searchArgv(ctx context.Context, term string) []string {
	argv := []string{"eix", c.quietFlag(ctx, ""), "--xml"}
	if strings.HasPrefix(term, "-") {
		return append(argv, strings.Fields(term)...)
	}
	argv = append(argv, c.searchFlags...)
	return append(argv, term)
}

// Search queries the package index for term.
//
// Terms below the minimum length are rejected before any process spawns.
// Flag-style terms (leading "-") bypass the length check since they select
// by attribute rather than by name. With a result cache configured, repeat
// queries within the cache age are served without spawning eix.
func (c *Client) Search(ctx context.Context, term string) ([]Package, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	if !strings.HasPrefix(term, "-") && len([]rune(term)) < c.minChars {
		return nil, fmt.Errorf("%w: %q needs at least %d characters", ErrQueryTooShort, term, c.minChars)
	}

	if c.cache == nil {
		return c.searchUncached(ctx, term)
	}

	key := cache.Key("browse", strings.Join(c.searchFlags, " "), term)
	res, err := cache.GetOrRefresh(ctx, c.cache, key, c.cacheMaxAge,
		func(ctx context.Context) ([]Package, error) {
			return c.searchUncached(ctx, term)
		})
	if err != nil {
		return nil, err
	}
	return res.Value, nil
}

func (c *Client) searchUncached(ctx context.Context, term string) ([]Package, error) {
	res, err := c.runner.Run(ctx, run.Request{
		Argv:    c.searchArgv(ctx, term),
		Capture: true,
	})
	if err != nil {
		// eix exits 1 for an empty result set; that is not a failure.
		var exitErr *run.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode == 1 && strings.Contains(res.Stdout, "<eixdump") {
			return parseSearchOutput(res.Stdout)
		}
		if errors.Is(err, run.ErrBinaryNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrNotAvailable, err)
		}
		return nil, fmt.Errorf("eix search failed: %w", err)
	}

	return parseSearchOutput(res.Stdout)
}

// ByAtom returns the single package matching atom exactly
func (c *Client) ByAtom(ctx context.Context, atom string) (Package, error) {
	packages, err := c.Search(ctx, atom)
	if err != nil {
		return Package{}, err
	}
	for _, pkg := range packages {
		if pkg.FullName() == atom {
			return pkg, nil
		}
	}
	return Package{}, fmt.Errorf("%w: %s", ErrPackageNotFound, atom)
}

// Installed returns every installed package
func (c *Client) Installed(ctx context.Context) ([]Package, error) {
	return c.Search(ctx, "--installed")
}

// WithUseFlag returns packages exposing the given USE flag
func (c *Client) WithUseFlag(ctx context.Context, flag string) ([]Package, error) {
	argv := []string{"eix", c.quietFlag(ctx, ""), "--xml", "--use", flag}
	res, err := c.runner.Run(ctx, run.Request{Argv: argv, Capture: true})
	if err != nil {
		var exitErr *run.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode == 1 {
			return nil, nil
		}
		return nil, fmt.Errorf("eix use query failed: %w", err)
	}
	return parseSearchOutput(res.Stdout)
}

// countPackages runs a one-byte-per-match eix query and counts the output.
// EIX_LIMIT=0 lifts the default result cap so the count is exact.
func (c *Client) countPackages(ctx context.Context, selector ...string) (int, error) {
	argv := append([]string{"eix", c.quietFlag(ctx, "*"), "--format", "1"}, selector...)
	res, err := c.runner.Run(ctx, run.Request{
		Argv:    argv,
		Capture: true,
		Env:     []string{"EIX_LIMIT=0"},
	})
	if err != nil {
		var exitErr *run.ExitError
		if errors.As(err, &exitErr) {
			return 0, nil
		}
		return 0, fmt.Errorf("eix count failed: %w", err)
	}
	return len(res.Stdout), nil
}

// CountWithUseFlag returns the number of packages exposing flag
func (c *Client) CountWithUseFlag(ctx context.Context, flag string) (int, error) {
	return c.countPackages(ctx, "--use", flag)
}

// CountInOverlay returns the number of packages only present in overlay
func (c *Client) CountInOverlay(ctx context.Context, overlay string) (int, error) {
	return c.countPackages(ctx, "--only-in-overlay", overlay)
}

// RepoPath resolves the main gentoo repository location through portageq,
// falling back to the conventional path when portageq is unavailable.
func (c *Client) RepoPath(ctx context.Context) string {
	c.repoOnce.Do(func() {
		res, err := c.runner.Run(ctx, run.Request{
			Argv:    []string{"portageq", "get_repo_path", "/", "gentoo"},
			Capture: true,
		})
		if err == nil && strings.TrimSpace(res.Stdout) != "" {
			c.repoPath = strings.TrimSpace(res.Stdout)
			return
		}
		logger.Debug("portageq unavailable, assuming %s", defaultRepoPath)
		c.repoPath = defaultRepoPath
	})
	return c.repoPath
}

// Update rebuilds the local eix cache. Does not require privileges.
func (c *Client) Update(ctx context.Context) error {
	_, err := c.runner.Run(ctx, run.Request{
		Argv:    []string{"eix-update"},
		Capture: true,
	})
	if err != nil {
		return fmt.Errorf("eix-update failed: %w", err)
	}
	c.invalidateSearchCache()
	return nil
}

// invalidateSearchCache drops cached search results after the index changed
func (c *Client) invalidateSearchCache() {
	if c.cache == nil {
		return
	}
	if err := c.cache.InvalidatePrefix("browse/"); err != nil {
		logger.Warn("failed to invalidate search cache: %v", err)
	}
}

// RemoteUpdate refreshes the remote cache. Creating the cache for the
// first time needs elevation; refreshing an existing one does not.
func (c *Client) RemoteUpdate(ctx context.Context) error {
	_, err := c.runner.Run(ctx, run.Request{
		Argv:     []string{"eix-remote", "update"},
		Capture:  true,
		Elevated: !c.hasRemoteCache(ctx),
	})
	if err != nil {
		return fmt.Errorf("eix-remote update failed: %w", err)
	}
	c.invalidateSearchCache()
	return nil
}
