package overlay

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/portscope/portscope/internal/cache"
	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/eix"
	"github.com/portscope/portscope/internal/emerge"
	"github.com/portscope/portscope/internal/state"
)

// countWorkers bounds concurrent eix package-count queries
const countWorkers = 12

// catalogCacheKey is the result-cache key for the fetched catalog
const catalogCacheKey = "overlays/catalog"

// ErrSyncFailed marks an overlay that was enabled but whose initial sync
// did not complete; the enablement is not rolled back.
var ErrSyncFailed = errors.New("overlay sync failed")

// Info is a catalog entry joined with local knowledge about it
type Info struct {
	Repository
	// Installed means the repository checkout exists on disk
	Installed bool `json:"installed"`
	// Enabled means portscope enabled this overlay
	Enabled bool `json:"enabled"`
	// SyncFailed mirrors the persisted flag for enabled overlays
	SyncFailed bool `json:"sync_failed,omitempty"`
	// LastSync is the last successful sync time, zero when never synced
	LastSync time.Time `json:"last_sync,omitempty"`
	// PackageCount is the number of packages only present in this overlay;
	// nil when counting was skipped or the overlay is not installed
	PackageCount *int `json:"package_count,omitempty"`
}

// Options configures a Manager
type Options struct {
	// CatalogURL is the repositories.xml location
	CatalogURL string
	// CacheMaxAge bounds the catalog cache age
	CacheMaxAge time.Duration
	// SkipPackageCounting disables the per-overlay count queries
	SkipPackageCounting bool
	// ReposDir is where repository checkouts live; defaults to
	// /var/db/repos
	ReposDir string
}

// Manager answers overlay queries and performs overlay mutations
type Manager struct {
	http    *RetryableHTTPClient
	cache   *cache.Store
	state   *state.Store
	eix     *eix.Client
	emerge  *emerge.Manager
	opts    Options
	nowFunc func() time.Time
}

// NewManager creates a Manager
func NewManager(httpClient *RetryableHTTPClient, cacheStore *cache.Store, stateStore *state.Store, eixClient *eix.Client, emergeMgr *emerge.Manager, opts Options) *Manager {
	if opts.ReposDir == "" {
		opts.ReposDir = "/var/db/repos"
	}
	return &Manager{
		http:    httpClient,
		cache:   cacheStore,
		state:   stateStore,
		eix:     eixClient,
		emerge:  emergeMgr,
		opts:    opts,
		nowFunc: time.Now,
	}
}

// Catalog returns the public repository catalog, served from cache within
// its max age. When the fetch fails and a cached copy exists, the stale
// copy is returned with stale=true.
func (m *Manager) Catalog(ctx context.Context) ([]Repository, bool, error) {
	res, err := cache.GetOrRefresh(ctx, m.cache, catalogCacheKey, m.opts.CacheMaxAge,
		func(ctx context.Context) ([]Repository, error) {
			return fetchCatalog(ctx, m.http, m.opts.CatalogURL)
		})
	if err != nil {
		return nil, false, err
	}
	return res.Value, res.Stale, nil
}

// isInstalled reports whether a repository checkout exists on disk
func (m *Manager) isInstalled(name string) bool {
	info, err := os.Stat(filepath.Join(m.opts.ReposDir, name))
	return err == nil && info.IsDir()
}

// Enabled returns the locally-enabled overlays with their sync records.
// This answer comes from persisted state and the filesystem only; it is
// never subject to the catalog cache age.
func (m *Manager) Enabled() []Info {
	var infos []Info
	for _, name := range m.state.EnabledOverlays() {
		rec, _ := m.state.Overlay(name)
		infos = append(infos, Info{
			Repository: Repository{Name: name},
			Installed:  m.isInstalled(name),
			Enabled:    true,
			SyncFailed: rec.SyncFailed,
			LastSync:   rec.LastSync,
		})
	}
	return infos
}

// List returns the catalog annotated with local installation and
// enablement state, sorted by name. Package counts are filled unless
// counting is disabled.
func (m *Manager) List(ctx context.Context) ([]Info, bool, error) {
	catalog, stale, err := m.Catalog(ctx)
	if err != nil {
		return nil, false, err
	}

	infos := make([]Info, len(catalog))
	for i, repo := range catalog {
		rec, enabled := m.state.Overlay(repo.Name)
		infos[i] = Info{
			Repository: repo,
			Installed:  m.isInstalled(repo.Name),
			Enabled:    enabled,
			SyncFailed: rec.SyncFailed,
			LastSync:   rec.LastSync,
		}
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })

	if !m.opts.SkipPackageCounting {
		m.fillPackageCounts(ctx, infos)
	}

	return infos, stale, nil
}

// fillPackageCounts queries the per-overlay package count for installed
// entries through a bounded worker pool. Count failures leave the entry
// uncounted rather than failing the listing.
func (m *Manager) fillPackageCounts(ctx context.Context, infos []Info) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(countWorkers)

	for i := range infos {
		if !infos[i].Installed {
			continue
		}
		i := i
		g.Go(func() error {
			count, err := m.eix.CountInOverlay(ctx, infos[i].Name)
			if err != nil {
				logger.Debug("package count for %s failed: %v", infos[i].Name, err)
				return nil
			}
			infos[i].PackageCount = &count
			return nil
		})
	}

	g.Wait()
}

// EnableAndSync enables an overlay and then syncs it, in that order.
//
// The enable step must succeed before the sync runs. A failed sync leaves
// the overlay enabled and flagged in persisted state, and surfaces as
// ErrSyncFailed; nothing is rolled back.
func (m *Manager) EnableAndSync(ctx context.Context, name string) error {
	if _, err := m.emerge.EnableRepository(ctx, name); err != nil {
		return fmt.Errorf("enabling %s: %w", name, err)
	}
	if err := m.state.EnableOverlay(name, m.nowFunc()); err != nil {
		logger.Warn("failed to persist enablement of %s: %v", name, err)
	}

	if _, err := m.emerge.Sync(ctx, name); err != nil {
		if stateErr := m.state.RecordSync(name, m.nowFunc(), false); stateErr != nil {
			logger.Warn("failed to persist sync failure of %s: %v", name, stateErr)
		}
		return fmt.Errorf("%w: %s: %v", ErrSyncFailed, name, err)
	}

	if err := m.state.RecordSync(name, m.nowFunc(), true); err != nil {
		logger.Warn("failed to persist sync of %s: %v", name, err)
	}
	return nil
}

// Sync re-syncs an already enabled overlay and records the outcome
func (m *Manager) Sync(ctx context.Context, name string) error {
	if _, err := m.emerge.Sync(ctx, name); err != nil {
		if stateErr := m.state.RecordSync(name, m.nowFunc(), false); stateErr != nil {
			logger.Warn("failed to persist sync failure of %s: %v", name, stateErr)
		}
		return fmt.Errorf("%w: %s: %v", ErrSyncFailed, name, err)
	}
	return m.state.RecordSync(name, m.nowFunc(), true)
}

// Remove deletes an overlay and forgets its local record
func (m *Manager) Remove(ctx context.Context, name string) error {
	if _, err := m.emerge.RemoveRepository(ctx, name); err != nil {
		return fmt.Errorf("removing %s: %w", name, err)
	}
	return m.state.RemoveOverlay(name)
}

// Disable deactivates an overlay without deleting its checkout
func (m *Manager) Disable(ctx context.Context, name string) error {
	if _, err := m.emerge.DisableRepository(ctx, name); err != nil {
		return fmt.Errorf("disabling %s: %w", name, err)
	}
	return m.state.RemoveOverlay(name)
}
