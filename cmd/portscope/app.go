package main

import (
	"os"
	"time"

	"github.com/portscope/portscope/internal/cache"
	"github.com/portscope/portscope/internal/common/config"
	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/privilege"
	"github.com/portscope/portscope/internal/common/run"
	"github.com/portscope/portscope/internal/eix"
	"github.com/portscope/portscope/internal/emerge"
	"github.com/portscope/portscope/internal/glsa"
	"github.com/portscope/portscope/internal/news"
	"github.com/portscope/portscope/internal/overlay"
	"github.com/portscope/portscope/internal/state"
)

// searchCacheMaxAge bounds the package search/metadata cache. There is no
// configuration knob for it; index rebuilds and package operations
// invalidate the namespace directly.
const searchCacheMaxAge = time.Hour

// app wires the components every subcommand needs: configuration, the
// privilege-aware executor and the portage tool adapters built on top of it.
type app struct {
	cfg    *config.Config
	runner run.Runner
	eix    *eix.Client
	cache  *cache.Store
	state  *state.Store
	emerge *emerge.Manager
	// css is the stylesheet override path handed to the presentation layer
	css string
}

func newApp() (*app, error) {
	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = config.LoadFrom(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	cacheDir, err := cache.DefaultDir()
	if err != nil {
		return nil, err
	}
	cacheStore, err := cache.New(cacheDir)
	if err != nil {
		return nil, err
	}

	statePath, err := state.DefaultPath()
	if err != nil {
		return nil, err
	}
	stateStore, err := state.Load(statePath)
	if err != nil {
		return nil, err
	}

	resolver := privilege.NewResolver()
	runner := run.NewExecutor(resolver, cfg.Global.PrivilegeBackend, cfg.Global.Terminal)

	if cssFile != "" {
		if _, err := os.Stat(cssFile); err != nil {
			logger.Warn("stylesheet not found: %s", cssFile)
		}
	}

	return &app{
		cfg:    cfg,
		runner: runner,
		eix: eix.NewClient(runner, cfg.Browse.SearchFlags, cfg.Browse.MinimumCharacters,
			eix.WithResultCache(cacheStore, searchCacheMaxAge)),
		cache:  cacheStore,
		state:  stateStore,
		emerge: emerge.NewManager(runner),
		css:    cssFile,
	}, nil
}

// mustApp builds the shared app wiring or exits
func mustApp() *app {
	a, err := newApp()
	if err != nil {
		logger.Error("startup failed: %v", err)
		os.Exit(1)
	}
	return a
}

func (a *app) overlays() *overlay.Manager {
	return overlay.NewManager(
		overlay.NewRetryableHTTPClient(),
		a.cache,
		a.state,
		a.eix,
		a.emerge,
		overlay.Options{
			CatalogURL:          a.cfg.Overlays.OverlaySource,
			CacheMaxAge:         time.Duration(a.cfg.Overlays.CacheMaxAge) * time.Hour,
			SkipPackageCounting: a.cfg.Overlays.SkipPackageCounting,
		},
	)
}

func (a *app) news() *news.Tracker {
	return news.NewTracker(a.runner, a.state, a.eix)
}

func (a *app) glsa() *glsa.Tracker {
	return glsa.NewTracker(a.runner, a.state, a.eix)
}
