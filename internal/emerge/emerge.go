// Package emerge drives package install, removal and tree sync through the
// emerge binary. Every operation requires privilege elevation and runs with
// quiet, uncolored output so the result is parseable when captured.
package emerge

import (
	"context"
	"errors"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/run"
)

// ErrInvalidAtom is returned for an empty target atom
var ErrInvalidAtom = errors.New("empty package atom")

// quietArgs make emerge output machine-friendly
var quietArgs = []string{"-q", "--nospinner", "--color=n"}

// Manager executes emerge operations
type Manager struct {
	runner run.Runner
}

// NewManager creates a Manager
func NewManager(runner run.Runner) *Manager {
	return &Manager{runner: runner}
}

func (m *Manager) runElevated(ctx context.Context, argv []string) (run.Result, error) {
	logger.Info("emerge: %v", argv)
	return m.runner.Run(ctx, run.Request{
		Argv:     argv,
		Elevated: true,
		Capture:  true,
	})
}

// Install installs the package named by atom
func (m *Manager) Install(ctx context.Context, atom string) (run.Result, error) {
	if atom == "" {
		return run.Result{}, ErrInvalidAtom
	}
	argv := append(append([]string{"emerge"}, quietArgs...), atom)
	return m.runElevated(ctx, argv)
}

// Uninstall removes the package named by atom along with dependencies
// nothing else needs, via --depclean.
func (m *Manager) Uninstall(ctx context.Context, atom string) (run.Result, error) {
	if atom == "" {
		return run.Result{}, ErrInvalidAtom
	}
	argv := append(append([]string{"emerge"}, quietArgs...), "--depclean", atom)
	return m.runElevated(ctx, argv)
}

// Sync synchronizes repositories. With a name only that repository syncs;
// without one every configured repository does.
func (m *Manager) Sync(ctx context.Context, repository string) (run.Result, error) {
	argv := []string{"emerge", "--sync", "--quiet"}
	if repository != "" {
		argv = append(argv, repository)
	}
	return m.runElevated(ctx, argv)
}

// UpdateWorld upgrades the @world set with deep dependency and USE change
// handling.
func (m *Manager) UpdateWorld(ctx context.Context) (run.Result, error) {
	argv := append(append([]string{"emerge"}, quietArgs...),
		"--update", "--deep", "--newuse", "@world")
	return m.runElevated(ctx, argv)
}

// EnableRepository registers a repository through eselect
func (m *Manager) EnableRepository(ctx context.Context, name string) (run.Result, error) {
	if name == "" {
		return run.Result{}, ErrInvalidAtom
	}
	return m.runElevated(ctx, []string{"eselect", "repository", "enable", name})
}

// RemoveRepository disables and removes a repository via eselect
func (m *Manager) RemoveRepository(ctx context.Context, name string) (run.Result, error) {
	if name == "" {
		return run.Result{}, ErrInvalidAtom
	}
	return m.runElevated(ctx, []string{"eselect", "repository", "remove", "-f", name})
}

// DisableRepository disables a repository without deleting its checkout
func (m *Manager) DisableRepository(ctx context.Context, name string) (run.Result, error) {
	if name == "" {
		return run.Result{}, ErrInvalidAtom
	}
	return m.runElevated(ctx, []string{"eselect", "repository", "disable", name})
}
