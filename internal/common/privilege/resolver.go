package privilege

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"

	"github.com/portscope/portscope/internal/common/config"
)

// ErrUnknownBackend is returned for a configured backend name outside the
// accepted set.
var ErrUnknownBackend = errors.New("unknown privilege backend")

// autoProbeOrder is the fixed priority order used by the auto setting
var autoProbeOrder = []Backend{pkexecBackend{}, sudoBackend{}, doasBackend{}}

// Resolver picks a Backend from configuration, probing the system for
// available escalation tools. The result is cached for the process lifetime
// and re-probed only after Invalidate.
type Resolver struct {
	mu       sync.Mutex
	resolved Backend
	probed   string // configured value the cached result belongs to

	// lookPath is injectable for tests
	lookPath func(file string) (string, error)
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithLookPath overrides binary probing, for tests
func WithLookPath(fn func(string) (string, error)) ResolverOption {
	return func(r *Resolver) {
		r.lookPath = fn
	}
}

// NewResolver creates a Resolver
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{lookPath: exec.LookPath}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the Backend for the configured setting.
//
// "auto" probes pkexec, sudo and doas in that order and picks the first one
// present on PATH. "none" yields a backend that refuses every elevated
// action. Naming a specific backend requires it to be installed.
func (r *Resolver) Resolve(configured string) (Backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolved != nil && r.probed == configured {
		return r.resolved, nil
	}

	backend, err := r.resolve(configured)
	if err != nil {
		return nil, err
	}

	r.resolved = backend
	r.probed = configured
	return backend, nil
}

func (r *Resolver) resolve(configured string) (Backend, error) {
	switch configured {
	case config.PrivilegeBackendAuto, "":
		for _, b := range autoProbeOrder {
			if r.available(b) {
				return b, nil
			}
		}
		return nil, ErrPrivilegeUnavailable
	case config.PrivilegeBackendNone:
		return noneBackend{}, nil
	case config.PrivilegeBackendPkexec:
		return r.require(pkexecBackend{})
	case config.PrivilegeBackendSudo:
		return r.require(sudoBackend{})
	case config.PrivilegeBackendDoas:
		return r.require(doasBackend{})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, configured)
	}
}

func (r *Resolver) require(b Backend) (Backend, error) {
	if !r.available(b) {
		return nil, fmt.Errorf("%w: %s not found", ErrPrivilegeUnavailable, b.Name())
	}
	return b, nil
}

func (r *Resolver) available(b Backend) bool {
	_, err := r.lookPath(b.Name())
	return err == nil
}

// Invalidate drops the cached resolution so the next Resolve re-probes.
// Called on configuration reload.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = nil
	r.probed = ""
}
