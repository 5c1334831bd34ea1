// Package glsa surfaces Gentoo Linux Security Advisories that affect the
// local system, with full advisory documents parsed from the repository
// metadata and a local read-state.
package glsa

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/run"
	"github.com/portscope/portscope/internal/eix"
	"github.com/portscope/portscope/internal/state"
)

// glsa-check exits 6 when advisories apply to installed packages
const affectedExitCode = 6

// ErrCheckFailed is returned when glsa-check itself could not run
var ErrCheckFailed = errors.New("glsa-check failed")

// Range is one version condition on an affected package
type Range struct {
	// Range is the comparison operator, e.g. "lt", "ge"
	Range string `json:"range,omitempty"`
	Slot  string `json:"slot,omitempty"`
	Value string `json:"value"`
}

// AffectedPackage names a package an advisory applies to
type AffectedPackage struct {
	Name       string  `json:"name"`
	Auto       string  `json:"auto,omitempty"`
	Arch       string  `json:"arch,omitempty"`
	Unaffected []Range `json:"unaffected,omitempty"`
	Vulnerable []Range `json:"vulnerable,omitempty"`
}

// Resolution is one remediation step, optionally with a command block
type Resolution struct {
	Text string `json:"text"`
	Code string `json:"code,omitempty"`
}

// Advisory is one parsed GLSA document
type Advisory struct {
	ID            string `json:"id"`
	Title         string `json:"title,omitempty"`
	Synopsis      string `json:"synopsis,omitempty"`
	Product       string `json:"product,omitempty"`
	Announced     string `json:"announced,omitempty"`
	Revised       string `json:"revised,omitempty"`
	RevisionCount string `json:"revision_count,omitempty"`
	// ImpactType is the severity attribute: low, normal or high
	ImpactType string `json:"impact_type,omitempty"`

	Bugs        []string `json:"bugs,omitempty"`
	Access      string   `json:"access,omitempty"`
	Background  string   `json:"background,omitempty"`
	Description string   `json:"description,omitempty"`
	Impact      string   `json:"impact,omitempty"`
	Workaround  string   `json:"workaround,omitempty"`

	Resolutions []Resolution      `json:"resolutions,omitempty"`
	Affected    []AffectedPackage `json:"affected,omitempty"`
	References  []string          `json:"references,omitempty"`

	// Read joins the local read-state
	Read bool `json:"read"`
}

// Tracker enumerates applicable advisories
type Tracker struct {
	runner run.Runner
	state  *state.Store
	eix    *eix.Client
}

// NewTracker creates a Tracker
func NewTracker(runner run.Runner, stateStore *state.Store, eixClient *eix.Client) *Tracker {
	return &Tracker{runner: runner, state: stateStore, eix: eixClient}
}

// AffectedIDs returns the ids of advisories that apply to the system.
// An empty list means the system is clean.
func (t *Tracker) AffectedIDs(ctx context.Context) ([]string, error) {
	res, err := t.runner.Run(ctx, run.Request{
		Argv:    []string{"glsa-check", "-tqn", "all"},
		Capture: true,
	})
	if err != nil {
		var exitErr *run.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode == affectedExitCode {
			return strings.Fields(res.Stdout), nil
		}
		return nil, fmt.Errorf("%w: %v", ErrCheckFailed, err)
	}
	// Exit 0: nothing affects the system.
	return nil, nil
}

// List returns full advisory documents for every applicable GLSA, joined
// with the local read-state. Documents that are missing or unparseable are
// skipped with a log line rather than failing the listing.
func (t *Tracker) List(ctx context.Context) ([]Advisory, error) {
	ids, err := t.AffectedIDs(ctx)
	if err != nil {
		return nil, err
	}

	glsaDir := filepath.Join(t.eix.RepoPath(ctx), "metadata", "glsa")

	var advisories []Advisory
	for _, id := range ids {
		path := filepath.Join(glsaDir, "glsa-"+id+".xml")
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Debug("advisory document missing: %s", path)
			continue
		}

		advisory, err := parseAdvisory(id, string(data))
		if err != nil {
			logger.Warn("failed to parse advisory %s: %v", id, err)
			continue
		}
		advisory.Read = t.state.IsAdvisoryRead(id)
		advisories = append(advisories, advisory)
	}

	return advisories, nil
}

// Show returns the single advisory with the given id
func (t *Tracker) Show(ctx context.Context, id string) (Advisory, error) {
	path := filepath.Join(t.eix.RepoPath(ctx), "metadata", "glsa", "glsa-"+id+".xml")
	data, err := os.ReadFile(path)
	if err != nil {
		return Advisory{}, fmt.Errorf("advisory %s not found: %w", id, err)
	}

	advisory, err := parseAdvisory(id, string(data))
	if err != nil {
		return Advisory{}, err
	}
	advisory.Read = t.state.IsAdvisoryRead(id)
	return advisory, nil
}

// MarkRead records an advisory as read locally
func (t *Tracker) MarkRead(id string) error {
	return t.state.MarkAdvisoryRead(id)
}

// MarkAllRead records every given advisory as read. Idempotent.
func (t *Tracker) MarkAllRead(ids []string) error {
	return t.state.MarkAllAdvisoriesRead(ids)
}

// FixAll applies the resolutions for every applicable advisory through an
// elevated glsa-check run. With a clean system it does nothing.
func (t *Tracker) FixAll(ctx context.Context) error {
	ids, err := t.AffectedIDs(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	argv := append([]string{"glsa-check", "-f"}, ids...)
	if _, err := t.runner.Run(ctx, run.Request{
		Argv:     argv,
		Elevated: true,
		Capture:  true,
	}); err != nil {
		return fmt.Errorf("glsa-check fix failed: %w", err)
	}
	return nil
}
