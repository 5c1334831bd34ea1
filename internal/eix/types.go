// Package eix queries the eix package index and related portage tooling.
//
// All external commands run through the run.Runner interface, so every
// function here can be exercised against canned output in tests. Query
// results carry a completeness tag instead of failing hard: eix output on
// a live system can degrade (partial cache, unexpected elements) and a
// partial answer is more useful than none.
package eix

import (
	"errors"
)

var (
	// ErrQueryTooShort is returned before spawning anything when the search
	// term is below the configured minimum length
	ErrQueryTooShort = errors.New("search term too short")
	// ErrNotAvailable is returned when the eix binary or its cache is missing
	ErrNotAvailable = errors.New("eix is not available")
	// ErrUnparseable is returned when eix output could not be parsed at all
	ErrUnparseable = errors.New("unparseable eix output")
	// ErrPackageNotFound is returned when an exact atom lookup has no match
	ErrPackageNotFound = errors.New("package not found")
)

// Completeness describes how much of a package record survived parsing
type Completeness int

const (
	// Full means every expected field was present
	Full Completeness = iota
	// Partial means the record is usable but listed fields were missing
	Partial
	// Unparseable means the record could not be identified at all
	Unparseable
)

// String returns a human-readable completeness tag
func (c Completeness) String() string {
	switch c {
	case Full:
		return "full"
	case Partial:
		return "partial"
	case Unparseable:
		return "unparseable"
	default:
		return "unknown"
	}
}

// Version is one ebuild version of a package as reported by eix
type Version struct {
	ID          string   `json:"id"`
	EAPI        string   `json:"eapi,omitempty"`
	Repository  string   `json:"repository,omitempty"`
	Slot        string   `json:"slot,omitempty"`
	Virtual     bool     `json:"virtual,omitempty"`
	Installed   bool     `json:"installed,omitempty"`
	SrcURI      string   `json:"src_uri,omitempty"`
	IUse        []string `json:"iuse,omitempty"`
	IUseDefault []string `json:"iuse_default,omitempty"`
	RequiredUse string   `json:"required_use,omitempty"`
	Depend      string   `json:"depend,omitempty"`
	RDepend     string   `json:"rdepend,omitempty"`
	BDepend     string   `json:"bdepend,omitempty"`
	PDepend     string   `json:"pdepend,omitempty"`
	IDepend     string   `json:"idepend,omitempty"`
	Masks       []string `json:"masks,omitempty"`
	Unmasks     []string `json:"unmasks,omitempty"`
	Properties  []string `json:"properties,omitempty"`
	Restricts   []string `json:"restricts,omitempty"`
	UseEnabled  []string `json:"use_enabled,omitempty"`
	UseDisabled []string `json:"use_disabled,omitempty"`
}

// Package is one package record with all its versions
type Package struct {
	Category    string    `json:"category"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Homepage    string    `json:"homepage,omitempty"`
	Licenses    []string  `json:"licenses,omitempty"`
	Versions    []Version `json:"versions,omitempty"`

	// Completeness tags how much of the record parsed; Missing names the
	// fields that were expected but absent
	Completeness Completeness `json:"completeness"`
	Missing      []string     `json:"missing,omitempty"`
}

// FullName returns the category/name atom
func (p *Package) FullName() string {
	return p.Category + "/" + p.Name
}

// IsInstalled reports whether any version is installed
func (p *Package) IsInstalled() bool {
	for _, v := range p.Versions {
		if v.Installed {
			return true
		}
	}
	return false
}

// InstalledVersion returns the installed version, when any
func (p *Package) InstalledVersion() (Version, bool) {
	for _, v := range p.Versions {
		if v.Installed {
			return v, true
		}
	}
	return Version{}, false
}

// PreferredVersion returns the version whose metadata should represent the
// package: the installed one when present, otherwise the last listed,
// which eix orders newest.
func (p *Package) PreferredVersion() (Version, bool) {
	if v, ok := p.InstalledVersion(); ok {
		return v, true
	}
	if len(p.Versions) == 0 {
		return Version{}, false
	}
	return p.Versions[len(p.Versions)-1], true
}
