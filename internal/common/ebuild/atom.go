// Package ebuild parses package atoms and compares Gentoo-style version
// strings.
package ebuild

import (
	"errors"
	"regexp"
	"strings"
)

var ErrInvalidAtom = errors.New("invalid package atom")

// cpvRegex splits "name-version" at the last hyphen followed by a digit,
// which is where portage starts the version component.
var cpvRegex = regexp.MustCompile(`^(.+)-(\d[\w._-]*)$`)

// Atom is a parsed package atom such as "app-editors/vim" or
// "app-editors/vim-9.1.0866-r1". Version is empty for unqualified atoms.
type Atom struct {
	Category string
	Name     string
	Version  string
}

// ParseAtom parses a category/package[-version] atom
func ParseAtom(s string) (*Atom, error) {
	s = strings.TrimSpace(s)

	category, rest, found := strings.Cut(s, "/")
	if !found || category == "" || rest == "" || strings.Contains(rest, "/") {
		return nil, ErrInvalidAtom
	}

	if matches := cpvRegex.FindStringSubmatch(rest); matches != nil {
		return &Atom{Category: category, Name: matches[1], Version: matches[2]}, nil
	}

	return &Atom{Category: category, Name: rest}, nil
}

// FullName returns the category/name form without any version
func (a *Atom) FullName() string {
	return a.Category + "/" + a.Name
}

// String returns the atom including the version when present
func (a *Atom) String() string {
	if a.Version == "" {
		return a.FullName()
	}
	return a.FullName() + "-" + a.Version
}

// IsLive reports whether version denotes a live (VCS snapshot) ebuild
func IsLive(version string) bool {
	return strings.HasPrefix(version, "9999")
}
