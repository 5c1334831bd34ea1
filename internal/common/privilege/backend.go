// Package privilege selects and applies a privilege escalation mechanism
// for administrative commands.
//
// Every administrative code path goes through a Backend chosen by the
// Resolver; nothing else in the program branches on the backend name.
package privilege

import (
	"errors"
	"strings"
)

var (
	// ErrPrivilegeUnavailable is returned when escalation is disabled or no
	// backend could be found
	ErrPrivilegeUnavailable = errors.New("no privilege escalation backend available")
	// ErrPermissionDenied is returned when the user declined the escalation prompt
	ErrPermissionDenied = errors.New("privilege escalation declined")
)

// Backend wraps a command line with a privilege escalation mechanism
type Backend interface {
	// Name is the binary name of the escalation tool
	Name() string
	// Wrap prepends the escalation invocation to argv
	Wrap(argv []string) ([]string, error)
	// Declined reports whether an exit code and stderr from a wrapped
	// command indicate the user refused authentication, as opposed to the
	// wrapped tool itself failing
	Declined(exitCode int, stderr string) bool
}

type pkexecBackend struct{}

func (pkexecBackend) Name() string { return "pkexec" }

func (pkexecBackend) Wrap(argv []string) ([]string, error) {
	return append([]string{"pkexec"}, argv...), nil
}

// pkexec exits 126 when the dialog is dismissed and 127 when authorization
// is not granted.
func (pkexecBackend) Declined(exitCode int, stderr string) bool {
	return exitCode == 126 || exitCode == 127
}

type sudoBackend struct{}

func (sudoBackend) Name() string { return "sudo" }

func (sudoBackend) Wrap(argv []string) ([]string, error) {
	return append([]string{"sudo"}, argv...), nil
}

func (sudoBackend) Declined(exitCode int, stderr string) bool {
	if exitCode != 1 {
		return false
	}
	return strings.Contains(stderr, "incorrect password") ||
		strings.Contains(stderr, "a password is required") ||
		strings.Contains(stderr, "not in the sudoers file")
}

type doasBackend struct{}

func (doasBackend) Name() string { return "doas" }

func (doasBackend) Wrap(argv []string) ([]string, error) {
	return append([]string{"doas"}, argv...), nil
}

func (doasBackend) Declined(exitCode int, stderr string) bool {
	if exitCode != 1 {
		return false
	}
	return strings.Contains(stderr, "Authentication failed") ||
		strings.Contains(stderr, "Operation not permitted")
}

// noneBackend refuses every elevated action so that administrative commands
// fail fast instead of silently running unprivileged.
type noneBackend struct{}

func (noneBackend) Name() string { return "none" }

func (noneBackend) Wrap(argv []string) ([]string, error) {
	return nil, ErrPrivilegeUnavailable
}

func (noneBackend) Declined(exitCode int, stderr string) bool { return false }
