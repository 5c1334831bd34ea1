// Package run executes external commands for portscope.
//
// All subprocess invocations in the program go through the Runner interface
// so that every component talking to portage tooling can be tested against
// a mock instead of a live system.
package run

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrBinaryNotFound is returned when the target binary is not on PATH
	ErrBinaryNotFound = errors.New("binary not found")
	// ErrTimeout is returned when a caller-specified duration elapsed before
	// the command completed; the process group has been killed by then
	ErrTimeout = errors.New("command timed out")
	// ErrEmptyArgv is returned for a request without a command
	ErrEmptyArgv = errors.New("empty argv")
)

// ExitError reports a command that ran but exited non-zero
type ExitError struct {
	Argv     []string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited with code %d: %s", e.Argv[0], e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s exited with code %d", e.Argv[0], e.ExitCode)
}

// Request describes one command invocation
type Request struct {
	// Argv is the command and its arguments
	Argv []string
	// Elevated routes the command through the resolved privilege backend
	Elevated bool
	// Capture collects stdout/stderr instead of inheriting the terminal
	Capture bool
	// Timeout bounds the run; zero means no limit beyond the context
	Timeout time.Duration
	// Env entries are appended to the inherited environment
	Env []string
	// Dir is the working directory; empty means inherit
	Dir string
}

// Result captures a finished command
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	// Detached is true when the command was handed to a terminal emulator
	// and the exit code is advisory only
	Detached bool
}

// Runner is the subprocess execution boundary
type Runner interface {
	Run(ctx context.Context, req Request) (Result, error)
}
