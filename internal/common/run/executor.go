package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/portscope/portscope/internal/common/logger"
	"github.com/portscope/portscope/internal/common/privilege"
)

// Executor runs commands on the local system, wrapping elevated requests
// through the configured privilege backend. When a terminal emulator is
// configured, elevated invocations are handed to it and become
// fire-and-forget: the terminal owns the interaction and the reported exit
// status is advisory.
type Executor struct {
	resolver *privilege.Resolver
	backend  string   // configured privilege_backend value
	terminal []string // terminal emulator argv, empty when unset
}

// NewExecutor creates an Executor
func NewExecutor(resolver *privilege.Resolver, backend string, terminal []string) *Executor {
	return &Executor{
		resolver: resolver,
		backend:  backend,
		terminal: terminal,
	}
}

// Run executes the request.
//
// Cancellation and timeout kill the whole process group so no grandchild
// outlives the call. Non-zero exits surface as *ExitError unless the
// privilege backend recognises the failure as a declined escalation prompt,
// which surfaces as privilege.ErrPermissionDenied.
func (e *Executor) Run(ctx context.Context, req Request) (Result, error) {
	if len(req.Argv) == 0 {
		return Result{}, ErrEmptyArgv
	}

	argv := req.Argv
	var backend privilege.Backend

	if req.Elevated {
		var err error
		backend, err = e.resolver.Resolve(e.backend)
		if err != nil {
			return Result{}, err
		}
		argv, err = backend.Wrap(argv)
		if err != nil {
			return Result{}, err
		}

		if len(e.terminal) > 0 {
			return e.detach(ctx, argv)
		}
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	if _, err := exec.LookPath(argv[0]); err != nil {
		return Result{}, fmt.Errorf("%w: %s", ErrBinaryNotFound, argv[0])
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = req.Dir
	cmd.Env = append(os.Environ(), req.Env...)

	var stdout, stderr bytes.Buffer
	if req.Capture {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	} else {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	// Own process group so cancellation can reap the whole subtree.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	logger.Debug("exec: %v", argv)

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return Result{}, fmt.Errorf("%w: %s", ErrBinaryNotFound, argv[0])
		}
		return Result{}, fmt.Errorf("failed to start %s: %w", argv[0], err)
	}

	pgid := cmd.Process.Pid
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			syscall.Kill(-pgid, syscall.SIGKILL)
		case <-done:
		}
	}()

	waitErr := cmd.Wait()

	res := Result{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return res, fmt.Errorf("%w: %s after %s", ErrTimeout, argv[0], req.Timeout)
		}
		return res, ctxErr
	}

	if waitErr != nil {
		if backend != nil && backend.Declined(res.ExitCode, res.Stderr) {
			return res, fmt.Errorf("%w (%s)", privilege.ErrPermissionDenied, backend.Name())
		}
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return res, &ExitError{Argv: req.Argv, ExitCode: res.ExitCode, Stderr: res.Stderr}
		}
		return res, waitErr
	}

	return res, nil
}

// detach hands the already-wrapped invocation to the configured terminal
// emulator. The child is reaped in the background; its exit status is not
// meaningful to the caller.
func (e *Executor) detach(ctx context.Context, argv []string) (Result, error) {
	full := append(append([]string{}, e.terminal...), argv...)

	if _, err := exec.LookPath(full[0]); err != nil {
		return Result{}, fmt.Errorf("%w: %s", ErrBinaryNotFound, full[0])
	}

	cmd := exec.Command(full[0], full[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	logger.Debug("exec (terminal): %v", full)

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("failed to start terminal %s: %w", full[0], err)
	}

	go cmd.Wait()

	return Result{Detached: true}, nil
}
