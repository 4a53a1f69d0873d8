// Package shell runs external programs (docker, ssh, pytest, ruff, npx).
//
// Commands go through the Runner interface so callers can be exercised with
// a Recorder in tests.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Cmd describes one program invocation. Nil writers capture into the Result.
type Cmd struct {
	Name   string
	Args   []string
	Dir    string
	Env    []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// String renders the command line for logs and messages.
func (c Cmd) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result is the captured outcome of a command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner abstracts command execution.
type Runner interface {
	Run(ctx context.Context, c Cmd) (Result, error)
	// Start launches c in the background and does not wait for it.
	Start(c Cmd) error
}

// ExecRunner executes commands on the local host.
type ExecRunner struct{}

// ExitCodeNotFound is reported when the program is not on PATH.
const ExitCodeNotFound = 127

// Run executes c. A non-zero exit is returned as an error together with the
// captured output.
func (ExecRunner) Run(ctx context.Context, c Cmd) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...) //nolint:gosec // arguments are built by splent, never through a shell
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.Stdin = c.Stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	if c.Stdout != nil {
		cmd.Stdout = c.Stdout
	}
	cmd.Stderr = &stderr
	if c.Stderr != nil {
		cmd.Stderr = io.MultiWriter(c.Stderr, &stderr)
	}

	start := time.Now()
	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	var exitErr *exec.ExitError
	var execErr *exec.Error
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	case errors.As(err, &execErr):
		res.ExitCode = ExitCodeNotFound
	default:
		res.ExitCode = 1
	}

	log.Debug().
		Str("cmd", c.String()).
		Str("dir", c.Dir).
		Int("exit", res.ExitCode).
		Dur("took", time.Since(start)).
		Msg("exec")

	if err != nil {
		return res, &Error{Cmd: c.String(), ExitCode: res.ExitCode, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return res, nil
}

// Start launches c detached from splent. Output not routed to a writer is
// discarded.
func (ExecRunner) Start(c Cmd) error {
	cmd := exec.Command(c.Name, c.Args...) //nolint:gosec // arguments are built by splent
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	if err := cmd.Start(); err != nil {
		return &Error{Cmd: c.String(), ExitCode: ExitCodeNotFound, Err: err}
	}
	log.Debug().Str("cmd", c.String()).Int("pid", cmd.Process.Pid).Msg("started")
	return cmd.Process.Release()
}

// Error reports a failed command.
type Error struct {
	Cmd      string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: exit %d: %s", e.Cmd, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Cmd, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err comes from a program missing on PATH.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.ExitCode == ExitCodeNotFound
}

// LookPath reports whether name is on PATH and where.
func LookPath(name string) (string, bool) {
	p, err := exec.LookPath(name)
	return p, err == nil
}
