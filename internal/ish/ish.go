// Package ish runs child processes on behalf of build hooks. Failures of
// processes that did run are reported as exit.Fatalf errors carrying the
// child's exit code.
package ish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/yaklabco/fwhook/internal/buildctx"
	"github.com/yaklabco/fwhook/internal/exit"
	"github.com/yaklabco/fwhook/internal/log"
)

// DryRunPrefix is printed in front of every command that would have run.
const DryRunPrefix = "DRYRUN: "

// Runner executes a command line and blocks until it exits.
type Runner interface {
	Run(ctx context.Context, cmd string, args ...string) error
}

// Exec is the os/exec backed Runner.
type Exec struct {
	// Env is added on top of the current process environment.
	Env map[string]string

	// Dir is the working directory of the child. Empty means inherit.
	Dir string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// DryRun replaces every command with an echo of what would have run.
	DryRun bool

	// Verbose echoes each command to the console before running it.
	Verbose bool
}

// Run implements Runner.
func (e *Exec) Run(ctx context.Context, cmd string, args ...string) error {
	_, err := e.Exec(ctx, cmd, args...)
	return err
}

// Exec runs the command. Ran reports whether the command started at all
// (rather than was not found or not executable).
func (e *Exec) Exec(ctx context.Context, cmd string, args ...string) (bool, error) {
	expand := func(varName string) string {
		if e.Env != nil {
			if s, ok := e.Env[varName]; ok {
				return s
			}
		}
		return os.Getenv(varName)
	}

	cmd = os.Expand(cmd, expand)
	expanded := make([]string, len(args))
	for i := range args {
		expanded[i] = os.Expand(args[i], expand)
	}

	ran, code, err := e.run(ctx, cmd, expanded...)
	if err == nil {
		return true, nil
	}
	if ran {
		return ran, exit.Fatalf(code, `running "%s %s" failed with exit code %d`, cmd, strings.Join(expanded, " "), code)
	}
	return ran, fmt.Errorf(`failed to run "%s %s": %w`, cmd, strings.Join(expanded, " "), err)
}

func (e *Exec) run(ctx context.Context, cmd string, args ...string) (bool, int, error) {
	theCmd := e.wrap(ctx, cmd, args...)
	theCmd.Env = os.Environ()
	for k, v := range e.Env {
		theCmd.Env = append(theCmd.Env, k+"="+v)
	}
	for k, v := range buildctx.Environ(ctx) {
		theCmd.Env = append(theCmd.Env, k+"="+v)
	}
	theCmd.Dir = e.Dir
	theCmd.Stdin = e.Stdin
	theCmd.Stdout = e.Stdout
	theCmd.Stderr = e.Stderr

	if e.Verbose {
		quoted := make([]string, 0, len(args))
		for i := range args {
			quoted = append(quoted, fmt.Sprintf("%q", args[i]))
		}
		log.SimpleConsoleLogger.Println("exec:", cmd, strings.Join(quoted, " "))
	}
	slog.Debug("exec", slog.String(log.Cmd, cmd), slog.Any(log.Args, args))

	err := theCmd.Run()

	return CmdRan(err), exit.Status(err), err
}

// wrap returns exec.CommandContext(cmd, args...), or an echo of the command
// in dry-run mode.
func (e *Exec) wrap(ctx context.Context, cmd string, args ...string) *exec.Cmd {
	if !e.DryRun {
		return exec.CommandContext(ctx, cmd, args...)
	}

	return exec.CommandContext(ctx, "echo", append([]string{DryRunPrefix + cmd}, args...)...) //nolint:gosec // It's echo!
}

// CmdRan examines the error to determine if it was generated as a result of
// a command running via os/exec. A nil error, or a command that ran and
// exited non-zero, reports true.
func CmdRan(err error) bool {
	if err == nil {
		return true
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.Exited()
	}
	return false
}
