// Package exit carries process exit statuses through error values so that a
// failing child script surfaces as the same exit code from fwhook.
package exit

import (
	"errors"
	"fmt"
	"os/exec"
)

type fatalError struct {
	code int
	error
}

func (f fatalError) ExitStatus() int {
	return f.code
}

func (f fatalError) Unwrap() error {
	return f.error
}

// ExitStatuser is an interface for errors that carry an exit status code.
type ExitStatuser interface {
	ExitStatus() int
}

// Fatal returns an error that causes fwhook to print the given args and
// exit with the given code.
func Fatal(code int, args ...any) error {
	return fatalError{
		code:  code,
		error: errors.New(fmt.Sprint(args...)),
	}
}

// Fatalf returns an error that causes fwhook to print the given message and
// exit with the given code.
func Fatalf(code int, format string, args ...any) error {
	return fatalError{
		code:  code,
		error: fmt.Errorf(format, args...),
	}
}

// Status queries the error for an exit status: ExitStatus() int if the error
// implements it, else the code of a wrapped *exec.ExitError. A nil error is
// 0, anything else is 1.
func Status(err error) int {
	if err == nil {
		return 0
	}
	var exit ExitStatuser
	if errors.As(err, &exit) {
		return exit.ExitStatus()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
