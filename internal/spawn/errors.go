// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
)

var (
	// ErrAlreadyStarted is returned when Start is called on a process that
	// has already been started.
	ErrAlreadyStarted = errors.New("process already started")
	// ErrNotStarted is returned when a drain is attempted before Start.
	ErrNotStarted = errors.New("process not started")
	// ErrInvalidOptions is returned for mutually exclusive start options.
	ErrInvalidOptions = errors.New("invalid start options")
	// ErrExecutableNotFound is the error kind carried by a StartError when
	// the executable does not exist.
	ErrExecutableNotFound = errors.New("executable not found")
)

// StartError is returned when the OS refused to spawn the process or the
// executable could not be found. It carries the executable name and
// arguments; a missing executable is mapped to ErrExecutableNotFound rather
// than an opaque OS error.
type StartError struct {
	Path string
	Args []string
	Err  error
}

// Error implements the error interface.
func (e *StartError) Error() string {
	return fmt.Sprintf("could not start %q: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *StartError) Unwrap() error {
	return e.Err
}

// newStartError maps spawn failures to a descriptive StartError, folding
// the platform's "no such file" condition into ErrExecutableNotFound.
func newStartError(path string, args []string, err error) *StartError {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		err = fmt.Errorf("%w: %s", ErrExecutableNotFound, path)
	}

	return &StartError{
		Path: path,
		Args: args,
		Err:  err,
	}
}

// RunError is returned when a process ran to completion with a nonzero exit
// code and the caller did not request nothrow.
type RunError struct {
	Path     string
	Args     []string
	ExitCode int
}

// Error implements the error interface.
func (e *RunError) Error() string {
	if len(e.Args) == 0 {
		return fmt.Sprintf("%s exited with code %d", e.Path, e.ExitCode)
	}

	return fmt.Sprintf("%s %s exited with code %d", e.Path, strings.Join(e.Args, " "), e.ExitCode)
}
