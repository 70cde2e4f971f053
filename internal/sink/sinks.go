// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package sink

import (
	"fmt"
	"io"
	"slices"
)

var (
	_ Sink = (*Discard)(nil)
	_ Sink = (*Collect)(nil)
	_ Sink = (*Callback)(nil)
	_ Sink = (*Writer)(nil)
	_ Sink = (*Tee)(nil)
)

// Discard drops all lines and keeps only the exit code.
// Used when the caller wants to run a process for its side effects.
type Discard struct {
	base
}

// NewDiscard creates a sink that discards all output.
func NewDiscard() *Discard {
	return &Discard{}
}

// AddToStdout implements Sink.
func (s *Discard) AddToStdout(_ string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkOpen()
}

// AddToStderr implements Sink.
func (s *Discard) AddToStderr(_ string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkOpen()
}

// Collect accumulates lines into ordered per-stream slices for retrieval
// after the process completes.
type Collect struct {
	base
	stdout []string
	stderr []string
}

// NewCollect creates a sink that collects all output lines in order.
func NewCollect() *Collect {
	return &Collect{}
}

// AddToStdout implements Sink.
func (s *Collect) AddToStdout(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkOpen()
	s.stdout = append(s.stdout, line)
}

// AddToStderr implements Sink.
func (s *Collect) AddToStderr(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkOpen()
	s.stderr = append(s.stderr, line)
}

// Stdout returns the collected stdout lines in emission order.
func (s *Collect) Stdout() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.stdout)
}

// Stderr returns the collected stderr lines in emission order.
func (s *Collect) Stderr() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.stderr)
}

// Callback forwards each line to caller-supplied funcs. A nil func drops
// that stream.
type Callback struct {
	base
	stdoutFn func(line string)
	stderrFn func(line string)
}

// NewCallback creates a sink that invokes the given funcs per line.
func NewCallback(stdoutFn, stderrFn func(line string)) *Callback {
	return &Callback{
		stdoutFn: stdoutFn,
		stderrFn: stderrFn,
	}
}

// AddToStdout implements Sink.
func (s *Callback) AddToStdout(line string) {
	s.mu.Lock()
	s.checkOpen()
	fn := s.stdoutFn
	s.mu.Unlock()

	if fn != nil {
		fn(line)
	}
}

// AddToStderr implements Sink.
func (s *Callback) AddToStderr(line string) {
	s.mu.Lock()
	s.checkOpen()
	fn := s.stderrFn
	s.mu.Unlock()

	if fn != nil {
		fn(line)
	}
}

// Writer forwards lines, with a trailing newline restored, to an io.Writer
// pair. Used by the CLI to stream child output to the terminal as it is
// produced.
type Writer struct {
	base
	stdout io.Writer
	stderr io.Writer
}

// NewWriter creates a sink writing stdout lines to out and stderr lines to errOut.
func NewWriter(out, errOut io.Writer) *Writer {
	return &Writer{
		stdout: out,
		stderr: errOut,
	}
}

// AddToStdout implements Sink.
func (s *Writer) AddToStdout(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkOpen()
	fmt.Fprintln(s.stdout, line) //nolint:errcheck
}

// AddToStderr implements Sink.
func (s *Writer) AddToStderr(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkOpen()
	fmt.Fprintln(s.stderr, line) //nolint:errcheck
}

// Tee feeds two sinks. Close and SetExitCode are applied to both.
type Tee struct {
	a, b Sink
}

// NewTee creates a sink duplicating all calls to both a and b.
func NewTee(a, b Sink) *Tee {
	return &Tee{a: a, b: b}
}

// AddToStdout implements Sink.
func (s *Tee) AddToStdout(line string) {
	s.a.AddToStdout(line)
	s.b.AddToStdout(line)
}

// AddToStderr implements Sink.
func (s *Tee) AddToStderr(line string) {
	s.a.AddToStderr(line)
	s.b.AddToStderr(line)
}

// SetExitCode implements Sink.
func (s *Tee) SetExitCode(code int) {
	s.a.SetExitCode(code)
	s.b.SetExitCode(code)
}

// ExitCode implements Sink.
func (s *Tee) ExitCode() (int, bool) {
	return s.a.ExitCode()
}

// Close implements Sink.
func (s *Tee) Close() {
	s.a.Close()
	s.b.Close()
}

// Closed implements Sink.
func (s *Tee) Closed() bool {
	return s.a.Closed()
}
