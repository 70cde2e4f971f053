// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package sink

import "sync"

// Sink consumes the line-split output of a process. Implementations must
// tolerate AddToStdout and AddToStderr being called from two different
// goroutines (one per stream), but each stream has at most one writer.
type Sink interface {
	// AddToStdout appends a line to the stdout stream. Panics if the sink is closed.
	AddToStdout(line string)
	// AddToStderr appends a line to the stderr stream. Panics if the sink is closed.
	AddToStderr(line string)
	// SetExitCode records the terminal exit code. Panics if the sink is closed.
	SetExitCode(code int)
	// ExitCode returns the recorded exit code and whether one has been set.
	ExitCode() (int, bool)
	// Close transitions the sink to its terminal state. Idempotent.
	Close()
	// Closed reports whether the sink has been closed.
	Closed() bool
}

// base holds the lifecycle state and exit code shared by all sink
// implementations in this package.
type base struct {
	mu       sync.Mutex
	exitCode int
	hasCode  bool
	closed   bool
}

func (b *base) checkOpen() {
	if b.closed {
		panic("sink: write after close")
	}
}

// SetExitCode implements Sink.
func (b *base) SetExitCode(code int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.checkOpen()
	b.exitCode = code
	b.hasCode = true
}

// ExitCode implements Sink.
func (b *base) ExitCode() (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.exitCode, b.hasCode
}

// Close implements Sink.
func (b *base) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
}

// Closed implements Sink.
func (b *base) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.closed
}
