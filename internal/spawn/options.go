// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import "os"

// StartOptions configures how a process is spawned. The zero value is not
// the default: use DefaultStartOptions, or pass nil to Start.
type StartOptions struct {
	// RunInShell invokes the command through the platform shell
	// ($SHELL -c / cmd.exe /C) instead of executing it directly.
	RunInShell bool
	// Detached spawns the process without attaching I/O and without ever
	// waiting for it. Fire-and-forget; mutually exclusive with
	// InheritTerminal.
	Detached bool
	// WaitForStart blocks Start until the spawn either succeeds or reports
	// a start failure. Defaults to true.
	WaitForStart bool
	// InheritTerminal hands the child the real console I/O instead of
	// capturing it. Output is not line-split and no sink is fed.
	InheritTerminal bool
	// Env is merged over the parent environment.
	Env map[string]string
	// Stdin is the file the child reads as standard input. Nil means the
	// parent's stdin. Pipeline wiring passes a pipe read end here.
	Stdin *os.File
	// PipeStdin creates a stdin pipe whose write end is retrievable via
	// StdinWriter, for upstream stages to feed. Overrides Stdin.
	PipeStdin bool
}

// DefaultStartOptions returns the options applied when Start is given nil.
func DefaultStartOptions() *StartOptions {
	return &StartOptions{
		WaitForStart: true,
	}
}

// RunOptions configures a full run-to-completion.
type RunOptions struct {
	StartOptions
	// NoThrow suppresses the RunError on nonzero exit; the exit code is
	// still recorded on the sink.
	NoThrow bool
}

// DefaultRunOptions returns the options applied when Run is given nil.
func DefaultRunOptions() *RunOptions {
	return &RunOptions{
		StartOptions: *DefaultStartOptions(),
	}
}
