// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/shellout/internal/progress"
)

// Runner manages the TUI application and progress event integration.
type Runner struct {
	program  *tea.Program
	reporter *Reporter
	mutex    sync.Mutex
}

// Reporter implements progress.Reporter and forwards events to the TUI.
type Reporter struct {
	program *tea.Program
	closed  bool
	mutex   sync.RWMutex
}

// NewReporter creates a progress reporter that sends events into the
// given tea program.
func NewReporter(program *tea.Program) *Reporter {
	return &Reporter{
		program: program,
	}
}

// Report implements progress.Reporter.
func (tr *Reporter) Report(event progress.Event) {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()

	if tr.closed || tr.program == nil {
		return
	}

	tr.program.Send(ProgressEventMsg{Event: event})
}

// Close implements progress.Reporter.
func (tr *Reporter) Close() {
	tr.mutex.Lock()
	defer tr.mutex.Unlock()
	tr.closed = true
}

// NewRunner creates a new TUI runner displaying the given title.
func NewRunner(title string) *Runner {
	program := tea.NewProgram(NewModel(title), tea.WithAltScreen())

	return &Runner{
		program:  program,
		reporter: NewReporter(program),
	}
}

// GetReporter returns the progress reporter for this TUI runner.
func (r *Runner) GetReporter() progress.Reporter {
	return r.reporter
}

// Run starts the TUI and executes fn with progress reporting. The TUI
// stays on screen after fn completes until the user exits; the returned
// error is fn's error, or the TUI's own failure if it could not start.
func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context, reporter progress.Reporter) error) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	runDone := make(chan error, 1)

	go func() {
		defer close(runDone)
		runDone <- fn(ctx, r.reporter)
	}()

	tuiDone := make(chan error, 1)

	go func() {
		_, err := r.program.Run()
		tuiDone <- err
	}()

	var runErr error

	select {
	case runErr = <-runDone:
		// Steps finished; keep the TUI up until the user exits.
		r.program.Send(ScriptCompletedMsg{Err: runErr})

		<-tuiDone

		r.reporter.Close()

	case tuiErr := <-tuiDone:
		// User quit (or the TUI failed) while steps were still running.
		r.reporter.Close()

		select {
		case runErr = <-runDone:
		case <-ctx.Done():
			runErr = ctx.Err()
		}

		if runErr == nil {
			runErr = tuiErr
		}

	case <-ctx.Done():
		r.reporter.Close()
		r.program.Quit()

		select {
		case runErr = <-runDone:
		default:
			runErr = ctx.Err()
		}

		<-tuiDone
	}

	return runErr
}
