// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package script

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/shellout"
	"github.com/matt-FFFFFF/shellout/internal/ctxlog"
	"github.com/matt-FFFFFF/shellout/internal/progress"
	"github.com/matt-FFFFFF/shellout/internal/sink"
	"github.com/matt-FFFFFF/shellout/internal/spawn"
)

// ErrScriptFailed is returned when one or more steps exit non-zero.
var ErrScriptFailed = errors.New("script failed")

// Runner executes a script's steps in order, reporting per-step progress.
type Runner struct {
	script   *Script
	reporter progress.Reporter
	out      sink.Sink
}

// NewRunner creates a runner for the given script. A nil reporter disables
// progress reporting and a nil sink discards all output.
func NewRunner(s *Script, reporter progress.Reporter, out sink.Sink) *Runner {
	if reporter == nil {
		reporter = &progress.NullReporter{}
	}

	if out == nil {
		out = sink.NewDiscard()
	}

	return &Runner{
		script:   s,
		reporter: reporter,
		out:      out,
	}
}

// Run executes every step. On a step failure the remaining steps are
// skipped unless the script sets keep_going, in which case all failures
// are aggregated into the returned error.
func (r *Runner) Run(ctx context.Context) error {
	logger := ctxlog.Logger(ctx)

	var errs *multierror.Error

	failed := false

	for _, step := range r.script.Steps {
		if err := ctx.Err(); err != nil {
			return errors.Join(ErrScriptFailed, err)
		}

		if failed && !r.script.KeepGoing {
			r.report(progress.Event{
				Step:      step.Name,
				Type:      progress.EventSkipped,
				Timestamp: time.Now(),
			})

			continue
		}

		logger.Debug("running step", "step", step.Name, "run", step.Run)

		if err := r.runStep(ctx, step); err != nil {
			failed = true

			errs = multierror.Append(errs, fmt.Errorf("step %q: %w", step.Name, err))
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return errors.Join(ErrScriptFailed, err)
	}

	return nil
}

func (r *Runner) runStep(ctx context.Context, step Step) error {
	r.report(progress.Event{
		Step:      step.Name,
		Type:      progress.EventStarted,
		Timestamp: time.Now(),
	})

	// Each step gets its own sink so closing it does not close the
	// script-level sink shared across steps.
	stepSink := sink.NewCallback(
		func(line string) {
			r.out.AddToStdout(line)
			r.report(progress.Event{
				Step:      step.Name,
				Type:      progress.EventOutput,
				Line:      line,
				Timestamp: time.Now(),
			})
		},
		func(line string) {
			r.out.AddToStderr(line)
			r.report(progress.Event{
				Step:      step.Name,
				Type:      progress.EventOutput,
				Line:      line,
				IsStderr:  true,
				Timestamp: time.Now(),
			})
		},
	)

	var err error

	switch {
	case step.Detached:
		cmd := shellout.Command(step.Run).Dir(step.Dir)

		if step.Shell {
			cmd = cmd.Shell()
		}

		for k, v := range step.Env {
			cmd = cmd.Env(k, v)
		}

		err = cmd.Detach(ctx)
	case step.Shell:
		cmd := shellout.Command(step.Run).
			Shell().
			Dir(step.Dir)

		for k, v := range step.Env {
			cmd = cmd.Env(k, v)
		}

		if step.NoThrow {
			cmd = cmd.NoThrow()
		}

		err = cmd.RunSink(ctx, stepSink)
	default:
		err = shellout.Eval(ctx, step.Run, step.Dir, step.Env, stepSink, step.NoThrow)
	}

	code, ok := stepSink.ExitCode()

	if err != nil {
		var runErr *spawn.RunError
		if errors.As(err, &runErr) {
			code = runErr.ExitCode
		}

		r.report(progress.Event{
			Step:      step.Name,
			Type:      progress.EventFailed,
			ExitCode:  code,
			Err:       err,
			Timestamp: time.Now(),
		})

		return err
	}

	if !ok {
		code = 0
	}

	r.report(progress.Event{
		Step:      step.Name,
		Type:      progress.EventCompleted,
		ExitCode:  code,
		Timestamp: time.Now(),
	})

	return nil
}

func (r *Runner) report(ev progress.Event) {
	r.reporter.Report(ev)
}
