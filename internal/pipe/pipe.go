// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package pipe

import (
	"context"
	"errors"
	"io"
	"os"
	"slices"
	"sync"
	"syscall"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/shellout/internal/ctxlog"
	"github.com/matt-FFFFFF/shellout/internal/sink"
	"github.com/matt-FFFFFF/shellout/internal/spawn"
)

// ErrTooFewStages is returned when a pipeline is constructed with fewer
// than two processes.
var ErrTooFewStages = errors.New("pipeline needs at least two stages")

// Pipeline is an ordered chain of started processes wired stdout+stderr →
// stdin. Construct with New from two started processes and extend with
// Append; each Append returns a new Pipeline so chaining can continue.
type Pipeline struct {
	stages []*spawn.Process
	wiring *wiring
}

// wiring tracks the copy goroutines shared by every Pipeline value in a
// chain and aggregates their non-broken-pipe errors.
type wiring struct {
	wg   sync.WaitGroup
	mu   sync.Mutex
	errs error
}

func (w *wiring) record(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.errs = multierror.Append(w.errs, err)
}

func (w *wiring) recorded() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.errs
}

// New wires two already-started processes into a pipeline. The left
// process must have been started with captured output, the right with a
// stdin pipe (PipeStdin).
func New(ctx context.Context, left, right *spawn.Process) *Pipeline {
	p := &Pipeline{
		stages: []*spawn.Process{left, right},
		wiring: &wiring{},
	}
	p.link(ctx, left, right)

	return p
}

// Append starts next immediately with a stdin pipe, wires the current
// terminal stage into it, and returns the extended pipeline. Stages run
// concurrently; Append never waits for earlier stages.
func (p *Pipeline) Append(ctx context.Context, next *spawn.Process) (*Pipeline, error) {
	if err := next.Start(ctx, &spawn.StartOptions{
		WaitForStart: true,
		PipeStdin:    true,
	}); err != nil {
		return nil, err //nolint:wrapcheck
	}

	old := p.Terminal()
	np := &Pipeline{
		stages: append(slices.Clone(p.stages), next),
		wiring: p.wiring,
	}
	np.link(ctx, old, next)

	return np, nil
}

// Chain starts every process and wires them into one pipeline, first to
// last. opts applies to the first stage only; later stages are started
// with a stdin pipe fed by their predecessor.
func Chain(ctx context.Context, opts *spawn.StartOptions, procs ...*spawn.Process) (*Pipeline, error) {
	if len(procs) < 2 {
		return nil, ErrTooFewStages
	}

	if err := procs[0].Start(ctx, opts); err != nil {
		return nil, err //nolint:wrapcheck
	}

	if err := procs[1].Start(ctx, &spawn.StartOptions{
		WaitForStart: true,
		PipeStdin:    true,
	}); err != nil {
		abandon(procs[:1])
		return nil, err //nolint:wrapcheck
	}

	p := New(ctx, procs[0], procs[1])

	for _, next := range procs[2:] {
		np, err := p.Append(ctx, next)
		if err != nil {
			abandon(p.stages)
			return nil, err
		}

		p = np
	}

	return p, nil
}

// abandon closes the parent-side pipe ends of already-started stages after
// a later stage fails to start. The orphans see EOF on stdin and EPIPE on
// their next write, so they can exit instead of blocking on a full pipe
// nobody reads.
func abandon(procs []*spawn.Process) {
	for _, pr := range procs {
		if f := pr.Stdout(); f != nil {
			f.Close() //nolint:errcheck,gosec
		}

		if f := pr.Stderr(); f != nil {
			f.Close() //nolint:errcheck,gosec
		}

		_ = pr.CloseStdin()
	}
}

// Terminal returns the last stage, whose output and exit code are the ones
// surfaced to the caller.
func (p *Pipeline) Terminal() *spawn.Process {
	return p.stages[len(p.stages)-1]
}

// Stages returns the number of stages in the pipeline.
func (p *Pipeline) Stages() int {
	return len(p.stages)
}

// ForEach drains the terminal stage to completion, forwarding its
// line-split output to the sink. Earlier stages' exit codes are not
// surfaced; only the terminal stage's failure (or RunError) is returned.
// Copy errors other than broken pipes are logged, never raised.
func (p *Pipeline) ForEach(ctx context.Context, s sink.Sink, nothrow bool) error {
	err := p.Terminal().ProcessUntilExit(ctx, s, nothrow)

	p.wiring.wg.Wait()

	if cerr := p.wiring.recorded(); cerr != nil {
		ctxlog.Debug(ctx, "pipeline copy errors", "error", cerr)
	}

	return err //nolint:wrapcheck
}

// link starts the copy goroutines feeding left's combined output into
// right's stdin and closes right's stdin once both left streams hit EOF.
func (p *Pipeline) link(ctx context.Context, left, right *spawn.Process) {
	stdin := right.StdinWriter()

	var streams sync.WaitGroup

	forward := func(src *os.File) {
		defer streams.Done()

		if src == nil {
			return
		}

		defer src.Close() //nolint:errcheck

		if _, err := io.Copy(stdin, src); err != nil {
			if isBrokenPipe(err) {
				// Downstream exited before upstream finished writing.
				// Expected shell behavior, not a failure.
				ctxlog.Debug(ctx, "pipeline write to closed stage discarded", "error", err)
				return
			}

			p.wiring.record(err)
		}
	}

	streams.Add(2)

	go forward(left.Stdout())
	go forward(left.Stderr())

	p.wiring.wg.Add(1)

	go func() {
		defer p.wiring.wg.Done()

		// EOF for the right stage only once both left streams are exhausted.
		streams.Wait()

		if err := right.CloseStdin(); err != nil {
			ctxlog.Debug(ctx, "failed to close pipeline stdin", "error", err)
		}
	}()
}

func isBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe)
}
