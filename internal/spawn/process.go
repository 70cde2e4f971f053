// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/matt-FFFFFF/shellout/internal/await"
	"github.com/matt-FFFFFF/shellout/internal/cmdparse"
	"github.com/matt-FFFFFF/shellout/internal/ctxlog"
	"github.com/matt-FFFFFF/shellout/internal/sink"
)

// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
var ErrFailedToCreatePipe = errors.New("failed to create pipe")

// ErrAlreadyDrained is returned when a process is drained more than once.
var ErrAlreadyDrained = errors.New("process already drained")

// State is the lifecycle state of a Process.
type State int32

// Process lifecycle states.
const (
	StateUnstarted State = iota
	StateStarting
	StateRunning
	StateCompleted
	StateFailed
	StateStartFailed
)

// String implements the Stringer interface for State.
func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateStartFailed:
		return "start failed"
	default:
		return "unknown"
	}
}

// Process owns one spawned OS process. Create with New, start at most once,
// then drain to completion with Run or ProcessUntilExit.
type Process struct {
	parsed  *cmdparse.ParsedCommand
	opts    *StartOptions
	started *await.Completion[*os.Process]
	exited  *await.Completion[int]
	state   atomic.Int32
	drained atomic.Bool

	stdoutR   *os.File
	stderrR   *os.File
	stdinW    *os.File
	closeOnce sync.Once
}

// New creates an unstarted Process for the parsed command.
func New(parsed *cmdparse.ParsedCommand) *Process {
	return &Process{
		parsed:  parsed,
		started: await.New[*os.Process](),
		exited:  await.New[int](),
	}
}

// State returns the current lifecycle state.
func (p *Process) State() State {
	return State(p.state.Load())
}

// ExitCode returns the recorded exit code and whether the process has
// exited.
func (p *Process) ExitCode() (int, bool) {
	if !p.exited.Resolved() {
		return 0, false
	}

	code, err := p.exited.Wait()
	if err != nil {
		return 0, false
	}

	return code, true
}

// Stdout returns the read end of the child's captured stdout stream.
// Nil until the process is started, and for detached or terminal-inheriting
// processes.
func (p *Process) Stdout() *os.File {
	return p.stdoutR
}

// Stderr returns the read end of the child's captured stderr stream.
func (p *Process) Stderr() *os.File {
	return p.stderrR
}

// StdinWriter returns the write end of the child's stdin pipe. Nil unless
// the process was started with PipeStdin.
func (p *Process) StdinWriter() *os.File {
	return p.stdinW
}

// CloseStdin closes the child's stdin pipe write end, signalling EOF.
func (p *Process) CloseStdin() error {
	if p.stdinW == nil {
		return nil
	}

	return p.stdinW.Close() //nolint:wrapcheck
}

// Start spawns the OS process. With WaitForStart set (the default) it
// blocks until the spawn either succeeds or reports a start failure, which
// is returned as a *StartError. Start may be called at most once.
func (p *Process) Start(ctx context.Context, opts *StartOptions) error {
	if opts == nil {
		opts = DefaultStartOptions()
	}

	if opts.Detached && opts.InheritTerminal {
		return fmt.Errorf("%w: detached and inherit-terminal are mutually exclusive", ErrInvalidOptions)
	}

	if !p.state.CompareAndSwap(int32(StateUnstarted), int32(StateStarting)) {
		return ErrAlreadyStarted
	}

	p.opts = opts

	parsed := p.parsed
	if opts.RunInShell {
		parsed = wrapInShell(parsed)
	}

	logger := ctxlog.Logger(ctx).With("path", parsed.Path)
	logger.Debug("starting process", "args", parsed.Args, "cwd", parsed.Dir)

	path, err := resolvePath(parsed.Path)
	if err != nil {
		p.state.Store(int32(StateStartFailed))
		serr := newStartError(parsed.Path, parsed.Args, err)
		p.started.Reject(serr)
		p.exited.Reject(serr)

		return serr
	}

	files, closeAfterSpawn, err := p.setupFiles(opts)
	if err != nil {
		p.state.Store(int32(StateStartFailed))
		p.started.Reject(err)
		p.exited.Reject(err)

		return err
	}

	env := mergedEnv(opts.Env)
	argv := slices.Concat([]string{filepath.Base(path)}, parsed.Args)

	go p.spawn(logger, path, argv, parsed, env, files, closeAfterSpawn)

	if opts.WaitForStart {
		if _, err := p.started.Wait(); err != nil {
			return err //nolint:wrapcheck
		}
	}

	return nil
}

// spawn performs the asynchronous part of Start and, for attached
// processes, waits for termination and resolves the exit completion.
func (p *Process) spawn(
	logger *slog.Logger,
	path string,
	argv []string,
	parsed *cmdparse.ParsedCommand,
	env []string,
	files, closeAfterSpawn []*os.File,
) {
	ps, err := os.StartProcess(path, argv, &os.ProcAttr{
		Dir:   parsed.Dir,
		Env:   env,
		Files: files,
	})

	// The child now owns its copies; the parent's must go so the read
	// ends see EOF when the child exits.
	for _, f := range closeAfterSpawn {
		f.Close() //nolint:errcheck,gosec
	}

	if err != nil {
		p.state.Store(int32(StateStartFailed))
		p.closeReaders()

		serr := newStartError(p.parsed.Path, p.parsed.Args, err)
		p.started.Reject(serr)
		p.exited.Reject(serr)

		return
	}

	logger.Debug("process started", "pid", ps.Pid)
	p.state.Store(int32(StateRunning))

	if p.opts.Detached {
		ps.Release() //nolint:errcheck,gosec
		p.started.Resolve(ps)

		return
	}

	p.started.Resolve(ps)

	state, werr := ps.Wait()
	if werr != nil {
		p.state.Store(int32(StateFailed))
		p.exited.Reject(werr)

		return
	}

	code := state.ExitCode()
	logger.Debug("process finished", "pid", ps.Pid, "exitCode", code)

	if code == 0 {
		p.state.Store(int32(StateCompleted))
	} else {
		p.state.Store(int32(StateFailed))
	}

	p.exited.Resolve(code)
}

// Run starts the process and drains it to completion, forwarding every
// decoded output line to the sink. On nonzero exit the sink is closed and a
// *RunError returned, unless NoThrow is set in which case the exit code is
// recorded on the sink and no error raised. A detached run returns
// immediately after the spawn and never feeds the sink.
func (p *Process) Run(ctx context.Context, s sink.Sink, opts *RunOptions) error {
	if opts == nil {
		opts = DefaultRunOptions()
	}

	if err := p.Start(ctx, &opts.StartOptions); err != nil {
		return err
	}

	if opts.Detached {
		return nil
	}

	return p.ProcessUntilExit(ctx, s, opts.NoThrow)
}

// ProcessUntilExit is the blocking drain used by Run: it wires both output
// streams to the sink, waits for process termination, records the exit code
// on the sink before closing it, and maps a nonzero exit to a *RunError
// unless nothrow is set.
func (p *Process) ProcessUntilExit(ctx context.Context, s sink.Sink, nothrow bool) error {
	if p.State() == StateUnstarted {
		return ErrNotStarted
	}

	if p.opts.Detached {
		return fmt.Errorf("%w: cannot drain a detached process", ErrInvalidOptions)
	}

	if !p.drained.CompareAndSwap(false, true) {
		return ErrAlreadyDrained
	}

	// A start failure aborts with no partial sink output.
	if _, err := p.started.Wait(); err != nil {
		p.closeReaders()
		return err //nolint:wrapcheck
	}

	var wg sync.WaitGroup

	if p.stdoutR != nil {
		wg.Add(2)

		go func() {
			defer wg.Done()

			if err := feedLines(p.stdoutR, s.AddToStdout); err != nil {
				ctxlog.Debug(ctx, "stdout feed ended with error", "error", err)
			}
		}()

		go func() {
			defer wg.Done()

			if err := feedLines(p.stderrR, s.AddToStderr); err != nil {
				ctxlog.Debug(ctx, "stderr feed ended with error", "error", err)
			}
		}()
	}

	code, err := p.exited.Wait()

	wg.Wait()
	p.closeReaders()

	if err != nil {
		s.Close()
		return err //nolint:wrapcheck
	}

	s.SetExitCode(code)
	s.Close()

	if code != 0 && !nothrow {
		return &RunError{
			Path:     p.parsed.Path,
			Args:     p.parsed.Args,
			ExitCode: code,
		}
	}

	return nil
}

func (p *Process) closeReaders() {
	p.closeOnce.Do(func() {
		if p.stdoutR != nil {
			p.stdoutR.Close() //nolint:errcheck,gosec
		}

		if p.stderrR != nil {
			p.stderrR.Close() //nolint:errcheck,gosec
		}
	})
}

// setupFiles builds the file descriptor table handed to the child and the
// set of parent-side copies to close once the child has been spawned.
func (p *Process) setupFiles(opts *StartOptions) (files, closeAfterSpawn []*os.File, err error) {
	switch {
	case opts.Detached:
		return nil, nil, nil
	case opts.InheritTerminal:
		return []*os.File{os.Stdin, os.Stdout, os.Stderr}, nil, nil
	}

	rOut, wOut, err := os.Pipe()
	if err != nil {
		return nil, nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	rErr, wErr, err := os.Pipe()
	if err != nil {
		rOut.Close() //nolint:errcheck,gosec
		wOut.Close() //nolint:errcheck,gosec

		return nil, nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	stdin := opts.Stdin
	closeAfterSpawn = []*os.File{wOut, wErr}

	if opts.PipeStdin {
		rIn, wIn, perr := os.Pipe()
		if perr != nil {
			rOut.Close() //nolint:errcheck,gosec
			wOut.Close() //nolint:errcheck,gosec
			rErr.Close() //nolint:errcheck,gosec
			wErr.Close() //nolint:errcheck,gosec

			return nil, nil, errors.Join(ErrFailedToCreatePipe, perr)
		}

		stdin = rIn
		p.stdinW = wIn
		closeAfterSpawn = append(closeAfterSpawn, rIn)
	}

	if stdin == nil {
		stdin = os.Stdin
	}

	p.stdoutR = rOut
	p.stderrR = rErr

	return []*os.File{stdin, wOut, wErr}, closeAfterSpawn, nil
}

// resolvePath resolves a bare executable name against the search path.
// Paths containing a separator are used as-is.
func resolvePath(path string) (string, error) {
	if strings.ContainsAny(path, `/\`) {
		return path, nil
	}

	resolved, err := exec.LookPath(path)
	if err != nil {
		return "", err //nolint:wrapcheck
	}

	return resolved, nil
}

// mergedEnv overlays extra on the parent environment. Existing entries are
// replaced in place, never duplicated: which of two KEY= entries a child
// resolves is implementation-defined, so there must only ever be one.
func mergedEnv(extra map[string]string) []string {
	env := os.Environ()
	if len(extra) == 0 {
		return env
	}

	merged := make([]string, 0, len(env)+len(extra))
	replaced := make(map[string]bool, len(extra))

	for _, kv := range env {
		k, _, ok := strings.Cut(kv, "=")
		if v, found := extra[k]; ok && found {
			merged = append(merged, k+"="+v)
			replaced[k] = true

			continue
		}

		merged = append(merged, kv)
	}

	for k, v := range extra {
		if !replaced[k] {
			merged = append(merged, k+"="+v)
		}
	}

	return merged
}
