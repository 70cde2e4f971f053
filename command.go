// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package shellout

import (
	"context"
	"maps"
	"strings"

	"github.com/matt-FFFFFF/shellout/internal/cmdparse"
	"github.com/matt-FFFFFF/shellout/internal/pipe"
	"github.com/matt-FFFFFF/shellout/internal/sink"
	"github.com/matt-FFFFFF/shellout/internal/spawn"
)

// Cmd is a builder for one external command. Construct with Command or
// CommandArgs, refine with the chainable setters, then execute with one of
// Run, Output, Lines, Start or Detach. A Cmd describes a single process;
// use Pipe to chain several.
type Cmd struct {
	line     string
	path     string
	args     []string
	explicit bool
	dir      string
	env      map[string]string
	shell    bool
	nothrow  bool
}

// Command creates a Cmd from a command-line string. The line is tokenized
// with quote awareness and unquoted glob patterns are expanded when the
// command runs.
func Command(line string) *Cmd {
	return &Cmd{line: line}
}

// CommandArgs creates a Cmd from an explicit executable and argument list.
// No tokenization happens; glob expansion still applies per argument.
func CommandArgs(path string, args ...string) *Cmd {
	return &Cmd{
		path:     path,
		args:     args,
		explicit: true,
	}
}

// Dir sets the working directory for the command.
func (c *Cmd) Dir(dir string) *Cmd {
	c.dir = dir
	return c
}

// Env adds an environment variable, merged over the parent environment.
func (c *Cmd) Env(key, value string) *Cmd {
	if c.env == nil {
		c.env = make(map[string]string)
	}

	c.env[key] = value

	return c
}

// Shell runs the command through the platform shell instead of executing
// it directly. Only valid for Cmds built from a command-line string.
func (c *Cmd) Shell() *Cmd {
	c.shell = true
	return c
}

// NoThrow suppresses the RunError on nonzero exit; the exit code remains
// retrievable from the sink.
func (c *Cmd) NoThrow() *Cmd {
	c.nothrow = true
	return c
}

// parsed resolves the builder into a ParsedCommand.
func (c *Cmd) parsed() (*cmdparse.ParsedCommand, error) {
	if c.shell && !c.explicit {
		return spawn.ShellCommand(c.line, c.dir), nil
	}

	if c.explicit {
		return cmdparse.ParseArgs(c.path, c.args, c.dir) //nolint:wrapcheck
	}

	return cmdparse.Parse(c.line, c.dir) //nolint:wrapcheck
}

// process builds the unstarted process for this Cmd.
func (c *Cmd) process() (*spawn.Process, error) {
	parsed, err := c.parsed()
	if err != nil {
		return nil, err
	}

	return spawn.New(parsed), nil
}

func (c *Cmd) startOptions() *spawn.StartOptions {
	opts := spawn.DefaultStartOptions()
	opts.Env = maps.Clone(c.env)

	return opts
}

// RunSink runs the command to completion, feeding every output line to s.
func (c *Cmd) RunSink(ctx context.Context, s sink.Sink) error {
	p, err := c.process()
	if err != nil {
		return err
	}

	opts := &spawn.RunOptions{
		StartOptions: *c.startOptions(),
		NoThrow:      c.nothrow,
	}

	return p.Run(ctx, s, opts) //nolint:wrapcheck
}

// Run runs the command and returns the collected output.
func (c *Cmd) Run(ctx context.Context) (*sink.Collect, error) {
	s := sink.NewCollect()

	if err := c.RunSink(ctx, s); err != nil {
		return s, err
	}

	return s, nil
}

// Output runs the command and returns its stdout as a single string.
func (c *Cmd) Output(ctx context.Context) (string, error) {
	lines, err := c.Lines(ctx)
	if err != nil {
		return "", err
	}

	return strings.Join(lines, "\n"), nil
}

// Lines runs the command and returns its stdout line by line.
func (c *Cmd) Lines(ctx context.Context) ([]string, error) {
	s, err := c.Run(ctx)
	if err != nil {
		return nil, err
	}

	return s.Stdout(), nil
}

// ExitCode runs the command, discarding output, and returns the exit code.
// A nonzero exit is not an error here.
func (c *Cmd) ExitCode(ctx context.Context) (int, error) {
	s := sink.NewDiscard()

	p, err := c.process()
	if err != nil {
		return 0, err
	}

	opts := &spawn.RunOptions{
		StartOptions: *c.startOptions(),
		NoThrow:      true,
	}

	if err := p.Run(ctx, s, opts); err != nil {
		return 0, err
	}

	code, _ := s.ExitCode()

	return code, nil
}

// Start spawns the process without draining it and returns the handle.
func (c *Cmd) Start(ctx context.Context) (*spawn.Process, error) {
	p, err := c.process()
	if err != nil {
		return nil, err
	}

	if err := p.Start(ctx, c.startOptions()); err != nil {
		return nil, err //nolint:wrapcheck
	}

	return p, nil
}

// Detach spawns the process fire-and-forget: no I/O is attached and the
// process is never waited for.
func (c *Cmd) Detach(ctx context.Context) error {
	p, err := c.process()
	if err != nil {
		return err
	}

	opts := c.startOptions()
	opts.Detached = true

	return p.Start(ctx, opts) //nolint:wrapcheck
}

// InheritTerminal runs the command with the real console I/O handed to the
// child. Output is not captured; only the exit status is observed.
func (c *Cmd) InheritTerminal(ctx context.Context) error {
	p, err := c.process()
	if err != nil {
		return err
	}

	opts := c.startOptions()
	opts.InheritTerminal = true

	s := sink.NewDiscard()

	return p.Run(ctx, s, &spawn.RunOptions{ //nolint:wrapcheck
		StartOptions: *opts,
		NoThrow:      c.nothrow,
	})
}

// Pipe chains this command's combined output into the next command's
// input, as in shell `|`. Further Pipe calls keep extending the chain.
func (c *Cmd) Pipe(line string) *Pipe {
	return &Pipe{cmds: []*Cmd{c, Command(line)}}
}

// Pipe is a builder for a multi-stage pipeline. The final stage's nothrow
// setting governs whether a nonzero terminal exit raises.
type Pipe struct {
	cmds []*Cmd
}

// Pipe appends another stage to the pipeline.
func (p *Pipe) Pipe(line string) *Pipe {
	return &Pipe{cmds: append(p.cmds, Command(line))}
}

// NoThrow suppresses the RunError for the terminal stage.
func (p *Pipe) NoThrow() *Pipe {
	p.cmds[len(p.cmds)-1].nothrow = true
	return p
}

// Dir sets the working directory for every stage.
func (p *Pipe) Dir(dir string) *Pipe {
	for _, c := range p.cmds {
		c.dir = dir
	}

	return p
}

// RunSink starts every stage concurrently, wires them together, and drains
// the terminal stage into s. Only the terminal stage's exit status is
// surfaced.
func (p *Pipe) RunSink(ctx context.Context, s sink.Sink) error {
	procs := make([]*spawn.Process, 0, len(p.cmds))

	for _, c := range p.cmds {
		proc, err := c.process()
		if err != nil {
			return err
		}

		procs = append(procs, proc)
	}

	pl, err := pipe.Chain(ctx, p.cmds[0].startOptions(), procs...)
	if err != nil {
		return err //nolint:wrapcheck
	}

	last := p.cmds[len(p.cmds)-1]

	return pl.ForEach(ctx, s, last.nothrow) //nolint:wrapcheck
}

// Run runs the pipeline and returns the terminal stage's collected output.
func (p *Pipe) Run(ctx context.Context) (*sink.Collect, error) {
	s := sink.NewCollect()

	if err := p.RunSink(ctx, s); err != nil {
		return s, err
	}

	return s, nil
}

// Lines runs the pipeline and returns the terminal stage's stdout lines.
func (p *Pipe) Lines(ctx context.Context) ([]string, error) {
	s, err := p.Run(ctx)
	if err != nil {
		return nil, err
	}

	return s.Stdout(), nil
}

// Eval runs a command line that may contain unquoted pipes, feeding the
// terminal output to s. It is the programmatic equivalent of typing the
// line at a shell prompt, minus all shell grammar beyond `|`. env is
// merged over the parent environment for every stage; nil is fine.
func Eval(ctx context.Context, line, dir string, env map[string]string, s sink.Sink, nothrow bool) error {
	stages, err := cmdparse.SplitPipeline(line)
	if err != nil {
		return err //nolint:wrapcheck
	}

	cmds := make([]*Cmd, 0, len(stages))

	for _, stage := range stages {
		c := Command(stage).Dir(dir)
		for k, v := range env {
			c.Env(k, v)
		}

		cmds = append(cmds, c)
	}

	if len(cmds) == 1 {
		if nothrow {
			cmds[0].NoThrow()
		}

		return cmds[0].RunSink(ctx, s)
	}

	p := &Pipe{cmds: cmds}
	if nothrow {
		p.NoThrow()
	}

	return p.RunSink(ctx, s)
}
