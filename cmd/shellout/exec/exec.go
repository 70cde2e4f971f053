// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package exec implements the exec subcommand, which evaluates a single
// command line (optionally containing pipes) and streams or collects its
// output.
package exec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/TylerBrock/colorjson"
	"github.com/matt-FFFFFF/shellout"
	"github.com/matt-FFFFFF/shellout/internal/ctxlog"
	"github.com/matt-FFFFFF/shellout/internal/sink"
	"github.com/matt-FFFFFF/shellout/internal/spawn"
	"github.com/urfave/cli/v3"
)

const (
	cwdFlag     = "cwd"
	envFlag     = "env"
	jsonFlag    = "json"
	noThrowFlag = "no-throw"
	shellFlag   = "shell"
)

// ErrNoCommand is returned when no command line is given.
var ErrNoCommand = errors.New("no command line given")

// Cmd is the exec subcommand.
var Cmd = &cli.Command{
	Name:        "exec",
	Usage:       "shellout exec -- grep -c foo *.log | sort",
	Description: `Evaluate a single command line. The line may contain pipes; each stage is parsed with shell-style quoting and glob expansion, without invoking a shell. Use --shell to hand the whole line to the system shell instead.`,
	ArgsUsage:   "COMMAND [ARGS...]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     cwdFlag,
			Aliases:  []string{"C"},
			Usage:    "Working directory for the command",
			OnlyOnce: true,
		},
		&cli.StringSliceFlag{
			Name:    envFlag,
			Aliases: []string{"e"},
			Usage:   "Environment variable as KEY=VALUE, may be repeated",
		},
		&cli.BoolFlag{
			Name:        shellFlag,
			Aliases:     []string{"s"},
			Usage:       "Run the line through the system shell",
			Value:       false,
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.BoolFlag{
			Name:        noThrowFlag,
			Usage:       "Exit zero even when the command exits non-zero",
			Value:       false,
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.BoolFlag{
			Name:        jsonFlag,
			Aliases:     []string{"j"},
			Usage:       "Collect output and print a JSON result instead of streaming",
			Value:       false,
			DefaultText: "false",
			OnlyOnce:    true,
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	line := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(line) == "" {
		return cli.Exit(ErrNoCommand.Error(), 1)
	}

	env, err := parseEnv(cmd.StringSlice(envFlag))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	logger.Debug("evaluating", "line", line, "shell", cmd.Bool(shellFlag))

	if cmd.Bool(jsonFlag) {
		return runJSON(ctx, cmd, line, env)
	}

	var s sink.Sink = sink.NewWriter(cmd.Writer, cmd.ErrWriter)

	err = eval(ctx, cmd, line, env, s)
	if err != nil {
		var runErr *spawn.RunError
		if errors.As(err, &runErr) {
			return cli.Exit("", runErr.ExitCode)
		}

		return cli.Exit(err.Error(), 1)
	}

	return nil
}

func runJSON(ctx context.Context, cmd *cli.Command, line string, env map[string]string) error {
	collect := sink.NewCollect()

	evalErr := eval(ctx, cmd, line, env, collect)

	code, _ := collect.ExitCode()

	result := map[string]any{
		"command":   line,
		"exit_code": code,
		"stdout":    collect.Stdout(),
		"stderr":    collect.Stderr(),
	}

	if evalErr != nil {
		var runErr *spawn.RunError
		if !errors.As(evalErr, &runErr) {
			return cli.Exit(evalErr.Error(), 1)
		}

		result["exit_code"] = runErr.ExitCode
		code = runErr.ExitCode
	}

	f := colorjson.NewFormatter()
	f.Indent = 2

	out, err := f.Marshal(result)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	fmt.Fprintln(cmd.Writer, string(out))

	if code != 0 && !cmd.Bool(noThrowFlag) {
		return cli.Exit("", code)
	}

	return nil
}

func eval(ctx context.Context, cmd *cli.Command, line string, env map[string]string, s sink.Sink) error {
	if cmd.Bool(shellFlag) {
		c := shellout.Command(line).
			Shell().
			Dir(cmd.String(cwdFlag))

		for k, v := range env {
			c = c.Env(k, v)
		}

		if cmd.Bool(noThrowFlag) {
			c = c.NoThrow()
		}

		return c.RunSink(ctx, s)
	}

	return shellout.Eval(ctx, line, cmd.String(cwdFlag), env, s, cmd.Bool(noThrowFlag))
}

func parseEnv(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	env := make(map[string]string, len(pairs))

	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid environment variable %q, expected KEY=VALUE", kv)
		}

		env[k] = os.Expand(v, os.Getenv)
	}

	return env, nil
}
