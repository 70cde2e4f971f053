// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the shellout command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/shellout"
	"github.com/matt-FFFFFF/shellout/cmd/shellout/exec"
	"github.com/matt-FFFFFF/shellout/cmd/shellout/repl"
	"github.com/matt-FFFFFF/shellout/cmd/shellout/run"
	"github.com/matt-FFFFFF/shellout/internal/ctxlog"
	"github.com/matt-FFFFFF/shellout/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		exec.Cmd,
		run.Cmd,
		repl.Cmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "shellout",
	Description: `Shellout runs external commands with shell-style parsing but without a
shell. Command lines are split with quoting rules, globs are expanded and
pipelines are wired directly between processes. Output is delivered line by
line to pluggable sinks, and scripts of named steps can be run from YAML or
HCL files with real-time progress.`,
	Usage:     "shellout exec -- grep -c foo *.log",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel()

	sigCh := signalbroker.New(ctx)

	go signalbroker.Watch(ctx, sigCh, cancel)

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", shellout.Version, shellout.Commit)

	err := rootCmd.Run(ctx, os.Args)

	if ctx.Err() != nil {
		ctxlog.Logger(ctx).Error("command terminated due to cancellation", "error", ctx.Err())
		os.Exit(1)
	}

	if err != nil {
		os.Exit(1)
	}
}
