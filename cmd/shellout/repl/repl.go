// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package repl implements the repl subcommand, an interactive prompt that
// evaluates one command line at a time with the same parsing and piping
// rules as the exec subcommand.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matt-FFFFFF/shellout"
	"github.com/matt-FFFFFF/shellout/internal/color"
	"github.com/matt-FFFFFF/shellout/internal/ctxlog"
	"github.com/matt-FFFFFF/shellout/internal/sink"
	"github.com/matt-FFFFFF/shellout/internal/spawn"
	"github.com/peterh/liner"
	"github.com/urfave/cli/v3"
)

const (
	cwdFlag         = "cwd"
	shellFlag       = "shell"
	historyFileName = ".shellout_history"
)

// Cmd is the repl subcommand.
var Cmd = &cli.Command{
	Name:        "repl",
	Usage:       "shellout repl",
	Description: `Start an interactive prompt. Each line is evaluated like the exec subcommand, with pipes, quoting and glob expansion. Type exit, quit or press Ctrl+C to leave.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     cwdFlag,
			Aliases:  []string{"C"},
			Usage:    "Working directory for evaluated commands",
			OnlyOnce: true,
		},
		&cli.BoolFlag{
			Name:        shellFlag,
			Aliases:     []string{"s"},
			Usage:       "Run each line through the system shell",
			Value:       false,
			DefaultText: "false",
			OnlyOnce:    true,
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	line := liner.NewLiner()
	defer func() {
		_ = line.Close()
	}()

	line.SetCtrlCAborts(true)

	historyPath := loadHistory(line)

	fmt.Fprintln(cmd.Writer, "Type `quit` or `exit` or press Ctrl+C to leave.")

	for {
		input, err := line.Prompt("shellout> ")

		switch {
		case err == nil:
			// Fall through to evaluation below.
		case errors.Is(err, liner.ErrPromptAborted), errors.Is(err, io.EOF):
			saveHistory(line, historyPath)
			return nil
		default:
			logger.Error("error reading line", "error", err)
			saveHistory(line, historyPath)

			return cli.Exit("", 1)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if input == "quit" || input == "exit" {
			saveHistory(line, historyPath)
			return nil
		}

		line.AppendHistory(input)

		evalLine(ctx, cmd, input)
	}
}

// evalLine runs a single line, printing the error or the exit code when
// non-zero. A failing line never exits the REPL.
func evalLine(ctx context.Context, cmd *cli.Command, input string) {
	out := sink.NewWriter(cmd.Writer, cmd.ErrWriter)

	var err error

	if cmd.Bool(shellFlag) {
		err = shellout.Command(input).
			Shell().
			Dir(cmd.String(cwdFlag)).
			RunSink(ctx, out)
	} else {
		err = shellout.Eval(ctx, input, cmd.String(cwdFlag), nil, out, false)
	}

	if err == nil {
		return
	}

	var runErr *spawn.RunError
	if errors.As(err, &runErr) {
		fmt.Fprintln(cmd.ErrWriter, color.ErrorText(fmt.Sprintf("exit code %d", runErr.ExitCode)))
		return
	}

	fmt.Fprintln(cmd.ErrWriter, color.ErrorText(err.Error()))
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, historyFileName)
}

func loadHistory(line *liner.State) string {
	path := historyFilePath()
	if path == "" {
		return ""
	}

	if f, err := os.Open(path); err == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}

	return path
}

func saveHistory(line *liner.State, path string) {
	if path == "" {
		return
	}

	f, err := os.Create(path)
	if err != nil {
		return
	}

	defer f.Close() //nolint:errcheck

	_, _ = line.WriteHistory(f)
}
