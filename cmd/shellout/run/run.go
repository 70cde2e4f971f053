// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run implements the run subcommand, which executes a script of
// named steps loaded from a YAML or HCL file. Script URLs use Hashicorp's
// go-getter syntax, so scripts can be fetched from git repositories, HTTP
// servers and object stores as well as the local filesystem.
package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter/v2"
	"github.com/matt-FFFFFF/shellout/internal/ctxlog"
	"github.com/matt-FFFFFF/shellout/internal/progress"
	"github.com/matt-FFFFFF/shellout/internal/script"
	"github.com/matt-FFFFFF/shellout/internal/sink"
	"github.com/matt-FFFFFF/shellout/internal/tui"
	"github.com/urfave/cli/v3"
)

const (
	fileFlag      = "file"
	keepGoingFlag = "keep-going"
	quietFlag     = "quiet"
	tuiFlag       = "tui"
)

// ErrGetScriptFile is returned when the script file cannot be fetched.
var ErrGetScriptFile = errors.New("failed to get script file")

// Cmd is the run subcommand.
var Cmd = &cli.Command{
	Name:  "run",
	Usage: "shellout run -f build.yaml",
	Description: `Run a script of named steps defined in a YAML or HCL file.
Each step is a command line that may contain pipes. Steps run sequentially
and the first failure skips the remaining steps unless keep_going is set.

Script file URLs use Hashicorp's go-getter syntax, which allows fetching
files from various sources. See https://github.com/hashicorp/go-getter.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     fileFlag,
			Aliases:  []string{"f"},
			Usage:    "URL of the script file to run (go-getter syntax)",
			OnlyOnce: true,
		},
		&cli.BoolFlag{
			Name:        keepGoingFlag,
			Aliases:     []string{"k"},
			Usage:       "Continue running steps after a failure",
			Value:       false,
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.BoolFlag{
			Name:        quietFlag,
			Aliases:     []string{"q"},
			Usage:       "Suppress step output, only report failures",
			Value:       false,
			DefaultText: "false",
			OnlyOnce:    true,
		},
		&cli.BoolFlag{
			Name:        tuiFlag,
			Aliases:     []string{"t", "interactive"},
			Usage:       "Run with an interactive terminal UI showing real-time progress",
			Value:       false,
			DefaultText: "false",
			OnlyOnce:    true,
		},
	},
	Action: actionFunc,
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	url := cmd.String(fileFlag)
	if url == "" {
		logger.Error("please specify a script file using the --file or -f flag")
		return cli.Exit("", 1)
	}

	data, err := getURL(ctx, url)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	s, err := parseByExtension(url, data)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if cmd.Bool(keepGoingFlag) {
		s.KeepGoing = true
	}

	if cmd.Bool(tuiFlag) {
		return runTUI(ctx, cmd, s)
	}

	var out sink.Sink
	if cmd.Bool(quietFlag) {
		out = sink.NewDiscard()
	} else {
		out = sink.NewWriter(cmd.Writer, cmd.ErrWriter)
	}

	runner := script.NewRunner(s, nil, out)

	if err := runner.Run(ctx); err != nil {
		logger.Error("script failed", "error", err)
		return cli.Exit("", 1)
	}

	return nil
}

func runTUI(ctx context.Context, cmd *cli.Command, s *script.Script) error {
	title := s.Name
	if title == "" {
		title = "shellout"
	}

	// Buffer log output so it does not corrupt the TUI display.
	buf := new(bytes.Buffer)
	tuiCtx := ctxlog.NewQuiet(ctx, buf)

	runner := tui.NewRunner(title)

	err := runner.Run(tuiCtx, func(ctx context.Context, reporter progress.Reporter) error {
		return script.NewRunner(s, reporter, sink.NewDiscard()).Run(ctx)
	})

	buf.WriteTo(cmd.Writer) //nolint:errcheck

	if err != nil {
		ctxlog.Logger(ctx).Error("script failed", "error", err)
		return cli.Exit("", 1)
	}

	return nil
}

func parseByExtension(url string, data []byte) (*script.Script, error) {
	name := filepath.Base(url)
	if i := strings.IndexAny(name, "?"); i >= 0 {
		name = name[:i]
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".hcl":
		return script.ParseHCL(name, data)
	default:
		return script.ParseYAML(data)
	}
}

// getURL retrieves the content from the specified URL using Hashicorp's
// go-getter. The temporary download directory is removed after reading.
func getURL(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, ErrGetScriptFile
	}

	tmpDir, err := os.MkdirTemp("", "shellout-getter-*")
	if err != nil {
		return nil, errors.Join(ErrGetScriptFile, err)
	}

	defer os.RemoveAll(tmpDir) //nolint:errcheck

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Join(ErrGetScriptFile, err)
	}

	client := getter.Client{
		DisableSymlinks: true,
	}

	req := &getter.Request{
		Src:     url,
		Dst:     filepath.Join(tmpDir, "g"),
		Pwd:     wd,
		GetMode: getter.ModeDir,
	}

	var fileName string
	// Remote sources are fetched as a directory and the file read from
	// there: https://github.com/hashicorp/go-getter/issues/98
	if ok, err := getter.Detect(req, &getter.FileGetter{}); !ok || err != nil {
		if err != nil {
			return nil, errors.Join(ErrGetScriptFile, err)
		}

		var newURL string

		newURL, fileName = splitFileNameFromGetterURL(url)
		if newURL == "" || fileName == "" {
			return nil, fmt.Errorf("%w: invalid URL format: %s", ErrGetScriptFile, url)
		}

		req.Src = newURL
	}

	if fileName == "" {
		req.Src = filepath.Dir(url)
		fileName = filepath.Base(url)
	}

	res, err := client.Get(ctx, req)
	if err != nil {
		return nil, errors.Join(ErrGetScriptFile, err)
	}

	data, err := os.ReadFile(filepath.Join(res.Dst, fileName))
	if err != nil {
		return nil, errors.Join(ErrGetScriptFile, err)
	}

	return data, nil
}

const (
	goGetterPathSeparator = "//"
	goGetterRefSeparator  = "?"
	minimumGetterParts    = 3
)

// splitFileNameFromGetterURL splits the URL into the directory and file
// name. It returns the getter URL without the file name and the file name
// itself, preserving any ref query parameter on the new URL.
func splitFileNameFromGetterURL(url string) (string, string) {
	var ref, fileName string

	parts := strings.Split(url, goGetterPathSeparator)
	if len(parts) < minimumGetterParts {
		return "", ""
	}

	last := parts[len(parts)-1]
	if strings.Contains(last, goGetterRefSeparator) {
		refSplit := strings.Split(last, goGetterRefSeparator)
		if len(refSplit) > 1 {
			ref = strings.Join(refSplit[1:], "")
		}

		last = refSplit[0]
	}

	fileName = filepath.Base(last)
	dir := filepath.Dir(last)

	newURL := strings.Join(parts[:len(parts)-1], goGetterPathSeparator)
	if dir != "." {
		newURL += goGetterPathSeparator + dir
	}

	if ref != "" {
		newURL += goGetterRefSeparator + ref
	}

	return newURL, fileName
}
