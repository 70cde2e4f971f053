// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package shellout lets a program spawn external OS processes and consume
// their output as if the calls were synchronous. It wraps the internal
// parsing, spawning and piping layers in a small script-style API:
//
//	out, err := shellout.Command("ls -l *.go").Lines(ctx)
//
//	collected, err := shellout.Command("cat access.log").
//		Pipe("grep 500").
//		Pipe("wc -l").
//		Run(ctx)
package shellout

var (
	// Version is set during the build process.
	Version = "dev"
	// Commit is set during the build process.
	Commit = "unknown"
)
