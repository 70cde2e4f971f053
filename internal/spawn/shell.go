// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"fmt"
	"os"
	"runtime"

	"github.com/matt-FFFFFF/shellout/internal/cmdparse"
)

const (
	goosWindows          = "windows"
	commandSwitchWindows = "/C"         // Command switch for Windows cmd.exe
	commandSwitchUnix    = "-c"         // Command switch for Unix-like shells
	winSystem32          = "System32"   // Directory where cmd.exe is located on Windows
	cmdExe               = "cmd.exe"    // Command interpreter executable on Windows
	binSh                = "/bin/sh"    // Default shell for Unix-like systems
	winSystemRootEnv     = "SystemRoot" // Environment variable for the Windows system root
)

// DefaultShell returns the platform shell: cmd.exe on Windows, $SHELL or
// /bin/sh elsewhere.
func DefaultShell() string {
	if runtime.GOOS == goosWindows {
		systemRoot := os.Getenv(winSystemRootEnv)
		if systemRoot == "" {
			systemRoot = `C:\Windows`
		}

		return fmt.Sprintf(`%s\%s\%s`, systemRoot, winSystem32, cmdExe)
	}

	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}

	return binSh
}

// ShellCommand builds a parsed command that hands the raw command line to
// the platform shell, preserving its quoting.
func ShellCommand(line, dir string) *cmdparse.ParsedCommand {
	commandSwitch := commandSwitchUnix
	if runtime.GOOS == goosWindows {
		commandSwitch = commandSwitchWindows
	}

	return &cmdparse.ParsedCommand{
		Path: DefaultShell(),
		Args: []string{commandSwitch, line},
		Dir:  dir,
	}
}

// wrapInShell rewrites a parsed command so it is invoked through the
// platform shell intermediary.
func wrapInShell(parsed *cmdparse.ParsedCommand) *cmdparse.ParsedCommand {
	commandSwitch := commandSwitchUnix
	if runtime.GOOS == goosWindows {
		commandSwitch = commandSwitchWindows
	}

	return &cmdparse.ParsedCommand{
		Path: DefaultShell(),
		Args: []string{commandSwitch, parsed.String()},
		Dir:  parsed.Dir,
	}
}
