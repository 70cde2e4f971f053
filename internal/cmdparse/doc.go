// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmdparse splits a command line into an executable path and an
// ordered argument list. Tokenization is whitespace-based with single and
// double quoted spans taken literally. Unquoted tokens containing glob
// metacharacters are expanded against the working directory, with a
// shell-like fallback: a pattern matching nothing is passed through
// unchanged. No further shell grammar is implemented here.
package cmdparse
