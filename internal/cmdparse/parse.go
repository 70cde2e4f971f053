// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package cmdparse

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/afero"
)

const globChars = "*?["

var (
	// ErrUnterminatedQuote is returned when a quoted span is not closed.
	ErrUnterminatedQuote = errors.New("unterminated quote")
	// ErrEmptyCommand is returned when the command line contains no tokens.
	ErrEmptyCommand = errors.New("empty command")
)

// ParseError is returned for malformed command-line syntax. It is always
// raised before any process is spawned.
type ParseError struct {
	Input string
	Pos   int
	Err   error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v at offset %d", e.Input, e.Err, e.Pos)
}

// Unwrap returns the underlying error kind.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParsedCommand is an executable path with its ordered arguments and an
// optional working directory. Immutable once constructed.
type ParsedCommand struct {
	Path string
	Args []string
	Dir  string
}

// String renders the command roughly as it would be typed.
func (p *ParsedCommand) String() string {
	if len(p.Args) == 0 {
		return p.Path
	}

	return p.Path + " " + strings.Join(p.Args, " ")
}

// Parse tokenizes a command line and returns the parsed command.
// Glob patterns in unquoted tokens are expanded against dir, or the
// current directory if dir is empty.
func Parse(commandLine, dir string) (*ParsedCommand, error) {
	toks, err := tokenize(commandLine)
	if err != nil {
		return nil, err
	}

	if len(toks) == 0 {
		return nil, &ParseError{Input: commandLine, Err: ErrEmptyCommand}
	}

	var flat []string
	for _, tok := range toks {
		flat = append(flat, expandToken(tok, dir)...)
	}

	return &ParsedCommand{
		Path: flat[0],
		Args: flat[1:],
		Dir:  dir,
	}, nil
}

// ParseArgs builds a parsed command from an explicit executable and
// argument list. No tokenization is performed; glob expansion still applies
// per argument unless the argument is quoted or escaped. Arguments with
// unbalanced quoting are passed through verbatim.
func ParseArgs(executable string, args []string, dir string) (*ParsedCommand, error) {
	if executable == "" {
		return nil, &ParseError{Err: ErrEmptyCommand}
	}

	var out []string

	for _, arg := range args {
		if strings.ContainsAny(arg, `'"\`) {
			lit, err := unquote(arg)
			if err != nil {
				// Explicit arguments are data, not syntax: a lone
				// quote in one is passed through verbatim.
				out = append(out, arg)

				continue
			}

			out = append(out, lit)

			continue
		}

		out = append(out, expandToken(token{text: arg}, dir)...)
	}

	return &ParsedCommand{
		Path: executable,
		Args: out,
		Dir:  dir,
	}, nil
}

// SplitPipeline splits a command line on unquoted '|' characters and
// returns the raw text of each stage, quoting preserved.
func SplitPipeline(commandLine string) ([]string, error) {
	var (
		stages []string
		start  int
	)

	i := 0
	for i < len(commandLine) {
		switch c := commandLine[i]; c {
		case '\'', '"':
			closing := strings.IndexByte(commandLine[i+1:], c)
			if closing < 0 {
				return nil, &ParseError{Input: commandLine, Pos: i, Err: ErrUnterminatedQuote}
			}

			i += closing + 2
		case '\\':
			i += 2
		case '|':
			stages = append(stages, strings.TrimSpace(commandLine[start:i]))
			start = i + 1
			i++
		default:
			i++
		}
	}

	stages = append(stages, strings.TrimSpace(commandLine[start:]))

	for _, s := range stages {
		if s == "" {
			return nil, &ParseError{Input: commandLine, Err: ErrEmptyCommand}
		}
	}

	return stages, nil
}

// token is a single tokenization unit. quoted records whether any part of
// the token was quoted or escaped, which suppresses glob expansion.
type token struct {
	text   string
	quoted bool
}

func tokenize(input string) ([]token, error) {
	var (
		toks    []token
		sb      strings.Builder
		quoted  bool
		inToken bool
	)

	flush := func() {
		if inToken {
			toks = append(toks, token{text: sb.String(), quoted: quoted})
			sb.Reset()

			quoted = false
			inToken = false
		}
	}

	i := 0
	for i < len(input) {
		switch c := input[i]; {
		case c == '\'' || c == '"':
			closing := strings.IndexByte(input[i+1:], c)
			if closing < 0 {
				return nil, &ParseError{Input: input, Pos: i, Err: ErrUnterminatedQuote}
			}

			sb.WriteString(input[i+1 : i+1+closing])

			quoted = true
			inToken = true
			i += closing + 2
		case c == '\\' && i+1 < len(input):
			sb.WriteByte(input[i+1])

			quoted = true
			inToken = true
			i += 2
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			flush()

			i++
		default:
			sb.WriteByte(c)

			inToken = true
			i++
		}
	}

	flush()

	return toks, nil
}

// unquote strips quoting and escapes from a single argument, taking the
// content literally.
func unquote(arg string) (string, error) {
	toks, err := tokenize(arg)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(toks))
	for _, tok := range toks {
		parts = append(parts, tok.text)
	}

	return strings.Join(parts, " "), nil
}

// expandToken expands glob metacharacters in an unquoted token against dir.
// A pattern matching zero filesystem entries, or one that is not a valid
// pattern, is passed through unexpanded as a single argument.
func expandToken(tok token, dir string) []string {
	if tok.quoted || !strings.ContainsAny(tok.text, globChars) {
		return []string{tok.text}
	}

	fs := FsFactory()
	if dir != "" {
		fs = afero.NewBasePathFs(fs, dir)
	}

	matches, err := afero.Glob(fs, tok.text)
	if err != nil || len(matches) == 0 {
		return []string{tok.text}
	}

	slices.Sort(matches)

	return matches
}
