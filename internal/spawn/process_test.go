// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package spawn

import (
	"context"
	"runtime"
	"strings"
	"testing"

	"github.com/matt-FFFFFF/shellout/internal/cmdparse"
	"github.com/matt-FFFFFF/shellout/internal/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func skipOnWindows(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("skipping shell-dependent test on windows")
	}
}

func mustParse(t *testing.T, line string) *cmdparse.ParsedCommand {
	t.Helper()

	p, err := cmdparse.Parse(line, "")
	require.NoError(t, err)

	return p
}

func TestRunSuccess(t *testing.T) {
	defer goleak.VerifyNone(t)
	skipOnWindows(t)

	p := New(mustParse(t, "echo hello"))
	s := sink.NewCollect()

	err := p.Run(context.Background(), s, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"hello"}, s.Stdout())
	assert.True(t, s.Closed(), "run must close the sink")
	assert.Equal(t, StateCompleted, p.State())

	code, ok := s.ExitCode()
	require.True(t, ok, "exit code must be recorded before close")
	assert.Equal(t, 0, code)
}

func TestRunLineOrder(t *testing.T) {
	defer goleak.VerifyNone(t)
	skipOnWindows(t)

	p := New(mustParse(t, `sh -c 'printf "one\ntwo\nthree\n"'`))
	s := sink.NewCollect()

	require.NoError(t, p.Run(context.Background(), s, nil))
	assert.Equal(t, []string{"one", "two", "three"}, s.Stdout(), "lines must arrive in emission order")
}

func TestRunUnterminatedFinalLine(t *testing.T) {
	defer goleak.VerifyNone(t)
	skipOnWindows(t)

	p := New(mustParse(t, `sh -c 'printf "no newline"'`))
	s := sink.NewCollect()

	require.NoError(t, p.Run(context.Background(), s, nil))
	assert.Equal(t, []string{"no newline"}, s.Stdout(), "final line without trailing newline is still delivered")
}

func TestRunStreamSeparation(t *testing.T) {
	defer goleak.VerifyNone(t)
	skipOnWindows(t)

	p := New(mustParse(t, `sh -c 'echo out; echo err 1>&2'`))
	s := sink.NewCollect()

	require.NoError(t, p.Run(context.Background(), s, nil))
	assert.Equal(t, []string{"out"}, s.Stdout())
	assert.Equal(t, []string{"err"}, s.Stderr())
}

func TestRunNonzeroExit(t *testing.T) {
	defer goleak.VerifyNone(t)
	skipOnWindows(t)

	p := New(mustParse(t, `sh -c 'echo partial; exit 3'`))
	s := sink.NewCollect()

	err := p.Run(context.Background(), s, nil)

	var runErr *RunError

	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, 3, runErr.ExitCode)
	assert.Equal(t, "sh", runErr.Path)
	assert.Equal(t, StateFailed, p.State())

	assert.True(t, s.Closed(), "sink must be closed before the error is raised")
	assert.Equal(t, []string{"partial"}, s.Stdout(), "lines delivered before the failure remain visible")

	code, ok := s.ExitCode()
	require.True(t, ok)
	assert.Equal(t, 3, code)
}

func TestRunNothrow(t *testing.T) {
	defer goleak.VerifyNone(t)
	skipOnWindows(t)

	p := New(mustParse(t, `sh -c 'exit 5'`))
	s := sink.NewCollect()

	opts := DefaultRunOptions()
	opts.NoThrow = true

	err := p.Run(context.Background(), s, opts)
	require.NoError(t, err, "nothrow must swallow the nonzero exit")

	code, ok := s.ExitCode()
	require.True(t, ok)
	assert.Equal(t, 5, code)
}

func TestStartFailureNamesExecutable(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := New(&cmdparse.ParsedCommand{Path: "definitely-not-a-real-executable"})
	s := sink.NewCollect()

	err := p.Run(context.Background(), s, nil)

	var startErr *StartError

	require.ErrorAs(t, err, &startErr)
	assert.Equal(t, "definitely-not-a-real-executable", startErr.Path)
	assert.ErrorIs(t, err, ErrExecutableNotFound)
	assert.Empty(t, s.Stdout(), "start failures abort with no partial sink output")
	assert.False(t, s.Closed())
}

func TestStartFailureAbsolutePath(t *testing.T) {
	defer goleak.VerifyNone(t)
	skipOnWindows(t)

	p := New(&cmdparse.ParsedCommand{Path: "/not/a/real/command"})

	err := p.Start(context.Background(), nil)

	var startErr *StartError

	require.ErrorAs(t, err, &startErr)
	assert.ErrorIs(t, err, ErrExecutableNotFound)
	assert.Equal(t, StateStartFailed, p.State())
}

func TestStartTwice(t *testing.T) {
	defer goleak.VerifyNone(t)
	skipOnWindows(t)

	p := New(mustParse(t, "echo hi"))
	require.NoError(t, p.Start(context.Background(), nil))

	err := p.Start(context.Background(), nil)
	assert.ErrorIs(t, err, ErrAlreadyStarted)

	require.NoError(t, p.ProcessUntilExit(context.Background(), sink.NewDiscard(), false))
}

func TestInvalidOptions(t *testing.T) {
	p := New(mustParse(t, "echo hi"))

	err := p.Start(context.Background(), &StartOptions{Detached: true, InheritTerminal: true})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestDrainBeforeStart(t *testing.T) {
	p := New(mustParse(t, "echo hi"))

	err := p.ProcessUntilExit(context.Background(), sink.NewDiscard(), false)
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestDoubleDrain(t *testing.T) {
	defer goleak.VerifyNone(t)
	skipOnWindows(t)

	p := New(mustParse(t, "echo hi"))
	require.NoError(t, p.Run(context.Background(), sink.NewDiscard(), nil))

	err := p.ProcessUntilExit(context.Background(), sink.NewDiscard(), false)
	assert.ErrorIs(t, err, ErrAlreadyDrained)
}

func TestRunInShell(t *testing.T) {
	defer goleak.VerifyNone(t)
	skipOnWindows(t)

	p := New(mustParse(t, "echo $HOME"))
	s := sink.NewCollect()

	opts := DefaultRunOptions()
	opts.RunInShell = true

	require.NoError(t, p.Run(context.Background(), s, opts))
	require.Len(t, s.Stdout(), 1)
	assert.NotEqual(t, "$HOME", s.Stdout()[0], "shell mode must expand variables")
}

func TestEnvAndCwd(t *testing.T) {
	defer goleak.VerifyNone(t)
	skipOnWindows(t)

	tempDir := t.TempDir()

	parsed, err := cmdparse.Parse(`sh -c 'echo $FOO; pwd'`, tempDir)
	require.NoError(t, err)

	p := New(parsed)
	s := sink.NewCollect()

	opts := DefaultRunOptions()
	opts.Env = map[string]string{"FOO": "BAR"}

	require.NoError(t, p.Run(context.Background(), s, opts))
	require.Len(t, s.Stdout(), 2)
	assert.Equal(t, "BAR", s.Stdout()[0])
	assert.Contains(t, s.Stdout()[1], tempDir)
}

func TestDetached(t *testing.T) {
	defer goleak.VerifyNone(t)
	skipOnWindows(t)

	p := New(mustParse(t, "true"))

	opts := DefaultRunOptions()
	opts.Detached = true

	err := p.Run(context.Background(), sink.NewDiscard(), opts)
	require.NoError(t, err, "detached run returns immediately after the spawn")

	drainErr := p.ProcessUntilExit(context.Background(), sink.NewDiscard(), false)
	assert.ErrorIs(t, drainErr, ErrInvalidOptions, "a detached process cannot be drained")
}

func TestRunOversizedLine(t *testing.T) {
	defer goleak.VerifyNone(t)
	skipOnWindows(t)

	// One line bigger than the scan buffer: the drain must still complete
	// and every output byte must reach the sink.
	const size = 9_000_000

	p := New(mustParse(t, `sh -c 'head -c 9000000 /dev/zero | tr "\0" a; echo'`))
	s := sink.NewCollect()

	require.NoError(t, p.Run(context.Background(), s, nil))

	total := 0
	for _, line := range s.Stdout() {
		total += len(line)
	}

	assert.Equal(t, size, total, "oversized output must be delivered in full")
	assert.GreaterOrEqual(t, len(s.Stdout()), 2, "a line beyond the buffer limit arrives in chunks")
}

func TestEnvOverrideReplacesParentEntry(t *testing.T) {
	defer goleak.VerifyNone(t)
	skipOnWindows(t)

	t.Setenv("SHELLOUT_TEST_MERGEVAR", "parent")

	p := New(mustParse(t, "printenv SHELLOUT_TEST_MERGEVAR"))
	s := sink.NewCollect()

	opts := DefaultRunOptions()
	opts.Env = map[string]string{"SHELLOUT_TEST_MERGEVAR": "override"}

	require.NoError(t, p.Run(context.Background(), s, opts))
	assert.Equal(t, []string{"override"}, s.Stdout(),
		"the child must see exactly one entry, holding the override")
}

func TestMergedEnvNoDuplicates(t *testing.T) {
	t.Setenv("SHELLOUT_TEST_MERGEVAR", "parent")

	env := mergedEnv(map[string]string{
		"SHELLOUT_TEST_MERGEVAR": "override",
		"SHELLOUT_TEST_NEWVAR":   "fresh",
	})

	var matches []string

	for _, kv := range env {
		if strings.HasPrefix(kv, "SHELLOUT_TEST_MERGEVAR=") {
			matches = append(matches, kv)
		}
	}

	assert.Equal(t, []string{"SHELLOUT_TEST_MERGEVAR=override"}, matches)
	assert.Contains(t, env, "SHELLOUT_TEST_NEWVAR=fresh")
}
