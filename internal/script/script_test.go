// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package script

import (
	"context"
	"sync"
	"testing"

	"github.com/matt-FFFFFF/shellout/internal/progress"
	"github.com/matt-FFFFFF/shellout/internal/sink"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestParseYAML(t *testing.T) {
	data := []byte(`name: build
keep_going: true
steps:
  - name: compile
    run: make all
    dir: /src
    env:
      CC: clang
  - name: check
    run: make test
    shell: true
    no_throw: true
`)

	s, err := ParseYAML(data)
	require.NoError(t, err, "expected valid YAML to parse")

	assert.Equal(t, "build", s.Name)
	assert.True(t, s.KeepGoing)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, "compile", s.Steps[0].Name)
	assert.Equal(t, "make all", s.Steps[0].Run)
	assert.Equal(t, "/src", s.Steps[0].Dir)
	assert.Equal(t, map[string]string{"CC": "clang"}, s.Steps[0].Env)
	assert.True(t, s.Steps[1].Shell)
	assert.True(t, s.Steps[1].NoThrow)
}

func TestParseYAMLEmpty(t *testing.T) {
	_, err := ParseYAML([]byte("name: empty\n"))
	require.ErrorIs(t, err, ErrEmptyScript)
}

func TestParseYAMLMissingRun(t *testing.T) {
	_, err := ParseYAML([]byte("steps:\n  - name: nothing\n"))
	require.ErrorIs(t, err, ErrStepMissingRun)
}

func TestParseYAMLInvalid(t *testing.T) {
	_, err := ParseYAML([]byte("steps: [unterminated"))
	require.ErrorIs(t, err, ErrLoadScript)
}

func TestParseHCL(t *testing.T) {
	data := []byte(`
name = "deploy"

step "package" {
  run = "tar -czf out.tgz dist"
}

step "upload" {
  run      = "push out.tgz"
  no_throw = true
}
`)

	s, err := ParseHCL("deploy.hcl", data)
	require.NoError(t, err, "expected valid HCL to parse")

	assert.Equal(t, "deploy", s.Name)
	require.Len(t, s.Steps, 2)
	assert.Equal(t, "package", s.Steps[0].Name)
	assert.Equal(t, "tar -czf out.tgz dist", s.Steps[0].Run)
	assert.True(t, s.Steps[1].NoThrow)
}

func TestParseHCLEnvInterpolation(t *testing.T) {
	t.Setenv("SHELLOUT_TEST_TARGET", "staging")

	data := []byte(`
step "deploy" {
  run = "deploy --target ${env.SHELLOUT_TEST_TARGET}"
}
`)

	s, err := ParseHCL("deploy.hcl", data)
	require.NoError(t, err)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, "deploy --target staging", s.Steps[0].Run)
}

func TestParseHCLInvalid(t *testing.T) {
	_, err := ParseHCL("bad.hcl", []byte(`step "x" {`))
	require.ErrorIs(t, err, ErrLoadScript)
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/scripts/build.yaml", []byte("steps:\n  - name: a\n    run: echo hi\n"), 0o644))

	stubs := gostub.Stub(&FsFactory, func() afero.Fs { return fs })
	defer stubs.Reset()

	s, err := Load("/scripts/build.yaml")
	require.NoError(t, err)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, "echo hi", s.Steps[0].Run)
}

func TestLoadUnknownExtension(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/scripts/build.toml", []byte("x"), 0o644))

	stubs := gostub.Stub(&FsFactory, func() afero.Fs { return fs })
	defer stubs.Reset()

	_, err := Load("/scripts/build.toml")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLoadMissingFile(t *testing.T) {
	stubs := gostub.Stub(&FsFactory, func() afero.Fs { return afero.NewMemMapFs() })
	defer stubs.Reset()

	_, err := Load("/nope.yaml")
	require.ErrorIs(t, err, ErrLoadScript)
}

// recordingReporter collects events for assertions.
type recordingReporter struct {
	mu     sync.Mutex
	events []progress.Event
}

func (rr *recordingReporter) Report(ev progress.Event) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.events = append(rr.events, ev)
}

func (rr *recordingReporter) Close() {}

func (rr *recordingReporter) types() []progress.EventType {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	out := make([]progress.EventType, 0, len(rr.events))
	for _, ev := range rr.events {
		out = append(out, ev.Type)
	}

	return out
}

func TestRunnerRunsSteps(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := &Script{
		Steps: []Step{
			{Name: "one", Run: "echo first"},
			{Name: "two", Run: "echo second"},
		},
	}

	rr := &recordingReporter{}
	out := sink.NewCollect()

	err := NewRunner(s, rr, out).Run(context.Background())
	require.NoError(t, err, "expected all steps to succeed")

	assert.Equal(t, []string{"first", "second"}, out.Stdout())
	assert.Equal(t, []progress.EventType{
		progress.EventStarted,
		progress.EventOutput,
		progress.EventCompleted,
		progress.EventStarted,
		progress.EventOutput,
		progress.EventCompleted,
	}, rr.types())
}

func TestRunnerStopsOnFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := &Script{
		Steps: []Step{
			{Name: "boom", Run: "false"},
			{Name: "after", Run: "echo unreachable"},
		},
	}

	rr := &recordingReporter{}
	out := sink.NewCollect()

	err := NewRunner(s, rr, out).Run(context.Background())
	require.ErrorIs(t, err, ErrScriptFailed)

	assert.Empty(t, out.Stdout(), "steps after a failure must not run")
	assert.Equal(t, []progress.EventType{
		progress.EventStarted,
		progress.EventFailed,
		progress.EventSkipped,
	}, rr.types())
}

func TestRunnerKeepGoing(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := &Script{
		KeepGoing: true,
		Steps: []Step{
			{Name: "boom", Run: "false"},
			{Name: "after", Run: "echo survived"},
		},
	}

	rr := &recordingReporter{}
	out := sink.NewCollect()

	err := NewRunner(s, rr, out).Run(context.Background())
	require.ErrorIs(t, err, ErrScriptFailed, "failures are still surfaced")

	assert.Equal(t, []string{"survived"}, out.Stdout())
	assert.Equal(t, []progress.EventType{
		progress.EventStarted,
		progress.EventFailed,
		progress.EventStarted,
		progress.EventOutput,
		progress.EventCompleted,
	}, rr.types())
}

func TestRunnerPipelineStep(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := &Script{
		Steps: []Step{
			{Name: "count", Run: "printf 'a\\nb\\nc\\n' | wc -l"},
		},
	}

	out := sink.NewCollect()

	err := NewRunner(s, nil, out).Run(context.Background())
	require.NoError(t, err)

	lines := out.Stdout()
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "3")
}

func TestRunnerDetachedStep(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := &Script{
		Steps: []Step{
			{Name: "background", Run: "sleep 0.05", Detached: true},
		},
	}

	rr := &recordingReporter{}

	err := NewRunner(s, rr, nil).Run(context.Background())
	require.NoError(t, err, "detached steps report success once started")

	assert.Equal(t, []progress.EventType{
		progress.EventStarted,
		progress.EventCompleted,
	}, rr.types())
}

func TestRunnerStepEnv(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := &Script{
		Steps: []Step{
			{Name: "env", Run: "echo $GREETING", Shell: true, Env: map[string]string{"GREETING": "hello"}},
		},
	}

	out := sink.NewCollect()

	err := NewRunner(s, nil, out).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, out.Stdout())
}
