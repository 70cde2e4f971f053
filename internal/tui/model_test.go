// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/shellout/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelStepLifecycle(t *testing.T) {
	m := NewModel("build")

	now := time.Now()

	m.processEvent(progress.Event{Step: "compile", Type: progress.EventStarted, Timestamp: now})
	require.Len(t, m.steps, 1)
	assert.Equal(t, StatusRunning, m.steps[0].status)

	m.processEvent(progress.Event{Step: "compile", Type: progress.EventOutput, Line: "linking...\n"})
	assert.Equal(t, "linking...", m.steps[0].lastOutput)

	m.processEvent(progress.Event{Step: "compile", Type: progress.EventCompleted, Timestamp: now.Add(time.Second)})
	assert.Equal(t, StatusSuccess, m.steps[0].status)
	assert.Equal(t, time.Second, m.steps[0].duration())
}

func TestModelFailedStep(t *testing.T) {
	m := NewModel("build")

	m.processEvent(progress.Event{Step: "deploy", Type: progress.EventStarted, Timestamp: time.Now()})
	m.processEvent(progress.Event{
		Step:     "deploy",
		Type:     progress.EventFailed,
		ExitCode: 2,
		Err:      errors.New("connection refused"),
	})

	require.Len(t, m.steps, 1)
	assert.Equal(t, StatusFailed, m.steps[0].status)
	assert.Equal(t, 2, m.steps[0].exitCode)
	assert.Equal(t, "connection refused", m.steps[0].errMsg)
}

func TestModelPreservesStepOrder(t *testing.T) {
	m := NewModel("build")

	for _, name := range []string{"c", "a", "b"} {
		m.processEvent(progress.Event{Step: name, Type: progress.EventStarted, Timestamp: time.Now()})
	}

	require.Len(t, m.steps, 3)
	assert.Equal(t, "c", m.steps[0].name)
	assert.Equal(t, "a", m.steps[1].name)
	assert.Equal(t, "b", m.steps[2].name)
}

func TestModelViewShowsCompletion(t *testing.T) {
	m := NewModel("build")

	m.processEvent(progress.Event{Step: "one", Type: progress.EventStarted, Timestamp: time.Now()})
	m.processEvent(progress.Event{Step: "one", Type: progress.EventCompleted, Timestamp: time.Now()})

	updated, _ := m.Update(ScriptCompletedMsg{})
	view := updated.View()

	assert.Contains(t, view, "build")
	assert.Contains(t, view, "one")
	assert.Contains(t, view, "script completed")
}

func TestModelQuitKeys(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c", "esc"} {
		m := NewModel("build")

		var msg tea.KeyMsg

		switch key {
		case "ctrl+c":
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		}

		_, cmd := m.Update(msg)
		require.NotNil(t, cmd, "expected quit command for key %q", key)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hell…", truncate("hello world", 5))
	assert.Equal(t, "hello", truncate("hello", 0))
}

func TestStepStatusString(t *testing.T) {
	assert.Equal(t, "pending", StatusPending.String())
	assert.Equal(t, "running", StatusRunning.String())
	assert.Equal(t, "success", StatusSuccess.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "skipped", StatusSkipped.String())
}
