// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/shellout/internal/progress"
)

const durationRounding = 100 * time.Millisecond

// StepStatus represents the current state of a step in the TUI.
type StepStatus int

const (
	StatusPending StepStatus = iota
	StatusRunning
	StatusSuccess
	StatusFailed
	StatusSkipped
)

// String returns a string representation of the step status.
func (s StepStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// stepState holds the display state for one step.
type stepState struct {
	name       string
	status     StepStatus
	lastOutput string
	errMsg     string
	exitCode   int
	started    time.Time
	ended      time.Time
}

func (st *stepState) duration() time.Duration {
	if st.started.IsZero() {
		return 0
	}

	end := st.ended
	if end.IsZero() {
		end = time.Now()
	}

	return end.Sub(st.started).Round(durationRounding)
}

// Styles contains all the styling for the TUI.
type Styles struct {
	Title   lipgloss.Style
	Pending lipgloss.Style
	Running lipgloss.Style
	Success lipgloss.Style
	Failed  lipgloss.Style
	Skipped lipgloss.Style
	Output  lipgloss.Style
	Error   lipgloss.Style
	Help    lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1),
		Pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Skipped: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Italic(true),
		Output: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Italic(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			MarginTop(1),
	}
}

// Model represents the TUI application state.
type Model struct {
	title     string
	steps     []*stepState
	index     map[string]*stepState
	spinner   spinner.Model
	width     int
	quitting  bool
	completed bool
	runErr    error
	styles    *Styles
}

// NewModel creates a new TUI model for the named script.
func NewModel(title string) *Model {
	styles := NewStyles()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Running

	return &Model{
		title:   title,
		index:   make(map[string]*stepState),
		spinner: sp,
		styles:  styles,
	}
}

func (m *Model) getOrCreateStep(name string) *stepState {
	if st, ok := m.index[name]; ok {
		return st
	}

	st := &stepState{
		name:   name,
		status: StatusPending,
	}
	m.steps = append(m.steps, st)
	m.index[name] = st

	return st
}

// processEvent applies a progress event to the step list.
func (m *Model) processEvent(event progress.Event) {
	st := m.getOrCreateStep(event.Step)

	switch event.Type {
	case progress.EventStarted:
		st.status = StatusRunning
		st.started = event.Timestamp
	case progress.EventOutput:
		st.lastOutput = strings.TrimSpace(event.Line)
	case progress.EventCompleted:
		st.status = StatusSuccess
		st.ended = event.Timestamp
		st.exitCode = event.ExitCode
	case progress.EventFailed:
		st.status = StatusFailed
		st.ended = event.Timestamp
		st.exitCode = event.ExitCode

		if event.Err != nil {
			st.errMsg = event.Err.Error()
		}
	case progress.EventSkipped:
		st.status = StatusSkipped
	}
}

// View implements bubbletea.Model.
func (m *Model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var b strings.Builder

	b.WriteString(m.styles.Title.Render(m.title))
	b.WriteString("\n")

	for _, st := range m.steps {
		b.WriteString(m.renderStep(st))
		b.WriteString("\n")
	}

	if m.completed {
		b.WriteString("\n")

		if m.runErr != nil {
			b.WriteString(m.styles.Failed.Render("✗ script failed"))
		} else {
			b.WriteString(m.styles.Success.Render("✓ script completed"))
		}

		b.WriteString("\n")
		b.WriteString(m.styles.Help.Render("press q to exit"))
	} else {
		b.WriteString(m.styles.Help.Render("q: quit"))
	}

	b.WriteString("\n")

	return b.String()
}

func (m *Model) renderStep(st *stepState) string {
	var marker, name string

	switch st.status {
	case StatusPending:
		marker = m.styles.Pending.Render("○")
		name = m.styles.Pending.Render(st.name)
	case StatusRunning:
		marker = m.spinner.View()
		name = m.styles.Running.Render(st.name)
	case StatusSuccess:
		marker = m.styles.Success.Render("✓")
		name = m.styles.Success.Render(st.name)
	case StatusFailed:
		marker = m.styles.Failed.Render("✗")
		name = m.styles.Failed.Render(st.name)
	case StatusSkipped:
		marker = m.styles.Skipped.Render("-")
		name = m.styles.Skipped.Render(st.name + " (skipped)")
	}

	line := fmt.Sprintf("%s %s", marker, name)

	if d := st.duration(); d > 0 {
		line += m.styles.Help.Render(fmt.Sprintf(" [%s]", d))
	}

	if st.errMsg != "" {
		line += "\n    " + m.styles.Error.Render(st.errMsg)
	} else if st.lastOutput != "" && st.status == StatusRunning {
		line += "\n    " + m.styles.Output.Render(truncate(st.lastOutput, m.width-4))
	}

	return line
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}

	return s[:max-1] + "…"
}

var _ tea.Model = (*Model)(nil)
