// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import "time"

// EventType represents the type of progress event.
type EventType int

const (
	// EventStarted indicates a step has begun execution.
	EventStarted EventType = iota
	// EventOutput indicates a new stdout/stderr line is available.
	EventOutput
	// EventCompleted indicates successful completion of a step.
	EventCompleted
	// EventFailed indicates a step failed.
	EventFailed
	// EventSkipped indicates a step was not run.
	EventSkipped
)

// String implements the Stringer interface for EventType.
func (et EventType) String() string {
	switch et {
	case EventStarted:
		return "started"
	case EventOutput:
		return "output"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	case EventSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Event is a real-time update from script execution.
type Event struct {
	Step      string    // Name of the step the event belongs to
	Type      EventType // What happened
	Line      string    // Output line, for EventOutput
	IsStderr  bool      // True if Line came from stderr
	ExitCode  int       // Exit code, for EventCompleted/EventFailed
	Err       error     // Failure cause, for EventFailed
	Timestamp time.Time // When the event occurred
}

// Reporter is the interface for sending progress events. Implementations
// must be non-blocking and tolerate a receiver that is not listening.
type Reporter interface {
	// Report sends a progress event.
	Report(event Event)
	// Close signals that no more events will be sent and releases resources.
	Close()
}

// Listener receives progress events from a Reporter.
type Listener interface {
	// OnEvent is called for each received event. Implementations should
	// return quickly to avoid dropping subsequent events.
	OnEvent(event Event)
}

// NullReporter is a no-op Reporter, used when nobody is watching.
type NullReporter struct{}

// Report implements Reporter by doing nothing.
func (nr *NullReporter) Report(_ Event) {}

// Close implements Reporter by doing nothing.
func (nr *NullReporter) Close() {}
