// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidTransition is returned for a status change the state
	// machine does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrRunnerStopped is returned when starting work on a stopped runner.
	ErrRunnerStopped = errors.New("runner stopped")

	// ErrTimeout ends an invocation that ran past the runner's timeout.
	ErrTimeout = errors.New("invocation timed out")
)

// =============================================================================
// INVOCATION STATUS
// =============================================================================

// Status is the lifecycle state of one command invocation.
type Status string

const (
	// StatusNotStarted is the state before the command is asked to run
	StatusNotStarted Status = "NotStarted"

	// StatusRunning means events may still arrive
	StatusRunning Status = "Running"

	// StatusCompleted means the stream ended cleanly
	StatusCompleted Status = "Completed"

	// StatusFailed means the command failed to start or its stream errored
	StatusFailed Status = "Failed"

	// StatusCancelled means the caller cancelled, closed the stream early,
	// or the invocation timed out
	StatusCancelled Status = "Cancelled"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// =============================================================================
// INVOCATION
// =============================================================================

// Invocation tracks one run of a command.
type Invocation struct {
	// ID is a unique identifier for this invocation
	ID string

	// Command is the command name without the slash
	Command string

	// Line is the command line as typed
	Line string

	// Args are the parsed arguments
	Args []string

	status    Status
	startTime time.Time
	endTime   time.Time
	err       error
	events    int

	mu sync.RWMutex
}

// NewInvocation creates an invocation in StatusNotStarted.
func NewInvocation(command, line string, args []string) *Invocation {
	return &Invocation{
		ID:      uuid.New().String(),
		Command: command,
		Line:    line,
		Args:    args,
		status:  StatusNotStarted,
	}
}

// SetStatus moves the invocation to status, stamping start and end times.
// Valid transitions: NotStarted -> Running -> Completed/Failed/Cancelled,
// and NotStarted -> Failed/Cancelled when the command never started.
func (inv *Invocation) SetStatus(status Status) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.setStatusLocked(status)
}

func (inv *Invocation) setStatusLocked(status Status) error {
	if !isValidTransition(inv.status, status) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, inv.status, status)
	}
	if inv.status == status {
		return nil
	}
	now := time.Now()
	if status == StatusRunning {
		inv.startTime = now
	}
	if status.Terminal() {
		inv.endTime = now
	}
	inv.status = status
	return nil
}

// isValidTransition checks if a status transition is valid.
func isValidTransition(from, to Status) bool {
	// Allow setting the same status (idempotent)
	if from == to {
		return true
	}

	switch from {
	case StatusNotStarted:
		return to == StatusRunning || to == StatusFailed || to == StatusCancelled
	case StatusRunning:
		return to.Terminal()
	default:
		// Terminal states - no transitions allowed
		return false
	}
}

// finish records the terminal status and error in one step.
func (inv *Invocation) finish(status Status, err error) error {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if err := inv.setStatusLocked(status); err != nil {
		return err
	}
	inv.err = err
	return nil
}

func (inv *Invocation) recordEvent() {
	inv.mu.Lock()
	inv.events++
	inv.mu.Unlock()
}

// Status returns the current status (thread-safe).
func (inv *Invocation) Status() Status {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.status
}

// Err returns the error that ended the invocation, if any.
func (inv *Invocation) Err() error {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.err
}

// Events returns the number of events observed so far.
func (inv *Invocation) Events() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.events
}

// Duration returns how long the invocation has been running or took.
func (inv *Invocation) Duration() time.Duration {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	if inv.startTime.IsZero() {
		return 0
	}
	if inv.endTime.IsZero() {
		return time.Since(inv.startTime)
	}
	return inv.endTime.Sub(inv.startTime)
}

// Done reports whether the invocation reached a terminal status.
func (inv *Invocation) Done() bool {
	return inv.Status().Terminal()
}

// Summary returns a one-line summary of the invocation.
func (inv *Invocation) Summary() string {
	status := inv.Status()
	summary := fmt.Sprintf("[%s] /%s - %s", inv.ID[:8], inv.Command, status)
	if d := inv.Duration(); d > 0 {
		summary += fmt.Sprintf(" (%.1fs)", d.Seconds())
	}
	if err := inv.Err(); err != nil {
		summary += ": " + err.Error()
	}
	return summary
}
