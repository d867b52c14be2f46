// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/jeranaias/slashcmd/internal/document"
	"github.com/jeranaias/slashcmd/internal/output"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnknownCommand is returned when a name is not registered.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrCommandExists is returned when registering a duplicate name or alias.
	ErrCommandExists = errors.New("command already registered")

	// ErrInvalidName is returned for empty or malformed command names.
	ErrInvalidName = errors.New("invalid command name")

	// ErrCompletionCanceled is returned by CompleteArgument once the caller's
	// cancel flag has been observed.
	ErrCompletionCanceled = errors.New("completion canceled")

	// ErrMissingArgument is returned when a command that requires an
	// argument is run without one.
	ErrMissingArgument = errors.New("missing required argument")
)

// StartupError reports a command that failed before producing a stream.
type StartupError struct {
	Command string
	Err     error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("/%s: %v", e.Command, e.Err)
}

// Unwrap returns the underlying error.
func (e *StartupError) Unwrap() error { return e.Err }

// StreamError reports a failure in the middle of a command's event stream.
type StreamError struct {
	Command string
	Err     error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("/%s: stream: %v", e.Command, e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error { return e.Err }

// CheckCanceled returns ErrCompletionCanceled once flag is set. A nil flag
// is never set.
func CheckCanceled(flag *atomic.Bool) error {
	if flag != nil && flag.Load() {
		return ErrCompletionCanceled
	}
	return nil
}

// =============================================================================
// HOST HANDLES
// =============================================================================

// Workspace is the host's handle to the project a command runs in.
type Workspace interface {
	// Root is the absolute workspace directory.
	Root() string

	// Files lists workspace files relative to Root.
	Files(ctx context.Context) ([]string, error)
}

// Delegate exposes host capabilities to a running command.
type Delegate interface {
	// Which resolves a binary on the host's PATH.
	Which(ctx context.Context, binary string) (string, error)

	// ReadTextFile reads a file through the host.
	ReadTextFile(ctx context.Context, path string) (string, error)
}

// =============================================================================
// COMMAND CONTRACT
// =============================================================================

// CompletionRequest carries the inputs of an argument completion.
type CompletionRequest struct {
	// Arguments typed so far. The last element is the partial argument being
	// completed and may be empty.
	Arguments []string

	// Cancel is polled by the command. Once it reads true the command stops
	// and returns ErrCompletionCanceled.
	Cancel *atomic.Bool

	// Workspace may be nil.
	Workspace Workspace
}

// RunRequest carries the inputs of a command invocation.
type RunRequest struct {
	Arguments []string

	// Sections already present in the document, bound to anchors.
	Sections []output.Section[document.Anchor]

	// Snapshot is an immutable view of the document at invocation time.
	Snapshot *document.Snapshot

	// Workspace and Delegate may be nil.
	Workspace Workspace
	Delegate  Delegate
}

// Command is a slash command.
type Command interface {
	// Name is the command name without the leading slash.
	Name() string

	// Description is a one-line summary.
	Description() string

	// MenuText is shown in completion menus.
	MenuText() string

	// RequiresArgument reports whether Run needs at least one argument.
	RequiresArgument() bool

	// CompleteArgument proposes completions for the last argument.
	CompleteArgument(ctx context.Context, req CompletionRequest) ([]ArgumentCompletion, error)

	// Run starts the command. Cancelling ctx or closing the returned stream
	// stops it.
	Run(ctx context.Context, req RunRequest) (output.EventStream, error)
}

// Labeler is implemented by commands with a custom completion label.
type Labeler interface {
	Label(ctx context.Context) CodeLabel
}

// ArgumentAcceptor is implemented by commands that accept optional
// arguments without requiring them.
type ArgumentAcceptor interface {
	AcceptsArguments() bool
}

// Usager is implemented by commands that document their argument syntax.
type Usager interface {
	Usage() string
}

// LabelOf returns the command's label, defaulting to its plain name.
func LabelOf(ctx context.Context, cmd Command) CodeLabel {
	if l, ok := cmd.(Labeler); ok {
		return l.Label(ctx)
	}
	return PlainLabel(cmd.Name(), "")
}

// AcceptsArguments reports whether the command takes arguments, defaulting
// to RequiresArgument.
func AcceptsArguments(cmd Command) bool {
	if a, ok := cmd.(ArgumentAcceptor); ok {
		return a.AcceptsArguments()
	}
	return cmd.RequiresArgument()
}

// UsageOf returns the command's usage line, defaulting to its slash name.
func UsageOf(cmd Command) string {
	if u, ok := cmd.(Usager); ok {
		return u.Usage()
	}
	return "/" + cmd.Name()
}

// =============================================================================
// INVOCATION
// =============================================================================

// Invoke runs cmd after checking its argument requirement. Startup failures
// come back as *StartupError; failures inside the stream as *StreamError.
func Invoke(ctx context.Context, cmd Command, req RunRequest) (output.EventStream, error) {
	if cmd.RequiresArgument() && len(req.Arguments) == 0 {
		return nil, &StartupError{Command: cmd.Name(), Err: ErrMissingArgument}
	}
	stream, err := cmd.Run(ctx, req)
	if err != nil {
		return nil, &StartupError{Command: cmd.Name(), Err: err}
	}
	return &namedStream{EventStream: stream, name: cmd.Name()}, nil
}

type namedStream struct {
	output.EventStream
	name string
}

func (s *namedStream) Next(ctx context.Context) (output.Event, error) {
	ev, err := s.EventStream.Next(ctx)
	if err != nil && !isTerminal(err) {
		return nil, &StreamError{Command: s.name, Err: err}
	}
	return ev, err
}

func isTerminal(err error) bool {
	var se *StreamError
	return errors.Is(err, io.EOF) || errors.As(err, &se)
}
