// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/slashcmd/internal/builtins"
	"github.com/jeranaias/slashcmd/internal/commands"
	"github.com/jeranaias/slashcmd/internal/config"
	"github.com/jeranaias/slashcmd/internal/export"
	"github.com/jeranaias/slashcmd/internal/index"
	"github.com/jeranaias/slashcmd/internal/snapshots"
	"github.com/jeranaias/slashcmd/internal/tasks"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitNotFound     = 7
	ExitTimeout      = 8
	ExitInterrupted  = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError reports a malformed slashcmd invocation.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// usagef builds a UsageError.
func usagef(format string, args ...any) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// CommandError wraps a failure of one CLI subcommand.
type CommandError struct {
	Command string
	Action  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s %s: %v", e.Command, e.Action, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	var usage *UsageError
	var validate config.ValidateErrors

	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &usage),
		errors.Is(err, commands.ErrMissingArgument),
		errors.Is(err, export.ErrUnknownFormat):
		return ExitUsageError
	case errors.As(err, &validate):
		return ExitConfigError
	case errors.Is(err, commands.ErrUnknownCommand),
		errors.Is(err, builtins.ErrFileNotFound),
		errors.Is(err, builtins.ErrNoMatches),
		errors.Is(err, snapshots.ErrNotFound),
		errors.Is(err, index.ErrNotIndexed):
		return ExitNotFound
	case errors.Is(err, tasks.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ExitTimeout
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return ExitGeneralError
	}
}
