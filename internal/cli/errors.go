// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/session"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitAuthError     = 4
	ExitProviderError = 5
	ExitStorageError  = 6
	ExitTimeoutError  = 7
	ExitInterrupted   = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError is a bad flag or argument.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

func usageErrorf(format string, args ...any) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// CommandError records which command failed while doing what.
type CommandError struct {
	Command string
	Action  string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: failed to %s: %v", e.Command, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

func commandError(command, action string, err error) error {
	if err == nil {
		return nil
	}
	return &CommandError{Command: command, Action: action, Err: err}
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// ExitCode maps err to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usage *UsageError
	if errors.As(err, &usage) {
		return ExitUsageError
	}
	var invalid config.ValidateErrors
	if errors.As(err, &invalid) {
		return ExitConfigError
	}

	switch {
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, session.ErrBusy):
		return ExitTimeoutError
	case errors.Is(err, session.ErrUnauthenticated), errors.Is(err, session.ErrCredentialRejected):
		return ExitAuthError
	case errors.Is(err, session.ErrProvider), errors.Is(err, session.ErrNoImageProduced):
		return ExitProviderError
	case errors.Is(err, session.ErrStorage):
		return ExitStorageError
	case errors.Is(err, session.ErrInvalidInput):
		return ExitUsageError
	}
	return ExitGeneralError
}

// DisplayError writes err to w in the shared error style.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
	if errors.Is(err, session.ErrUnauthenticated) {
		fmt.Fprintln(w, DimStyle.Render("Run `gemchat key set` to store a Gemini API key."))
	}
}
