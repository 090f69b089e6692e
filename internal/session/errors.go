// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"

	"github.com/jeranaias/gemchat/internal/store"
	"github.com/jeranaias/gemchat/internal/vault"
)

var (
	// ErrUnauthenticated means no usable credential is configured.
	ErrUnauthenticated = errors.New("API key is not set")

	// ErrCredentialRejected means validating a new key failed.
	ErrCredentialRejected = errors.New("API key was rejected")

	// ErrProvider wraps a failure while sending a message or generating an image.
	ErrProvider = errors.New("provider request failed")

	// ErrNoImageProduced means the image response had no image part.
	ErrNoImageProduced = errors.New("no image was generated")

	// ErrInvalidInput means an argument was empty or malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorage means a durable record could not be written.
	ErrStorage = errors.New("failed to save state")

	// ErrBusy means the caller gave up waiting for an in-flight operation.
	ErrBusy = errors.New("another operation is in progress")

	// ErrDecryption is logged, never returned: unreadable credentials count
	// as absent.
	ErrDecryption = vault.ErrDecryption

	// ErrStorageCorrupt is logged, never returned: corrupt records load as
	// defaults.
	ErrStorageCorrupt = store.ErrStorageCorrupt
)

// Error is a session failure. Kind is one of the Err* values above and Err
// carries the underlying cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

// Error returns a human-readable message. Provider failures pass the
// provider's description through unchanged.
func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return e.Kind.Error()
	case e.Kind == ErrProvider:
		return e.Err.Error()
	default:
		return e.Kind.Error() + ": " + e.Err.Error()
	}
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op string, kind, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}
