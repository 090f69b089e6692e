// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
)

// Provider-native roles.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// ValidationPrompt is the probe sent when checking a new API key.
const ValidationPrompt = "test"

// =============================================================================
// INTERFACES
// =============================================================================

// Provider creates clients bound to an API key.
type Provider interface {
	NewClient(ctx context.Context, apiKey string) (Client, error)
}

// Client is an authenticated connection to the chat service.
type Client interface {
	// Validate sends a single lightweight request to model and reports
	// whether the key was accepted.
	Validate(ctx context.Context, model string) error

	// StartChat opens a conversation on model seeded with history.
	StartChat(model string, history []Turn) Chat

	// GenerateImage asks model for an image and returns the first one.
	GenerateImage(ctx context.Context, model, prompt string) (*Image, error)
}

// Chat is an open conversation.
type Chat interface {
	// Send sends text and returns the reply. The exchange is added to
	// History only on success.
	Send(ctx context.Context, text string) (string, error)

	// History returns a copy of the transcript.
	History() []Turn

	// Model returns the model this chat talks to.
	Model() string
}

// =============================================================================
// TYPES
// =============================================================================

// Turn is one message with a provider-native role.
type Turn struct {
	Role string
	Text string
}

// Image is generated image data.
type Image struct {
	MIMEType string
	Data     []byte
}

// DataURI renders the image as data:<mime>;base64,<payload>.
func (i *Image) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", i.MIMEType, base64.StdEncoding.EncodeToString(i.Data))
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrAuthFailed indicates the API key was rejected.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates the quota or rate limit was hit.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the model id is unknown to the service.
	ErrModelNotFound = errors.New("model not found")

	// ErrInvalidRequest indicates the service refused the request shape.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrServerError indicates a transient failure on the service side.
	ErrServerError = errors.New("server error")

	// ErrTimeout indicates the request deadline passed.
	ErrTimeout = errors.New("request timed out")

	// ErrEmptyResponse indicates a response with no usable candidate.
	ErrEmptyResponse = errors.New("empty response")

	// ErrNoImage indicates a well-formed response without an image part.
	ErrNoImage = errors.New("no image was generated")

	// ErrUnknown covers everything else.
	ErrUnknown = errors.New("provider error")
)

// Error is a classified provider failure.
type Error struct {
	// Kind is one of the sentinel errors above.
	Kind error

	// Status is the HTTP status when known.
	Status int

	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes both the kind and the underlying error to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Retryable reports whether the failure is worth another attempt.
func (e *Error) Retryable() bool {
	return e.Kind == ErrRateLimited || e.Kind == ErrServerError || e.Kind == ErrTimeout
}

// IsRetryable reports whether err is a retryable *Error.
func IsRetryable(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Retryable()
}

func copyTurns(turns []Turn) []Turn {
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}
