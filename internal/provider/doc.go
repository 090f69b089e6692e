// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider talks to the hosted chat model.
//
// A Provider turns an API key into a Client. A Client validates the key
// against a model, starts Chats seeded with earlier turns and generates
// images. A Chat keeps its transcript locally and only appends an exchange
// once the model has answered, so a failed call never leaves half a turn.
//
// GeminiProvider is backed by google.golang.org/genai. MockProvider is a
// scriptable stand-in for tests.
//
// # Errors
//
// Failures are returned as *Error, which matches one of the sentinel kinds
// with errors.Is:
//
//	if errors.Is(err, provider.ErrAuthFailed) { ... }
package provider
