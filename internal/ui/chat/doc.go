// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the full-screen chat view.
//
// The model renders the transcript in a viewport, model replies through
// glamour, and routes every submission through commands.Executor. While a
// submission is in flight the input is disabled and a spinner is shown, so
// the user cannot issue overlapping requests.
//
// # Usage
//
//	m := chat.New(chat.Options{Executor: exec, Theme: styles.NewTheme("auto")})
//	err := chat.Run(ctx, m, settingsUpdates)
package chat
