// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system shared by the TUI and
// the plain REPL.
//
// # Key Types
//
//   - Registry: Command registry with all available commands
//   - Parser: Quote-aware splitting into a ParseResult
//   - Executor: Runs commands and plain messages against the bridge
//   - Result: What a front end should render after a submission
//   - Completer: Tab completion for commands and arguments
//
// # Built-in Commands
//
//   - /help: Show available commands
//   - /model: Show or switch the chat model
//   - /img: Generate an image
//   - /save: Save the last image
//   - /copy: Copy the last reply
//   - /export: Export the conversation
//   - /clear: Clear the conversation
//   - /key: Set the API key
//   - /status: Show session status
//   - /quit: Exit
//
// # Usage
//
//	exec := commands.NewExecutor(commands.NewRegistry(), env)
//	res := exec.Submit(ctx, "/model gemini-3-pro-preview")
//	if res.Quit {
//	    return
//	}
package commands
