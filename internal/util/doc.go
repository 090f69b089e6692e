// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds small helpers shared by gemchat packages.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: crash-safe write used for every persisted document
//   - AtomicWriteFileWithDir: same, with an explicit parent directory mode
//
// String Utilities:
//   - TruncateWidth: display-width truncation for the status bar
//   - MaskSecret: safe rendering of an API key in logs and prompts
//
// # Usage
//
//	// Persist a document so readers never see a partial write
//	err := util.AtomicWriteFile(path, data, 0600)
//
//	// Log which key is in use without leaking it
//	slog.Info("key saved", "key", util.MaskSecret(key))
package util
