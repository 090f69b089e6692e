// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store persists gemchat's two durable records: the config record
// (selected model plus the API credential, encrypted or plaintext) and the
// conversation history.
//
// Reads never fail. An absent, unreadable or malformed document yields a
// default value (the default model, an empty history) and the corruption is
// logged. Writes are atomic from the caller's view: the JSON backend writes
// through util.AtomicWriteFile and the SQLite backend replaces the transcript
// inside one transaction.
//
// Callers serialize access; the session manager is the only writer.
package store
