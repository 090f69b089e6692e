// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/gemchat/internal/commands"
	"github.com/jeranaias/gemchat/internal/config"
)

// resultMsg carries the outcome of an asynchronous submission.
type resultMsg struct {
	result commands.Result
}

// SettingsChangedMsg delivers reloaded settings.
type SettingsChangedMsg struct {
	Config *config.Config
}

// =============================================================================
// TRANSCRIPT ENTRIES
// =============================================================================

type entryKind int

const (
	entryUser entryKind = iota
	entryModel
	entryNotice
	entryError
	entryImage
)

// entry is one block in the transcript view.
type entry struct {
	kind entryKind
	text string
	at   time.Time

	// image fields
	mime  string
	bytes int
}
