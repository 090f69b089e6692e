// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the gemchat TUI.

All colors are Lip Gloss AdaptiveColor values. The light or dark variant is
chosen by the terminal background unless the ui.theme setting forces one.

# Colors (colors.go)

  - Blue - Brand accent, user turns
  - Violet - Model turns
  - Emerald - Success and info notices
  - Rose - Errors
  - Amber - Warnings, paid model tier

# Theme (theme.go)

	theme := styles.NewTheme(cfg.UI.Theme)
	header := theme.Header.Render("gemchat")

Theme.GlamourStyle names the matching glamour style for Markdown replies.
*/
package styles
