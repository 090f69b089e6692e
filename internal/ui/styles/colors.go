// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Blue - Brand color, user turns, prompt
var Blue = lipgloss.AdaptiveColor{Light: "#1A73E8", Dark: "#8AB4F8"}

// Violet - Model turns
var Violet = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#C4B5FD"}

// Emerald - Success and info notices
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Rose - Errors
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings, paid tier badge
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// =============================================================================
// SURFACE AND TEXT
// =============================================================================

// SurfaceDim - Header and status bar background
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F1F3F4", Dark: "#1F2023"}

// Overlay - Borders and separators
var Overlay = lipgloss.AdaptiveColor{Light: "#DADCE0", Dark: "#3C4043"}

var TextPrimary = lipgloss.AdaptiveColor{Light: "#202124", Dark: "#E8EAED"}
var TextSecondary = lipgloss.AdaptiveColor{Light: "#5F6368", Dark: "#BDC1C6"}
var TextMuted = lipgloss.AdaptiveColor{Light: "#80868B", Dark: "#9AA0A6"}
