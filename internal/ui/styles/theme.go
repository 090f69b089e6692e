// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme modes accepted by NewTheme.
const (
	ModeAuto  = "auto"
	ModeDark  = "dark"
	ModeLight = "light"
)

// Theme holds the styled components for the TUI.
type Theme struct {
	Mode         string
	IsDark       bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// ==========================================================================
	// HEADER AND STATUS BAR
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderModel lipgloss.Style
	TierFree    lipgloss.Style
	TierPaid    lipgloss.Style
	StatusBar   lipgloss.Style
	StatusKey   lipgloss.Style
	StatusDesc  lipgloss.Style

	// ==========================================================================
	// TRANSCRIPT
	// ==========================================================================

	UserLabel  lipgloss.Style
	UserText   lipgloss.Style
	ModelLabel lipgloss.Style
	Notice     lipgloss.Style
	ErrorText  lipgloss.Style
	ImageCard  lipgloss.Style
	Timestamp  lipgloss.Style

	// ==========================================================================
	// INPUT
	// ==========================================================================

	InputBox    lipgloss.Style
	InputPrompt lipgloss.Style
	Spinner     lipgloss.Style
	Thinking    lipgloss.Style

	CompletionItem     lipgloss.Style
	CompletionSelected lipgloss.Style
	CompletionDesc     lipgloss.Style
}

// NewTheme builds a theme for mode (auto, dark or light). Unknown modes are
// treated as auto.
func NewTheme(mode string) *Theme {
	t := &Theme{
		Mode:         mode,
		ColorProfile: termenv.ColorProfile(),
	}

	switch mode {
	case ModeDark:
		t.IsDark = true
	case ModeLight:
		t.IsDark = false
	default:
		t.Mode = ModeAuto
		t.IsDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(t.IsDark)

	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Padding(0, 1)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Blue)

	t.HeaderModel = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.TierFree = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.TierPaid = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(SurfaceDim).
		Padding(0, 1)

	t.StatusKey = lipgloss.NewStyle().
		Foreground(Blue).
		Background(SurfaceDim).
		Bold(true)

	t.StatusDesc = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(SurfaceDim)

	t.UserLabel = lipgloss.NewStyle().
		Foreground(Blue).
		Bold(true)

	t.UserText = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(2)

	t.ModelLabel = lipgloss.NewStyle().
		Foreground(Violet).
		Bold(true)

	t.Notice = lipgloss.NewStyle().
		Foreground(Emerald).
		PaddingLeft(2)

	t.ErrorText = lipgloss.NewStyle().
		Foreground(Rose).
		PaddingLeft(2)

	t.ImageCard = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Violet).
		Padding(0, 1).
		MarginLeft(2)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.InputBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Blue).
		Bold(true)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Violet)

	t.Thinking = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.CompletionItem = lipgloss.NewStyle().
		Foreground(TextSecondary).
		PaddingLeft(1)

	t.CompletionSelected = lipgloss.NewStyle().
		Foreground(Blue).
		Bold(true).
		PaddingLeft(1)

	t.CompletionDesc = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GlamourStyle returns the glamour standard style matching the theme.
func (t *Theme) GlamourStyle() string {
	if t.ColorProfile == termenv.Ascii {
		return "notty"
	}
	if t.IsDark {
		return "dark"
	}
	return "light"
}

// Tier renders a model tier badge.
func (t *Theme) Tier(tier string) string {
	switch tier {
	case "":
		return ""
	case "Free":
		return t.TierFree.Render(tier)
	default:
		return t.TierPaid.Render(tier)
	}
}
