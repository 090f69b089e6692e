// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestNewThemeForcedModes(t *testing.T) {
	dark := NewTheme(ModeDark)
	assert.True(t, dark.IsDark)
	assert.Equal(t, ModeDark, dark.Mode)

	light := NewTheme(ModeLight)
	assert.False(t, light.IsDark)

	other := NewTheme("neon")
	assert.Equal(t, ModeAuto, other.Mode)
}

func TestGlamourStyle(t *testing.T) {
	th := NewTheme(ModeDark)
	th.ColorProfile = termenv.TrueColor
	assert.Equal(t, "dark", th.GlamourStyle())

	th.IsDark = false
	assert.Equal(t, "light", th.GlamourStyle())

	th.ColorProfile = termenv.Ascii
	assert.Equal(t, "notty", th.GlamourStyle())
}

func TestTierBadge(t *testing.T) {
	th := NewTheme(ModeLight)
	assert.Empty(t, th.Tier(""))
	assert.Contains(t, th.Tier("Free"), "Free")
	assert.Contains(t, th.Tier("Paid"), "Paid")
}

func TestSetSize(t *testing.T) {
	th := NewTheme(ModeLight)
	th.SetSize(80, 24)
	assert.Equal(t, 80, th.Width)
	assert.Equal(t, 24, th.Height)
}
