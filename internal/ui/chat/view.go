// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/gemchat/internal/util"
)

// View renders the whole screen.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	parts := []string{m.renderHeader(), m.viewport.View()}
	if m.completion.Visible {
		parts = append(parts, m.renderCompletions())
	}
	parts = append(parts, m.renderInput(), m.renderStatus())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// =============================================================================
// HEADER AND STATUS
// =============================================================================

func (m *Model) renderHeader() string {
	env := m.exec.Env()
	model := env.Bridge.GetCurrentModel().Model

	tier := ""
	for _, opt := range env.Models {
		if opt.ID == model {
			tier = opt.Tier
			break
		}
	}

	left := m.theme.HeaderBrand.Render("gemchat") + "  " + m.theme.HeaderModel.Render(model)
	if badge := m.theme.Tier(tier); badge != "" {
		left += " " + badge
	}
	return m.theme.Header.Width(m.width).Render(left)
}

func (m *Model) renderStatus() string {
	var hints []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		hints = append(hints, m.theme.StatusKey.Render(h.Key)+m.theme.StatusDesc.Render(" "+h.Desc))
	}
	line := strings.Join(hints, m.theme.StatusDesc.Render("  "))

	auth := "no API key"
	if m.exec.Env().Bridge.CheckAuth().Authenticated {
		auth = "key set"
	}
	right := m.theme.StatusDesc.Render(auth)

	avail := m.width - 2
	gap := avail - lipgloss.Width(line) - lipgloss.Width(right)
	if gap < 1 {
		return m.theme.StatusBar.Width(m.width).Render(util.TruncateWidth(auth, avail))
	}
	return m.theme.StatusBar.Width(m.width).Render(line + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// INPUT
// =============================================================================

func (m *Model) renderInput() string {
	body := m.input.View()
	if m.busy {
		elapsed := time.Since(m.busySince).Round(time.Second)
		body = m.spinner.View() + " " + m.theme.Thinking.Render(fmt.Sprintf("Waiting for Gemini... %s", elapsed))
	}
	return m.theme.InputBox.Width(m.width - 2).Render(body)
}

func (m *Model) renderCompletions() string {
	var sb strings.Builder
	for i, c := range m.completion.Completions {
		style := m.theme.CompletionItem
		if i == m.completion.Selected {
			style = m.theme.CompletionSelected
		}
		line := style.Render(runewidth.FillRight(util.TruncateWidth(c.Display, 24), 24))
		if c.Description != "" {
			line += m.theme.CompletionDesc.Render(" " + util.TruncateWidth(c.Description, m.width-26))
		}
		sb.WriteString(line)
		if i < len(m.completion.Completions)-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

func (m *Model) renderTranscript() string {
	if len(m.entries) == 0 {
		return m.theme.Notice.Render("Start typing to chat. /img <prompt> generates an image, /help lists commands.")
	}

	blocks := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		blocks = append(blocks, m.renderEntry(e))
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderEntry(e entry) string {
	stamp := ""
	if m.showTimestamps && !e.at.IsZero() {
		stamp = " " + m.theme.Timestamp.Render(e.at.Format("15:04"))
	}
	width := m.replyWidth()

	switch e.kind {
	case entryUser:
		return m.theme.UserLabel.Render("You") + stamp + "\n" +
			m.theme.UserText.Width(width).Render(e.text)

	case entryModel:
		return m.theme.ModelLabel.Render("Gemini") + stamp + "\n" + m.renderMarkdown(e.text)

	case entryImage:
		card := fmt.Sprintf("Image generated for %q\n%s, %s\nUse /save [path] to write it to disk.",
			util.TruncateWidth(e.text, width-20), e.mime, formatBytes(e.bytes))
		return m.theme.ModelLabel.Render("Gemini") + stamp + "\n" + m.theme.ImageCard.Render(card)

	case entryError:
		return m.theme.ErrorText.Width(width).Render("Error: " + e.text)

	default:
		return m.theme.Notice.Width(width).Render(e.text)
	}
}

func (m *Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return m.theme.UserText.Width(m.replyWidth()).Render(text)
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return m.theme.UserText.Width(m.replyWidth()).Render(text)
	}
	return strings.TrimRight(out, "\n")
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
