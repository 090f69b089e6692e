// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gemchat/internal/commands"
	"github.com/jeranaias/gemchat/internal/export"
)

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case resultMsg:
		return m.handleResult(msg.result)

	case SettingsChangedMsg:
		m.applySettings(msg.Config)
		return m, nil

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// LAYOUT
// =============================================================================

// chromeHeight is header + input box + status bar.
const chromeHeight = 1 + 3 + 1

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.theme.SetSize(width, height)

	vpHeight := height - chromeHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}
	m.input.Width = width - 6

	m.rebuildRenderer()
	m.refresh()
}

// refresh re-renders the transcript and keeps the view pinned to the bottom
// when it already was.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderTranscript())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// KEYS
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.busy {
		return m, nil
	}

	if m.completion.Visible {
		switch {
		case key.Matches(msg, m.keys.Next):
			m.completion.Next()
			return m, nil
		case key.Matches(msg, m.keys.Prev):
			m.completion.Prev()
			return m, nil
		case key.Matches(msg, m.keys.Complete):
			m.acceptCompletion()
			return m, nil
		case key.Matches(msg, m.keys.Cancel):
			m.completion.Clear()
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Cancel):
		if m.promptingKey {
			m.stopKeyPrompt()
			m.addEntry(entry{kind: entryNotice, text: "API key entry cancelled. Use /key to try again."})
		}
		return m, nil

	case key.Matches(msg, m.keys.Complete):
		if !m.promptingKey {
			m.updateCompletions()
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.completion.Visible {
		m.updateCompletions()
	}
	return m, cmd
}

func (m *Model) updateCompletions() {
	comps := m.completer.Complete(m.input.Value())
	if len(comps) > maxCompletions {
		comps = comps[:maxCompletions]
	}
	m.completion.Update(comps)
}

func (m *Model) acceptCompletion() {
	value := m.completion.Accept()
	if value == "" {
		return
	}
	current := m.input.Value()
	head := ""
	if i := strings.LastIndex(current, " "); i >= 0 {
		head = current[:i+1]
	}
	m.input.SetValue(head + value + " ")
	m.input.CursorEnd()
	m.completion.Clear()
}

// =============================================================================
// SUBMISSION
// =============================================================================

func (m *Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	m.completion.Clear()
	if text == "" {
		return m, nil
	}

	exec := m.exec
	var run func() commands.Result
	if m.promptingKey {
		m.stopKeyPrompt()
		m.addEntry(entry{kind: entryNotice, text: "Validating API key..."})
		run = func() commands.Result { return exec.SaveKey(context.Background(), text) }
	} else {
		m.input.Reset()
		if !commands.IsCommand(text) {
			m.addEntry(entry{kind: entryUser, text: text})
		}
		run = func() commands.Result { return exec.Submit(context.Background(), text) }
	}

	m.busy = true
	m.busySince = time.Now()
	m.input.Blur()
	return m, tea.Batch(
		func() tea.Msg { return resultMsg{result: run()} },
		m.spinner.Tick,
	)
}

func (m *Model) handleResult(res commands.Result) (tea.Model, tea.Cmd) {
	m.busy = false
	m.input.Focus()

	if res.Quit {
		m.quitting = true
		return m, tea.Quit
	}
	if res.Cleared {
		m.entries = nil
	}
	if res.PromptKey {
		m.startKeyPrompt()
		m.refresh()
		return m, textinput.Blink
	}

	switch res.Kind {
	case commands.KindReply:
		m.addEntry(entry{kind: entryModel, text: res.Text})
	case commands.KindImage:
		e := entry{kind: entryImage, text: res.Text}
		if mime, data, err := export.ParseDataURI(res.Image); err == nil {
			e.mime, e.bytes = mime, len(data)
		}
		m.addEntry(e)
	case commands.KindInfo:
		m.addEntry(entry{kind: entryNotice, text: res.Text})
	case commands.KindError:
		m.addEntry(entry{kind: entryError, text: res.Err.Error()})
	default:
		m.refresh()
	}
	return m, textinput.Blink
}
