// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/gemchat/internal/bridge"
	"github.com/jeranaias/gemchat/internal/commands"
	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/provider"
	"github.com/jeranaias/gemchat/internal/session"
	"github.com/jeranaias/gemchat/internal/store"
	"github.com/jeranaias/gemchat/internal/ui/styles"
	"github.com/jeranaias/gemchat/internal/vault"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	mgr := session.New(session.Config{
		Store:    store.NewJSONStore(t.TempDir(), config.DefaultChatModel),
		Vault:    vault.NewMemory(),
		Provider: provider.NewMock(),
	})
	mgr.Initialize(context.Background())

	env := &commands.Env{
		Bridge:   bridge.New(mgr, nil),
		Models:   config.Default().Model.Available,
		CopyFunc: func(string) error { return nil },
	}
	m := New(Options{
		Executor: commands.NewExecutor(commands.NewRegistry(), env),
		Theme:    styles.NewTheme(styles.ModeDark),
	})
	m.Init()
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

// drain runs cmd and feeds any resultMsg it produces back into the model.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			if c == nil {
				continue
			}
			if res, ok := c().(resultMsg); ok {
				m.Update(res)
			}
		}
	case resultMsg:
		m.Update(msg)
	}
}

func typeAndSubmit(t *testing.T, m *Model, text string) {
	t.Helper()
	m.input.SetValue(text)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.busy)
	drain(t, m, cmd)
	require.False(t, m.busy)
}

func lastEntry(m *Model) entry {
	return m.entries[len(m.entries)-1]
}

func TestStartsInKeyPrompt(t *testing.T) {
	m := newTestModel(t)
	require.True(t, m.promptingKey)
	require.Equal(t, entryNotice, lastEntry(m).kind)
	require.Contains(t, m.View(), "gemchat")
}

func TestKeyThenChat(t *testing.T) {
	m := newTestModel(t)

	typeAndSubmit(t, m, "good-key")
	require.False(t, m.promptingKey)
	require.Equal(t, "API key saved.", lastEntry(m).text)

	typeAndSubmit(t, m, "hello there")
	require.Equal(t, entryModel, lastEntry(m).kind)
	require.Equal(t, "reply[gemini-2.5-flash]: hello there", lastEntry(m).text)
	require.Equal(t, entryUser, m.entries[len(m.entries)-2].kind)

	typeAndSubmit(t, m, "/img a lighthouse")
	img := lastEntry(m)
	require.Equal(t, entryImage, img.kind)
	require.Equal(t, "image/png", img.mime)
	require.Equal(t, 4, img.bytes)

	typeAndSubmit(t, m, "/clear")
	require.Len(t, m.entries, 1)
	require.Equal(t, "Conversation cleared.", lastEntry(m).text)
}

func TestErrorsRenderInline(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, m.promptingKey)

	typeAndSubmit(t, m, "hello")
	require.Equal(t, entryError, lastEntry(m).kind)
	require.Equal(t, "API key is not set", lastEntry(m).text)
}

func TestKeyCommandPrompts(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	typeAndSubmit(t, m, "/key")
	require.True(t, m.promptingKey)
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.True(t, m.quitting)
	require.NotNil(t, cmd)
	require.Empty(t, m.View())
}

func TestCompletionPopup(t *testing.T) {
	m := newTestModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	m.input.SetValue("/mo")
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.True(t, m.completion.Visible)

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, "/model ", m.input.Value())
	require.False(t, m.completion.Visible)
}

func TestSettingsChanged(t *testing.T) {
	m := newTestModel(t)
	cfg := config.Default()
	cfg.UI.Theme = styles.ModeLight
	cfg.UI.WordWrap = 40

	m.Update(SettingsChangedMsg{Config: cfg})
	require.Equal(t, styles.ModeLight, m.theme.Mode)
	require.Equal(t, 40, m.replyWidth())
}

func TestFormatBytes(t *testing.T) {
	require.Equal(t, "512 B", formatBytes(512))
	require.Equal(t, "1.5 KB", formatBytes(1536))
	require.Equal(t, "2.0 MB", formatBytes(2<<20))
}
