// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/gemchat/internal/commands"
	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/ui/styles"
)

const (
	defaultPlaceholder = "Message Gemini, or /help"
	keyPlaceholder     = "Paste your Gemini API key and press Enter"
	maxCompletions     = 6
)

// Options configures a Model.
type Options struct {
	Executor *commands.Executor
	Theme    *styles.Theme

	// WordWrap caps the reply width; 0 uses the terminal width.
	WordWrap       int
	ShowTimestamps bool

	Logger *slog.Logger
}

// Model is the bubbletea model for the chat view.
type Model struct {
	exec      *commands.Executor
	completer *commands.Completer
	theme     *styles.Theme
	keys      KeyMap
	log       *slog.Logger

	viewport   viewport.Model
	input      textinput.Model
	spinner    spinner.Model
	renderer   *glamour.TermRenderer
	completion *commands.CompletionState

	entries []entry

	width, height  int
	wordWrap       int
	showTimestamps bool

	// busy disables input while a submission is in flight.
	busy      bool
	busySince time.Time

	// promptingKey switches the input to masked API key entry.
	promptingKey bool

	ready    bool
	quitting bool
}

// New builds the chat model.
func New(opts Options) *Model {
	if opts.Theme == nil {
		opts.Theme = styles.NewTheme(styles.ModeAuto)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	in := textinput.New()
	in.Placeholder = defaultPlaceholder
	in.Prompt = "> "
	in.CharLimit = 0
	in.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	completer := commands.NewCompleter(opts.Executor.Registry())
	completer.ModelsFn = opts.Executor.Env().ModelIDs

	m := &Model{
		exec:           opts.Executor,
		completer:      completer,
		theme:          opts.Theme,
		keys:           DefaultKeyMap(),
		log:            opts.Logger.With("component", "tui"),
		input:          in,
		spinner:        sp,
		completion:     commands.NewCompletionState(),
		wordWrap:       opts.WordWrap,
		showTimestamps: opts.ShowTimestamps,
	}
	m.applyTheme()
	m.loadHistory()
	return m
}

// Init starts the cursor blink and, without a credential, asks for a key.
func (m *Model) Init() tea.Cmd {
	if !m.exec.Env().Bridge.CheckAuth().Authenticated {
		m.startKeyPrompt()
		m.addEntry(entry{kind: entryNotice, text: "No API key is set. Get one at https://aistudio.google.com/apikey"})
	}
	return textinput.Blink
}

// Run runs m full screen until the user quits or ctx is done. Settings sent
// on updates are applied live.
func Run(ctx context.Context, m *Model, updates <-chan *config.Config) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if updates != nil {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case cfg, ok := <-updates:
					if !ok {
						return
					}
					p.Send(SettingsChangedMsg{Config: cfg})
				}
			}
		}()
	}

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// =============================================================================
// STATE HELPERS
// =============================================================================

// loadHistory seeds the view with the live transcript.
func (m *Model) loadHistory() {
	for _, msg := range m.exec.Env().Bridge.GetHistory().History {
		kind := entryModel
		if msg.Role == "user" {
			kind = entryUser
		}
		m.entries = append(m.entries, entry{kind: kind, text: msg.Text})
	}
}

func (m *Model) addEntry(e entry) {
	if e.at.IsZero() {
		e.at = time.Now()
	}
	m.entries = append(m.entries, e)
	m.refresh()
}

func (m *Model) startKeyPrompt() {
	m.promptingKey = true
	m.input.Reset()
	m.input.EchoMode = textinput.EchoPassword
	m.input.EchoCharacter = '•'
	m.input.Placeholder = keyPlaceholder
}

func (m *Model) stopKeyPrompt() {
	m.promptingKey = false
	m.input.Reset()
	m.input.EchoMode = textinput.EchoNormal
	m.input.Placeholder = defaultPlaceholder
}

// applyTheme rebuilds the theme-dependent widgets.
func (m *Model) applyTheme() {
	m.spinner.Style = m.theme.Spinner
	m.input.PromptStyle = m.theme.InputPrompt
	m.rebuildRenderer()
}

func (m *Model) rebuildRenderer() {
	width := m.replyWidth()
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.theme.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.log.Warn("markdown renderer unavailable", "error", err)
		m.renderer = nil
		return
	}
	m.renderer = r
}

func (m *Model) replyWidth() int {
	width := m.width - 4
	if width <= 0 {
		width = 76
	}
	if m.wordWrap > 0 && m.wordWrap < width {
		width = m.wordWrap
	}
	return width
}

// applySettings applies reloaded UI settings.
func (m *Model) applySettings(cfg *config.Config) {
	if cfg == nil {
		return
	}
	m.wordWrap = cfg.UI.WordWrap
	m.showTimestamps = cfg.UI.ShowTimestamps
	if cfg.UI.Theme != m.theme.Mode {
		m.theme = styles.NewTheme(cfg.UI.Theme)
		m.theme.SetSize(m.width, m.height)
	}
	m.applyTheme()
	m.refresh()
	m.log.Info("settings reloaded", "theme", m.theme.Mode, "word_wrap", m.wordWrap)
}
