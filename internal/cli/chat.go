// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jeranaias/gemchat/internal/config"
	chatui "github.com/jeranaias/gemchat/internal/ui/chat"
	"github.com/jeranaias/gemchat/internal/ui/styles"
)

func newChatCommand(g *globalOptions) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat",
		Long: `Start an interactive chat with Gemini.

The full screen interface is used when stdin and stdout are terminals.
--plain, or redirected input or output, selects the line-oriented chat,
which reads one message or /command per line.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(app *App) error {
				return runChat(cmd, app, plain)
			})
		},
	}
	cmd.Flags().BoolVarP(&plain, "plain", "p", false, "use the line-oriented chat")
	return cmd
}

// runChat picks the full screen or line-oriented chat.
func runChat(cmd *cobra.Command, app *App, plain bool) error {
	if plain || !Interactive() {
		return runREPL(cmd, app)
	}
	return runTUI(cmd.Context(), app)
}

// runTUI runs the full screen chat. Edits to settings.toml are applied while
// it runs.
func runTUI(ctx context.Context, app *App) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan *config.Config, 1)
	watcher, err := config.NewWatcher(app.Config.SettingsPath(), func(cfg *config.Config) {
		select {
		case updates <- cfg:
		default:
			app.Logger.Debug("settings update dropped; previous one still pending")
		}
	})
	if err != nil {
		app.Logger.Warn("settings watcher disabled", "error", err)
	} else {
		go watcher.Run(ctx)
	}

	m := chatui.New(chatui.Options{
		Executor:       app.Executor,
		Theme:          styles.NewTheme(app.Config.UI.Theme),
		WordWrap:       app.Config.UI.WordWrap,
		ShowTimestamps: app.Config.UI.ShowTimestamps,
		Logger:         app.Logger,
	})
	return chatui.Run(ctx, m, updates)
}

// runREPL runs the line-oriented chat on the command's streams.
func runREPL(cmd *cobra.Command, app *App) error {
	var in lineReader
	if Interactive() {
		completer := commandsCompleter(app)
		in = newLinerReader(filepath.Join(app.Config.DataDir, InputHistoryFile), completer)
	} else {
		in = newScanReader(cmd.InOrStdin(), cmd.OutOrStdout(), false)
	}
	defer in.Close()

	r := &repl{
		exec:     app.Executor,
		in:       in,
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
		renderer: newRenderer(app.Config.UI.Theme, app.Config.UI.WordWrap),
	}
	return r.run(cmd.Context())
}
