// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// maxStdinPrompt bounds a prompt read from stdin.
const maxStdinPrompt = 1 << 20

type askResult struct {
	Model string `json:"model"`
	Reply string `json:"reply"`
}

func newAskCommand(g *globalOptions) *cobra.Command {
	var raw, asJSON bool

	cmd := &cobra.Command{
		Use:   "ask [prompt...]",
		Short: "Send one message and print the reply",
		Long: `Send one message in the current conversation and print the reply.

The prompt is taken from the arguments, or from stdin when there are none.
The exchange is added to the saved history like any other message.`,
		Example: `  gemchat ask "What is a goroutine?"
  git diff | gemchat ask --raw`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			if prompt == "" && !IsTTY() {
				data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), maxStdinPrompt))
				if err != nil {
					return commandError("ask", "read stdin", err)
				}
				prompt = string(data)
			}
			if strings.TrimSpace(prompt) == "" {
				return usageErrorf("no prompt given")
			}

			return withApp(cmd, g, func(app *App) error {
				reply, err := app.Manager.SendMessage(cmd.Context(), prompt)
				res := askResult{Model: app.Manager.CurrentModel(), Reply: reply}
				return emit(cmd.OutOrStdout(), "ask", asJSON, res, commandError("ask", "send message", err), func() error {
					renderer := newRenderer(app.Config.UI.Theme, app.Config.UI.WordWrap)
					if raw {
						renderer = nil
					}
					fmt.Fprintln(cmd.OutOrStdout(), renderMarkdown(renderer, reply))
					return nil
				})
			})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the reply without Markdown rendering")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the reply as JSON")
	return cmd
}
