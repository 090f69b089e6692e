// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/gemchat/internal/export"
	"github.com/jeranaias/gemchat/internal/store"
)

func newHistoryCommand(g *globalOptions) *cobra.Command {
	var (
		clearAll bool
		outPath  string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show, clear or export the saved conversation",
		Long: `Print the saved conversation.

--export writes it to a file instead; the format follows the extension
(.md, .html or .json, Markdown otherwise). --clear starts a new
conversation and deletes the saved one.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearAll && outPath != "" {
				return usageErrorf("--clear and --export cannot be combined")
			}

			return withApp(cmd, g, func(app *App) error {
				w := cmd.OutOrStdout()

				switch {
				case clearAll:
					if err := app.Manager.ClearHistory(cmd.Context()); err != nil {
						return commandError("history", "clear history", err)
					}
					fmt.Fprintln(w, "Conversation cleared.")
					return nil

				case outPath != "":
					tr := export.Transcript{
						Model:      app.Manager.CurrentModel(),
						Turns:      app.Manager.HistoryForDisplay(),
						ExportedAt: time.Now(),
					}
					written, err := export.ToFile(tr, export.ForPath(outPath), outPath)
					if err != nil {
						return commandError("history", "export history", err)
					}
					fmt.Fprintf(w, "Exported %d turns to %s\n", len(tr.Turns), written)
					return nil
				}

				turns := app.Manager.HistoryForDisplay()
				return emit(w, "history", asJSON, turns, nil, func() error {
					if len(turns) == 0 {
						fmt.Fprintln(w, DimStyle.Render("No saved conversation."))
						return nil
					}
					for i, t := range turns {
						if i > 0 {
							fmt.Fprintln(w)
						}
						label := UserStyle.Render("You")
						if t.Role == store.RoleModel {
							label = ModelStyle.Render("Gemini")
						}
						fmt.Fprintf(w, "%s\n%s\n", label, t.Content)
					}
					return nil
				})
			})
		},
	}
	cmd.Flags().BoolVar(&clearAll, "clear", false, "delete the saved conversation")
	cmd.Flags().StringVarP(&outPath, "export", "e", "", "write the conversation to `file`")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the conversation as JSON")
	return cmd
}
