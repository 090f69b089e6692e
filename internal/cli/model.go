// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type modelEntry struct {
	ID      string `json:"id"`
	Tier    string `json:"tier"`
	Current bool   `json:"current"`
}

type modelList struct {
	Current string       `json:"current"`
	Models  []modelEntry `json:"models"`
}

func newModelCommand(g *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "model [id]",
		Short: "List models or switch the active one",
		Long: `Without an argument, list the configured models and mark the active one.
With a model id, switch to it. The conversation is kept; the stored API
key is not revalidated.`,
		Args: maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(app *App) error {
				w := cmd.OutOrStdout()
				if len(args) == 1 {
					err := commandError("model", "switch model", app.Manager.ChangeModel(cmd.Context(), args[0]))
					return emit(w, "model", asJSON, map[string]string{"model": app.Manager.CurrentModel()}, err, func() error {
						fmt.Fprintf(w, "Switched to %s\n", SuccessStyle.Render(app.Manager.CurrentModel()))
						return nil
					})
				}

				list := modelList{Current: app.Manager.CurrentModel()}
				for _, m := range app.Config.Model.Available {
					list.Models = append(list.Models, modelEntry{ID: m.ID, Tier: m.Tier, Current: m.ID == list.Current})
				}
				return emit(w, "model", asJSON, list, nil, func() error {
					for _, m := range list.Models {
						mark := " "
						if m.Current {
							mark = SuccessStyle.Render("*")
						}
						fmt.Fprintf(w, "%s %-24s %s\n", mark, m.ID, DimStyle.Render(m.Tier))
					}
					return nil
				})
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
