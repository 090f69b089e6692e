// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/gemchat/internal/export"
)

type imageResult struct {
	Path     string `json:"path"`
	MIMEType string `json:"mime_type"`
	Bytes    int    `json:"bytes"`
}

func newImageCommand(g *globalOptions) *cobra.Command {
	var (
		outPath string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "image <prompt...>",
		Short: "Generate an image and save it",
		Long: `Generate an image from a text prompt with the image model and save it.

Without --output the file is named nano-banana-<timestamp>.<ext> in the
working directory. When --output is a directory the default name is
used inside it. Image prompts are not added to the conversation.`,
		Example: `  gemchat image "a watercolor fox" -o fox.png`,
		Args:    minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")

			return withApp(cmd, g, func(app *App) error {
				img, err := app.Manager.GenerateImage(cmd.Context(), prompt)
				if err != nil {
					return emit(cmd.OutOrStdout(), "image", asJSON, nil, commandError("image", "generate image", err), nil)
				}
				path, err := export.SaveDataURI(img.DataURI(), outPath)
				res := imageResult{Path: path, MIMEType: img.MIMEType, Bytes: len(img.Data)}
				return emit(cmd.OutOrStdout(), "image", asJSON, res, commandError("image", "save image", err), func() error {
					fmt.Fprintf(cmd.OutOrStdout(), "Saved image to %s\n", SuccessStyle.Render(path))
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "image `path` or directory")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
