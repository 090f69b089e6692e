// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jeranaias/gemchat/internal/util"
)

// APIKeyEnvVars are read, in order, by "key set --from-env".
var APIKeyEnvVars = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}

type keyStatus struct {
	Authenticated bool   `json:"authenticated"`
	Model         string `json:"model"`
	DataDir       string `json:"data_dir"`
}

func newKeyCommand(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the Gemini API key",
		Args:  noArgs,
	}
	status := newKeyStatusCommand(g)
	cmd.RunE = status.RunE
	cmd.Flags().AddFlagSet(status.Flags())
	cmd.AddCommand(newKeySetCommand(g), status)
	return cmd
}

func newKeySetCommand(g *globalOptions) *cobra.Command {
	var fromEnv bool

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Validate and store an API key",
		Long: `Validate an API key against the selected model and store it.

The key is read without echo from the terminal, from the first line of
stdin when it is not a terminal, or from $GEMINI_API_KEY or
$GOOGLE_API_KEY with --from-env. It is stored encrypted when the
platform protector is available.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := readKey(cmd, fromEnv)
			if err != nil {
				return err
			}
			return withApp(cmd, g, func(app *App) error {
				if err := app.Manager.SaveCredential(cmd.Context(), key); err != nil {
					return commandError("key set", "save API key", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", SuccessStyle.Render("API key saved."),
					DimStyle.Render(util.MaskSecret(key)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&fromEnv, "from-env", false, "read the key from $GEMINI_API_KEY or $GOOGLE_API_KEY")
	return cmd
}

func newKeyStatusCommand(g *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether an API key is stored",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(app *App) error {
				st := keyStatus{
					Authenticated: app.Manager.HasCredential(),
					Model:         app.Manager.CurrentModel(),
					DataDir:       app.Config.DataDir,
				}
				return emit(cmd.OutOrStdout(), "key status", asJSON, st, nil, func() error {
					w := cmd.OutOrStdout()
					state := WarningStyle.Render("not set")
					if st.Authenticated {
						state = SuccessStyle.Render("set")
					}
					fmt.Fprintf(w, "%s%s\n", LabelStyle.Render("API key"), state)
					fmt.Fprintf(w, "%s%s\n", LabelStyle.Render("Model"), ValueStyle.Render(st.Model))
					fmt.Fprintf(w, "%s%s\n", LabelStyle.Render("Data dir"), ValueStyle.Render(st.DataDir))
					return nil
				})
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the status as JSON")
	return cmd
}

// readKey reads the key to store from the environment, the terminal or
// stdin.
func readKey(cmd *cobra.Command, fromEnv bool) (string, error) {
	if fromEnv {
		for _, name := range APIKeyEnvVars {
			if v := strings.TrimSpace(os.Getenv(name)); v != "" {
				return v, nil
			}
		}
		return "", usageErrorf("neither %s is set", strings.Join(APIKeyEnvVars, " nor "))
	}

	if IsTTY() {
		fmt.Fprint(cmd.ErrOrStderr(), keyPrompt)
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", commandError("key set", "read API key", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", commandError("key set", "read API key", err)
	}
	return strings.TrimSpace(line), nil
}
