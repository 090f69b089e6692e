// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

// Execute runs the command line and prints any error to stderr. The caller
// maps the returned error to an exit code with ExitCode.
func Execute(ctx context.Context) error {
	root := NewRootCommand()
	err := root.ExecuteContext(ctx)
	var reported *reportedError
	if err != nil && !errors.As(err, &reported) {
		DisplayError(root.ErrOrStderr(), err)
	}
	return err
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:   "gemchat",
		Short: "Chat with Google Gemini from the terminal",
		Long: `gemchat is a terminal client for Google Gemini.

Run it without arguments to start chatting. The API key is stored
encrypted in the data directory; use "gemchat key set" or /key in the
chat to add one.`,
		Version:       Version,
		Args:          noArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(app *App) error {
				return runChat(cmd, app, false)
			})
		},
	}
	root.SetVersionTemplate(versionString() + "\n")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&g.dataDir, "data-dir", "", "data directory (default: user config dir, or $GEMCHAT_DATA_DIR)")
	flags.BoolVar(&g.debug, "debug", false, "write debug records to the log file")

	root.AddCommand(
		newChatCommand(g),
		newAskCommand(g),
		newKeyCommand(g),
		newModelCommand(g),
		newHistoryCommand(g),
		newImageCommand(g),
		newServeCommand(g),
		newVersionCommand(),
	)
	return root
}

// withApp builds the App for one command and closes it afterwards.
func withApp(cmd *cobra.Command, g *globalOptions, fn func(*App) error) error {
	app, err := newApp(cmd.Context(), *g)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

// =============================================================================
// ARGUMENT VALIDATORS
// =============================================================================

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageErrorf("unknown argument %q for %q", args[0], cmd.CommandPath())
	}
	return nil
}

func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) > n {
			return usageErrorf("%q accepts at most %d argument(s), received %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return usageErrorf("%q requires at least %d argument(s)", cmd.CommandPath(), n)
		}
		return nil
	}
}
