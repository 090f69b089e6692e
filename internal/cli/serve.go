// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/gemchat/internal/server"
)

// shutdownTimeout bounds the graceful stop of the HTTP server.
const shutdownTimeout = 10 * time.Second

func newServeCommand(g *globalOptions) *cobra.Command {
	var (
		port   int
		token  string
		noAuth bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat operations over HTTP on localhost",
		Long: `Serve every chat operation as POST /api/<channel> on 127.0.0.1.

Requests must carry "Authorization: Bearer <token>". Without --token a
random token is generated and printed. GET /health and GET /api/channels
describe the server.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if noAuth && token != "" {
				return usageErrorf("--token and --no-auth cannot be combined")
			}
			if !noAuth && token == "" {
				generated, err := server.GenerateToken()
				if err != nil {
					return commandError("serve", "generate token", err)
				}
				token = generated
			}

			return withApp(cmd, g, func(app *App) error {
				srv := server.New(app.Bridge, server.Options{Port: port, Token: token, Logger: app.Logger})

				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Listening on http://%s\n", srv.Addr())
				if token != "" {
					fmt.Fprintf(w, "%s%s\n", LabelStyle.Render("Token"), token)
				} else {
					fmt.Fprintln(w, WarningStyle.Render("Authentication is disabled."))
				}

				errCh := make(chan error, 1)
				go func() { errCh <- srv.Start() }()

				select {
				case err := <-errCh:
					return commandError("serve", "serve", err)
				case <-cmd.Context().Done():
				}

				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(ctx); err != nil {
					return commandError("serve", "shut down", err)
				}
				return <-errCh
			})
		},
	}
	cmd.Flags().IntVar(&port, "port", server.DefaultPort, "port on 127.0.0.1")
	cmd.Flags().StringVar(&token, "token", "", "bearer token clients must send (default: generated)")
	cmd.Flags().BoolVar(&noAuth, "no-auth", false, "accept requests without a token")
	return cmd
}
