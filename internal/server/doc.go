// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server exposes the bridge channels over HTTP on the loopback
// interface, for front ends that run outside the gemchat process.
//
// # Endpoints
//
//   - GET  /health            - Liveness and authentication state
//   - GET  /api/channels      - Channel names accepted below
//   - POST /api/{channel}     - Dispatch; the body is the JSON payload
//
// Every /api response body is a bridge.Response. Operation failures use
// status 200 with the error field set; transport failures (bad token, body
// too large, rate limit) use the usual HTTP status codes.
//
// # Security
//
//   - Binds to 127.0.0.1 only
//   - Bearer token with constant-time comparison
//   - Request body size limit
//   - Token bucket rate limiting
//   - Security headers and panic recovery
//
// # Usage
//
//	srv := server.New(b, server.Options{Port: 8787, Token: token})
//	go srv.Start()
//	defer srv.Shutdown(ctx)
package server
