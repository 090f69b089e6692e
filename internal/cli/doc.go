// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the gemchat command line.
//
// Running gemchat with no subcommand opens the full screen chat when stdin
// and stdout are terminals, and a line-oriented chat otherwise. The
// subcommands cover one-shot use:
//
//	gemchat ask "explain goroutines"      one message, reply on stdout
//	gemchat chat --plain                  line-oriented chat
//	gemchat key set [--from-env]          store an API key
//	gemchat key status                    show whether a key is stored
//	gemchat model [id]                    list or switch models
//	gemchat history [--clear|--export f]  show, clear or export the transcript
//	gemchat image "a red fox" -o fox.png  generate and save an image
//	gemchat serve [--port n]              serve the bridge over HTTP
//	gemchat version                       print build information
//
// Every command shares --data-dir and --debug.
package cli
