// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/atotto/clipboard"

	"github.com/jeranaias/gemchat/internal/bridge"
	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/session"
)

// =============================================================================
// RESULT
// =============================================================================

// Kind says how a front end should render a Result.
type Kind int

const (
	KindNone  Kind = iota // Nothing to show
	KindReply             // Model reply, Markdown in Text
	KindImage             // Generated image, data URI in Image
	KindInfo              // Status text
	KindError             // Failure in Err
)

// Result is the outcome of one submission.
type Result struct {
	Kind Kind

	// Text is the reply, the status text, or the image prompt.
	Text string

	// Image is a data URI for KindImage.
	Image string

	Err error

	// Quit asks the front end to exit.
	Quit bool

	// Cleared means the conversation was reset.
	Cleared bool

	// PromptKey asks the front end to read an API key without echo and pass
	// it to Executor.SaveKey.
	PromptKey bool

	// Model is set when the active model changed.
	Model string
}

func info(format string, args ...any) Result {
	return Result{Kind: KindInfo, Text: fmt.Sprintf(format, args...)}
}

func fail(err error) Result {
	return Result{Kind: KindError, Err: err}
}

// failResp converts a bridge failure into a Result.
func failResp(resp bridge.Response) Result {
	return fail(errors.New(resp.Error))
}

// =============================================================================
// ENVIRONMENT
// =============================================================================

// Env is what command handlers operate on.
type Env struct {
	Bridge *bridge.Bridge

	// Models is the catalogue offered by /model.
	Models []config.ModelOption

	// CopyFunc writes to the clipboard; nil uses the system clipboard.
	CopyFunc func(string) error

	registry *Registry

	mu        sync.Mutex
	lastReply string
	lastImage string
}

// LastReply returns the most recent model reply.
func (e *Env) LastReply() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastReply
}

// LastImage returns the most recent image data URI.
func (e *Env) LastImage() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastImage
}

func (e *Env) setLastReply(s string) {
	e.mu.Lock()
	e.lastReply = s
	e.mu.Unlock()
}

func (e *Env) setLastImage(s string) {
	e.mu.Lock()
	e.lastImage = s
	e.mu.Unlock()
}

func (e *Env) copy(text string) error {
	if e.CopyFunc != nil {
		return e.CopyFunc(text)
	}
	return clipboard.WriteAll(text)
}

// ModelIDs returns the catalogue ids.
func (e *Env) ModelIDs() []string {
	ids := make([]string, 0, len(e.Models))
	for _, m := range e.Models {
		ids = append(ids, m.ID)
	}
	return ids
}

// =============================================================================
// EXECUTOR
// =============================================================================

// Executor runs user submissions: slash commands through the registry and
// everything else as a chat message.
type Executor struct {
	registry *Registry
	parser   *Parser
	env      *Env
}

// NewExecutor returns an Executor over registry and env.
func NewExecutor(registry *Registry, env *Env) *Executor {
	env.registry = registry
	return &Executor{
		registry: registry,
		parser:   NewParser(registry),
		env:      env,
	}
}

// Registry returns the command registry.
func (x *Executor) Registry() *Registry {
	return x.registry
}

// Env returns the handler environment.
func (x *Executor) Env() *Env {
	return x.env
}

// Submit handles one line of user input.
func (x *Executor) Submit(ctx context.Context, input string) Result {
	input = strings.TrimSpace(input)
	if input == "" {
		return Result{}
	}

	parsed := x.parser.Parse(input)
	if !parsed.IsCommand {
		return x.Send(ctx, input)
	}

	cmd := parsed.Command
	if cmd == nil {
		return fail(fmt.Errorf("unknown command %s (type /help)", parsed.CommandName))
	}
	if err := ValidateArgs(cmd, parsed.Args); err != nil {
		return fail(err)
	}
	if cmd.NeedsAuth && !x.env.Bridge.CheckAuth().Authenticated {
		return fail(session.ErrUnauthenticated)
	}
	return cmd.Handler(ctx, x.env, parsed.Args, parsed.RawArgs)
}

// Send sends text as a chat message.
func (x *Executor) Send(ctx context.Context, text string) Result {
	resp := x.env.Bridge.SendMessage(ctx, text)
	if resp.Failed() {
		return failResp(resp)
	}
	x.env.setLastReply(resp.Text)
	return Result{Kind: KindReply, Text: resp.Text}
}

// SaveKey stores an API key read by the front end after PromptKey.
func (x *Executor) SaveKey(ctx context.Context, key string) Result {
	resp := x.env.Bridge.SaveAPIKey(ctx, key)
	if resp.Failed() {
		return failResp(resp)
	}
	return info("API key saved.")
}
