// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/gemchat/internal/bridge"
	"github.com/jeranaias/gemchat/internal/export"
	"github.com/jeranaias/gemchat/internal/store"
)

var (
	// ErrNothingToCopy means no reply has been received yet.
	ErrNothingToCopy = errors.New("no reply to copy yet")

	// ErrNothingToSave means no image has been generated yet.
	ErrNothingToSave = errors.New("no image to save; use /img first")
)

// =============================================================================
// GENERAL
// =============================================================================

func handleHelp(ctx context.Context, env *Env, args []string, rawArgs string) Result {
	if len(args) > 0 {
		name := args[0]
		if !strings.HasPrefix(name, "/") {
			name = "/" + name
		}
		cmd := env.registry.Get(name)
		if cmd == nil {
			return fail(fmt.Errorf("unknown command %s", name))
		}
		return Result{Kind: KindInfo, Text: describe(cmd)}
	}

	var sb strings.Builder
	groups := env.registry.ByCategory()
	for _, cat := range categoryOrder {
		cmds := groups[cat]
		if len(cmds) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "%s\n", cat)
		for _, cmd := range cmds {
			usage := cmd.Usage
			if usage == "" {
				usage = cmd.Name
			}
			fmt.Fprintf(&sb, "  %-18s %s\n", usage, cmd.Description)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("Anything else is sent to the model.")
	return Result{Kind: KindInfo, Text: sb.String()}
}

func describe(cmd *Command) string {
	var sb strings.Builder
	usage := cmd.Usage
	if usage == "" {
		usage = cmd.Name
	}
	fmt.Fprintf(&sb, "%s\n  %s", usage, cmd.Description)
	if len(cmd.Aliases) > 0 {
		fmt.Fprintf(&sb, "\n  aliases: %s", strings.Join(cmd.Aliases, ", "))
	}
	for _, a := range cmd.Args {
		req := "optional"
		if a.Required {
			req = "required"
		}
		fmt.Fprintf(&sb, "\n  %s (%s): %s", a.Name, req, a.Description)
	}
	return sb.String()
}

func handleQuit(ctx context.Context, env *Env, args []string, rawArgs string) Result {
	return Result{Quit: true}
}

func handleStatus(ctx context.Context, env *Env, args []string, rawArgs string) Result {
	auth := "not set"
	if env.Bridge.CheckAuth().Authenticated {
		auth = "set"
	}
	turns := len(env.Bridge.GetHistory().History)
	return info("API key: %s\nModel:   %s\nTurns:   %d", auth, env.Bridge.GetCurrentModel().Model, turns)
}

// =============================================================================
// CONVERSATION
// =============================================================================

func handleClear(ctx context.Context, env *Env, args []string, rawArgs string) Result {
	if resp := env.Bridge.ClearHistory(ctx); resp.Failed() {
		return failResp(resp)
	}
	env.setLastReply("")
	res := info("Conversation cleared.")
	res.Cleared = true
	return res
}

func handleCopy(ctx context.Context, env *Env, args []string, rawArgs string) Result {
	reply := env.LastReply()
	if reply == "" {
		return fail(ErrNothingToCopy)
	}
	if err := env.copy(reply); err != nil {
		return fail(fmt.Errorf("failed to copy to clipboard: %w", err))
	}
	return info("Copied last reply to clipboard.")
}

func handleExport(ctx context.Context, env *Env, args []string, rawArgs string) Result {
	history := env.Bridge.GetHistory().History
	tr := export.Transcript{
		Model:      env.Bridge.GetCurrentModel().Model,
		Turns:      toTurns(history),
		ExportedAt: time.Now(),
	}

	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	written, err := export.ToFile(tr, export.ForPath(path), path)
	if err != nil {
		return fail(err)
	}
	return info("Exported %d turns to %s", len(history), written)
}

func toTurns(msgs []bridge.Message) []store.Turn {
	turns := make([]store.Turn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, store.Turn{Role: store.NormalizeRole(m.Role), Content: m.Text})
	}
	return turns
}

// =============================================================================
// IMAGES
// =============================================================================

func handleImage(ctx context.Context, env *Env, args []string, rawArgs string) Result {
	resp := env.Bridge.GenerateImage(ctx, rawArgs)
	if resp.Failed() {
		return failResp(resp)
	}
	env.setLastImage(resp.Image)
	return Result{Kind: KindImage, Image: resp.Image, Text: rawArgs}
}

func handleSave(ctx context.Context, env *Env, args []string, rawArgs string) Result {
	img := env.LastImage()
	if img == "" {
		return fail(ErrNothingToSave)
	}
	req := bridge.SaveImageRequest{Image: img}
	if len(args) > 0 {
		req.Path = args[0]
	}
	resp := env.Bridge.SaveImage(req)
	if resp.Failed() {
		return failResp(resp)
	}
	return info("Saved image to %s", resp.Path)
}

// =============================================================================
// SETTINGS
// =============================================================================

func handleModel(ctx context.Context, env *Env, args []string, rawArgs string) Result {
	current := env.Bridge.GetCurrentModel().Model
	if len(args) == 0 {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Current model: %s\n", current)
		for _, m := range env.Models {
			marker := " "
			if m.ID == current {
				marker = "*"
			}
			fmt.Fprintf(&sb, "\n %s %-24s %s", marker, m.ID, m.Tier)
		}
		return Result{Kind: KindInfo, Text: sb.String()}
	}

	resp := env.Bridge.ChangeModel(ctx, args[0])
	if resp.Failed() {
		return failResp(resp)
	}
	res := info("Switched to %s", resp.Model)
	res.Model = resp.Model
	return res
}

func handleKey(ctx context.Context, env *Env, args []string, rawArgs string) Result {
	if len(args) == 0 {
		return Result{PromptKey: true}
	}
	resp := env.Bridge.SaveAPIKey(ctx, args[0])
	if resp.Failed() {
		return failResp(resp)
	}
	return info("API key saved.")
}
