// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"sort"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// HandlerFunc executes a command.
type HandlerFunc func(ctx context.Context, env *Env, args []string, rawArgs string) Result

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/model [id]")
	Usage string

	Args []ArgDef

	Handler HandlerFunc

	// NeedsAuth commands fail early without a credential.
	NeedsAuth bool

	Hidden bool

	// Category for grouping in help display
	Category string
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	Name        string
	Required    bool
	Type        ArgType
	Description string

	// Values for enum types
	Values []string
}

// ArgType indicates what kind of completion to provide.
type ArgType int

const (
	ArgTypeString ArgType = iota // Free-form string
	ArgTypeModel                 // Model id from the catalogue
	ArgTypeFile                  // File path
	ArgTypeEnum                  // One of predefined values
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a new command registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) *Command {
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// ByCategory returns visible commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.All() {
		if cmd.Hidden {
			continue
		}
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// categoryOrder is the display order for help.
var categoryOrder = []string{"Conversation", "Images", "Settings", "General"}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show help and available commands",
		Usage:       "/help [command]",
		Args: []ArgDef{
			{Name: "command", Type: ArgTypeString, Description: "Command to describe"},
		},
		Category: "General",
		Handler:  handleHelp,
	})

	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit gemchat",
		Category:    "General",
		Handler:     handleQuit,
	})

	r.Register(&Command{
		Name:        "/status",
		Description: "Show authentication, model and transcript size",
		Category:    "General",
		Handler:     handleStatus,
	})

	r.Register(&Command{
		Name:        "/clear",
		Aliases:     []string{"/new"},
		Description: "Clear the conversation history",
		Category:    "Conversation",
		NeedsAuth:   true,
		Handler:     handleClear,
	})

	r.Register(&Command{
		Name:        "/copy",
		Description: "Copy the last reply to the clipboard",
		Category:    "Conversation",
		Handler:     handleCopy,
	})

	r.Register(&Command{
		Name:        "/export",
		Description: "Export the conversation (markdown, html or json by extension)",
		Usage:       "/export [path]",
		Args: []ArgDef{
			{Name: "path", Type: ArgTypeFile, Description: "Output file"},
		},
		Category: "Conversation",
		Handler:  handleExport,
	})

	r.Register(&Command{
		Name:        "/img",
		Aliases:     []string{"/image"},
		Description: "Generate an image from a prompt",
		Usage:       "/img <prompt>",
		Args: []ArgDef{
			{Name: "prompt", Required: true, Type: ArgTypeString, Description: "Image description"},
		},
		Category:  "Images",
		NeedsAuth: true,
		Handler:   handleImage,
	})

	r.Register(&Command{
		Name:        "/save",
		Description: "Save the last generated image",
		Usage:       "/save [path]",
		Args: []ArgDef{
			{Name: "path", Type: ArgTypeFile, Description: "Output file or directory"},
		},
		Category: "Images",
		Handler:  handleSave,
	})

	r.Register(&Command{
		Name:        "/model",
		Aliases:     []string{"/m"},
		Description: "Show or switch the chat model",
		Usage:       "/model [id]",
		Args: []ArgDef{
			{Name: "id", Type: ArgTypeModel, Description: "Model id"},
		},
		Category: "Settings",
		Handler:  handleModel,
	})

	r.Register(&Command{
		Name:        "/key",
		Description: "Set the Gemini API key",
		Usage:       "/key [api-key]",
		Args: []ArgDef{
			{Name: "api-key", Type: ArgTypeString, Description: "Leave empty to be prompted"},
		},
		Category: "Settings",
		Handler:  handleKey,
	})
}
