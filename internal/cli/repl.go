// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"

	"github.com/jeranaias/gemchat/internal/commands"
)

const (
	// InputHistoryFile keeps line editor history inside the data directory.
	InputHistoryFile = "input_history"

	replPrompt = "gemchat> "
	keyPrompt  = "API key: "
)

// =============================================================================
// LINE READERS
// =============================================================================

// lineReader reads one line of user input at a time.
type lineReader interface {
	ReadLine(prompt string) (string, error)

	// ReadSecret reads a line without echo when the terminal allows it.
	ReadSecret(prompt string) (string, error)

	Close() error
}

// linerReader edits lines with history and tab completion. The prompt must
// be plain text: liner rejects control characters.
type linerReader struct {
	line        *liner.State
	historyFile string
}

func newLinerReader(historyFile string, complete liner.Completer) *linerReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	if complete != nil {
		line.SetCompleter(complete)
	}

	r := &linerReader{line: line, historyFile: historyFile}
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	return r
}

// commandsCompleter completes slash commands and model ids.
func commandsCompleter(app *App) liner.Completer {
	c := commands.NewCompleter(app.Executor.Registry())
	c.ModelsFn = app.Executor.Env().ModelIDs
	return c.Lines
}

func (r *linerReader) ReadLine(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if keepInHistory(input) {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// keepInHistory reports whether input may be written to the history file.
// /key lines can carry the API key.
func keepInHistory(input string) bool {
	if strings.TrimSpace(input) == "" {
		return false
	}
	return !strings.EqualFold(commands.ExtractCommandName(input), "/key")
}

func (r *linerReader) ReadSecret(prompt string) (string, error) {
	return r.line.PasswordPrompt(prompt)
}

// Close writes the history file with owner-only permissions.
func (r *linerReader) Close() error {
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			r.line.WriteHistory(f)
			f.Close()
		}
	}
	return r.line.Close()
}

// scanReader reads lines from a pipe or file. Prompts are written only when
// echo is set.
type scanReader struct {
	scanner *bufio.Scanner
	out     io.Writer
	echo    bool
}

func newScanReader(in io.Reader, out io.Writer, echo bool) *scanReader {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &scanReader{scanner: scanner, out: out, echo: echo}
}

func (r *scanReader) ReadLine(prompt string) (string, error) {
	if r.echo {
		fmt.Fprint(r.out, prompt)
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *scanReader) ReadSecret(prompt string) (string, error) {
	return r.ReadLine(prompt)
}

func (r *scanReader) Close() error { return nil }

// =============================================================================
// REPL
// =============================================================================

// repl is the line-oriented chat loop.
type repl struct {
	exec     *commands.Executor
	in       lineReader
	out      io.Writer
	errOut   io.Writer
	renderer *glamour.TermRenderer
}

// run reads submissions until /quit, end of input or Ctrl+C.
func (r *repl) run(ctx context.Context) error {
	r.printWelcome()
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		input, err := r.in.ReadLine(replPrompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return err
		}
		if strings.TrimSpace(input) == "" {
			continue
		}

		res := r.exec.Submit(ctx, input)
		if res.PromptKey {
			res = r.readKey(ctx)
		}
		r.print(res)
		if res.Quit {
			return nil
		}
	}
}

func (r *repl) readKey(ctx context.Context) commands.Result {
	key, err := r.in.ReadSecret(keyPrompt)
	if err != nil {
		return commands.Result{Kind: commands.KindError, Err: err}
	}
	return r.exec.SaveKey(ctx, key)
}

func (r *repl) printWelcome() {
	env := r.exec.Env()
	fmt.Fprintf(r.out, "%s %s\n", TitleStyle.Render("gemchat"),
		DimStyle.Render(env.Bridge.GetCurrentModel().Model))
	if !env.Bridge.CheckAuth().Authenticated {
		fmt.Fprintln(r.out, WarningStyle.Render("No API key is set. Use /key to add one."))
	}
	fmt.Fprintln(r.out, DimStyle.Render("Type /help for commands, /quit to leave."))
}

// print writes one result.
func (r *repl) print(res commands.Result) {
	switch res.Kind {
	case commands.KindNone:
	case commands.KindReply:
		fmt.Fprintln(r.out, renderMarkdown(r.renderer, res.Text))
	case commands.KindImage:
		fmt.Fprintf(r.out, "%s %s\n", SuccessStyle.Render("Image ready."),
			DimStyle.Render("Use /save [path] to write it to disk."))
	case commands.KindInfo:
		fmt.Fprintln(r.out, res.Text)
	case commands.KindError:
		DisplayError(r.errOut, res.Err)
	}
}

// renderMarkdown renders text with renderer, or returns it unchanged when
// rendering is off or fails.
func renderMarkdown(renderer *glamour.TermRenderer, text string) string {
	if renderer == nil {
		return text
	}
	out, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// newRenderer returns a glamour renderer for the terminal, or nil when
// stdout is not one.
func newRenderer(theme string, wordWrap int) *glamour.TermRenderer {
	if !IsStdoutTTY() || !ColorsEnabled() {
		return nil
	}
	width := GetTerminalWidth()
	if wordWrap > 0 && wordWrap < width {
		width = wordWrap
	}

	style := "auto"
	switch theme {
	case "dark", "light":
		style = theme
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return renderer
}
