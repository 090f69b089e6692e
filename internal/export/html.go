// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	gmutil "github.com/yuin/goldmark/util"
)

// CodeStyle is the chroma style used for fenced code blocks.
const CodeStyle = "monokai"

// HTMLExporter renders a transcript as a standalone HTML page. Turn content
// is Markdown and is converted with goldmark; raw HTML in turns is dropped.
type HTMLExporter struct {
	md goldmark.Markdown
}

// NewHTMLExporter creates an HTML exporter.
func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(renderer.WithNodeRenderers(
				gmutil.Prioritized(newCodeBlockRenderer(CodeStyle), 200),
			)),
		),
	}
}

// Export converts a transcript to HTML.
func (e *HTMLExporter) Export(tr Transcript) ([]byte, error) {
	if len(tr.Turns) == 0 {
		return nil, ErrEmptyTranscript
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>gemchat - %s</title>\n", html.EscapeString(tr.Model))
	sb.WriteString("    <meta name=\"generator\" content=\"gemchat\">\n")
	sb.WriteString(htmlCSS)
	sb.WriteString("</head>\n<body>\n<div class=\"container\">\n")

	sb.WriteString("    <header class=\"header\">\n")
	sb.WriteString("        <h1>Conversation</h1>\n")
	fmt.Fprintf(&sb, "        <p class=\"meta\"><strong>Model:</strong> %s &middot; <strong>Turns:</strong> %d</p>\n",
		html.EscapeString(tr.Model), len(tr.Turns))
	sb.WriteString("    </header>\n")

	sb.WriteString("    <main>\n")
	for _, t := range tr.Turns {
		var body bytes.Buffer
		if err := e.md.Convert([]byte(t.Content), &body); err != nil {
			return nil, fmt.Errorf("render turn: %w", err)
		}
		fmt.Fprintf(&sb, "        <section class=\"turn %s\">\n", t.Role)
		fmt.Fprintf(&sb, "            <div class=\"role\">%s</div>\n", roleLabel(t.Role))
		fmt.Fprintf(&sb, "            <div class=\"content\">%s</div>\n", body.String())
		sb.WriteString("        </section>\n")
	}
	sb.WriteString("    </main>\n")

	fmt.Fprintf(&sb, "    <footer>Exported from <strong>gemchat</strong> on %s</footer>\n", formatTimestamp(tr.ExportedAt))
	sb.WriteString("</div>\n</body>\n</html>\n")
	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// CODE HIGHLIGHTING
// =============================================================================

// codeBlockRenderer renders fenced code blocks with inline chroma styles so
// the exported page needs no stylesheet for them.
type codeBlockRenderer struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

func newCodeBlockRenderer(style string) *codeBlockRenderer {
	return &codeBlockRenderer{
		style:     chromastyles.Get(style),
		formatter: chromahtml.New(chromahtml.WithClasses(false), chromahtml.TabWidth(4)),
	}
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *codeBlockRenderer) renderFencedCodeBlock(w gmutil.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)

	var code strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}

	if err := r.highlight(w, string(n.Language(source)), code.String()); err != nil {
		fmt.Fprintf(w, "<pre><code>%s</code></pre>\n", html.EscapeString(code.String()))
	}
	return ast.WalkSkipChildren, nil
}

// highlight writes code as highlighted HTML, guessing the lexer when the
// fence names no language.
func (r *codeBlockRenderer) highlight(w gmutil.BufWriter, language, code string) error {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, r.style, iterator); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

const htmlCSS = `    <style>
        :root {
            --bg: #1a1b26; --panel: #24283b; --text: #c0caf5; --muted: #565f89;
            --user: #7aa2f7; --model: #9ece6a; --code: #16161e;
        }
        @media (prefers-color-scheme: light) {
            :root { --bg: #ffffff; --panel: #f6f8fa; --text: #24292e; --muted: #6a737d;
                    --user: #0366d6; --model: #22863a; --code: #eff1f3; }
        }
        body { margin: 0; background: var(--bg); color: var(--text);
               font-family: -apple-system, "Segoe UI", Roboto, sans-serif; line-height: 1.6; }
        .container { max-width: 860px; margin: 0 auto; padding: 2rem 1rem; }
        .meta, footer { color: var(--muted); font-size: 0.9rem; }
        .turn { background: var(--panel); border-radius: 8px; padding: 1rem 1.25rem; margin: 1rem 0; }
        .turn.user .role { color: var(--user); }
        .turn.model .role { color: var(--model); }
        .role { font-weight: 600; margin-bottom: 0.5rem; }
        pre, code { background: var(--code); font-family: "SF Mono", Menlo, monospace; }
        pre { padding: 0.75rem; overflow-x: auto; border-radius: 6px; }
    </style>
`
