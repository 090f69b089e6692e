// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownExporter renders a transcript as Markdown with YAML frontmatter.
type MarkdownExporter struct{}

// NewMarkdownExporter creates a Markdown exporter.
func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{}
}

// Export converts a transcript to Markdown.
func (e *MarkdownExporter) Export(tr Transcript) ([]byte, error) {
	if len(tr.Turns) == 0 {
		return nil, ErrEmptyTranscript
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "model: %s\n", escapeYAML(tr.Model))
	fmt.Fprintf(&sb, "turns: %d\n", len(tr.Turns))
	fmt.Fprintf(&sb, "exported: %s\n", tr.ExportedAt.Format(time.RFC3339))
	sb.WriteString("generator: gemchat\n")
	sb.WriteString("---\n\n")

	sb.WriteString("# Conversation\n\n")
	for i, t := range tr.Turns {
		fmt.Fprintf(&sb, "### %s\n\n", roleLabel(t.Role))
		sb.WriteString(strings.TrimRight(t.Content, "\n"))
		sb.WriteString("\n\n")
		if i < len(tr.Turns)-1 {
			sb.WriteString("---\n\n")
		}
	}

	fmt.Fprintf(&sb, "*Exported from gemchat on %s*\n", formatTimestamp(tr.ExportedAt))
	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// escapeYAML quotes a scalar when it would otherwise break the frontmatter.
func escapeYAML(s string) string {
	if s == "" || strings.ContainsAny(s, ":#\n\"'\\{}[]") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		return "\"" + s + "\""
	}
	return s
}
