// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jeranaias/gemchat/internal/store"
)

// ErrEmptyTranscript is returned when there is nothing to export.
var ErrEmptyTranscript = errors.New("transcript has no turns")

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Transcript is the data handed to an Exporter.
type Transcript struct {
	Model      string
	Turns      []store.Turn
	ExportedAt time.Time
}

// Exporter renders a transcript in one format.
type Exporter interface {
	// Export converts a transcript to the target format.
	Export(tr Transcript) ([]byte, error)

	// FileExtension returns the extension including the dot, e.g. ".md".
	FileExtension() string

	// MimeType returns the MIME type of the output.
	MimeType() string
}

// ForPath picks an exporter from the file extension of path, defaulting to
// Markdown.
func ForPath(path string) Exporter {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return NewHTMLExporter()
	case ".json":
		return NewJSONExporter()
	default:
		return NewMarkdownExporter()
	}
}

// ToFile renders tr with exporter and writes it to path. An empty path
// becomes gemchat-<timestamp><ext> in the working directory.
func ToFile(tr Transcript, exporter Exporter, path string) (string, error) {
	if len(tr.Turns) == 0 {
		return "", ErrEmptyTranscript
	}
	if tr.ExportedAt.IsZero() {
		tr.ExportedAt = time.Now()
	}

	content, err := exporter.Export(tr)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	if path == "" {
		path = fmt.Sprintf("gemchat-%s%s", tr.ExportedAt.Format("20060102_150405"), exporter.FileExtension())
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func roleLabel(role store.Role) string {
	if role == store.RoleUser {
		return "You"
	}
	return "Gemini"
}

func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
