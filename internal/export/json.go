// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/gemchat/internal/store"
)

// JSONExporter writes the transcript in the same turn shape as history.json,
// wrapped with export metadata.
type JSONExporter struct{}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

type jsonDocument struct {
	Model      string       `json:"model"`
	ExportedAt time.Time    `json:"exported_at"`
	Turns      []store.Turn `json:"turns"`
}

// Export converts a transcript to indented JSON.
func (e *JSONExporter) Export(tr Transcript) ([]byte, error) {
	if len(tr.Turns) == 0 {
		return nil, ErrEmptyTranscript
	}
	return json.MarshalIndent(jsonDocument{Model: tr.Model, ExportedAt: tr.ExportedAt, Turns: tr.Turns}, "", "  ")
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
