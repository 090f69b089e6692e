// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes gemchat output to files: generated images from
// their data URIs, and transcripts as Markdown, HTML or JSON.
//
// # Images
//
//	path, err := export.SaveDataURI(uri, "")      // nano-banana-<millis>.png in cwd
//	path, err := export.SaveDataURI(uri, "cat.png")
//
// # Transcripts
//
//	tr := export.Transcript{Model: model, Turns: turns, ExportedAt: time.Now()}
//	path, err := export.ToFile(tr, export.ForPath(path), path)
package export
