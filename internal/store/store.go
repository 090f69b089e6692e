// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jeranaias/gemchat/internal/util"
)

// File names inside the data directory.
const (
	ConfigFile      = "config.json"
	HistoryFile     = "history.json"
	HistoryDatabase = "history.db"
)

// Store reads and writes the durable records.
type Store interface {
	// LoadConfig returns the config record, or {Model: default} when the
	// document is absent or corrupt.
	LoadConfig() ConfigRecord

	// SaveConfig replaces the config record atomically.
	SaveConfig(ConfigRecord) error

	// LoadHistory returns the transcript, or an empty one when absent or corrupt.
	LoadHistory() []Turn

	// SaveHistory replaces the transcript atomically.
	SaveHistory([]Turn) error

	Close() error
}

// Open returns the store for backend ("json" or "sqlite") rooted at dir.
func Open(dir, backend, defaultModel string) (Store, error) {
	switch backend {
	case "", "json":
		return NewJSONStore(dir, defaultModel), nil
	case "sqlite":
		st, err := NewSQLiteStore(dir, defaultModel)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", backend)
	}
}

// =============================================================================
// CONFIG DOCUMENT
// =============================================================================

// configFile handles config.json for every backend.
type configFile struct {
	path         string
	defaultModel string
}

func (c configFile) load() ConfigRecord {
	rec := ConfigRecord{Model: c.defaultModel}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("config record unreadable, using defaults", "path", c.path, "error", err)
		}
		return rec
	}

	if err := json.Unmarshal(data, &rec); err != nil {
		slog.Warn("config record corrupt, using defaults",
			"path", c.path, "error", fmt.Errorf("%w: %v", ErrStorageCorrupt, err))
		return ConfigRecord{Model: c.defaultModel}
	}
	if rec.Model == "" {
		rec.Model = c.defaultModel
	}
	return rec
}

func (c configFile) save(rec ConfigRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config record: %w", err)
	}
	if err := util.AtomicWriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config record: %w", err)
	}
	return nil
}

// =============================================================================
// JSON STORE
// =============================================================================

// JSONStore keeps both records as JSON documents in one directory.
type JSONStore struct {
	config      configFile
	historyPath string
}

// NewJSONStore creates a JSON store in dir. Nothing is written until the
// first save.
func NewJSONStore(dir, defaultModel string) *JSONStore {
	return &JSONStore{
		config:      configFile{path: filepath.Join(dir, ConfigFile), defaultModel: defaultModel},
		historyPath: filepath.Join(dir, HistoryFile),
	}
}

// LoadConfig reads config.json.
func (s *JSONStore) LoadConfig() ConfigRecord {
	return s.config.load()
}

// SaveConfig writes config.json.
func (s *JSONStore) SaveConfig(rec ConfigRecord) error {
	return s.config.save(rec)
}

// LoadHistory reads history.json.
func (s *JSONStore) LoadHistory() []Turn {
	data, err := os.ReadFile(s.historyPath)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("history unreadable, starting empty", "path", s.historyPath, "error", err)
		}
		return []Turn{}
	}

	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		slog.Warn("history corrupt, starting empty",
			"path", s.historyPath, "error", fmt.Errorf("%w: %v", ErrStorageCorrupt, err))
		return []Turn{}
	}
	if turns == nil {
		turns = []Turn{}
	}
	return turns
}

// SaveHistory writes the full transcript to history.json.
func (s *JSONStore) SaveHistory(turns []Turn) error {
	if turns == nil {
		turns = []Turn{}
	}
	data, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := util.AtomicWriteFile(s.historyPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	return nil
}

// Close is a no-op for the JSON store.
func (s *JSONStore) Close() error { return nil }
