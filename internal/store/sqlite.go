// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/gemchat/internal/util"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const historySchema = `
CREATE TABLE IF NOT EXISTS turns (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
`

// SQLiteStore keeps the config record in config.json and the transcript in
// the turns table of history.db.
type SQLiteStore struct {
	config configFile
	db     *sql.DB
	path   string
}

// NewSQLiteStore opens (creating if needed) history.db in dir. A file that
// is not a usable database is moved aside and replaced by an empty one.
func NewSQLiteStore(dir, defaultModel string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, util.PrivateDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(dir, HistoryDatabase)
	db, err := openHistoryDB(path)
	if err != nil {
		if _, statErr := os.Stat(path); statErr != nil {
			return nil, err
		}
		aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().UnixMilli())
		if renameErr := os.Rename(path, aside); renameErr != nil {
			return nil, err
		}
		os.Remove(path + "-wal")
		os.Remove(path + "-shm")
		slog.Warn("history database unreadable, starting empty",
			"path", path, "moved_to", aside, "error", fmt.Errorf("%w: %v", ErrStorageCorrupt, err))

		if db, err = openHistoryDB(path); err != nil {
			return nil, err
		}
	}

	return &SQLiteStore{
		config: configFile{path: filepath.Join(dir, ConfigFile), defaultModel: defaultModel},
		db:     db,
		path:   path,
	}, nil
}

// openHistoryDB opens path, applies the pragmas and creates the schema.
func openHistoryDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// One writer; keeps transactions from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		slog.Warn("could not restrict history database permissions", "path", path, "error", err)
	}
	return db, nil
}

// LoadConfig reads config.json.
func (s *SQLiteStore) LoadConfig() ConfigRecord {
	return s.config.load()
}

// SaveConfig writes config.json.
func (s *SQLiteStore) SaveConfig(rec ConfigRecord) error {
	return s.config.save(rec)
}

// LoadHistory reads the turns table in insertion order.
func (s *SQLiteStore) LoadHistory() []Turn {
	rows, err := s.db.Query("SELECT role, content FROM turns ORDER BY seq")
	if err != nil {
		slog.Warn("history query failed, starting empty",
			"path", s.path, "error", fmt.Errorf("%w: %v", ErrStorageCorrupt, err))
		return []Turn{}
	}
	defer rows.Close()

	turns := []Turn{}
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			slog.Warn("history row unreadable, starting empty", "path", s.path, "error", err)
			return []Turn{}
		}
		turns = append(turns, Turn{Role: NormalizeRole(role), Content: content})
	}
	if err := rows.Err(); err != nil {
		slog.Warn("history scan failed, starting empty", "path", s.path, "error", err)
		return []Turn{}
	}
	return turns
}

// SaveHistory replaces the transcript in a single transaction.
func (s *SQLiteStore) SaveHistory(turns []Turn) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin history transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM turns"); err != nil {
		return fmt.Errorf("failed to clear turns: %w", err)
	}

	stmt, err := tx.Prepare("INSERT INTO turns (role, content, created_at) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, t := range turns {
		if _, err := stmt.Exec(string(t.Role), t.Content, now); err != nil {
			return fmt.Errorf("failed to insert turn: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
