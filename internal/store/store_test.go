// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testModel = "gemini-2.5-flash"

// backends returns every Store implementation rooted in a fresh directory.
func backends(t *testing.T) map[string]func() (Store, string) {
	return map[string]func() (Store, string){
		"json": func() (Store, string) {
			dir := t.TempDir()
			return NewJSONStore(dir, testModel), dir
		},
		"sqlite": func() (Store, string) {
			dir := t.TempDir()
			s, err := NewSQLiteStore(dir, testModel)
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s, dir
		},
	}
}

// =============================================================================
// CONFIG RECORD
// =============================================================================

func TestLoadConfig_Absent(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s, _ := open()
			rec := s.LoadConfig()
			require.Equal(t, ConfigRecord{Model: testModel}, rec)
			require.False(t, rec.HasCredential())
		})
	}
}

func TestLoadConfig_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte("{not json"), 0600))

	rec := NewJSONStore(dir, testModel).LoadConfig()
	require.Equal(t, ConfigRecord{Model: testModel}, rec)
}

func TestLoadConfig_MissingModelGetsDefault(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte(`{"credential":"k"}`), 0600))

	rec := NewJSONStore(dir, testModel).LoadConfig()
	require.Equal(t, testModel, rec.Model)
	require.Equal(t, "k", rec.Credential)
}

func TestLoadConfig_LegacyFields(t *testing.T) {
	dir := t.TempDir()
	legacy := `{"apiKey":"plain-key","encryptedApiKey":"ZW5j","model":"gemini-3-pro-preview"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFile), []byte(legacy), 0600))

	rec := NewJSONStore(dir, testModel).LoadConfig()
	require.Equal(t, "gemini-3-pro-preview", rec.Model)
	require.Equal(t, "plain-key", rec.Credential)
	require.Equal(t, "ZW5j", rec.EncryptedCredential)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s, dir := open()
			want := ConfigRecord{Model: "gemini-3-pro-preview", EncryptedCredential: "YmxvYg=="}
			require.NoError(t, s.SaveConfig(want))
			require.Equal(t, want, s.LoadConfig())

			raw, err := os.ReadFile(filepath.Join(dir, ConfigFile))
			require.NoError(t, err)
			var doc map[string]any
			require.NoError(t, json.Unmarshal(raw, &doc))
			require.NotContains(t, doc, "credential")

			if runtime.GOOS != "windows" {
				info, err := os.Stat(filepath.Join(dir, ConfigFile))
				require.NoError(t, err)
				require.Equal(t, os.FileMode(0600), info.Mode().Perm())
			}
		})
	}
}

// =============================================================================
// HISTORY RECORD
// =============================================================================

func TestLoadHistory_Absent(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s, _ := open()
			turns := s.LoadHistory()
			require.NotNil(t, turns)
			require.Empty(t, turns)
		})
	}
}

func TestLoadHistory_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, HistoryFile), []byte(`[{"role":`), 0600))

	turns := NewJSONStore(dir, testModel).LoadHistory()
	require.NotNil(t, turns)
	require.Empty(t, turns)
}

func TestSaveHistory_RoundTrip(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s, _ := open()
			want := []Turn{
				{Role: RoleUser, Content: "hi"},
				{Role: RoleModel, Content: "hello"},
				{Role: RoleUser, Content: "bye"},
				{Role: RoleModel, Content: "see you"},
			}
			require.NoError(t, s.SaveHistory(want))
			require.Equal(t, want, s.LoadHistory())

			require.NoError(t, s.SaveHistory(nil))
			require.Empty(t, s.LoadHistory())
		})
	}
}

func TestLoadHistory_ProviderNativeShape(t *testing.T) {
	dir := t.TempDir()
	native := `[
		{"role":"user","parts":[{"text":"hello"}]},
		{"role":"model","parts":[{"text":"hi "},{"text":"there"}]},
		{"role":"assistant","content":"legacy"}
	]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, HistoryFile), []byte(native), 0600))

	turns := NewJSONStore(dir, testModel).LoadHistory()
	require.Equal(t, []Turn{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleModel, Content: "hi there"},
		{Role: RoleModel, Content: "legacy"},
	}, turns)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSQLiteStore(dir, testModel)
	require.NoError(t, err)
	require.NoError(t, s.SaveHistory([]Turn{{Role: RoleUser, Content: "q"}, {Role: RoleModel, Content: "a"}}))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(dir, testModel)
	require.NoError(t, err)
	defer reopened.Close()
	require.Len(t, reopened.LoadHistory(), 2)
}

func TestSQLiteStore_CorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, HistoryDatabase)
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("not a database ", 512)), 0600))

	s, err := Open(dir, "sqlite", testModel)
	require.NoError(t, err)
	defer s.Close()
	require.Empty(t, s.LoadHistory())

	require.NoError(t, s.SaveHistory([]Turn{{Role: RoleUser, Content: "q"}, {Role: RoleModel, Content: "a"}}))
	require.Len(t, s.LoadHistory(), 2)

	aside, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	require.Len(t, aside, 1)
}

func TestOpen(t *testing.T) {
	s, err := Open(t.TempDir(), "json", testModel)
	require.NoError(t, err)
	require.IsType(t, &JSONStore{}, s)

	s, err = Open(t.TempDir(), "sqlite", testModel)
	require.NoError(t, err)
	require.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(t.TempDir(), "postgres", testModel)
	require.Error(t, err)

	notDir := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(notDir, nil, 0600))
	s, err = Open(notDir, "sqlite", testModel)
	require.Error(t, err)
	require.True(t, s == nil, "failed open must return a nil Store")
}

// =============================================================================
// HELPERS
// =============================================================================

func TestNormalizeRole(t *testing.T) {
	tests := map[string]Role{
		"user":      RoleUser,
		"USER":      RoleUser,
		"model":     RoleModel,
		"assistant": RoleModel,
		"":          RoleModel,
	}
	for in, want := range tests {
		if got := NormalizeRole(in); got != want {
			t.Errorf("NormalizeRole(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTrimTurns(t *testing.T) {
	turns := []Turn{
		{RoleUser, "1"}, {RoleModel, "1"},
		{RoleUser, "2"}, {RoleModel, "2"},
		{RoleUser, "3"}, {RoleModel, "3"},
	}

	require.Equal(t, turns, TrimTurns(turns, 0))
	require.Equal(t, turns, TrimTurns(turns, 10))
	require.Equal(t, turns[2:], TrimTurns(turns, 4))
	// Odd caps never start on a model turn.
	require.Equal(t, turns[4:], TrimTurns(turns, 3))
}
