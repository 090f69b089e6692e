// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/provider"
	"github.com/jeranaias/gemchat/internal/session"
)

// =============================================================================
// HELPERS
// =============================================================================

func useMock(t *testing.T) *provider.MockProvider {
	t.Helper()
	mock := provider.NewMock()
	orig := newProvider
	newProvider = func(*config.Config) provider.Provider { return mock }
	t.Cleanup(func() { newProvider = orig })
	return mock
}

type cliResult struct {
	out    string
	errOut string
	err    error
}

func runCLI(t *testing.T, dataDir, stdin string, args ...string) cliResult {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--data-dir", dataDir}, args...))
	err := root.ExecuteContext(context.Background())
	return cliResult{out: out.String(), errOut: errOut.String(), err: err}
}

func decodeJSON(t *testing.T, raw string) JSONResponse {
	t.Helper()
	var resp JSONResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp), raw)
	return resp
}

// authenticated stores a key accepted by the mock.
func authenticated(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("GEMINI_API_KEY", "good-key-123456")
	res := runCLI(t, dir, "", "key", "set", "--from-env")
	require.NoError(t, res.err)
	return dir
}

// =============================================================================
// KEY
// =============================================================================

func TestKeySet_FromEnv(t *testing.T) {
	useMock(t)
	dir := authenticated(t)

	res := runCLI(t, dir, "", "key", "status", "--json")
	require.NoError(t, res.err)
	resp := decodeJSON(t, res.out)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, true, data["authenticated"])
	assert.Equal(t, config.DefaultChatModel, data["model"])
}

func TestKeySet_FromEnvMissing(t *testing.T) {
	useMock(t)
	for _, name := range APIKeyEnvVars {
		t.Setenv(name, "")
	}

	res := runCLI(t, t.TempDir(), "", "key", "set", "--from-env")
	require.Error(t, res.err)
	assert.Equal(t, ExitUsageError, ExitCode(res.err))
}

func TestKeySet_FromStdin(t *testing.T) {
	if IsTTY() {
		t.Skip("stdin is a terminal")
	}
	mock := useMock(t)
	dir := t.TempDir()

	res := runCLI(t, dir, "typed-key-abcdef\n", "key", "set")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "API key saved.")
	assert.NotContains(t, res.out, "typed-key-abcdef")

	call, ok := mock.LastCall("validate")
	require.True(t, ok)
	assert.Equal(t, "typed-key-abcdef", call.APIKey)
}

func TestKeySet_Rejected(t *testing.T) {
	mock := useMock(t)
	mock.Reject("bad-key")
	t.Setenv("GEMINI_API_KEY", "bad-key")
	dir := t.TempDir()

	res := runCLI(t, dir, "", "key", "set", "--from-env")
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, session.ErrCredentialRejected)
	assert.Equal(t, ExitAuthError, ExitCode(res.err))

	res = runCLI(t, dir, "", "key")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "not set")
}

// =============================================================================
// ASK
// =============================================================================

func TestAsk_Unauthenticated(t *testing.T) {
	useMock(t)

	res := runCLI(t, t.TempDir(), "", "ask", "hello")
	require.Error(t, res.err)
	assert.Equal(t, ExitAuthError, ExitCode(res.err))
}

func TestAsk_FromArgs(t *testing.T) {
	useMock(t)
	dir := authenticated(t)

	res := runCLI(t, dir, "", "ask", "--raw", "hello", "there")
	require.NoError(t, res.err)
	assert.Equal(t, "reply[gemini-2.5-flash]: hello there\n", res.out)
}

func TestAsk_FromStdin(t *testing.T) {
	if IsTTY() {
		t.Skip("stdin is a terminal")
	}
	useMock(t)
	dir := authenticated(t)

	res := runCLI(t, dir, "piped prompt", "ask", "--json")
	require.NoError(t, res.err)
	resp := decodeJSON(t, res.out)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "reply[gemini-2.5-flash]: piped prompt", data["reply"])
}

func TestAsk_ProviderFailureJSON(t *testing.T) {
	mock := useMock(t)
	dir := authenticated(t)
	mock.SetSendErr(&provider.Error{Kind: provider.ErrServerError, Status: 500, Message: "boom"})

	res := runCLI(t, dir, "", "ask", "--json", "hi")
	require.Error(t, res.err)
	assert.Equal(t, ExitProviderError, ExitCode(res.err))

	resp := decodeJSON(t, res.out)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Nil(t, resp.Data)
}

// =============================================================================
// MODEL AND HISTORY
// =============================================================================

func TestModel_ListAndSwitch(t *testing.T) {
	useMock(t)
	dir := authenticated(t)

	res := runCLI(t, dir, "", "model")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "gemini-2.5-flash")
	assert.Contains(t, res.out, "gemini-3-pro-preview")

	res = runCLI(t, dir, "", "model", "gemini-3-pro-preview")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Switched to gemini-3-pro-preview")

	res = runCLI(t, dir, "", "model", "--json")
	require.NoError(t, res.err)
	data := decodeJSON(t, res.out).Data.(map[string]any)
	assert.Equal(t, "gemini-3-pro-preview", data["current"])
}

func TestModel_TooManyArgs(t *testing.T) {
	useMock(t)

	res := runCLI(t, t.TempDir(), "", "model", "a", "b")
	require.Error(t, res.err)
	assert.Equal(t, ExitUsageError, ExitCode(res.err))
}

func TestHistory_ShowExportClear(t *testing.T) {
	useMock(t)
	dir := authenticated(t)

	res := runCLI(t, dir, "", "history")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "No saved conversation.")

	require.NoError(t, runCLI(t, dir, "", "ask", "--raw", "first").err)

	res = runCLI(t, dir, "", "history")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "You\nfirst\n")
	assert.Contains(t, res.out, "Gemini\nreply[gemini-2.5-flash]: first\n")

	out := filepath.Join(t.TempDir(), "chat.json")
	res = runCLI(t, dir, "", "history", "--export", out)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Exported 2 turns")
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "reply[gemini-2.5-flash]: first")

	res = runCLI(t, dir, "", "history", "--clear")
	require.NoError(t, res.err)

	res = runCLI(t, dir, "", "history", "--json")
	require.NoError(t, res.err)
	assert.Empty(t, decodeJSON(t, res.out).Data)
}

func TestHistory_ClearAndExportConflict(t *testing.T) {
	useMock(t)

	res := runCLI(t, t.TempDir(), "", "history", "--clear", "--export", "x.md")
	require.Error(t, res.err)
	assert.Equal(t, ExitUsageError, ExitCode(res.err))
}

// =============================================================================
// IMAGE
// =============================================================================

func TestImage_SavesIntoDirectory(t *testing.T) {
	mock := useMock(t)
	dir := authenticated(t)
	outDir := t.TempDir()

	res := runCLI(t, dir, "", "image", "a", "red", "fox", "-o", outDir)
	require.NoError(t, res.err)

	call, ok := mock.LastCall("image")
	require.True(t, ok)
	assert.Equal(t, "a red fox", call.Text)
	assert.Equal(t, config.DefaultImageModel, call.Model)

	matches, err := filepath.Glob(filepath.Join(outDir, "nano-banana-*.png"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
}

func TestImage_RequiresPrompt(t *testing.T) {
	useMock(t)

	res := runCLI(t, t.TempDir(), "", "image")
	require.Error(t, res.err)
	assert.Equal(t, ExitUsageError, ExitCode(res.err))
}

// =============================================================================
// ROOT
// =============================================================================

func TestRoot_UnknownArgument(t *testing.T) {
	useMock(t)

	res := runCLI(t, t.TempDir(), "", "frobnicate")
	require.Error(t, res.err)
	assert.Equal(t, ExitUsageError, ExitCode(res.err))
}

func TestRoot_BadFlag(t *testing.T) {
	useMock(t)

	res := runCLI(t, t.TempDir(), "", "--no-such-flag")
	require.Error(t, res.err)
	assert.Equal(t, ExitUsageError, ExitCode(res.err))
}

func TestRoot_PipedInputRunsPlainChat(t *testing.T) {
	if Interactive() {
		t.Skip("running on a terminal")
	}
	useMock(t)
	dir := authenticated(t)

	res := runCLI(t, dir, "hello\n/quit\n")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "reply[gemini-2.5-flash]: hello")
}

func TestRoot_InvalidSettings(t *testing.T) {
	useMock(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.SettingsFile), []byte("[ui]\nword_wrap = 5\n"), 0600))

	res := runCLI(t, dir, "", "key", "status")
	require.Error(t, res.err)
	assert.Equal(t, ExitConfigError, ExitCode(res.err))
}

func TestVersion(t *testing.T) {
	res := runCLI(t, t.TempDir(), "", "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "gemchat "+Version)
}

// =============================================================================
// EXIT CODES
// =============================================================================

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"usage", usageErrorf("bad"), ExitUsageError},
		{"config", fmt.Errorf("invalid settings: %w", config.ValidateErrors{{Field: "x", Message: "y"}}), ExitConfigError},
		{"unauthenticated", &session.Error{Kind: session.ErrUnauthenticated, Op: "send"}, ExitAuthError},
		{"provider", commandError("ask", "send", &session.Error{Kind: session.ErrProvider, Op: "send"}), ExitProviderError},
		{"storage", &session.Error{Kind: session.ErrStorage, Op: "save"}, ExitStorageError},
		{"busy", &session.Error{Kind: session.ErrBusy, Op: "send"}, ExitTimeoutError},
		{"canceled", context.Canceled, ExitInterrupted},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
