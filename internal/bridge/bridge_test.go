// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/gemchat/internal/provider"
	"github.com/jeranaias/gemchat/internal/session"
	"github.com/jeranaias/gemchat/internal/store"
	"github.com/jeranaias/gemchat/internal/vault"
)

func newBridge(t *testing.T) (*Bridge, *provider.MockProvider) {
	t.Helper()
	mock := provider.NewMock()
	mock.Reject("bad-key")
	mgr := session.New(session.Config{
		Store:    store.NewJSONStore(t.TempDir(), "gemini-2.5-flash"),
		Vault:    vault.NewMemory(),
		Provider: mock,
	})
	mgr.Initialize(context.Background())
	return New(mgr, nil), mock
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

// =============================================================================
// TYPED OPERATIONS
// =============================================================================

func TestUnauthenticated(t *testing.T) {
	b, _ := newBridge(t)
	ctx := context.Background()

	require.False(t, b.CheckAuth().Authenticated)
	require.Equal(t, "gemini-2.5-flash", b.GetCurrentModel().Model)

	hist := b.GetHistory()
	require.NotNil(t, hist.History)
	require.Empty(t, hist.History)

	resp := b.SendMessage(ctx, "hello")
	require.True(t, resp.Failed())
	require.Equal(t, "API key is not set", resp.Error)

	resp = b.GenerateImage(ctx, "a cat")
	require.Equal(t, "API key is not set", resp.Error)

	require.True(t, b.ChangeModel(ctx, "gemini-3-pro-preview").Failed())
	require.True(t, b.ClearHistory(ctx).Failed())
}

func TestConversationFlow(t *testing.T) {
	b, _ := newBridge(t)
	ctx := context.Background()

	require.True(t, b.SaveAPIKey(ctx, "good-key").Success)
	require.True(t, b.CheckAuth().Authenticated)

	resp := b.SendMessage(ctx, "hi")
	require.False(t, resp.Failed(), resp.Error)
	require.Equal(t, "reply[gemini-2.5-flash]: hi", resp.Text)

	resp = b.ChangeModel(ctx, "gemini-3-pro-preview")
	require.True(t, resp.Success)
	require.Equal(t, "gemini-3-pro-preview", resp.Model)

	hist := b.GetHistory().History
	require.Equal(t, []Message{
		{Role: "user", Text: "hi"},
		{Role: "model", Text: "reply[gemini-2.5-flash]: hi"},
	}, hist)

	require.True(t, b.ClearHistory(ctx).Success)
	require.Empty(t, b.GetHistory().History)
}

func TestSaveAPIKeyRejected(t *testing.T) {
	b, _ := newBridge(t)

	resp := b.SaveAPIKey(context.Background(), "bad-key")
	require.True(t, resp.Failed())
	require.Contains(t, resp.Error, "API key not valid")
	require.False(t, b.CheckAuth().Authenticated)
}

func TestProviderErrorPassesThrough(t *testing.T) {
	b, mock := newBridge(t)
	ctx := context.Background()
	require.True(t, b.SaveAPIKey(ctx, "good-key").Success)

	mock.SetSendErr(&provider.Error{Kind: provider.ErrRateLimited, Status: 429, Message: "Resource has been exhausted"})
	resp := b.SendMessage(ctx, "hi")
	require.Contains(t, resp.Error, "Resource has been exhausted")
	require.Empty(t, b.GetHistory().History)
}

func TestGenerateAndSaveImage(t *testing.T) {
	b, mock := newBridge(t)
	ctx := context.Background()
	require.True(t, b.SaveAPIKey(ctx, "good-key").Success)

	resp := b.GenerateImage(ctx, "a banana")
	require.False(t, resp.Failed(), resp.Error)
	require.Equal(t, "data:image/png;base64,iVBORw==", resp.Image)

	path := filepath.Join(t.TempDir(), "banana.png")
	saved := b.SaveImage(SaveImageRequest{Image: resp.Image, Path: path})
	require.Equal(t, path, saved.Path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)

	mock.SetImage(nil, nil)
	resp = b.GenerateImage(ctx, "nothing")
	require.Equal(t, "no image was generated", resp.Error)
}

func TestSaveImageInvalid(t *testing.T) {
	b, _ := newBridge(t)
	resp := b.SaveImage(SaveImageRequest{Image: "not a data uri"})
	require.True(t, resp.Failed())
}

// =============================================================================
// DISPATCH
// =============================================================================

func TestDispatch(t *testing.T) {
	b, _ := newBridge(t)
	ctx := context.Background()

	require.True(t, b.Dispatch(ctx, ChannelSaveAPIKey, raw(t, "good-key")).Success)
	require.True(t, b.Dispatch(ctx, ChannelCheckAuth, nil).Authenticated)

	resp := b.Dispatch(ctx, ChannelSendMessage, raw(t, "ping"))
	require.Equal(t, "reply[gemini-2.5-flash]: ping", resp.Text)

	require.Equal(t, "gemini-3-pro-preview", b.Dispatch(ctx, ChannelChangeModel, raw(t, "gemini-3-pro-preview")).Model)
	require.Equal(t, "gemini-3-pro-preview", b.Dispatch(ctx, ChannelGetCurrentModel, nil).Model)
	require.Len(t, b.Dispatch(ctx, ChannelGetHistory, nil).History, 2)

	img := b.Dispatch(ctx, ChannelGenerateImage, raw(t, "a cat")).Image
	require.NotEmpty(t, img)

	dir := t.TempDir()
	saved := b.Dispatch(ctx, ChannelSaveImage, raw(t, SaveImageRequest{Image: img, Path: filepath.Join(dir, "x.png")}))
	require.False(t, saved.Failed(), saved.Error)
	require.FileExists(t, saved.Path)

	require.True(t, b.Dispatch(ctx, ChannelClearHistory, nil).Success)
	require.Empty(t, b.Dispatch(ctx, ChannelGetHistory, nil).History)
}

func TestDispatchErrors(t *testing.T) {
	b, _ := newBridge(t)
	ctx := context.Background()

	resp := b.Dispatch(ctx, "open-devtools", nil)
	require.Contains(t, resp.Error, "unknown channel")

	resp = b.Dispatch(ctx, ChannelSendMessage, json.RawMessage(`{"text": 1}`))
	require.Contains(t, resp.Error, "invalid payload")

	resp = b.Dispatch(ctx, ChannelSaveImage, json.RawMessage(`[1,2]`))
	require.True(t, resp.Failed())
}

func TestGuardRecoversPanic(t *testing.T) {
	b := New(nil, nil)
	resp := b.CheckAuth()
	require.True(t, resp.Failed())
	require.Contains(t, resp.Error, "internal error")
}

func TestResponseJSON(t *testing.T) {
	data, err := json.Marshal(Response{Error: "API key is not set"})
	require.NoError(t, err)
	require.JSONEq(t, `{"success":false,"error":"API key is not set"}`, string(data))
}

func TestResponseJSON_EmptyPayloads(t *testing.T) {
	b, _ := newBridge(t)

	data, err := json.Marshal(b.CheckAuth())
	require.NoError(t, err)
	require.JSONEq(t, `{"success":true,"authenticated":false}`, string(data))

	data, err = json.Marshal(b.GetHistory())
	require.NoError(t, err)
	require.JSONEq(t, `{"success":true,"history":[]}`, string(data))

	data, err = json.Marshal(b.GetCurrentModel())
	require.NoError(t, err)
	require.JSONEq(t, `{"success":true,"model":"gemini-2.5-flash"}`, string(data))
}
