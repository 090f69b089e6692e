// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/jeranaias/gemchat/internal/export"
	"github.com/jeranaias/gemchat/internal/session"
)

// ============================================================================
// CHANNELS
// ============================================================================

// Channel names accepted by Dispatch.
const (
	ChannelCheckAuth       = "check-auth"
	ChannelSaveAPIKey      = "save-api-key"
	ChannelSendMessage     = "send-to-gemini"
	ChannelGenerateImage   = "generate-image"
	ChannelGetCurrentModel = "get-current-model"
	ChannelChangeModel     = "change-model"
	ChannelGetHistory      = "get-history"
	ChannelClearHistory    = "clear-history"
	ChannelSaveImage       = "save-image"
)

// Channels lists every channel in display order.
var Channels = []string{
	ChannelCheckAuth,
	ChannelSaveAPIKey,
	ChannelSendMessage,
	ChannelGenerateImage,
	ChannelGetCurrentModel,
	ChannelChangeModel,
	ChannelGetHistory,
	ChannelClearHistory,
	ChannelSaveImage,
}

// ============================================================================
// TYPES
// ============================================================================

// Message is one transcript entry as shown to the user. Role is "user" or
// "model".
type Message struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Response is the result of any operation. Exactly one of Error or the
// operation's payload fields is meaningful.
type Response struct {
	Success       bool      `json:"success"`
	Error         string    `json:"error,omitempty"`
	Text          string    `json:"text,omitempty"`
	Image         string    `json:"image,omitempty"`
	Model         string    `json:"model,omitempty"`
	Path          string    `json:"path,omitempty"`
	Authenticated bool      `json:"authenticated,omitempty"`
	History       []Message `json:"history,omitempty"`

	payload payloadKind
}

// payloadKind marks responses whose zero-valued payload is still an answer.
type payloadKind int

const (
	payloadNone payloadKind = iota
	payloadAuth
	payloadHistory
)

// MarshalJSON always emits "authenticated" for check-auth and "history" for
// get-history, even when false or empty.
func (r Response) MarshalJSON() ([]byte, error) {
	type plain Response
	out := struct {
		plain
		Authenticated *bool      `json:"authenticated,omitempty"`
		History       *[]Message `json:"history,omitempty"`
	}{plain: plain(r)}

	switch r.payload {
	case payloadAuth:
		out.Authenticated = &r.Authenticated
	case payloadHistory:
		history := r.History
		if history == nil {
			history = []Message{}
		}
		out.History = &history
	default:
		if r.Authenticated {
			out.Authenticated = &r.Authenticated
		}
		if len(r.History) > 0 {
			out.History = &r.History
		}
	}
	return json.Marshal(out)
}

// Failed reports whether the response carries an error.
func (r Response) Failed() bool {
	return r.Error != ""
}

// SaveImageRequest is the payload of the save-image channel. An empty Path
// selects the default file name in the working directory.
type SaveImageRequest struct {
	Image string `json:"image"`
	Path  string `json:"path,omitempty"`
}

func errorResponse(err error) Response {
	return Response{Error: err.Error()}
}

// ============================================================================
// BRIDGE
// ============================================================================

// Bridge exposes a session manager to front ends.
type Bridge struct {
	mgr *session.Manager
	log *slog.Logger
}

// New returns a Bridge over mgr.
func New(mgr *session.Manager, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{mgr: mgr, log: logger.With("component", "bridge")}
}

// guard converts a panic in op into an error response.
func (b *Bridge) guard(op string, resp *Response) {
	if r := recover(); r != nil {
		b.log.Error("operation panicked", "op", op, "panic", r, "stack", string(debug.Stack()))
		*resp = Response{Error: fmt.Sprintf("internal error in %s", op)}
	}
}

// CheckAuth reports whether a usable credential is loaded.
func (b *Bridge) CheckAuth() (resp Response) {
	defer b.guard(ChannelCheckAuth, &resp)
	return Response{Success: true, Authenticated: b.mgr.HasCredential(), payload: payloadAuth}
}

// GetCurrentModel returns the active model id.
func (b *Bridge) GetCurrentModel() (resp Response) {
	defer b.guard(ChannelGetCurrentModel, &resp)
	return Response{Success: true, Model: b.mgr.CurrentModel()}
}

// GetHistory returns the live transcript. It is empty, not nil, when there
// is no session.
func (b *Bridge) GetHistory() (resp Response) {
	defer b.guard(ChannelGetHistory, &resp)
	turns := b.mgr.HistoryForDisplay()
	out := make([]Message, 0, len(turns))
	for _, t := range turns {
		out = append(out, Message{Role: string(t.Role), Text: t.Content})
	}
	return Response{Success: true, History: out, payload: payloadHistory}
}

// ChangeModel switches the conversation to model.
func (b *Bridge) ChangeModel(ctx context.Context, model string) (resp Response) {
	defer b.guard(ChannelChangeModel, &resp)
	if err := b.mgr.ChangeModel(ctx, model); err != nil {
		return errorResponse(err)
	}
	return Response{Success: true, Model: b.mgr.CurrentModel()}
}

// SaveAPIKey validates and stores key.
func (b *Bridge) SaveAPIKey(ctx context.Context, key string) (resp Response) {
	defer b.guard(ChannelSaveAPIKey, &resp)
	if err := b.mgr.SaveCredential(ctx, key); err != nil {
		return errorResponse(err)
	}
	return Response{Success: true}
}

// SendMessage sends text and returns the reply.
func (b *Bridge) SendMessage(ctx context.Context, text string) (resp Response) {
	defer b.guard(ChannelSendMessage, &resp)
	reply, err := b.mgr.SendMessage(ctx, text)
	if err != nil {
		return errorResponse(err)
	}
	return Response{Success: true, Text: reply}
}

// GenerateImage returns the generated image as a data URI.
func (b *Bridge) GenerateImage(ctx context.Context, prompt string) (resp Response) {
	defer b.guard(ChannelGenerateImage, &resp)
	img, err := b.mgr.GenerateImage(ctx, prompt)
	if err != nil {
		return errorResponse(err)
	}
	return Response{Success: true, Image: img.DataURI()}
}

// ClearHistory empties the transcript.
func (b *Bridge) ClearHistory(ctx context.Context) (resp Response) {
	defer b.guard(ChannelClearHistory, &resp)
	if err := b.mgr.ClearHistory(ctx); err != nil {
		return errorResponse(err)
	}
	return Response{Success: true}
}

// SaveImage writes a data URI image to disk.
func (b *Bridge) SaveImage(req SaveImageRequest) (resp Response) {
	defer b.guard(ChannelSaveImage, &resp)
	path, err := export.SaveDataURI(req.Image, req.Path)
	if err != nil {
		return errorResponse(err)
	}
	b.log.Info("image saved", "path", path)
	return Response{Success: true, Path: path}
}

// ============================================================================
// DISPATCH
// ============================================================================

// Dispatch routes a request by channel name. payload is the raw JSON
// argument: a string for key, text, prompt and model; a SaveImageRequest
// object (or a bare data URI string) for save-image; ignored otherwise.
func (b *Bridge) Dispatch(ctx context.Context, channel string, payload json.RawMessage) (resp Response) {
	defer b.guard(channel, &resp)

	switch channel {
	case ChannelCheckAuth:
		return b.CheckAuth()
	case ChannelGetCurrentModel:
		return b.GetCurrentModel()
	case ChannelGetHistory:
		return b.GetHistory()
	case ChannelClearHistory:
		return b.ClearHistory(ctx)
	case ChannelSaveImage:
		req, err := decodeSaveImage(payload)
		if err != nil {
			return errorResponse(err)
		}
		return b.SaveImage(req)
	}

	arg, err := decodeString(payload)
	if err != nil {
		return errorResponse(fmt.Errorf("invalid payload for %s: %w", channel, err))
	}
	switch channel {
	case ChannelSaveAPIKey:
		return b.SaveAPIKey(ctx, arg)
	case ChannelSendMessage:
		return b.SendMessage(ctx, arg)
	case ChannelGenerateImage:
		return b.GenerateImage(ctx, arg)
	case ChannelChangeModel:
		return b.ChangeModel(ctx, arg)
	}
	return Response{Error: fmt.Sprintf("unknown channel %q", channel)}
}

func decodeString(payload json.RawMessage) (string, error) {
	if len(payload) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(payload, &s); err != nil {
		return "", err
	}
	return s, nil
}

func decodeSaveImage(payload json.RawMessage) (SaveImageRequest, error) {
	var req SaveImageRequest
	if s, err := decodeString(payload); err == nil {
		req.Image = s
		return req, nil
	}
	if err := json.Unmarshal(payload, &req); err != nil {
		return req, fmt.Errorf("invalid payload for %s: %w", ChannelSaveImage, err)
	}
	return req, nil
}
