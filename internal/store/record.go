// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrStorageCorrupt marks a persisted document that could not be decoded.
// It is only ever logged; loads substitute defaults instead of returning it.
var ErrStorageCorrupt = errors.New("persisted document is corrupt")

// =============================================================================
// CONFIG RECORD
// =============================================================================

// ConfigRecord is the durable config document. At most one of
// EncryptedCredential and Credential is populated after a successful save.
type ConfigRecord struct {
	Model string `json:"model"`

	// EncryptedCredential is the vault-encrypted key, base64 encoded.
	EncryptedCredential string `json:"encryptedCredential,omitempty"`

	// Credential is the plaintext key, used only when no vault is available.
	Credential string `json:"credential,omitempty"`
}

// HasCredential reports whether either credential form is present.
func (r ConfigRecord) HasCredential() bool {
	return r.EncryptedCredential != "" || r.Credential != ""
}

// UnmarshalJSON accepts the legacy "apiKey" plaintext field.
func (r *ConfigRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		Model               string `json:"model"`
		EncryptedCredential string `json:"encryptedCredential"`
		Credential          string `json:"credential"`
		EncryptedAPIKey     string `json:"encryptedApiKey"`
		APIKey              string `json:"apiKey"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Model = raw.Model
	r.EncryptedCredential = firstNonEmpty(raw.EncryptedCredential, raw.EncryptedAPIKey)
	r.Credential = firstNonEmpty(raw.Credential, raw.APIKey)
	return nil
}

// =============================================================================
// TURNS
// =============================================================================

// Role is a UI-facing conversation role.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one message of the persisted transcript.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NormalizeRole maps provider-native role labels onto user/model.
func NormalizeRole(role string) Role {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "user", "human":
		return RoleUser
	default:
		// model, assistant, bot and anything else the provider answers with
		return RoleModel
	}
}

// UnmarshalJSON accepts both {role, content} and the provider-native
// {role, parts: [{text}]} shape written by earlier clients.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    string `json:"role"`
		Content string `json:"content"`
		Parts   []struct {
			Text string `json:"text"`
		} `json:"parts"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.Role = NormalizeRole(raw.Role)
	t.Content = raw.Content
	if t.Content == "" && len(raw.Parts) > 0 {
		var sb strings.Builder
		for _, p := range raw.Parts {
			sb.WriteString(p.Text)
		}
		t.Content = sb.String()
	}
	return nil
}

// TrimTurns keeps at most max turns, dropping the oldest. The cut is moved
// forward so the kept transcript starts on a user turn. max <= 0 keeps all.
func TrimTurns(turns []Turn, max int) []Turn {
	if max <= 0 || len(turns) <= max {
		return turns
	}
	start := len(turns) - max
	for start < len(turns) && turns[start].Role != RoleUser {
		start++
	}
	return turns[start:]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
