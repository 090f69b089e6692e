// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/provider"
	"github.com/jeranaias/gemchat/internal/store"
	"github.com/jeranaias/gemchat/internal/util"
	"github.com/jeranaias/gemchat/internal/vault"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config wires a Manager to its collaborators.
type Config struct {
	Store    store.Store
	Vault    vault.Vault
	Provider provider.Provider

	// ImageModel is the fixed image generation model.
	ImageModel string

	// MaxTurns caps the persisted transcript; 0 keeps everything.
	MaxTurns int

	Logger *slog.Logger
}

// =============================================================================
// MANAGER
// =============================================================================

// liveSession is the in-memory conversation. It is replaced wholesale, never
// patched, whenever the credential, model or history changes.
type liveSession struct {
	id     string
	apiKey string
	model  string
	client provider.Client
	chat   provider.Chat
}

// Manager is the single owner of session state.
type Manager struct {
	store      store.Store
	vault      vault.Vault
	provider   provider.Provider
	imageModel string
	maxTurns   int
	log        *slog.Logger

	// ops serializes mutating operations.
	ops *semaphore.Weighted

	// mu guards state and live for readers.
	mu    sync.RWMutex
	state State
	live  *liveSession
}

// New returns a Manager in the Unauthenticated state. Call Initialize to
// load the stored credential.
func New(cfg Config) *Manager {
	if cfg.ImageModel == "" {
		cfg.ImageModel = config.DefaultImageModel
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		store:      cfg.Store,
		vault:      cfg.Vault,
		provider:   cfg.Provider,
		imageModel: cfg.ImageModel,
		maxTurns:   cfg.MaxTurns,
		log:        cfg.Logger.With("component", "session"),
		ops:        semaphore.NewWeighted(1),
		state:      Unauthenticated,
	}
}

// acquire waits for exclusive access to mutate session state.
func (m *Manager) acquire(ctx context.Context, op string) error {
	if err := m.ops.Acquire(ctx, 1); err != nil {
		return newError(op, ErrBusy, err)
	}
	return nil
}

func (m *Manager) release() {
	m.ops.Release(1)
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// snapshot returns the current live session, or nil.
func (m *Manager) snapshot() *liveSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.live
}

// replace installs a new live session and state in one step.
func (m *Manager) replace(live *liveSession, s State) {
	m.mu.Lock()
	m.live = live
	m.state = s
	m.mu.Unlock()
}

// =============================================================================
// QUERIES
// =============================================================================

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// HasCredential reports whether a live session exists.
func (m *Manager) HasCredential() bool {
	return m.snapshot() != nil
}

// CurrentModel returns the active model, falling back to the persisted one.
func (m *Manager) CurrentModel() string {
	if live := m.snapshot(); live != nil {
		return live.model
	}
	return m.store.LoadConfig().Model
}

// SessionID identifies the current live session; empty when there is none.
func (m *Manager) SessionID() string {
	if live := m.snapshot(); live != nil {
		return live.id
	}
	return ""
}

// HistoryForDisplay returns the live transcript with user/model roles. It
// reads the in-memory conversation, not the disk copy.
func (m *Manager) HistoryForDisplay() []store.Turn {
	live := m.snapshot()
	if live == nil {
		return []store.Turn{}
	}
	return toStoreTurns(live.chat.History())
}

// =============================================================================
// INITIALIZE
// =============================================================================

// Initialize loads the config record and, when a credential can be read,
// builds a live session seeded with the stored history. Failures leave the
// manager Unauthenticated and are only logged.
func (m *Manager) Initialize(ctx context.Context) {
	if err := m.acquire(ctx, "initialize"); err != nil {
		m.log.Warn("initialize skipped", "error", err)
		return
	}
	defer m.release()

	rec := m.store.LoadConfig()
	apiKey := m.readCredential(rec)
	if apiKey == "" {
		m.replace(nil, Unauthenticated)
		m.log.Info("no usable credential", "model", rec.Model)
		return
	}

	client, err := m.provider.NewClient(ctx, apiKey)
	if err != nil {
		m.replace(nil, Unauthenticated)
		m.log.Error("failed to create provider client", "error", err)
		return
	}

	live := m.newLive(apiKey, rec.Model, client, m.store.LoadHistory())
	m.replace(live, Ready)
	m.log.Info("session ready", "session", live.id, "model", live.model, "turns", len(live.chat.History()))
}

// readCredential returns the stored key or "" when it is absent or cannot be
// decrypted. Plaintext values are never passed to the vault.
func (m *Manager) readCredential(rec store.ConfigRecord) string {
	if rec.EncryptedCredential != "" {
		if !m.vault.Available() {
			m.log.Warn("encrypted credential present but secure storage is unavailable")
		} else if key, err := m.vault.Decrypt(rec.EncryptedCredential); err != nil {
			m.log.Warn("stored credential unreadable, treating as absent", "error", err)
		} else if key != "" {
			return key
		}
	}
	return rec.Credential
}

func (m *Manager) newLive(apiKey, model string, client provider.Client, history []store.Turn) *liveSession {
	return &liveSession{
		id:     uuid.New().String(),
		apiKey: apiKey,
		model:  model,
		client: client,
		chat:   client.StartChat(model, toProviderTurns(history)),
	}
}

// =============================================================================
// CREDENTIAL
// =============================================================================

// SaveCredential validates rawKey against the persisted model and, when
// accepted, stores it (encrypted when the vault is available) and rebuilds
// the live session. On rejection nothing is persisted and the previous state
// is kept.
func (m *Manager) SaveCredential(ctx context.Context, rawKey string) error {
	const op = "save credential"
	if err := m.acquire(ctx, op); err != nil {
		return err
	}
	defer m.release()

	apiKey := strings.TrimSpace(rawKey)
	if apiKey == "" {
		return newError(op, ErrCredentialRejected, errors.New("API key is empty"))
	}

	prev := m.State()
	m.setState(Validating)
	restore := func() { m.setState(prev) }

	// The persisted record is the single source of truth for the model, so
	// the key is validated against the model it will be used with.
	rec := m.store.LoadConfig()

	client, err := m.provider.NewClient(ctx, apiKey)
	if err != nil {
		restore()
		return newError(op, ErrCredentialRejected, err)
	}
	if err := client.Validate(ctx, rec.Model); err != nil {
		restore()
		m.log.Warn("credential rejected", "key", util.MaskSecret(apiKey), "model", rec.Model, "error", err)
		return newError(op, ErrCredentialRejected, err)
	}

	next := store.ConfigRecord{Model: rec.Model}
	if m.vault.Available() {
		blob, err := m.vault.Encrypt(apiKey)
		if err != nil {
			m.log.Warn("encryption failed, storing credential in plaintext", "error", err)
		} else {
			next.EncryptedCredential = blob
		}
	}
	if next.EncryptedCredential == "" {
		next.Credential = apiKey
	}

	if err := m.store.SaveConfig(next); err != nil {
		restore()
		return newError(op, ErrStorage, err)
	}

	live := m.newLive(apiKey, next.Model, client, m.store.LoadHistory())
	m.replace(live, Ready)
	m.log.Info("credential saved", "key", util.MaskSecret(apiKey), "encrypted", next.EncryptedCredential != "", "session", live.id)
	return nil
}

// =============================================================================
// MODEL
// =============================================================================

// ChangeModel persists model and rebuilds the conversation on it, carrying
// the in-memory transcript forward.
func (m *Manager) ChangeModel(ctx context.Context, model string) error {
	const op = "change model"
	model = strings.TrimSpace(model)
	if model == "" {
		return newError(op, ErrInvalidInput, errors.New("model id is empty"))
	}

	if err := m.acquire(ctx, op); err != nil {
		return err
	}
	defer m.release()

	live := m.snapshot()
	var history []store.Turn
	if live != nil {
		history = toStoreTurns(live.chat.History())
	} else {
		// A credential may exist even though no live session could be built.
		rec := m.store.LoadConfig()
		apiKey := m.readCredential(rec)
		if apiKey == "" {
			return newError(op, ErrUnauthenticated, nil)
		}
		client, err := m.provider.NewClient(ctx, apiKey)
		if err != nil {
			return newError(op, ErrProvider, err)
		}
		live = &liveSession{apiKey: apiKey, client: client}
		history = m.store.LoadHistory()
	}

	prev := m.State()
	m.setState(SwitchingModel)

	rec := m.store.LoadConfig()
	rec.Model = model
	if err := m.store.SaveConfig(rec); err != nil {
		m.setState(prev)
		return newError(op, ErrStorage, err)
	}

	next := m.newLive(live.apiKey, model, live.client, history)
	m.replace(next, Ready)
	m.log.Info("model changed", "model", model, "session", next.id, "turns", len(history))
	return nil
}

// =============================================================================
// CONVERSATION
// =============================================================================

// SendMessage sends text on the live conversation. On success the whole live
// transcript is persisted and the reply returned. On failure the history is
// left untouched.
func (m *Manager) SendMessage(ctx context.Context, text string) (string, error) {
	const op = "send message"
	if strings.TrimSpace(text) == "" {
		return "", newError(op, ErrInvalidInput, errors.New("message is empty"))
	}

	if err := m.acquire(ctx, op); err != nil {
		return "", err
	}
	defer m.release()

	live := m.snapshot()
	if live == nil || m.State() != Ready {
		return "", newError(op, ErrUnauthenticated, nil)
	}

	reply, err := live.chat.Send(ctx, text)
	if err != nil {
		m.log.Warn("send failed", "model", live.model, "error", err)
		return "", newError(op, ErrProvider, err)
	}

	turns := store.TrimTurns(toStoreTurns(live.chat.History()), m.maxTurns)
	if err := m.store.SaveHistory(turns); err != nil {
		// The reply stands; the next successful send rewrites the full transcript.
		m.log.Error("failed to persist history", "error", err)
	}
	return reply, nil
}

// GenerateImage asks the fixed image model for an image. It needs a
// credential but not a conversation, and does not touch the history.
func (m *Manager) GenerateImage(ctx context.Context, prompt string) (*provider.Image, error) {
	const op = "generate image"
	if strings.TrimSpace(prompt) == "" {
		return nil, newError(op, ErrInvalidInput, errors.New("prompt is empty"))
	}

	live := m.snapshot()
	if live == nil {
		return nil, newError(op, ErrUnauthenticated, nil)
	}

	img, err := live.client.GenerateImage(ctx, m.imageModel, prompt)
	if err != nil {
		if errors.Is(err, provider.ErrNoImage) {
			return nil, newError(op, ErrNoImageProduced, nil)
		}
		return nil, newError(op, ErrProvider, err)
	}
	m.log.Info("image generated", "model", m.imageModel, "mime", img.MIMEType, "bytes", len(img.Data))
	return img, nil
}

// ClearHistory empties the persisted transcript and restarts the
// conversation with no history, keeping the credential and model.
func (m *Manager) ClearHistory(ctx context.Context) error {
	const op = "clear history"
	if err := m.acquire(ctx, op); err != nil {
		return err
	}
	defer m.release()

	live := m.snapshot()
	if live == nil {
		return newError(op, ErrUnauthenticated, nil)
	}

	if err := m.store.SaveHistory([]store.Turn{}); err != nil {
		return newError(op, ErrStorage, fmt.Errorf("failed to clear history: %w", err))
	}

	next := m.newLive(live.apiKey, live.model, live.client, nil)
	m.replace(next, Ready)
	m.log.Info("history cleared", "session", next.id)
	return nil
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toStoreTurns(turns []provider.Turn) []store.Turn {
	out := make([]store.Turn, 0, len(turns))
	for _, t := range turns {
		out = append(out, store.Turn{Role: store.NormalizeRole(t.Role), Content: t.Text})
	}
	return out
}

func toProviderTurns(turns []store.Turn) []provider.Turn {
	out := make([]provider.Turn, 0, len(turns))
	for _, t := range turns {
		role := provider.RoleModel
		if t.Role == store.RoleUser {
			role = provider.RoleUser
		}
		out = append(out, provider.Turn{Role: role, Text: t.Content})
	}
	return out
}
