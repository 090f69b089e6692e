// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/gemchat/internal/util"
)

// SettingsFile is the settings document name inside the data directory.
const SettingsFile = "settings.toml"

// Default model identifiers.
const (
	DefaultChatModel  = "gemini-2.5-flash"
	DefaultImageModel = "gemini-2.5-flash-image"
)

// History backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete gemchat settings document.
type Config struct {
	// DataDir holds config.json, history, the vault key and the log.
	DataDir string `toml:"data_dir"`

	Model    ModelConfig    `toml:"model"`
	Provider ProviderConfig `toml:"provider"`
	History  HistoryConfig  `toml:"history"`
	UI       UIConfig       `toml:"ui"`
}

// ModelConfig lists the models offered to the user.
type ModelConfig struct {
	// Default is used when the durable record has no model yet.
	Default string `toml:"default"`

	// Image is the fixed image generation model.
	Image string `toml:"image"`

	Available []ModelOption `toml:"available"`
}

// ModelOption is one entry of the model picker.
type ModelOption struct {
	ID   string `toml:"id"`
	Tier string `toml:"tier"`
}

// ProviderConfig controls calls to the chat provider.
type ProviderConfig struct {
	TimeoutSeconds    int `toml:"timeout_seconds"`
	MaxRetries        int `toml:"max_retries"`
	RequestsPerMinute int `toml:"requests_per_minute"`
}

// HistoryConfig selects the transcript store.
type HistoryConfig struct {
	Backend string `toml:"backend"`

	// MaxTurns caps the persisted transcript; 0 keeps everything.
	MaxTurns int `toml:"max_turns"`
}

// UIConfig contains terminal UI preferences.
type UIConfig struct {
	Theme          string `toml:"theme"`
	WordWrap       int    `toml:"word_wrap"`
	ShowTimestamps bool   `toml:"show_timestamps"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		DataDir: defaultDataDir(),
		Model: ModelConfig{
			Default: DefaultChatModel,
			Image:   DefaultImageModel,
			Available: []ModelOption{
				{ID: "gemini-2.5-flash", Tier: "Free"},
				{ID: "gemini-3-pro-preview", Tier: "Paid"},
			},
		},
		Provider: ProviderConfig{
			TimeoutSeconds:    120,
			MaxRetries:        3,
			RequestsPerMinute: 30,
		},
		History: HistoryConfig{
			Backend: BackendJSON,
		},
		UI: UIConfig{
			Theme:    "auto",
			WordWrap: 80,
		},
	}
}

// Timeout returns the per-request provider timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSeconds) * time.Second
}

// SettingsPath returns the settings.toml location for this config.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.DataDir, SettingsFile)
}

// =============================================================================
// PATH HELPERS
// =============================================================================

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "gemchat")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".gemchat")
	}
	return filepath.Join(os.TempDir(), "gemchat")
}

// EnsureDataDir creates the data directory with owner-only permissions.
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, util.PrivateDirPerm); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load builds the settings: defaults, then settings.toml from dataDir (or
// the default data directory when dataDir is empty, or GEMCHAT_DATA_DIR),
// then environment overrides, then validation.
//
// A missing settings file is not an error. A malformed one is reported but
// the defaults are still returned so the client can start.
func Load(dataDir string) (*Config, error) {
	cfg := Default()
	if env := os.Getenv("GEMCHAT_DATA_DIR"); env != "" {
		cfg.DataDir = env
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	var loadErr error
	path := cfg.SettingsPath()
	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			loadErr = fmt.Errorf("failed to load settings: %w", err)
			dir := cfg.DataDir
			cfg = Default()
			cfg.DataDir = dir
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, loadErr
}

// LoadTOML decodes path over cfg. The data directory is not taken from the
// file when it is already set, so a settings file cannot relocate itself.
func LoadTOML(cfg *Config, path string) error {
	dir := cfg.DataDir
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if dir != "" {
		cfg.DataDir = dir
	}
	return nil
}

// Save writes cfg to its settings.toml.
func Save(cfg *Config) error {
	var buf bytes.Buffer
	buf.WriteString("# gemchat settings\n")
	buf.WriteString("# The API key and selected model live in config.json, not here.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := util.AtomicWriteFile(cfg.SettingsPath(), buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variables on top of cfg.
//
// Supported variables:
//   - GEMCHAT_MODEL: overrides model.default
//   - GEMCHAT_IMAGE_MODEL: overrides model.image
//   - GEMCHAT_HISTORY_BACKEND: overrides history.backend
//   - GEMCHAT_TIMEOUT: overrides provider.timeout_seconds
//   - GEMCHAT_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if model := os.Getenv("GEMCHAT_MODEL"); model != "" {
		c.Model.Default = model
	}
	if model := os.Getenv("GEMCHAT_IMAGE_MODEL"); model != "" {
		c.Model.Image = model
	}
	if backend := os.Getenv("GEMCHAT_HISTORY_BACKEND"); backend != "" {
		c.History.Backend = strings.ToLower(backend)
	}
	if timeout := os.Getenv("GEMCHAT_TIMEOUT"); timeout != "" {
		if secs, err := strconv.Atoi(timeout); err == nil {
			c.Provider.TimeoutSeconds = secs
		}
	}
	if theme := os.Getenv("GEMCHAT_THEME"); theme != "" {
		c.UI.Theme = strings.ToLower(theme)
	}
}

// SetDefaults fills zero values left by a partial settings file.
func (c *Config) SetDefaults() {
	def := Default()
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.Model.Default == "" {
		c.Model.Default = def.Model.Default
	}
	if c.Model.Image == "" {
		c.Model.Image = def.Model.Image
	}
	if len(c.Model.Available) == 0 {
		c.Model.Available = def.Model.Available
	}
	if c.Provider.TimeoutSeconds == 0 {
		c.Provider.TimeoutSeconds = def.Provider.TimeoutSeconds
	}
	if c.Provider.RequestsPerMinute == 0 {
		c.Provider.RequestsPerMinute = def.Provider.RequestsPerMinute
	}
	if c.History.Backend == "" {
		c.History.Backend = def.History.Backend
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
	if c.UI.WordWrap == 0 {
		c.UI.WordWrap = def.UI.WordWrap
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a settings validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the settings and returns ValidateErrors on failure.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if strings.TrimSpace(c.Model.Default) == "" {
		errs = append(errs, ValidationError{Field: "model.default", Message: "must not be empty"})
	}
	if strings.TrimSpace(c.Model.Image) == "" {
		errs = append(errs, ValidationError{Field: "model.image", Message: "must not be empty"})
	}
	for i, opt := range c.Model.Available {
		if strings.TrimSpace(opt.ID) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("model.available[%d].id", i),
				Message: "must not be empty",
			})
		}
	}

	if c.Provider.TimeoutSeconds < 1 || c.Provider.TimeoutSeconds > 3600 {
		errs = append(errs, ValidationError{
			Field:   "provider.timeout_seconds",
			Message: fmt.Sprintf("must be between 1 and 3600, got %d", c.Provider.TimeoutSeconds),
		})
	}
	if c.Provider.MaxRetries < 0 || c.Provider.MaxRetries > 10 {
		errs = append(errs, ValidationError{
			Field:   "provider.max_retries",
			Message: fmt.Sprintf("must be between 0 and 10, got %d", c.Provider.MaxRetries),
		})
	}
	if c.Provider.RequestsPerMinute < 0 {
		errs = append(errs, ValidationError{Field: "provider.requests_per_minute", Message: "must not be negative"})
	}

	switch c.History.Backend {
	case BackendJSON, BackendSQLite:
	default:
		errs = append(errs, ValidationError{
			Field:   "history.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: json, sqlite", c.History.Backend),
		})
	}
	if c.History.MaxTurns < 0 {
		errs = append(errs, ValidationError{Field: "history.max_turns", Message: "must not be negative"})
	}

	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}
	if c.UI.WordWrap < 20 {
		errs = append(errs, ValidationError{Field: "ui.word_wrap", Message: "must be at least 20"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ModelTier returns the tier label of a known model, or "" when unknown.
func (c *Config) ModelTier(id string) string {
	for _, opt := range c.Model.Available {
		if opt.ID == id {
			return opt.Tier
		}
	}
	return ""
}
