// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jeranaias/gemchat/internal/bridge"
	"github.com/jeranaias/gemchat/internal/commands"
	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/provider"
	"github.com/jeranaias/gemchat/internal/session"
	"github.com/jeranaias/gemchat/internal/store"
	"github.com/jeranaias/gemchat/internal/vault"
)

// LogFile is the log name inside the data directory.
const LogFile = "gemchat.log"

// newProvider builds the chat provider. Tests replace it with a mock.
var newProvider = func(cfg *config.Config) provider.Provider {
	return provider.NewGemini(provider.Options{
		Timeout:           cfg.Timeout(),
		MaxRetries:        cfg.Provider.MaxRetries,
		RequestsPerMinute: cfg.Provider.RequestsPerMinute,
	})
}

// globalOptions are the persistent root flags.
type globalOptions struct {
	dataDir string
	debug   bool
}

// App holds everything a command needs, built once per invocation.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    store.Store
	Manager  *session.Manager
	Bridge   *bridge.Bridge
	Executor *commands.Executor

	logFile io.Closer
}

// newApp loads settings, opens the log and the store, and restores the
// session. A malformed settings file is logged and the defaults are used;
// invalid values are an error.
func newApp(ctx context.Context, opts globalOptions) (*App, error) {
	cfg, cfgErr := config.Load(opts.dataDir)
	var invalid config.ValidateErrors
	if errors.As(cfgErr, &invalid) {
		return nil, cfgErr
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, err
	}

	logger, logFile, err := openLog(cfg.DataDir, opts.debug)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	if cfgErr != nil {
		logger.Warn("using default settings", "error", cfgErr)
	}

	st, err := store.Open(cfg.DataDir, cfg.History.Backend, cfg.Model.Default)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	mgr := session.New(session.Config{
		Store:      st,
		Vault:      vault.Default(cfg.DataDir),
		Provider:   newProvider(cfg),
		ImageModel: cfg.Model.Image,
		MaxTurns:   cfg.History.MaxTurns,
		Logger:     logger,
	})
	mgr.Initialize(ctx)

	b := bridge.New(mgr, logger)
	exec := commands.NewExecutor(commands.NewRegistry(), &commands.Env{
		Bridge: b,
		Models: cfg.Model.Available,
	})

	logger.Debug("app ready",
		"data_dir", cfg.DataDir,
		"backend", cfg.History.Backend,
		"authenticated", mgr.HasCredential(),
		"model", mgr.CurrentModel())

	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    st,
		Manager:  mgr,
		Bridge:   b,
		Executor: exec,
		logFile:  logFile,
	}, nil
}

// Close releases the store and the log file.
func (a *App) Close() error {
	err := a.Store.Close()
	if a.logFile != nil {
		a.logFile.Close()
	}
	return err
}

// openLog opens the append-only log in dataDir. Logs never go to the
// terminal, which belongs to the chat.
func openLog(dataDir string, debug bool) (*slog.Logger, io.Closer, error) {
	f, err := os.OpenFile(filepath.Join(dataDir, LogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})
	return slog.New(handler), f, nil
}
