// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads gemchat's application settings.
//
// Settings are read from settings.toml in the data directory, layered as
// built-in defaults, then the file, then GEMCHAT_* environment variables,
// then validation. They describe how the client behaves (models on offer,
// provider pacing, history backend, UI look); they do not hold the API key
// or the selected model, which belong to the durable config record owned by
// the session manager.
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    var verrs config.ValidateErrors
//	    if errors.As(err, &verrs) { ... }
//	}
//
//	w, _ := config.NewWatcher(cfg.SettingsPath(), func(c *config.Config) { ... })
//	go w.Run(ctx)
package config
