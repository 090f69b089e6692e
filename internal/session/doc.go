// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns gemchat's session state: the durable config record
// (API credential and selected model), the durable transcript, and the one
// live conversation built from them.
//
// # State Machine
//
//	Unauthenticated --SaveCredential--> Validating --ok--> Ready
//	                                              \--fail--> (previous state)
//	Ready --ChangeModel--> SwitchingModel --> Ready
//
// Initialize moves straight to Ready when a stored credential can be read.
//
// # Key Types
//
//   - Manager: the state owner; construct one per process with New
//   - Error: a classified failure, matched with errors.Is on the Err* kinds
//
// # Usage
//
//	mgr := session.New(session.Config{Store: st, Vault: v, Provider: p})
//	mgr.Initialize(ctx)
//	if !mgr.HasCredential() {
//	    err := mgr.SaveCredential(ctx, key)
//	}
//	reply, err := mgr.SendMessage(ctx, "hello")
//
// # Concurrency
//
// Mutating operations (Initialize, SaveCredential, ChangeModel, SendMessage,
// ClearHistory) are mutually exclusive. A call arriving while another is in
// flight waits its turn; if the caller's context ends first it gets ErrBusy.
package session
