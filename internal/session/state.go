// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

// State is the manager's lifecycle state.
type State int

const (
	// Unauthenticated: no usable credential.
	Unauthenticated State = iota

	// Validating: a SaveCredential call is checking a key.
	Validating

	// Ready: a live session exists and provider calls are allowed.
	Ready

	// SwitchingModel: transient, while ChangeModel rebuilds the conversation.
	SwitchingModel
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Validating:
		return "validating"
	case Ready:
		return "ready"
	case SwitchingModel:
		return "switching-model"
	default:
		return "unknown"
	}
}
