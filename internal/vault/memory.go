// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package vault

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
)

// MemoryVault is an in-process vault with a random key. It is used in tests
// and when a caller wants encryption without touching the platform. Its
// availability can be toggled to simulate platforms without secure storage.
type MemoryVault struct {
	mu        sync.Mutex
	key       []byte
	available bool
}

// NewMemory returns an available MemoryVault with a fresh random key.
func NewMemory() *MemoryVault {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		panic(fmt.Sprintf("vault: failed to generate key: %v", err))
	}
	return &MemoryVault{key: key, available: true}
}

// SetAvailable changes what Available reports.
func (m *MemoryVault) SetAvailable(available bool) {
	m.mu.Lock()
	m.available = available
	m.mu.Unlock()
}

// Available reports the simulated availability.
func (m *MemoryVault) Available() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// Encrypt seals plaintext with the in-memory key.
func (m *MemoryVault) Encrypt(plaintext string) (string, error) {
	if !m.Available() {
		return "", ErrUnavailable
	}
	sealed, err := seal(m.key, []byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob sealed by this vault.
func (m *MemoryVault) Decrypt(blob string) (string, error) {
	if !m.Available() {
		return "", ErrUnavailable
	}
	sealed, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64", ErrDecryption)
	}
	plaintext, err := open(m.key, sealed)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
