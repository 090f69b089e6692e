// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnavailable means the platform secure storage cannot be used.
	ErrUnavailable = errors.New("secure storage is not available")

	// ErrDecryption means a blob is malformed or was sealed under another key.
	ErrDecryption = errors.New("credential decryption failed")
)

// =============================================================================
// VAULT
// =============================================================================

// Vault seals and opens the API credential. Encrypted blobs are base64 text
// suitable for the config record.
type Vault interface {
	// Available reports whether the vault can be used right now.
	Available() bool

	// Encrypt seals plaintext and returns a base64 blob.
	Encrypt(plaintext string) (string, error)

	// Decrypt opens a blob produced by Encrypt.
	Decrypt(blob string) (string, error)
}

// =============================================================================
// AES-GCM HELPERS
// =============================================================================

const (
	// KeySize is the AES-256 key size.
	KeySize = 32

	// NonceSize is the AES-GCM nonce size.
	NonceSize = 12
)

// seal returns nonce||ciphertext||tag.
func seal(key, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// open reverses seal. Any failure is reported as ErrDecryption.
func open(key, sealed []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < NonceSize+gcm.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecryption)
	}
	plaintext, err := gcm.Open(nil, sealed[:NonceSize], sealed[NonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication tag mismatch", ErrDecryption)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// zeroBytes wipes key material once it is no longer needed.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
