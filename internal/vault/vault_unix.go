// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !windows

package vault

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jeranaias/gemchat/internal/util"
	"golang.org/x/crypto/pbkdf2"
)

// KeyFile is the master key file name inside the vault directory.
const KeyFile = "vault.key"

// PBKDF2Iterations binds the random master key to the machine and user.
// The master key is already full entropy, so this is not a password stretch.
const PBKDF2Iterations = 100000

// machineIDPaths are consulted in order for a stable machine identity.
var machineIDPaths = []string{
	"/etc/machine-id",
	"/var/lib/dbus/machine-id",
}

// =============================================================================
// FILE VAULT
// =============================================================================

// FileVault keeps a random master key in a 0600 file and seals credentials
// with a key derived from it, the machine identity and the user id.
type FileVault struct {
	dir string

	// identity overrides the machine/user binding; tests use it to simulate
	// moving the data directory to another machine.
	identity func() (string, error)
}

// Default returns the platform vault rooted at dir.
func Default(dir string) Vault {
	return NewFileVault(dir)
}

// NewFileVault returns a FileVault storing its key in dir.
func NewFileVault(dir string) *FileVault {
	return &FileVault{dir: dir, identity: platformIdentity}
}

// Available reports whether the key file can be read or created with owner
// only permissions and a machine identity can be determined.
func (v *FileVault) Available() bool {
	key, err := v.derivedKey()
	if err != nil {
		return false
	}
	zeroBytes(key)
	return true
}

// Encrypt seals plaintext and returns base64(nonce||ciphertext||tag).
func (v *FileVault) Encrypt(plaintext string) (string, error) {
	key, err := v.derivedKey()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer zeroBytes(key)

	sealed, err := seal(key, []byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob produced by Encrypt on this machine for this user.
func (v *FileVault) Decrypt(blob string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64", ErrDecryption)
	}

	key, err := v.derivedKey()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer zeroBytes(key)

	plaintext, err := open(key, sealed)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// derivedKey loads (or creates) the master key and derives the sealing key.
func (v *FileVault) derivedKey() ([]byte, error) {
	master, err := v.masterKey()
	if err != nil {
		return nil, err
	}
	defer zeroBytes(master)

	identity, err := v.identity()
	if err != nil {
		return nil, fmt.Errorf("failed to determine machine identity: %w", err)
	}
	salt := sha256.Sum256([]byte("gemchat-vault|" + identity))
	return pbkdf2.Key(master, salt[:], PBKDF2Iterations, KeySize, sha256.New), nil
}

func (v *FileVault) masterKey() ([]byte, error) {
	path := filepath.Join(v.dir, KeyFile)

	info, err := os.Stat(path)
	switch {
	case err == nil:
		if info.Mode().Perm()&0077 != 0 {
			return nil, fmt.Errorf("key file %s has insecure permissions %o", path, info.Mode().Perm())
		}
		key, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read key file: %w", err)
		}
		if len(key) != KeySize {
			zeroBytes(key)
			return nil, fmt.Errorf("key file %s has invalid length %d", path, len(key))
		}
		return key, nil

	case os.IsNotExist(err):
		key := make([]byte, KeySize)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate master key: %w", err)
		}
		if err := util.AtomicWriteFile(path, key, 0600); err != nil {
			zeroBytes(key)
			return nil, fmt.Errorf("failed to store master key: %w", err)
		}
		return key, nil

	default:
		return nil, fmt.Errorf("failed to stat key file: %w", err)
	}
}

// platformIdentity combines the machine id (or host name) with the uid.
func platformIdentity() (string, error) {
	machine := ""
	for _, p := range machineIDPaths {
		if data, err := os.ReadFile(p); err == nil {
			machine = strings.TrimSpace(string(data))
			if machine != "" {
				break
			}
		}
	}
	if machine == "" {
		host, err := os.Hostname()
		if err != nil {
			return "", err
		}
		machine = host
	}
	return machine + "|" + strconv.Itoa(os.Getuid()), nil
}
