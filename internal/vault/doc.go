// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package vault encrypts the API credential at rest with a platform-bound key.
//
// On Windows the credential is sealed with DPAPI for the current user. On
// other platforms a random master key is kept in a 0600 file inside a 0700
// directory; the sealing key is derived from it together with the machine
// identity and the user id, so a config copied to another machine or account
// no longer decrypts.
//
// Available must be consulted before every Encrypt or Decrypt call; it is
// never cached. Decrypt reports ErrDecryption for malformed blobs and for
// blobs sealed under a different platform key.
package vault
