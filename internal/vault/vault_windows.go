// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build windows

package vault

import (
	"encoding/base64"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// =============================================================================
// DPAPI VAULT
// =============================================================================

// DPAPIVault seals credentials with the Windows Data Protection API, bound to
// the current user account.
type DPAPIVault struct{}

// Default returns the platform vault. dir is unused on Windows.
func Default(dir string) Vault {
	return DPAPIVault{}
}

// Available reports whether crypt32 exposes the DPAPI entry points.
func (DPAPIVault) Available() bool {
	return procCryptProtectData.Find() == nil &&
		procCryptUnprotectData.Find() == nil &&
		procLocalFree.Find() == nil
}

// Encrypt seals plaintext with CryptProtectData.
func (v DPAPIVault) Encrypt(plaintext string) (string, error) {
	if !v.Available() {
		return "", ErrUnavailable
	}
	sealed, err := dpAPIEncrypt([]byte(plaintext))
	if err != nil {
		return "", fmt.Errorf("DPAPI encryption failed: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob with CryptUnprotectData.
func (v DPAPIVault) Decrypt(blob string) (string, error) {
	if !v.Available() {
		return "", ErrUnavailable
	}
	sealed, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64", ErrDecryption)
	}
	plaintext, err := dpAPIDecrypt(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	defer zeroBytes(plaintext)
	return string(plaintext), nil
}

// dataBLOB mirrors the Win32 DATA_BLOB structure.
type dataBLOB struct {
	cbData uint32
	pbData *byte
}

// cryptProtectUIForbidden is CRYPTPROTECT_UI_FORBIDDEN.
const cryptProtectUIForbidden = 0x01

var (
	crypt32                = windows.NewLazySystemDLL("crypt32.dll")
	procCryptProtectData   = crypt32.NewProc("CryptProtectData")
	procCryptUnprotectData = crypt32.NewProc("CryptUnprotectData")
	kernel32               = windows.NewLazySystemDLL("kernel32.dll")
	procLocalFree          = kernel32.NewProc("LocalFree")
)

func dpAPIEncrypt(data []byte) ([]byte, error) {
	return dpAPICall(procCryptProtectData, "CryptProtectData", data)
}

func dpAPIDecrypt(data []byte) ([]byte, error) {
	return dpAPICall(procCryptUnprotectData, "CryptUnprotectData", data)
}

// dpAPICall invokes CryptProtectData or CryptUnprotectData; both share the
// same argument layout.
func dpAPICall(proc *windows.LazyProc, name string, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty data")
	}

	dataIn := dataBLOB{
		cbData: uint32(len(data)),
		pbData: &data[0],
	}
	var dataOut dataBLOB

	ret, _, err := proc.Call(
		uintptr(unsafe.Pointer(&dataIn)),
		0, // description
		0, // optional entropy
		0, // reserved
		0, // prompt struct
		cryptProtectUIForbidden,
		uintptr(unsafe.Pointer(&dataOut)),
	)
	if ret == 0 {
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	defer procLocalFree.Call(uintptr(unsafe.Pointer(dataOut.pbData)))

	out := make([]byte, dataOut.cbData)
	copy(out, unsafe.Slice(dataOut.pbData, dataOut.cbData))
	return out, nil
}
