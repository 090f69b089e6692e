// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ErrInvalidDataURI is returned for anything that is not a base64 data URI.
var ErrInvalidDataURI = errors.New("invalid data URI")

// ImageNamePrefix starts every default image file name.
const ImageNamePrefix = "nano-banana"

var dataURIPattern = regexp.MustCompile(`^data:([A-Za-z-+/]+);base64,(.+)$`)

// ParseDataURI splits data:<mime>;base64,<payload> into its MIME type and
// decoded bytes.
func ParseDataURI(uri string) (string, []byte, error) {
	m := dataURIPattern.FindStringSubmatch(strings.TrimSpace(uri))
	if m == nil {
		return "", nil, ErrInvalidDataURI
	}
	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return m[1], data, nil
}

// ExtensionFor returns the file extension (without dot) for a MIME type:
// the subtype, with jpeg shortened to jpg.
func ExtensionFor(mime string) string {
	sub := mime
	if i := strings.IndexByte(mime, '/'); i >= 0 {
		sub = mime[i+1:]
	}
	if sub == "jpeg" {
		return "jpg"
	}
	return sub
}

// DefaultImageName returns nano-banana-<unix millis>.<ext>.
func DefaultImageName(mime string, now time.Time) string {
	return fmt.Sprintf("%s-%d.%s", ImageNamePrefix, now.UnixMilli(), ExtensionFor(mime))
}

// SaveDataURI decodes uri and writes the image to path. An empty path uses
// DefaultImageName in the working directory; a directory path gets the
// default name inside it. It returns the path written.
func SaveDataURI(uri, path string) (string, error) {
	mime, data, err := ParseDataURI(uri)
	if err != nil {
		return "", err
	}

	name := DefaultImageName(mime, time.Now())
	switch {
	case path == "":
		path = name
	case isDir(path):
		path = filepath.Join(path, name)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
