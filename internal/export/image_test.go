// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDataURI(t *testing.T) {
	mime, data, err := ParseDataURI("data:image/png;base64,AQID")
	require.NoError(t, err)
	require.Equal(t, "image/png", mime)
	require.Equal(t, []byte{1, 2, 3}, data)

	for _, bad := range []string{
		"",
		"image/png;base64,AQID",
		"data:image/png,AQID",
		"data:image/png;base64,***",
	} {
		_, _, err := ParseDataURI(bad)
		require.ErrorIs(t, err, ErrInvalidDataURI, "input %q", bad)
	}
}

func TestExtensionFor(t *testing.T) {
	tests := map[string]string{
		"image/jpeg":    "jpg",
		"image/png":     "png",
		"image/webp":    "webp",
		"image/svg+xml": "svg+xml",
	}
	for mime, want := range tests {
		if got := ExtensionFor(mime); got != want {
			t.Errorf("ExtensionFor(%q) = %q, want %q", mime, got, want)
		}
	}
}

func TestDefaultImageName(t *testing.T) {
	now := time.UnixMilli(1735689600123)
	require.Equal(t, "nano-banana-1735689600123.jpg", DefaultImageName("image/jpeg", now))
}

func TestSaveDataURI(t *testing.T) {
	dir := t.TempDir()

	path, err := SaveDataURI("data:image/jpeg;base64,AQID", filepath.Join(dir, "cat.jpg"))
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, data)

	path, err = SaveDataURI("data:image/jpeg;base64,AQID", dir)
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`nano-banana-\d+\.jpg$`), path)
	require.Equal(t, dir, filepath.Dir(path))

	_, err = SaveDataURI("not a uri", dir)
	require.ErrorIs(t, err, ErrInvalidDataURI)
}
