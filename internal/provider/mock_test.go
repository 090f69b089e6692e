// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMockProvider(t *testing.T) {
	ctx := context.Background()
	m := NewMock()
	m.Reject("bad")

	bad, err := m.NewClient(ctx, "bad")
	require.NoError(t, err)
	require.ErrorIs(t, bad.Validate(ctx, "m1"), ErrAuthFailed)

	good, err := m.NewClient(ctx, "good")
	require.NoError(t, err)
	require.NoError(t, good.Validate(ctx, "m1"))

	chat := good.StartChat("m1", nil)
	reply, err := chat.Send(ctx, "hello")
	require.NoError(t, err)
	require.Equal(t, "reply[m1]: hello", reply)
	require.Len(t, chat.History(), 2)

	m.SetSendErr(errors.New("down"))
	_, err = chat.Send(ctx, "again")
	require.Error(t, err)
	require.Len(t, chat.History(), 2)

	last, ok := m.LastCall("send")
	require.True(t, ok)
	require.Equal(t, "again", last.Text)
	require.Equal(t, "good", last.APIKey)
	require.Len(t, m.Calls(), 4)
}
