// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/gemchat/internal/bridge"
	"github.com/jeranaias/gemchat/internal/config"
	"github.com/jeranaias/gemchat/internal/export"
	"github.com/jeranaias/gemchat/internal/provider"
	"github.com/jeranaias/gemchat/internal/session"
	"github.com/jeranaias/gemchat/internal/store"
	"github.com/jeranaias/gemchat/internal/vault"
)

// =============================================================================
// PARSER TESTS
// =============================================================================

func TestIsCommand(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"/help", true},
		{"/model gemini-2.5-flash", true},
		{"  /help", true},
		{"hello", false},
		{"hello /help", false},
		{"", false},
		{"/", true},
	}

	for _, tc := range tests {
		if got := IsCommand(tc.input); got != tc.want {
			t.Errorf("IsCommand(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestExtractCommandName(t *testing.T) {
	tests := map[string]string{
		"/help":            "/help",
		"/img a red fox":   "/img",
		"  /model\tgemini": "/model",
		"not a command":    "",
		"/":                "/",
	}
	for input, want := range tests {
		if got := ExtractCommandName(input); got != want {
			t.Errorf("ExtractCommandName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSplitCommandLine(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"a b  c", []string{"a", "b", "c"}},
		{`"hello world" x`, []string{"hello world", "x"}},
		{`'single quoted' y`, []string{"single quoted", "y"}},
		{`"it's" fine`, []string{"it's", "fine"}},
		{`"say \"hi\""`, []string{`say "hi"`}},
		{`""`, []string{""}},
		{"猫の 絵", []string{"猫の", "絵"}},
	}

	for _, tc := range tests {
		if got := splitCommandLine(tc.input); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("splitCommandLine(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParse(t *testing.T) {
	p := NewParser(NewRegistry())

	res := p.Parse(`/save "my pics/fox.png"`)
	require.True(t, res.IsCommand)
	require.NotNil(t, res.Command)
	require.Equal(t, "/save", res.Command.Name)
	require.Equal(t, []string{"my pics/fox.png"}, res.Args)

	res = p.Parse("/IMG  a fox in the snow ")
	require.NotNil(t, res.Command)
	require.Equal(t, "/img", res.Command.Name)
	require.Equal(t, "a fox in the snow", res.RawArgs)

	res = p.Parse("/q")
	require.Equal(t, "/quit", res.Command.Name)

	res = p.Parse("/nope")
	require.True(t, res.IsCommand)
	require.Nil(t, res.Command)

	res = p.Parse("just text")
	require.False(t, res.IsCommand)
}

func TestValidateArgs(t *testing.T) {
	r := NewRegistry()

	err := ValidateArgs(r.Get("/img"), nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "prompt", verr.Arg)

	require.NoError(t, ValidateArgs(r.Get("/img"), []string{"fox"}))
	require.NoError(t, ValidateArgs(r.Get("/model"), nil))

	enum := &Command{Name: "/theme", Args: []ArgDef{{Name: "mode", Type: ArgTypeEnum, Values: []string{"dark", "light"}}}}
	require.NoError(t, ValidateArgs(enum, []string{"DARK"}))
	require.Error(t, ValidateArgs(enum, []string{"blue"}))
}

func TestRegistryByCategory(t *testing.T) {
	groups := NewRegistry().ByCategory()
	for _, cat := range categoryOrder {
		require.NotEmpty(t, groups[cat], cat)
	}
}

// =============================================================================
// EXECUTOR TESTS
// =============================================================================

type fixture struct {
	exec    *Executor
	mock    *provider.MockProvider
	copied  []string
	workDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mock := provider.NewMock()
	mock.Reject("bad-key")
	mgr := session.New(session.Config{
		Store:    store.NewJSONStore(t.TempDir(), config.DefaultChatModel),
		Vault:    vault.NewMemory(),
		Provider: mock,
	})
	mgr.Initialize(context.Background())

	f := &fixture{mock: mock, workDir: t.TempDir()}
	env := &Env{
		Bridge: bridge.New(mgr, nil),
		Models: config.Default().Model.Available,
		CopyFunc: func(s string) error {
			f.copied = append(f.copied, s)
			return nil
		},
	}
	f.exec = NewExecutor(NewRegistry(), env)
	return f
}

func (f *fixture) submit(t *testing.T, input string) Result {
	t.Helper()
	return f.exec.Submit(context.Background(), input)
}

func TestSubmitRequiresKey(t *testing.T) {
	f := newFixture(t)

	res := f.submit(t, "hello")
	require.Equal(t, KindError, res.Kind)
	require.EqualError(t, res.Err, "API key is not set")

	res = f.submit(t, "/img a fox")
	require.ErrorIs(t, res.Err, session.ErrUnauthenticated)
}

func TestSubmitConversation(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.submit(t, "/key").PromptKey)
	require.Equal(t, KindError, f.exec.SaveKey(context.Background(), "bad-key").Kind)
	require.Equal(t, KindInfo, f.exec.SaveKey(context.Background(), "good-key").Kind)

	res := f.submit(t, "hello")
	require.Equal(t, KindReply, res.Kind)
	require.Equal(t, "reply[gemini-2.5-flash]: hello", res.Text)

	res = f.submit(t, "/copy")
	require.Equal(t, KindInfo, res.Kind)
	require.Equal(t, []string{"reply[gemini-2.5-flash]: hello"}, f.copied)

	res = f.submit(t, "/model")
	require.Contains(t, res.Text, "* gemini-2.5-flash")
	require.Contains(t, res.Text, "gemini-3-pro-preview")

	res = f.submit(t, "/model gemini-3-pro-preview")
	require.Equal(t, "gemini-3-pro-preview", res.Model)

	res = f.submit(t, "/status")
	require.Contains(t, res.Text, "Turns:   2")

	path := filepath.Join(f.workDir, "chat.md")
	res = f.submit(t, "/export "+path)
	require.Equal(t, KindInfo, res.Kind, res.Err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "model: gemini-3-pro-preview")

	res = f.submit(t, "/clear")
	require.True(t, res.Cleared)
	require.Equal(t, KindError, f.submit(t, "/copy").Kind)
	require.ErrorIs(t, f.submit(t, "/export").Err, export.ErrEmptyTranscript)
}

func TestSubmitImage(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, KindInfo, f.exec.SaveKey(context.Background(), "good-key").Kind)

	require.ErrorIs(t, f.submit(t, "/save").Err, ErrNothingToSave)

	res := f.submit(t, "/img a fox in the snow")
	require.Equal(t, KindImage, res.Kind)
	require.True(t, strings.HasPrefix(res.Image, "data:image/png;base64,"))
	call, ok := f.mock.LastCall("image")
	require.True(t, ok)
	require.Equal(t, "a fox in the snow", call.Text)

	path := filepath.Join(f.workDir, "fox.png")
	res = f.submit(t, "/save "+path)
	require.Equal(t, KindInfo, res.Kind, res.Err)
	require.FileExists(t, path)

	f.mock.SetImage(nil, nil)
	res = f.submit(t, "/img nothing")
	require.EqualError(t, res.Err, "no image was generated")
}

func TestSubmitProviderError(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, KindInfo, f.exec.SaveKey(context.Background(), "good-key").Kind)

	f.mock.SetSendErr(errors.New("quota exceeded"))
	res := f.submit(t, "hi")
	require.EqualError(t, res.Err, "quota exceeded")
}

func TestSubmitMisc(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, Result{}, f.submit(t, "   "))
	require.True(t, f.submit(t, "/quit").Quit)
	require.Contains(t, f.submit(t, "/nope").Err.Error(), "unknown command /nope")
	require.IsType(t, &ValidationError{}, f.submit(t, "/img").Err)

	help := f.submit(t, "/help")
	require.Equal(t, KindInfo, help.Kind)
	require.Contains(t, help.Text, "/img <prompt>")

	require.Contains(t, f.submit(t, "/help img").Text, "aliases: /image")
}
