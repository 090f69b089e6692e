// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"fmt"
	"sync"
)

// Call records one request made through a MockProvider.
type Call struct {
	Op     string // "validate", "send" or "image"
	APIKey string
	Model  string
	Text   string
}

// MockProvider is a scriptable Provider for tests.
//
// Keys listed in RejectKeys fail validation with ErrAuthFailed. Replies come
// from ReplyFunc, or default to "reply[<model>]: <text>". SendErr and
// ImageErr, when set, fail the next calls of that kind.
type MockProvider struct {
	mu sync.Mutex

	RejectKeys map[string]bool
	ReplyFunc  func(model, text string) string
	Image      *Image
	SendErr    error
	ImageErr   error

	calls []Call
}

// NewMock returns a MockProvider that accepts every key and returns a 1x1 PNG.
func NewMock() *MockProvider {
	return &MockProvider{
		RejectKeys: map[string]bool{},
		Image:      &Image{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
	}
}

// Reject makes validation fail for key.
func (m *MockProvider) Reject(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RejectKeys[key] = true
}

// SetSendErr sets the error returned by subsequent Send calls.
func (m *MockProvider) SetSendErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendErr = err
}

// SetImage sets the image (nil for none) and error returned by GenerateImage.
func (m *MockProvider) SetImage(img *Image, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Image = img
	m.ImageErr = err
}

// Calls returns the recorded calls.
func (m *MockProvider) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// LastCall returns the most recent call of op, or false.
func (m *MockProvider) LastCall(op string) (Call, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.calls) - 1; i >= 0; i-- {
		if m.calls[i].Op == op {
			return m.calls[i], true
		}
	}
	return Call{}, false
}

func (m *MockProvider) record(c Call) {
	m.mu.Lock()
	m.calls = append(m.calls, c)
	m.mu.Unlock()
}

// NewClient returns a client bound to apiKey.
func (m *MockProvider) NewClient(ctx context.Context, apiKey string) (Client, error) {
	if apiKey == "" {
		return nil, &Error{Kind: ErrAuthFailed, Message: "API key is empty"}
	}
	return &mockClient{provider: m, apiKey: apiKey}, nil
}

type mockClient struct {
	provider *MockProvider
	apiKey   string
}

func (c *mockClient) Validate(ctx context.Context, model string) error {
	m := c.provider
	m.record(Call{Op: "validate", APIKey: c.apiKey, Model: model, Text: ValidationPrompt})

	m.mu.Lock()
	rejected := m.RejectKeys[c.apiKey]
	m.mu.Unlock()
	if rejected {
		return &Error{Kind: ErrAuthFailed, Status: 400, Message: "API key not valid. Please pass a valid API key."}
	}
	return nil
}

func (c *mockClient) StartChat(model string, history []Turn) Chat {
	return &mockChat{client: c, model: model, history: copyTurns(history)}
}

func (c *mockClient) GenerateImage(ctx context.Context, model, prompt string) (*Image, error) {
	m := c.provider
	m.record(Call{Op: "image", APIKey: c.apiKey, Model: model, Text: prompt})

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ImageErr != nil {
		return nil, m.ImageErr
	}
	if m.Image == nil {
		return nil, &Error{Kind: ErrNoImage}
	}
	img := *m.Image
	return &img, nil
}

type mockChat struct {
	client *mockClient
	model  string

	mu      sync.Mutex
	history []Turn
}

func (c *mockChat) Send(ctx context.Context, text string) (string, error) {
	m := c.client.provider
	m.record(Call{Op: "send", APIKey: c.client.apiKey, Model: c.model, Text: text})

	m.mu.Lock()
	sendErr := m.SendErr
	replyFunc := m.ReplyFunc
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", classify(err)
	}
	if sendErr != nil {
		return "", sendErr
	}

	reply := fmt.Sprintf("reply[%s]: %s", c.model, text)
	if replyFunc != nil {
		reply = replyFunc(c.model, text)
	}

	c.mu.Lock()
	c.history = append(c.history, Turn{Role: RoleUser, Text: text}, Turn{Role: RoleModel, Text: reply})
	c.mu.Unlock()
	return reply, nil
}

func (c *mockChat) History() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyTurns(c.history)
}

func (c *mockChat) Model() string {
	return c.model
}
