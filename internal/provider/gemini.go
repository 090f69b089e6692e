// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// Configuration defaults for the Gemini API.
const (
	// DefaultTimeout bounds a single request including retries.
	DefaultTimeout = 120 * time.Second

	// DefaultMaxRetries is the number of extra attempts for transient errors.
	DefaultMaxRetries = 3

	// DefaultRequestsPerMinute paces calls across all clients.
	DefaultRequestsPerMinute = 30

	retryBaseDelay   = 500 * time.Millisecond
	retryMaxDelay    = 10 * time.Second
	retryJitterRatio = 0.3
)

// Options configures a GeminiProvider.
type Options struct {
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerMinute int

	// BaseURL overrides the API endpoint, mainly for proxies.
	BaseURL string
}

// generateFunc matches genai's Models.GenerateContent.
type generateFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// =============================================================================
// PROVIDER
// =============================================================================

// GeminiProvider creates clients for the Gemini Developer API.
type GeminiProvider struct {
	opts    Options
	limiter *rate.Limiter
}

// NewGemini returns a provider with opts, filling zero values with defaults.
func NewGemini(opts Options) *GeminiProvider {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = DefaultRequestsPerMinute
	}
	return &GeminiProvider{
		opts:    opts,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 5),
	}
}

// NewClient creates a genai client for apiKey. No request is made.
func (p *GeminiProvider) NewClient(ctx context.Context, apiKey string) (Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, &Error{Kind: ErrAuthFailed, Message: "API key is empty"}
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if p.opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: p.opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &geminiClient{
		generate: client.Models.GenerateContent,
		opts:     p.opts,
		limiter:  p.limiter,
	}, nil
}

// =============================================================================
// CLIENT
// =============================================================================

type geminiClient struct {
	generate generateFunc
	opts     Options
	limiter  *rate.Limiter

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Validate sends the probe prompt to model.
func (c *geminiClient) Validate(ctx context.Context, model string) error {
	contents := []*genai.Content{genai.NewContentFromText(ValidationPrompt, genai.RoleUser)}
	_, err := c.call(ctx, model, contents, nil)
	return err
}

// StartChat opens a local conversation seeded with history.
func (c *geminiClient) StartChat(model string, history []Turn) Chat {
	return &geminiChat{client: c, model: model, history: copyTurns(history)}
}

// GenerateImage sends prompt to the image model and returns the first inline
// image part.
func (c *geminiClient) GenerateImage(ctx context.Context, model, prompt string) (*Image, error) {
	prompt = norm.NFC.String(prompt)
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	resp, err := c.call(ctx, model, contents, cfg)
	if err != nil {
		return nil, err
	}
	return firstImage(resp)
}

// call performs one GenerateContent with pacing, timeout and retries.
func (c *geminiClient) call(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= c.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := backoff(attempt)
			slog.Debug("retrying provider request", "model", model, "attempt", attempt, "delay", delay, "error", lastErr)
			if err := c.wait(ctx, delay); err != nil {
				return nil, classify(err)
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, classify(err)
			}
		}

		start := time.Now()
		resp, err := c.generate(ctx, model, contents, cfg)
		if err == nil {
			slog.Debug("provider request complete", "model", model, "duration", time.Since(start))
			return resp, nil
		}

		lastErr = classify(err)
		if !IsRetryable(lastErr) || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (c *geminiClient) wait(ctx context.Context, d time.Duration) error {
	if c.sleep != nil {
		return c.sleep(ctx, d)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// =============================================================================
// CHAT
// =============================================================================

type geminiChat struct {
	client *geminiClient
	model  string

	mu      sync.Mutex
	history []Turn
}

// Send posts the transcript plus text and appends the exchange on success.
func (g *geminiChat) Send(ctx context.Context, text string) (string, error) {
	text = norm.NFC.String(text)

	g.mu.Lock()
	contents := toContents(g.history)
	g.mu.Unlock()
	contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))

	resp, err := g.client.call(ctx, g.model, contents, nil)
	if err != nil {
		return "", err
	}
	reply, err := responseText(resp)
	if err != nil {
		return "", err
	}

	g.mu.Lock()
	g.history = append(g.history, Turn{Role: RoleUser, Text: text}, Turn{Role: RoleModel, Text: reply})
	g.mu.Unlock()
	return reply, nil
}

// History returns a copy of the transcript.
func (g *geminiChat) History() []Turn {
	g.mu.Lock()
	defer g.mu.Unlock()
	return copyTurns(g.history)
}

// Model returns the chat's model id.
func (g *geminiChat) Model() string {
	return g.model
}

// =============================================================================
// CONVERSIONS
// =============================================================================

// toContents maps turns onto genai contents. Anything not from the user is
// sent as the model role.
func toContents(turns []Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns)+1)
	for _, t := range turns {
		var role genai.Role = genai.RoleModel
		if t.Role == RoleUser {
			role = genai.RoleUser
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}
	return contents
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &Error{Kind: ErrEmptyResponse, Message: blockReason(resp)}
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

// firstImage returns the first inline-data part across all candidates.
func firstImage(resp *genai.GenerateContentResponse) (*Image, error) {
	if resp == nil {
		return nil, &Error{Kind: ErrNoImage}
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &Image{MIMEType: part.InlineData.MIMEType, Data: part.InlineData.Data}, nil
			}
		}
	}
	return nil, &Error{Kind: ErrNoImage}
}

func blockReason(resp *genai.GenerateContentResponse) string {
	if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return fmt.Sprintf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	return "no candidates in response"
}

// =============================================================================
// ERROR CLASSIFICATION
// =============================================================================

// classify converts a genai or transport error into *Error.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: ErrTimeout, Message: err.Error(), Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: ErrUnknown, Message: "request cancelled", Err: err}
	}

	status := 0
	message := err.Error()
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		status, message = apiErr.Code, apiErr.Message
	case errors.As(err, &apiErrPtr):
		status, message = apiErrPtr.Code, apiErrPtr.Message
	}

	// 400 covers both malformed requests and invalid keys; the message decides.
	kind := kindForStatus(status)
	if kind == ErrUnknown || kind == ErrInvalidRequest {
		if byMessage := kindForMessage(strings.ToLower(err.Error())); byMessage != ErrUnknown {
			kind = byMessage
		}
	}
	return &Error{Kind: kind, Status: status, Message: message, Err: err}
}

func kindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrAuthFailed
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status == http.StatusNotFound:
		return ErrModelNotFound
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrTimeout
	case status >= 500:
		return ErrServerError
	case status == http.StatusBadRequest:
		return ErrInvalidRequest
	}
	return ErrUnknown
}

func kindForMessage(msg string) error {
	switch {
	case strings.Contains(msg, "api key not valid") || strings.Contains(msg, "api_key_invalid") ||
		strings.Contains(msg, "permission_denied") || strings.Contains(msg, "unauthenticated"):
		return ErrAuthFailed
	case strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "quota") ||
		strings.Contains(msg, "rate limit"):
		return ErrRateLimited
	case strings.Contains(msg, "not found") || strings.Contains(msg, "not_found"):
		return ErrModelNotFound
	case strings.Contains(msg, "deadline") || strings.Contains(msg, "timeout"):
		return ErrTimeout
	case strings.Contains(msg, "unavailable") || strings.Contains(msg, "internal"):
		return ErrServerError
	}
	return ErrUnknown
}

// backoff returns 500ms, 1s, 2s ... capped at retryMaxDelay, with ±30% jitter.
func backoff(attempt int) time.Duration {
	shift := attempt - 1
	if shift < 0 {
		shift = 0
	}
	if shift > 16 {
		shift = 16
	}
	delay := retryBaseDelay << uint(shift)
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	jitter := time.Duration(float64(delay) * retryJitterRatio * (randFloat64()*2 - 1))
	return delay + jitter
}

// randFloat64 returns a float64 in [0, 1) from crypto/rand.
func randFloat64() float64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0.5
	}
	return float64(binary.BigEndian.Uint64(b[:])>>11) / (1 << 53)
}
