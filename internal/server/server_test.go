// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/jeranaias/gemchat/internal/bridge"
	"github.com/jeranaias/gemchat/internal/provider"
	"github.com/jeranaias/gemchat/internal/session"
	"github.com/jeranaias/gemchat/internal/store"
	"github.com/jeranaias/gemchat/internal/vault"
)

const testToken = "secret-token"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	mgr := session.New(session.Config{
		Store:    store.NewJSONStore(t.TempDir(), "gemini-2.5-flash"),
		Vault:    vault.NewMemory(),
		Provider: provider.NewMock(),
	})
	mgr.Initialize(context.Background())
	return New(bridge.New(mgr, nil), Options{Token: testToken})
}

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) bridge.Response {
	t.Helper()
	var resp bridge.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// =============================================================================
// ROUTES
// =============================================================================

func TestHealth(t *testing.T) {
	h := newTestServer(t).Handler()
	rec := do(t, h, http.MethodGet, "/health", "", testToken)
	require.Equal(t, http.StatusOK, rec.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "ok", health.Status)
	require.False(t, health.Authenticated)
	require.Equal(t, "gemini-2.5-flash", health.Model)
}

func TestDispatchOverHTTP(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := do(t, h, http.MethodPost, "/api/send-to-gemini", `"hi"`, testToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "API key is not set", decode(t, rec).Error)

	rec = do(t, h, http.MethodPost, "/api/save-api-key", `"good-key"`, testToken)
	require.True(t, decode(t, rec).Success)

	rec = do(t, h, http.MethodPost, "/api/send-to-gemini", `"hi"`, testToken)
	require.Equal(t, "reply[gemini-2.5-flash]: hi", decode(t, rec).Text)

	rec = do(t, h, http.MethodPost, "/api/get-history", "", testToken)
	require.Len(t, decode(t, rec).History, 2)

	rec = do(t, h, http.MethodPost, "/api/nope", "", testToken)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, decode(t, rec).Error, "unknown channel")
}

func TestDispatchOverHTTP_EmptyPayloads(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := do(t, h, http.MethodPost, "/api/check-auth", "", testToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true,"authenticated":false}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/get-history", "", testToken)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true,"history":[]}`, rec.Body.String())
}

func TestChannels(t *testing.T) {
	rec := do(t, newTestServer(t).Handler(), http.MethodGet, "/api/channels", "", testToken)
	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, bridge.Channels, body["channels"])
}

func TestInvalidJSON(t *testing.T) {
	rec := do(t, newTestServer(t).Handler(), http.MethodPost, "/api/send-to-gemini", `{oops`, testToken)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// MIDDLEWARE
// =============================================================================

func TestAuthRequired(t *testing.T) {
	h := newTestServer(t).Handler()

	require.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/health", "", "").Code)
	require.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/health", "", "wrong").Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "", testToken).Code)
}

func TestValidateBearerToken(t *testing.T) {
	require.True(t, ValidateBearerToken("abc", "abc"))
	require.False(t, ValidateBearerToken("abc", "abd"))
	require.False(t, ValidateBearerToken("", ""))
	require.False(t, ValidateBearerToken("abc", ""))
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t)
	s.limiter = rate.NewLimiter(0, 1)
	h := s.Handler()

	require.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "", testToken).Code)
	require.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodGet, "/health", "", testToken).Code)
}

func TestSecurityHeaders(t *testing.T) {
	rec := do(t, newTestServer(t).Handler(), http.MethodGet, "/health", "", testToken)
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRecovery(t *testing.T) {
	h := RecoveryMiddleware(newTestServer(t).log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(mark("a"), mark("b"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"a", "b"}, order)
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)
	require.Len(t, a, 64)
	require.NotEqual(t, a, b)
}
