// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/gemchat/internal/bridge"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultPort is the default loopback port.
	DefaultPort = 8787

	// MaxRequestBodySize bounds request bodies. save-image payloads carry a
	// whole base64 image.
	MaxRequestBodySize = 32 << 20

	// DefaultRequestsPerSecond is the token bucket refill rate.
	DefaultRequestsPerSecond = 10

	// DefaultBurst is the token bucket size.
	DefaultBurst = 20
)

// ============================================================================
// SERVER
// ============================================================================

// Options configures a Server.
type Options struct {
	// Port on 127.0.0.1; 0 selects DefaultPort.
	Port int

	// Token is the bearer token clients must send. Empty disables auth.
	Token string

	Logger *slog.Logger
}

// Server serves the bridge channels over HTTP.
type Server struct {
	bridge  *bridge.Bridge
	port    int
	token   string
	log     *slog.Logger
	mux     *http.ServeMux
	limiter *rate.Limiter

	mu     sync.Mutex
	server *http.Server
}

// New returns a Server for b.
func New(b *bridge.Bridge, opts Options) *Server {
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{
		bridge:  b,
		port:    opts.Port,
		token:   opts.Token,
		log:     opts.Logger.With("component", "server"),
		mux:     http.NewServeMux(),
		limiter: rate.NewLimiter(DefaultRequestsPerSecond, DefaultBurst),
	}
	s.setupRoutes()
	return s
}

// GenerateToken returns a random 32-byte hex token.
func GenerateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("127.0.0.1:%d", s.port)
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/channels", s.handleChannels)
	s.mux.HandleFunc("POST /api/{channel}", s.handleDispatch)
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	return Chain(
		RecoveryMiddleware(s.log),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(s.log),
		RateLimitMiddleware(s.limiter, s.log),
		AuthMiddleware(s.token, s.log),
		BodyLimitMiddleware(MaxRequestBodySize),
	)(s.mux)
}

// ============================================================================
// HANDLERS
// ============================================================================

// HealthResponse is the /health body.
type HealthResponse struct {
	Status        string `json:"status"`
	Authenticated bool   `json:"authenticated"`
	Model         string `json:"model"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Authenticated: s.bridge.CheckAuth().Authenticated,
		Model:         s.bridge.GetCurrentModel().Model,
	})
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"channels": bridge.Channels})
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	channel := r.PathValue("channel")
	if !slices.Contains(bridge.Channels, channel) {
		s.writeJSON(w, http.StatusNotFound, bridge.Response{Error: fmt.Sprintf("unknown channel %q", channel)})
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeJSON(w, http.StatusRequestEntityTooLarge, bridge.Response{Error: "request body too large"})
			return
		}
		s.writeJSON(w, http.StatusBadRequest, bridge.Response{Error: "failed to read request body"})
		return
	}
	if len(body) > 0 && !json.Valid(body) {
		s.writeJSON(w, http.StatusBadRequest, bridge.Response{Error: "request body is not valid JSON"})
		return
	}

	resp := s.bridge.Dispatch(r.Context(), channel, body)
	if resp.Failed() {
		s.log.Debug("channel failed", "channel", channel, "error", resp.Error)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// ============================================================================
// LIFECYCLE
// ============================================================================

// Start listens on the loopback address and serves until Shutdown. It
// returns nil after a clean shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
	}
	return s.Serve(ln)
}

// Serve serves on ln.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	s.log.Info("server started", "addr", ln.Addr().String(), "auth", s.token != "")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.log.Info("server shutting down")
	return srv.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("failed to write response", "error", err)
	}
}
