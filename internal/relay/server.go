// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package relay implements the local forwarding server.
//
// The relay exists so the browser-facing client never has to send the
// API credential cross-origin: the key arrives in the request body over
// loopback, and the relay turns it into a bearer header on its own
// upstream call. One chat route, a health probe, and optional static
// file serving for the web client.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultListenAddr is where the relay listens. Loopback only: the
	// relay holds nothing worth exposing, and the key transits in
	// cleartext request bodies.
	DefaultListenAddr = "127.0.0.1:8090"

	// DefaultEndpoint is the upstream chat completions endpoint.
	DefaultEndpoint = "https://api.x.ai/v1/chat/completions"

	// DefaultModel is pinned server-side. Clients cannot pick a model
	// through the relay.
	DefaultModel = "grok-beta"

	// DefaultTemperature is used when the client omits one.
	DefaultTemperature = 0.7

	// MaxRequestBodySize caps inbound request bodies (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// MaxUpstreamResponseSize caps relayed upstream bodies (10MB).
	MaxUpstreamResponseSize = 10 * 1024 * 1024

	// upstreamTimeout bounds the upstream completion call.
	upstreamTimeout = 120 * time.Second

	// Version is the relay version.
	Version = "0.1.0"
)

// ============================================================================
// WIRE TYPES
// ============================================================================

// ChatMessage is one message in the inbound conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ForwardRequest is the body the client posts to /api/chat.
type ForwardRequest struct {
	APIKey      string        `json:"apiKey"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

// upstreamRequest is what the relay sends to the hosted API.
type upstreamRequest struct {
	Messages    []ChatMessage `json:"messages"`
	Model       string        `json:"model"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
}

// errorResponse is the relay's own error shape.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// healthResponse is the health probe response.
type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version"`
}

// ============================================================================
// CONFIG
// ============================================================================

// Config holds the relay configuration.
type Config struct {
	// ListenAddr is the host:port to bind.
	ListenAddr string

	// Endpoint is the upstream chat completions URL.
	Endpoint string

	// Model is the fixed model name for every forwarded request.
	Model string

	// AllowedOrigins is the CORS allowlist. "*" allows any origin.
	AllowedOrigins []string

	// StaticDir, when set, is served at "/" for the web client.
	StaticDir string

	// RateLimitPerMinute caps requests per client IP. Zero disables.
	RateLimitPerMinute int
}

// DefaultConfig returns the default relay configuration.
func DefaultConfig() Config {
	return Config{
		ListenAddr:         DefaultListenAddr,
		Endpoint:           DefaultEndpoint,
		Model:              DefaultModel,
		AllowedOrigins:     []string{"*"},
		RateLimitPerMinute: 60,
	}
}

// ============================================================================
// SERVER
// ============================================================================

// Server is the forwarding server.
type Server struct {
	cfg        Config
	logger     *log.Logger
	mux        *http.ServeMux
	server     *http.Server
	httpClient *http.Client
}

// NewServer creates a relay server with the given configuration.
func NewServer(cfg Config, logger *log.Logger) *Server {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		mux:    http.NewServeMux(),
		httpClient: &http.Client{
			Timeout: upstreamTimeout,
		},
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("POST /api/chat", s.handleChat)
	s.mux.HandleFunc("GET /health", s.handleHealth)

	if s.cfg.StaticDir != "" {
		s.mux.Handle("GET /", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}
}

// Handler returns the full middleware-wrapped handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	middlewares := []Middleware{
		RecoveryMiddleware(s.logger),
		LoggingMiddleware(s.logger),
		CORSMiddleware(s.cfg.AllowedOrigins),
	}
	if s.cfg.RateLimitPerMinute > 0 {
		middlewares = append(middlewares, RateLimitMiddleware(NewRateLimiter(s.cfg.RateLimitPerMinute)))
	}
	return Chain(middlewares...)(s.mux)
}

// Start runs the server until it fails or Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: upstreamTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("relay listening", "addr", s.cfg.ListenAddr, "model", s.cfg.Model, "version", Version)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("relay shutting down")
	return s.server.Shutdown(ctx)
}

// SetModel swaps the pinned upstream model, used by config hot-reload.
func (s *Server) SetModel(model string) {
	if model != "" {
		s.cfg.Model = model
	}
}

// ============================================================================
// CHAT HANDLER
// ============================================================================

// handleChat handles POST /api/chat: validate, inject the bearer
// header, pin the model, and relay the upstream answer verbatim.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	var req ForwardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}
	if req.APIKey == "" {
		s.writeError(w, http.StatusBadRequest, "Missing apiKey", "")
		return
	}
	if len(req.Messages) == 0 {
		s.writeError(w, http.StatusBadRequest, "Missing messages", "")
		return
	}

	temperature := req.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	body, err := json.Marshal(upstreamRequest{
		Messages:    req.Messages,
		Model:       s.cfg.Model,
		Stream:      false,
		Temperature: temperature,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to build upstream request", "")
		return
	}

	upReq, err := http.NewRequestWithContext(r.Context(), http.MethodPost, s.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to build upstream request", "")
		return
	}
	upReq.Header.Set("Content-Type", "application/json")
	upReq.Header.Set("Authorization", "Bearer "+req.APIKey)

	resp, err := s.httpClient.Do(upReq)
	if err != nil {
		// SECURITY: The error string can include the URL but never the key.
		s.writeError(w, http.StatusBadGateway, "Upstream request failed", err.Error())
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, MaxUpstreamResponseSize))
	if err != nil {
		s.writeError(w, http.StatusBadGateway, "Failed to read upstream response", err.Error())
		return
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("upstream error", "status", resp.StatusCode)
		s.writeError(w, resp.StatusCode, "Upstream request failed", string(respBody))
		return
	}

	// Success bodies relay verbatim so the client sees exactly what the
	// hosted API said.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	w.Write(respBody)
}

// ============================================================================
// HEALTH HANDLER
// ============================================================================

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:  "OK",
		Message: fmt.Sprintf("relay is running, forwarding to %s", s.cfg.Endpoint),
		Version: Version,
	})
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the relay's error shape.
func (s *Server) writeError(w http.ResponseWriter, status int, message, details string) {
	s.writeJSON(w, status, errorResponse{Error: message, Details: details})
}
