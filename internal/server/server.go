// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8787"

	// APIPrefix is the path prefix of the API routes.
	APIPrefix = "/api"

	// MaxRequestBodySize bounds request bodies (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// MaxMessageLength bounds a message text in runes.
	MaxMessageLength = 20000

	// DefaultBotTimeout bounds one responder call.
	DefaultBotTimeout = 90 * time.Second

	// Version is the server version.
	Version = "0.1.0"
)

// ============================================================================
// SERVER
// ============================================================================

// Server is the reference report backend.
type Server struct {
	addr   string
	router *http.ServeMux
	server *http.Server

	store      Store
	responder  Responder
	limiter    *RateLimiter
	cors       *CORSConfig
	botTimeout time.Duration
	now        func() time.Time
	started    time.Time

	mu sync.RWMutex
}

// NewServer creates a server over store. An empty addr uses DefaultAddr.
// Without WithResponder the keyword responder answers.
func NewServer(addr string, store Store) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	s := &Server{
		addr:       addr,
		router:     http.NewServeMux(),
		store:      store,
		responder:  NewKeywordResponder(nil),
		cors:       DefaultCORSConfig(),
		botTimeout: DefaultBotTimeout,
		now:        time.Now,
		started:    time.Now(),
	}
	s.setupRoutes()
	return s
}

// WithResponder sets the bot responder.
func (s *Server) WithResponder(r Responder) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responder = r
	return s
}

// WithRateLimiter enables per-client rate limiting.
func (s *Server) WithRateLimiter(rl *RateLimiter) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limiter = rl
	return s
}

// WithCORS replaces the CORS configuration. nil disables CORS headers.
func (s *Server) WithCORS(c *CORSConfig) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cors = c
	return s
}

// WithClock overrides the clock used for timestamps.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.addr
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)

	s.router.HandleFunc("GET /api/users/{userID}", s.handleUser)
	s.router.HandleFunc("GET /api/users/{userID}/conversations", s.handleListConversations)

	s.router.HandleFunc("POST /api/conversations", s.handleCreateConversation)
	s.router.HandleFunc("PATCH /api/conversations/{id}", s.handleRenameConversation)
	s.router.HandleFunc("POST /api/conversations/{id}/archive", s.handleArchiveConversation)
	s.router.HandleFunc("GET /api/conversations/{id}/messages", s.handleListMessages)
	s.router.HandleFunc("POST /api/conversations/{id}/messages", s.handleSaveMessage)

	s.router.HandleFunc("POST /api/chatbot", s.handleChatbot)
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()

	middlewares := []Middleware{
		RecoveryMiddleware(),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(log.Default()),
	}
	if s.cors != nil {
		middlewares = append(middlewares, CORSMiddleware(s.cors))
	}
	if s.limiter != nil {
		middlewares = append(middlewares, RateLimitMiddleware(s.limiter))
	}
	return Chain(middlewares...)(s.router)
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	handler := s.Handler()

	s.mu.Lock()
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	log.Printf("SERVER_START | addr=%s version=%s", s.addr, Version)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv, limiter := s.server, s.limiter
	s.mu.RUnlock()

	log.Printf("SERVER_SHUTDOWN | starting graceful shutdown")
	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	if limiter != nil {
		limiter.Stop()
	}
	if cerr := s.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// ============================================================================
// HELPERS
// ============================================================================

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("RESPONSE_ENCODE_FAILED | status=%d error=%v", status, err)
	}
}

// writeError writes {"error":{"message","code"}}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    status,
		},
	})
}

// writeStoreError maps store errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("STORE_ERROR | op=%s error=%v", op, err)
		writeError(w, http.StatusInternalServerError, op+" failed")
	}
}

// decodeJSON reads a bounded JSON body into v. It writes the error response
// and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		log.Printf("INVALID_REQUEST | path=%s error=%v", r.URL.Path, err)
		writeError(w, http.StatusBadRequest, "invalid request format")
		return false
	}
	return true
}
