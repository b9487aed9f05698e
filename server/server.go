// Package server exposes the assistant over HTTP and WebSocket: a JSON chat
// endpoint, session management, health and metrics.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/elbchat/elbchat/ingest"
	"github.com/elbchat/elbchat/logging"
	"github.com/elbchat/elbchat/orchestrator"
)

// DefaultSessionID is used when a chat request carries no session identifier.
const DefaultSessionID = "default-session"

// Options configure the Server.
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Logger          logging.Logger
	// Gatherer backs the /metrics endpoint. Nil uses the default registry.
	Gatherer prometheus.Gatherer
	// Ingester backs the document upload endpoints. Nil disables them.
	Ingester *ingest.Ingester
}

// Server is the HTTP/WebSocket ingress over one orchestrator.
type Server struct {
	orch     *orchestrator.Orchestrator
	ingester *ingest.Ingester
	logger   logging.Logger
	http     *http.Server
	opts     Options
}

// New builds the server and its routes.
func New(orch *orchestrator.Orchestrator, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{orch: orch, ingester: opts.Ingester, logger: opts.Logger, opts: opts}
	s.http = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.routes(),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metricsHandler())
	r.Post("/api/chat", s.handleChat)
	r.Delete("/api/chat/session/{id}", s.handleClearSession)
	r.Get("/ws/chat", s.handleWebSocket)
	if s.ingester != nil {
		r.Post("/api/documents/upload", s.handleUploadFile)
		r.Post("/api/documents/upload-text", s.handleUploadText)
	}
	return r
}

func (s *Server) metricsHandler() http.Handler {
	if s.opts.Gatherer != nil {
		return promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// ListenAndServe runs the server until ctx is cancelled, then drains with the
// shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server.listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

type chatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	reply, err := s.orch.RunTurn(r.Context(), sessionID, req.Message)
	if err != nil {
		s.logger.Error("chat.turn_failed", "session_id", sessionID, "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "the assistant is unavailable right now"})
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Response: reply, SessionID: sessionID})
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.orch.ClearSession(id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared", "sessionId": id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
