// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package api serves the query-answering HTTP interface.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/answer-engine/internal/checkpoint"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// Runner executes the answer pipeline for one query. The returned
// history includes the new user and assistant turns.
type Runner interface {
	Answer(ctx context.Context, query string, history []types.Message) (*types.Payload, []types.Message)
}

// Suggester generates follow-up question suggestions for a query.
type Suggester interface {
	Related(ctx context.Context, query string) []string
}

// Server wires the pipeline runner, the suggester, and the session
// checkpoint store behind the HTTP API. Checkpoints may be nil; the
// API then answers every query without conversation memory.
type Server struct {
	runner      Runner
	suggester   Suggester
	checkpoints checkpoint.Store
	cfg         types.ServerConfig
	logger      *zap.Logger
}

// NewServer builds the API server.
func NewServer(runner Runner, suggester Suggester, checkpoints checkpoint.Store, cfg types.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		runner:      runner,
		suggester:   suggester,
		checkpoints: checkpoints,
		cfg:         cfg,
		logger:      logger,
	}
}

// Router assembles the chi route tree with the middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.corsMiddleware)

	r.Get("/health", s.health)
	r.Post("/api/ask", s.ask)
	r.Get("/api/related-questions", s.relatedQuestions)

	return r
}

// Start runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := s.cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{Addr: addr, Handler: s.Router()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("API server listening", zap.String("addr", addr))
	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type askRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

// askResponse is the answer payload plus the session identifier the
// client should send with its next question.
type askResponse struct {
	types.Payload
	SessionID string `json:"session_id"`
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeJSONError(w, http.StatusUnprocessableEntity, "query is required")
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	history := s.loadHistory(r.Context(), sessionID)

	payload, newHistory := s.runner.Answer(r.Context(), req.Query, history)
	if payload == nil {
		writeJSONError(w, http.StatusInternalServerError, "pipeline produced no payload")
		return
	}

	s.saveHistory(r.Context(), sessionID, newHistory)

	writeJSON(w, http.StatusOK, askResponse{Payload: *payload, SessionID: sessionID})
}

func (s *Server) relatedQuestions(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeJSONError(w, http.StatusUnprocessableEntity, "query is required")
		return
	}

	questions := []string{}
	if s.suggester != nil {
		questions = s.suggester.Related(r.Context(), query)
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": query, "questions": questions})
}

// loadHistory fetches the session's prior conversation. A store error
// is logged and treated as no history; answering always proceeds.
func (s *Server) loadHistory(ctx context.Context, sessionID string) []types.Message {
	if s.checkpoints == nil {
		return nil
	}
	session, err := s.checkpoints.Load(ctx, sessionID)
	if err != nil {
		s.logger.Warn("session load failed", zap.String("session", sessionID), zap.Error(err))
		return nil
	}
	if session == nil {
		return nil
	}
	return session.History
}

func (s *Server) saveHistory(ctx context.Context, sessionID string, history []types.Message) {
	if s.checkpoints == nil {
		return
	}
	err := s.checkpoints.Save(ctx, &checkpoint.Session{
		ID:        sessionID,
		History:   history,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Warn("session save failed", zap.String("session", sessionID), zap.Error(err))
	}
}

// requestLogger tags every request with an id and logs method, path,
// status, and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	allowed := "*"
	if len(s.cfg.AllowedOrigins) > 0 {
		allowed = strings.Join(s.cfg.AllowedOrigins, ", ")
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowed)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
