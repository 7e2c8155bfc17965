// Package server exposes the interview pipeline over HTTP: one turn
// endpoint plus a liveness probe. The turn boundary guarantees a response
// for every request; no failure inside a turn may crash the process.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/taxpilot-ai/taxpilot/internal/model"
	"github.com/taxpilot-ai/taxpilot/internal/pipeline"
	"github.com/taxpilot-ai/taxpilot/internal/storage"
)

const apologyMessage = "I encountered an issue processing that. Let me try a different approach. Could you rephrase or try again?"

// Server handles interview turns over HTTP.
type Server struct {
	pipeline *pipeline.Pipeline
	store    storage.SessionStore
	logger   *slog.Logger
}

// New creates a server around a pipeline and session store.
func New(p *pipeline.Pipeline, store storage.SessionStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		pipeline: p,
		store:    store,
		logger:   logger,
	}
}

// ChatRequest is one user turn.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse is the turn outcome returned to the client.
type ChatResponse struct {
	SessionID string       `json:"session_id"`
	Message   string       `json:"message"`
	Cards     []model.Card `json:"cards"`
	State     StateSummary `json:"state"`
}

// StateSummary is the slice of pipeline state the client renders.
type StateSummary struct {
	CurrentNode     model.Stage `json:"current_node"`
	ConfidenceScore float64     `json:"confidence_score"`
	NeedsReview     bool        `json:"needs_review"`
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /health", s.handleHealth)
	return s.logRequests(mux)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	state, err := s.runTurn(r.Context(), req.SessionID, req.Message)
	if err != nil {
		s.logger.Error("turn failed",
			slog.String("session_id", req.SessionID),
			slog.String("error", err.Error()))

		// The stored session keeps its last good state; only the visible
		// stage resets to intake for the next attempt.
		writeJSON(w, http.StatusOK, ChatResponse{
			SessionID: req.SessionID,
			Message:   apologyMessage,
			Cards:     []model.Card{},
			State:     StateSummary{CurrentNode: model.StageIntake},
		})
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		SessionID: state.SessionID,
		Message:   state.Response,
		Cards:     state.Cards,
		State: StateSummary{
			CurrentNode:     state.Stage,
			ConfidenceScore: state.ConfidenceScore,
			NeedsReview:     state.NeedsReview,
		},
	})
}

// runTurn loads the session, runs the pipeline, and stores the result.
// Panics inside the turn surface as errors rather than crashing the
// process.
func (s *Server) runTurn(ctx context.Context, sessionID, message string) (state model.Return, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic during turn: %v\n%s", rec, debug.Stack())
		}
	}()

	state, err = s.store.Get(ctx, sessionID)
	if err != nil {
		return model.Return{}, fmt.Errorf("failed to load session: %w", err)
	}

	state = s.pipeline.Run(ctx, state, message)

	if err := s.store.Put(ctx, state); err != nil {
		return model.Return{}, fmt.Errorf("failed to store session: %w", err)
	}
	return state, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"agent":  "taxpilot",
	})
}

// logRequests is an slog access-log middleware.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("duration", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
