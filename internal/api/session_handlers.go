package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/prepview/interview-engine/internal/models"
	"github.com/prepview/interview-engine/internal/session"
)

// Session handlers

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req models.StartSessionRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}
	}

	userID := UserIDFromContext(r.Context())
	sess, err := s.sessions.Start(r.Context(), userID, req.FieldID)
	if err != nil {
		slog.Error("failed to start session", "error", err, "user", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to start session")
		return
	}

	respondJSON(w, http.StatusCreated, models.StartSessionResponse{
		SessionID: sess.SessionID,
		FieldID:   sess.FieldID,
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "session id is required")
		return
	}

	userID := UserIDFromContext(r.Context())
	evaluation, err := s.sessions.End(r.Context(), sessionID, userID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			respondError(w, http.StatusNotFound, "not_found", "session not found")
		case errors.Is(err, session.ErrNotSessionOwner):
			respondError(w, http.StatusForbidden, "forbidden", "session belongs to another user")
		case errors.Is(err, session.ErrSessionCompleted):
			respondError(w, http.StatusConflict, "already_completed", "session has already been completed")
		default:
			slog.Error("failed to end session", "error", err, "session", sessionID)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to end session")
		}
		return
	}

	respondJSON(w, http.StatusOK, evaluation)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "session id is required")
		return
	}

	userID := UserIDFromContext(r.Context())
	report, err := s.sessions.Report(r.Context(), sessionID, userID)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			respondError(w, http.StatusNotFound, "not_found", "session not found")
		case errors.Is(err, session.ErrNotSessionOwner):
			respondError(w, http.StatusForbidden, "forbidden", "session belongs to another user")
		default:
			slog.Error("failed to build report", "error", err, "session", sessionID)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to build report")
		}
		return
	}

	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleCountSessions(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	count, err := s.sessions.Count(r.Context(), userID)
	if err != nil {
		slog.Error("failed to count sessions", "error", err, "user", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to count sessions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{
		"count": count,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	limit := 50
	offset := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil && v > 0 {
			limit = v
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if v, err := strconv.Atoi(offsetStr); err == nil && v >= 0 {
			offset = v
		}
	}

	sessions, err := s.sessions.List(r.Context(), userID, limit, offset)
	if err != nil {
		slog.Error("failed to list sessions", "error", err, "user", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list sessions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"total":    len(sessions),
	})
}

// Speech handler

type speakRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var req speakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Text == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "text is required")
		return
	}

	audioURL, err := s.synthesizer.Synthesize(r.Context(), req.Text)
	if err != nil {
		slog.Error("failed to synthesize speech", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to synthesize speech")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"audioUrl": audioURL,
	})
}
