package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prepview/interview-engine/internal/exec"
	"github.com/prepview/interview-engine/internal/models"
)

func (s *Server) handleRunCode(w http.ResponseWriter, r *http.Request) {
	var req models.RunCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "code is required")
		return
	}
	if req.Language == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "language is required")
		return
	}

	userID := UserIDFromContext(r.Context())
	allowed, err := s.limiter.Allow(r.Context(), userID)
	if err != nil {
		slog.Error("rate limit check failed", "error", err, "user", userID)
	} else if !allowed {
		respondError(w, http.StatusTooManyRequests, "rate_limited", "too many code executions, slow down")
		return
	}

	result, err := s.engine.Execute(r.Context(), req.Language, req.Code)
	if err != nil {
		if errors.Is(err, exec.ErrLanguageNotSupported) {
			respondError(w, http.StatusBadRequest, "unsupported_language", "language is not supported")
			return
		}
		slog.Error("code execution failed", "error", err, "language", req.Language, "user", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "code execution failed")
		return
	}

	resp := models.RunCodeResponse{Output: result.Output}
	if !result.OK() {
		msg := result.Error
		resp.Error = &msg
	}

	respondJSON(w, http.StatusOK, resp)
}
