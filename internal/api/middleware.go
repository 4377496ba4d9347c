package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prepview/interview-engine/internal/storage"
)

// AuthMiddleware handles bearer token authentication
type AuthMiddleware struct {
	repo storage.Repository
}

// NewAuthMiddleware creates new auth middleware
func NewAuthMiddleware(repo storage.Repository) *AuthMiddleware {
	return &AuthMiddleware{repo: repo}
}

// Authenticate verifies the bearer token from the Authorization header.
// Supports "Bearer tk_xxx" or a raw token; websocket clients that cannot
// set headers may pass ?token=tk_xxx instead.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		value := extractToken(r)
		if value == "" {
			writeAuthError(w, http.StatusUnauthorized, "missing token", "provide Authorization header with Bearer token")
			return
		}

		token, err := m.repo.GetTokenByValue(r.Context(), value)
		if err != nil {
			slog.Error("failed to lookup api token", "error", err, "token_prefix", maskKey(value))
			writeAuthError(w, http.StatusInternalServerError, "authentication error", "internal server error")
			return
		}

		if token == nil {
			slog.Warn("invalid token attempt", "token_prefix", maskKey(value), "remote_addr", r.RemoteAddr)
			writeAuthError(w, http.StatusUnauthorized, "invalid token", "the provided token is not valid")
			return
		}

		if !token.IsActive {
			slog.Warn("inactive token attempt", "user", token.UserID, "token_prefix", maskKey(value))
			writeAuthError(w, http.StatusUnauthorized, "token inactive", "this token has been deactivated")
			return
		}

		// Update last_used_at asynchronously (don't block request)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := m.repo.UpdateTokenLastUsed(ctx, value); err != nil {
				slog.Error("failed to update token last_used_at", "error", err, "user", token.UserID)
			}
		}()

		slog.Debug("authenticated request", "user", token.UserID, "token_prefix", token.MaskedToken())

		ctx := ContextWithToken(r.Context(), token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken extracts the bearer token from request headers or query
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		if strings.HasPrefix(authHeader, "Bearer ") {
			return strings.TrimPrefix(authHeader, "Bearer ")
		}
		return authHeader
	}

	return r.URL.Query().Get("token")
}

// maskKey returns first 8 chars of a token for safe logging
func maskKey(key string) string {
	if len(key) < 8 {
		return "***"
	}
	return key[:8] + "..."
}

// AuthError represents an authentication error response
type AuthError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeAuthError writes JSON error response
func writeAuthError(w http.ResponseWriter, status int, error, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(AuthError{
		Error:   error,
		Message: message,
	})
}
