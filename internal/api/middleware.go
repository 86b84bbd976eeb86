package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/otjlab/otj-engine/internal/storage"
)

// AuthMiddleware resolves the requesting user from an API key
type AuthMiddleware struct {
	repo storage.Repository
}

// NewAuthMiddleware creates new auth middleware
func NewAuthMiddleware(repo storage.Repository) *AuthMiddleware {
	return &AuthMiddleware{repo: repo}
}

// Authenticate verifies the API key from the Authorization header
// ("Bearer xxx" or raw) or the X-API-Key header, and attaches the
// owning user to the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := extractAPIKey(r)
		if apiKey == "" {
			respondError(w, http.StatusUnauthorized, "missing_api_key", "provide Authorization header with Bearer token or X-API-Key header")
			return
		}

		user, err := m.repo.GetUserByAPIKey(r.Context(), apiKey)
		if err != nil {
			slog.Error("failed to lookup user", "error", err, "key_prefix", maskKey(apiKey))
			respondError(w, http.StatusInternalServerError, "auth_error", "internal server error")
			return
		}

		if user == nil {
			slog.Warn("invalid api key attempt", "key_prefix", maskKey(apiKey), "remote_addr", r.RemoteAddr)
			respondError(w, http.StatusUnauthorized, "invalid_api_key", "the provided api key is not valid")
			return
		}

		if !user.IsActive {
			slog.Warn("inactive user attempt", "user", user.Email, "key_prefix", maskKey(apiKey))
			respondError(w, http.StatusUnauthorized, "user_inactive", "this account has been deactivated")
			return
		}

		// Update last_used_at asynchronously (don't block the request)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := m.repo.UpdateUserLastUsed(ctx, apiKey); err != nil {
				slog.Error("failed to update user last_used_at", "error", err, "user", user.Email)
			}
		}()

		slog.Debug("authenticated request", "user", user.Email, "key_prefix", user.MaskedAPIKey())

		ctx := ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractAPIKey extracts the API key from request headers
func extractAPIKey(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		if strings.HasPrefix(authHeader, "Bearer ") {
			return strings.TrimPrefix(authHeader, "Bearer ")
		}
		return authHeader
	}

	return r.Header.Get("X-API-Key")
}

// maskKey returns the first 8 chars of a key for safe logging
func maskKey(key string) string {
	if len(key) < 8 {
		return "***"
	}
	return key[:8] + "..."
}
