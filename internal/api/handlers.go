package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// apiResponse is the standard response envelope
type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

// apiError carries a machine-readable code and a human message
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondJSON writes a success response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{Success: true, Data: data}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error:   &apiError{Code: code, Message: message},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// handleHealth is a liveness probe
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady reports readiness of the backing services
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	var failing []string

	if err := s.repo.Ping(r.Context()); err != nil {
		failing = append(failing, "database: "+err.Error())
	}
	if err := s.broker.HealthCheck(r.Context()); err != nil {
		failing = append(failing, "events: "+err.Error())
	}

	if len(failing) > 0 {
		respondError(w, http.StatusServiceUnavailable, "not_ready", strings.Join(failing, "; "))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ready": true,
		"checks": map[string]string{
			"database": "ok",
			"events":   "ok",
		},
	})
}
