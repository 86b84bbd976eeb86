package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/otjlab/otj-engine/internal/events"
	"github.com/otjlab/otj-engine/internal/models"
)

// handleListSpecs returns every apprenticeship spec in the catalog
func (s *Server) handleListSpecs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.catalog.List())
}

// handleGetSpec returns one spec by code
func (s *Server) handleGetSpec(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	spec := s.catalog.Get(code)
	if spec == nil {
		respondError(w, http.StatusNotFound, "not_found", fmt.Sprintf("unknown spec %q", code))
		return
	}

	respondJSON(w, http.StatusOK, spec)
}

// handleListKSBs returns the full KSB list of a spec, in catalog order
func (s *Server) handleListKSBs(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if s.catalog.Get(code) == nil {
		respondError(w, http.StatusNotFound, "not_found", fmt.Sprintf("unknown spec %q", code))
		return
	}

	respondJSON(w, http.StatusOK, s.catalog.KSBs(code))
}

// handleGetProfile returns the authenticated user
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	respondJSON(w, http.StatusOK, user)
}

// specSelectionRequest is the body of PUT /profile/spec
type specSelectionRequest struct {
	SpecCode string `json:"spec_code"`
}

// handleSelectSpec sets the user's apprenticeship spec. Switching spec
// does not touch logged activities; analysis simply runs against the
// new spec's KSB list from then on.
func (s *Server) handleSelectSpec(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req specSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	spec := s.catalog.Get(req.SpecCode)
	if spec == nil {
		respondError(w, http.StatusBadRequest, "unknown_spec", fmt.Sprintf("unknown spec %q", req.SpecCode))
		return
	}
	if !spec.Available {
		respondError(w, http.StatusBadRequest, "spec_unavailable", fmt.Sprintf("spec %s is not yet available", spec.Code))
		return
	}

	if err := s.repo.SetSelectedSpec(r.Context(), user.ID, spec.Code); err != nil {
		slog.Error("failed to set selected spec", "error", err, "user", user.ID)
		respondError(w, http.StatusInternalServerError, "update_failed", "failed to update spec selection")
		return
	}

	user.SelectedSpec = spec.Code

	s.broker.Publish(r.Context(), user.ID, events.SpecSelected, map[string]string{
		"spec_code": spec.Code,
		"spec_name": spec.Name,
	})

	slog.Info("spec selected", "user", user.ID, "spec", spec.Code)
	respondJSON(w, http.StatusOK, user)
}

// selectedSpec resolves the user's spec selection, writing the error
// response itself when no usable selection exists
func (s *Server) selectedSpec(w http.ResponseWriter, user *models.User) *models.Spec {
	if user.SelectedSpec == "" {
		respondError(w, http.StatusConflict, "spec_not_selected", "select an apprenticeship spec first")
		return nil
	}
	spec := s.catalog.Get(user.SelectedSpec)
	if spec == nil {
		respondError(w, http.StatusConflict, "spec_not_selected", fmt.Sprintf("selected spec %q is not in the catalog", user.SelectedSpec))
		return nil
	}
	return spec
}
