package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/otjlab/otj-engine/internal/events"
	"github.com/otjlab/otj-engine/internal/models"
	"github.com/otjlab/otj-engine/internal/storage"
)

// handleListTemplates returns the user's activity templates
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	templates, err := s.repo.ListTemplates(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to list templates", "error", err, "user", user.ID)
		respondError(w, http.StatusInternalServerError, "list_failed", "failed to list templates")
		return
	}

	respondJSON(w, http.StatusOK, templates)
}

// handleGetTemplate returns one template by id
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	tmpl, err := s.repo.GetTemplate(r.Context(), user.ID, id)
	if err != nil {
		slog.Error("failed to get template", "error", err, "template", id)
		respondError(w, http.StatusInternalServerError, "get_failed", "failed to get template")
		return
	}
	if tmpl == nil {
		respondError(w, http.StatusNotFound, "not_found", "template not found")
		return
	}

	respondJSON(w, http.StatusOK, tmpl)
}

// handleCreateTemplate creates a new activity template
func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req models.TemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	tmpl, errMsg := s.templateFromRequest(user, &req)
	if errMsg != "" {
		respondError(w, http.StatusBadRequest, "validation_failed", errMsg)
		return
	}

	tmpl.ID = uuid.NewString()
	tmpl.CreatedAt = time.Now().UTC()

	if err := s.repo.CreateTemplate(r.Context(), tmpl); err != nil {
		slog.Error("failed to create template", "error", err, "user", user.ID)
		respondError(w, http.StatusInternalServerError, "create_failed", "failed to create template")
		return
	}

	slog.Info("template created", "template", tmpl.ID, "user", user.ID, "recurring", tmpl.IsRecurring)
	respondJSON(w, http.StatusCreated, tmpl)
}

// handleUpdateTemplate replaces a template's fields
func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req models.TemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	tmpl, errMsg := s.templateFromRequest(user, &req)
	if errMsg != "" {
		respondError(w, http.StatusBadRequest, "validation_failed", errMsg)
		return
	}

	tmpl.ID = id

	if err := s.repo.UpdateTemplate(r.Context(), tmpl); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "template not found")
			return
		}
		slog.Error("failed to update template", "error", err, "template", id)
		respondError(w, http.StatusInternalServerError, "update_failed", "failed to update template")
		return
	}

	respondJSON(w, http.StatusOK, tmpl)
}

// handleDeleteTemplate removes a template
func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.repo.DeleteTemplate(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "template not found")
			return
		}
		slog.Error("failed to delete template", "error", err, "template", id)
		respondError(w, http.StatusInternalServerError, "delete_failed", "failed to delete template")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// applyTemplateRequest optionally overrides the logged date
type applyTemplateRequest struct {
	ActivityDate string `json:"activity_date"`
}

// handleApplyTemplate logs an activity from a template, dated today
// unless the body overrides it. The generated activity starts at draft
// quality like worker-generated ones.
func (s *Server) handleApplyTemplate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req applyTemplateRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}
	}

	tmpl, err := s.repo.GetTemplate(r.Context(), user.ID, id)
	if err != nil {
		slog.Error("failed to get template", "error", err, "template", id)
		respondError(w, http.StatusInternalServerError, "get_failed", "failed to get template")
		return
	}
	if tmpl == nil {
		respondError(w, http.StatusNotFound, "not_found", "template not found")
		return
	}

	now := time.Now().UTC()
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if req.ActivityDate != "" {
		parsed, err := time.Parse(models.DateOnly, req.ActivityDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_date", "activity_date must be in YYYY-MM-DD format")
			return
		}
		date = parsed
	}

	activity := &models.Activity{
		ID:            uuid.NewString(),
		UserID:        user.ID,
		Title:         tmpl.Title,
		Description:   tmpl.Description,
		ActivityDate:  date,
		DurationHours: tmpl.DurationHours,
		ActivityType:  tmpl.ActivityType,
		Quality:       models.QualityDraft,
		KSBCodes:      tmpl.KSBCodes,
		Tags:          tmpl.Tags,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if activity.DurationHours <= 0 {
		activity.DurationHours = 1.0
	}

	if err := s.repo.CreateActivity(r.Context(), activity); err != nil {
		slog.Error("failed to apply template", "error", err, "template", id)
		respondError(w, http.StatusInternalServerError, "create_failed", "failed to create activity")
		return
	}

	s.broker.Publish(r.Context(), user.ID, events.ActivityCreated, map[string]string{
		"activity_id": activity.ID,
		"template_id": tmpl.ID,
		"title":       activity.Title,
	})

	respondJSON(w, http.StatusCreated, activity)
}

// templateFromRequest validates a request body and builds the template
func (s *Server) templateFromRequest(user *models.User, req *models.TemplateRequest) (*models.ActivityTemplate, string) {
	if req.Title == "" {
		return nil, "title is required"
	}
	if req.DurationHours < 0 || math.IsNaN(req.DurationHours) || math.IsInf(req.DurationHours, 0) {
		return nil, "duration_hours must be a non-negative number"
	}

	if !models.ValidActivityType(req.ActivityType) {
		return nil, fmt.Sprintf("unknown activity type %q", req.ActivityType)
	}

	quality := req.Quality
	if quality == "" {
		quality = models.QualityDraft
	}
	if !models.ValidEvidenceQuality(quality) {
		return nil, fmt.Sprintf("unknown evidence quality %q", quality)
	}

	if msg := s.validateKSBCodes(user, req.KSBCodes); msg != "" {
		return nil, msg
	}

	if req.IsRecurring {
		if req.RecurrenceDay == nil {
			return nil, "recurrence_day is required for recurring templates"
		}
		if *req.RecurrenceDay < 0 || *req.RecurrenceDay > 6 {
			return nil, "recurrence_day must be between 0 (Monday) and 6 (Sunday)"
		}
	}

	tmpl := &models.ActivityTemplate{
		UserID:        user.ID,
		Title:         req.Title,
		Description:   req.Description,
		DurationHours: req.DurationHours,
		ActivityType:  req.ActivityType,
		Quality:       quality,
		KSBCodes:      req.KSBCodes,
		Tags:          req.Tags,
		IsRecurring:   req.IsRecurring,
	}
	if req.IsRecurring {
		tmpl.RecurrenceDay = req.RecurrenceDay
	}

	return tmpl, ""
}
