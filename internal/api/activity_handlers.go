package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/otjlab/otj-engine/internal/events"
	"github.com/otjlab/otj-engine/internal/models"
	"github.com/otjlab/otj-engine/internal/storage"
)

const defaultPageSize = 20

// handleListActivities returns the user's activities, newest first,
// optionally filtered by ksb, type or tag
func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	filters := models.ActivityFilters{
		KSBCode:      r.URL.Query().Get("ksb"),
		ActivityType: models.ActivityType(r.URL.Query().Get("type")),
		Tag:          r.URL.Query().Get("tag"),
		Limit:        defaultPageSize,
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			filters.Limit = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			filters.Offset = (n - 1) * filters.Limit
		}
	}

	if filters.ActivityType != "" && !models.ValidActivityType(filters.ActivityType) {
		respondError(w, http.StatusBadRequest, "invalid_type", fmt.Sprintf("unknown activity type %q", filters.ActivityType))
		return
	}

	activities, err := s.repo.ListActivities(r.Context(), user.ID, filters)
	if err != nil {
		slog.Error("failed to list activities", "error", err, "user", user.ID)
		respondError(w, http.StatusInternalServerError, "list_failed", "failed to list activities")
		return
	}

	respondJSON(w, http.StatusOK, activities)
}

// handleGetActivity returns one activity by id
func (s *Server) handleGetActivity(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	activity, err := s.repo.GetActivity(r.Context(), user.ID, id)
	if err != nil {
		slog.Error("failed to get activity", "error", err, "activity", id)
		respondError(w, http.StatusInternalServerError, "get_failed", "failed to get activity")
		return
	}
	if activity == nil {
		respondError(w, http.StatusNotFound, "not_found", "activity not found")
		return
	}

	respondJSON(w, http.StatusOK, activity)
}

// handleCreateActivity logs a new activity
func (s *Server) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req models.ActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	activity, errMsg := s.activityFromRequest(user, &req)
	if errMsg != "" {
		respondError(w, http.StatusBadRequest, "validation_failed", errMsg)
		return
	}

	activity.ID = uuid.NewString()
	now := time.Now().UTC()
	activity.CreatedAt = now
	activity.UpdatedAt = now

	if err := s.repo.CreateActivity(r.Context(), activity); err != nil {
		slog.Error("failed to create activity", "error", err, "user", user.ID)
		respondError(w, http.StatusInternalServerError, "create_failed", "failed to create activity")
		return
	}

	s.broker.Publish(r.Context(), user.ID, events.ActivityCreated, map[string]string{
		"activity_id": activity.ID,
		"title":       activity.Title,
	})

	slog.Info("activity created", "activity", activity.ID, "user", user.ID, "hours", activity.DurationHours)
	respondJSON(w, http.StatusCreated, activity)
}

// handleUpdateActivity replaces an activity's fields and relations
func (s *Server) handleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req models.ActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	activity, errMsg := s.activityFromRequest(user, &req)
	if errMsg != "" {
		respondError(w, http.StatusBadRequest, "validation_failed", errMsg)
		return
	}

	activity.ID = id
	activity.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateActivity(r.Context(), activity); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "activity not found")
			return
		}
		slog.Error("failed to update activity", "error", err, "activity", id)
		respondError(w, http.StatusInternalServerError, "update_failed", "failed to update activity")
		return
	}

	s.broker.Publish(r.Context(), user.ID, events.ActivityUpdated, map[string]string{
		"activity_id": activity.ID,
		"title":       activity.Title,
	})

	respondJSON(w, http.StatusOK, activity)
}

// handleDeleteActivity removes an activity and its relations
func (s *Server) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.repo.DeleteActivity(r.Context(), user.ID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "activity not found")
			return
		}
		slog.Error("failed to delete activity", "error", err, "activity", id)
		respondError(w, http.StatusInternalServerError, "delete_failed", "failed to delete activity")
		return
	}

	s.broker.Publish(r.Context(), user.ID, events.ActivityDeleted, map[string]string{
		"activity_id": id,
	})

	respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// handleListTags returns the user's tags
func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	tags, err := s.repo.ListTags(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to list tags", "error", err, "user", user.ID)
		respondError(w, http.StatusInternalServerError, "list_failed", "failed to list tags")
		return
	}

	respondJSON(w, http.StatusOK, tags)
}

// activityFromRequest validates a request body and builds the activity.
// Returns a non-empty message on validation failure.
func (s *Server) activityFromRequest(user *models.User, req *models.ActivityRequest) (*models.Activity, string) {
	if req.Title == "" {
		return nil, "title is required"
	}
	if req.DurationHours <= 0 || math.IsNaN(req.DurationHours) || math.IsInf(req.DurationHours, 0) {
		return nil, "duration_hours must be a positive number"
	}

	date, err := time.Parse(models.DateOnly, req.ActivityDate)
	if err != nil {
		return nil, "activity_date must be in YYYY-MM-DD format"
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

	resources := make([]models.ResourceLink, 0, len(req.Resources))
	for i, in := range req.Resources {
		if in.URL == "" || in.Title == "" {
			return nil, fmt.Sprintf("resource %d: url and title are required", i+1)
		}
		stage := in.Stage
		if stage == "" {
			stage = models.StageEngage
		}
		if !models.ValidWorkflowStage(stage) {
			return nil, fmt.Sprintf("resource %d: unknown workflow stage %q", i+1, in.Stage)
		}
		sourceType := in.SourceType
		if sourceType == "" {
			sourceType = "other"
		}
		resources = append(resources, models.ResourceLink{
			ID:          uuid.NewString(),
			URL:         in.URL,
			Title:       in.Title,
			SourceType:  sourceType,
			Description: in.Description,
			Stage:       stage,
		})
	}

	return &models.Activity{
		UserID:        user.ID,
		Title:         req.Title,
		Description:   req.Description,
		ActivityDate:  date,
		DurationHours: req.DurationHours,
		ActivityType:  req.ActivityType,
		Quality:       quality,
		Notes:         req.Notes,
		KSBCodes:      req.KSBCodes,
		Resources:     resources,
		Tags:          req.Tags,
	}, ""
}

// validateKSBCodes checks every referenced code against the user's
// selected spec. Linking KSBs requires a spec selection; without one
// the codes would be meaningless for the analysis.
func (s *Server) validateKSBCodes(user *models.User, codes []string) string {
	if len(codes) == 0 {
		return ""
	}
	if user.SelectedSpec == "" {
		return "select an apprenticeship spec before linking KSB codes"
	}
	for _, code := range codes {
		if s.catalog.KSB(user.SelectedSpec, code) == nil {
			return fmt.Sprintf("unknown KSB code %q for spec %s", code, user.SelectedSpec)
		}
	}
	return ""
}
