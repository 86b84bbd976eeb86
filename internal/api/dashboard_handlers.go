package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/otjlab/otj-engine/internal/analysis"
	"github.com/otjlab/otj-engine/internal/models"
)

// handleDashboard returns the aggregate dashboard view: total hours,
// hours by type, the most recent activities and per-KSB coverage for
// the selected spec
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	spec := s.selectedSpec(w, user)
	if spec == nil {
		return
	}

	summary := models.DashboardSummary{}
	var err error

	if summary.TotalHours, err = s.repo.TotalHours(r.Context(), user.ID); err != nil {
		slog.Error("failed to total hours", "error", err, "user", user.ID)
		respondError(w, http.StatusInternalServerError, "dashboard_failed", "failed to build dashboard")
		return
	}
	if summary.ActivityCount, err = s.repo.CountActivities(r.Context(), user.ID); err != nil {
		slog.Error("failed to count activities", "error", err, "user", user.ID)
		respondError(w, http.StatusInternalServerError, "dashboard_failed", "failed to build dashboard")
		return
	}
	if summary.HoursByType, err = s.repo.HoursByType(r.Context(), user.ID); err != nil {
		slog.Error("failed to sum hours by type", "error", err, "user", user.ID)
		respondError(w, http.StatusInternalServerError, "dashboard_failed", "failed to build dashboard")
		return
	}
	if summary.Recent, err = s.repo.RecentActivities(r.Context(), user.ID, 5); err != nil {
		slog.Error("failed to load recent activities", "error", err, "user", user.ID)
		respondError(w, http.StatusInternalServerError, "dashboard_failed", "failed to build dashboard")
		return
	}

	snapshot, err := s.repo.SnapshotActivities(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to snapshot activities", "error", err, "user", user.ID)
		respondError(w, http.StatusInternalServerError, "dashboard_failed", "failed to build dashboard")
		return
	}

	summary.KSBCoverage, err = analysis.Coverage(snapshot, s.catalog.KSBs(spec.Code))
	if err != nil {
		slog.Error("coverage aggregation failed", "error", err, "user", user.ID)
		respondError(w, http.StatusUnprocessableEntity, "invalid_data", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// handleRecommendations runs the gap analysis over the user's full
// activity log and returns the readiness report. An optional ?date=
// query (YYYY-MM-DD) overrides the staleness reference date, mainly
// for reproducible reports.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	spec := s.selectedSpec(w, user)
	if spec == nil {
		return
	}

	referenceDate := time.Now().UTC()
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.Parse(models.DateOnly, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_date", "date must be in YYYY-MM-DD format")
			return
		}
		referenceDate = parsed
	}

	snapshot, err := s.repo.SnapshotActivities(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to snapshot activities", "error", err, "user", user.ID)
		respondError(w, http.StatusInternalServerError, "analysis_failed", "failed to load activity log")
		return
	}

	in := analysis.Input{
		Activities:     snapshot,
		Spec:           spec,
		Codes:          s.catalog.KSBs(spec.Code),
		ActivityTypes:  activityTypeValues(),
		WorkflowStages: workflowStageValues(),
		ReferenceDate:  referenceDate,
	}

	report, err := analysis.Analyze(in, s.thresholds)
	if err != nil {
		if errors.Is(err, analysis.ErrInvalidActivity) {
			slog.Warn("gap analysis rejected snapshot", "error", err, "user", user.ID)
			respondError(w, http.StatusUnprocessableEntity, "invalid_data", err.Error())
			return
		}
		slog.Error("gap analysis failed", "error", err, "user", user.ID)
		respondError(w, http.StatusInternalServerError, "analysis_failed", "gap analysis failed")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

func activityTypeValues() []models.ActivityType {
	types := make([]models.ActivityType, 0, len(models.ActivityTypes))
	for _, at := range models.ActivityTypes {
		types = append(types, at.Type)
	}
	return types
}

func workflowStageValues() []models.WorkflowStage {
	stages := make([]models.WorkflowStage, 0, len(models.WorkflowStages))
	for _, ws := range models.WorkflowStages {
		stages = append(stages, ws.Stage)
	}
	return stages
}
