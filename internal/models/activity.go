package models

import "time"

// DateOnly is the wire format for activity dates
const DateOnly = "2006-01-02"

// ActivityType is the fixed set of off-the-job activity kinds
type ActivityType string

const (
	TypeTrainingCourse ActivityType = "training_course"
	TypeSelfStudy      ActivityType = "self_study"
	TypeMentoring      ActivityType = "mentoring"
	TypeShadowing      ActivityType = "shadowing"
	TypeWorkshop       ActivityType = "workshop"
	TypeConference     ActivityType = "conference"
	TypeProjectWork    ActivityType = "project_work"
	TypeResearch       ActivityType = "research"
	TypeWriting        ActivityType = "writing"
	TypeOther          ActivityType = "other"
)

// ActivityTypes lists every activity type with its display label,
// in declaration order.
var ActivityTypes = []struct {
	Type  ActivityType
	Label string
}{
	{TypeTrainingCourse, "Training Course"},
	{TypeSelfStudy, "Self-Study"},
	{TypeMentoring, "Mentoring"},
	{TypeShadowing, "Shadowing"},
	{TypeWorkshop, "Workshop"},
	{TypeConference, "Conference / Event"},
	{TypeProjectWork, "Project Work"},
	{TypeResearch, "Research"},
	{TypeWriting, "Writing / Reflection"},
	{TypeOther, "Other"},
}

// ActivityTypeLabel returns the display label for t, or the raw value
// if t is unknown.
func ActivityTypeLabel(t ActivityType) string {
	for _, at := range ActivityTypes {
		if at.Type == t {
			return at.Label
		}
	}
	return string(t)
}

// ValidActivityType reports whether t is a declared activity type
func ValidActivityType(t ActivityType) bool {
	for _, at := range ActivityTypes {
		if at.Type == t {
			return true
		}
	}
	return false
}

// EvidenceQuality is the ordered quality tier of a piece of evidence:
// draft < good < review_ready.
type EvidenceQuality string

const (
	QualityDraft       EvidenceQuality = "draft"
	QualityGood        EvidenceQuality = "good"
	QualityReviewReady EvidenceQuality = "review_ready"
)

// Rank returns the ordinal position of the quality tier (draft=0).
// Unknown values rank as draft.
func (q EvidenceQuality) Rank() int {
	switch q {
	case QualityGood:
		return 1
	case QualityReviewReady:
		return 2
	}
	return 0
}

// ValidEvidenceQuality reports whether q is a declared quality tier
func ValidEvidenceQuality(q EvidenceQuality) bool {
	switch q {
	case QualityDraft, QualityGood, QualityReviewReady:
		return true
	}
	return false
}

// WorkflowStage is one of the four ordered evidence-handling phases a
// resource link is classified under.
type WorkflowStage string

const (
	StageCapture  WorkflowStage = "capture"
	StageOrganise WorkflowStage = "organise"
	StageReview   WorkflowStage = "review"
	StageEngage   WorkflowStage = "engage"
)

// WorkflowStages lists the stages in their declared workflow order.
var WorkflowStages = []struct {
	Stage WorkflowStage
	Label string
}{
	{StageCapture, "Capture"},
	{StageOrganise, "Organise"},
	{StageReview, "Review"},
	{StageEngage, "Engage"},
}

// WorkflowStageLabel returns the display label for st
func WorkflowStageLabel(st WorkflowStage) string {
	for _, ws := range WorkflowStages {
		if ws.Stage == st {
			return ws.Label
		}
	}
	return string(st)
}

// ValidWorkflowStage reports whether st is a declared stage
func ValidWorkflowStage(st WorkflowStage) bool {
	for _, ws := range WorkflowStages {
		if ws.Stage == st {
			return true
		}
	}
	return false
}

// ResourceLink is an external resource attached to an activity
type ResourceLink struct {
	ID          string        `json:"id"`
	ActivityID  string        `json:"activity_id"`
	URL         string        `json:"url"`
	Title       string        `json:"title"`
	SourceType  string        `json:"source_type"`
	Description string        `json:"description,omitempty"`
	Stage       WorkflowStage `json:"workflow_stage"`
}

// Tag is a free-form, user-owned label
type Tag struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// Activity is a single logged off-the-job training activity.
// KSBCodes and Resources are loaded alongside the row; the analysis
// layer treats the whole struct as an immutable snapshot.
type Activity struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	ActivityDate  time.Time       `json:"activity_date"`
	DurationHours float64         `json:"duration_hours"`
	ActivityType  ActivityType    `json:"activity_type"`
	Quality       EvidenceQuality `json:"evidence_quality"`
	Notes         string          `json:"notes,omitempty"`
	KSBCodes      []string        `json:"ksb_codes"`
	Resources     []ResourceLink  `json:"resources"`
	Tags          []string        `json:"tags"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ActivityFilters narrows an activity listing
type ActivityFilters struct {
	KSBCode      string
	ActivityType ActivityType
	Tag          string
	Limit        int
	Offset       int
}

// ResourceLinkInput is the request shape for a resource link
type ResourceLinkInput struct {
	URL         string        `json:"url"`
	Title       string        `json:"title"`
	SourceType  string        `json:"source_type"`
	Description string        `json:"description"`
	Stage       WorkflowStage `json:"workflow_stage"`
}

// ActivityRequest is the create/update request body for an activity
type ActivityRequest struct {
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	ActivityDate  string              `json:"activity_date"`
	DurationHours float64             `json:"duration_hours"`
	ActivityType  ActivityType        `json:"activity_type"`
	Quality       EvidenceQuality     `json:"evidence_quality"`
	Notes         string              `json:"notes"`
	KSBCodes      []string            `json:"ksb_codes"`
	Resources     []ResourceLinkInput `json:"resources"`
	Tags          []string            `json:"tags"`
}
