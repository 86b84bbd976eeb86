package models

import "time"

// GapSeverity classifies how thin the evidence for a KSB is
type GapSeverity string

const (
	SeverityCritical GapSeverity = "critical"
	SeverityWarning  GapSeverity = "warning"
)

// KSBGap is a KSB with no or low evidence
type KSBGap struct {
	Code     string      `json:"code"`
	Title    string      `json:"title"`
	Hours    float64     `json:"hours"`
	Count    int         `json:"count"`
	Severity GapSeverity `json:"severity"`
	Reason   string      `json:"reason"`
}

// TypeGap is an activity type the user has never logged
type TypeGap struct {
	Type  ActivityType `json:"type"`
	Label string       `json:"label"`
}

// WorkflowGap is a workflow stage with no linked resources
type WorkflowGap struct {
	Stage  WorkflowStage `json:"stage"`
	Label  string        `json:"label"`
	Reason string        `json:"reason"`
}

// StaleKSB is an evidenced KSB whose latest evidence is older than the
// freshness window
type StaleKSB struct {
	Code     string    `json:"code"`
	LastDate time.Time `json:"last_date"`
	DaysAgo  int       `json:"days_ago"`
}

// QualityGap is a KSB whose evidence is all still draft
type QualityGap struct {
	Code   string `json:"code"`
	Count  int    `json:"count"`
	Reason string `json:"reason"`
}

// GapReport is the full output of the gap analysis: classified gaps,
// the composite readiness score and ordered actionable suggestions.
// Never persisted; recomputed per request from a snapshot.
type GapReport struct {
	KSBGaps      []KSBGap      `json:"ksb_gaps"`
	TypeGaps     []TypeGap     `json:"type_gaps"`
	WorkflowGaps []WorkflowGap `json:"workflow_gaps"`
	Staleness    []StaleKSB    `json:"staleness"`
	QualityGaps  []QualityGap  `json:"quality_gaps"`
	OverallScore int           `json:"overall_score"`
	CoveragePct  float64       `json:"coverage_pct"`
	QualityPct   float64       `json:"quality_pct"`
	Suggestions  []string      `json:"suggestions"`
}

// DashboardSummary is the aggregate view behind the dashboard page
type DashboardSummary struct {
	TotalHours    float64       `json:"total_hours"`
	ActivityCount int           `json:"activity_count"`
	HoursByType   []TypeHours   `json:"hours_by_type"`
	Recent        []Activity    `json:"recent"`
	KSBCoverage   []KSBCoverage `json:"ksb_coverage"`
}

// TypeHours is the hour total for one activity type
type TypeHours struct {
	Type  ActivityType `json:"type"`
	Label string       `json:"label"`
	Hours float64      `json:"hours"`
}

// KSBCoverage is the per-KSB coverage row on the dashboard
type KSBCoverage struct {
	Code          string      `json:"code"`
	Category      KSBCategory `json:"category"`
	Title         string      `json:"title"`
	ActivityCount int         `json:"activity_count"`
	TotalHours    float64     `json:"total_hours"`
}
