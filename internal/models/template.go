package models

import "time"

// ActivityTemplate is a reusable, optionally recurring prototype for
// an activity. Recurring templates are materialised into draft
// activities by the recurrence worker on their configured weekday.
type ActivityTemplate struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	DurationHours float64         `json:"duration_hours"`
	ActivityType  ActivityType    `json:"activity_type"`
	Quality       EvidenceQuality `json:"evidence_quality"`
	KSBCodes      []string        `json:"ksb_codes"`
	Tags          []string        `json:"tags"`
	IsRecurring   bool            `json:"is_recurring"`
	// RecurrenceDay is the weekday the template fires on:
	// 0=Monday .. 6=Sunday. Nil when not recurring.
	RecurrenceDay *int       `json:"recurrence_day,omitempty"`
	LastGenerated *time.Time `json:"last_generated,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// TemplateRequest is the create/update request body for a template
type TemplateRequest struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	DurationHours float64         `json:"duration_hours"`
	ActivityType  ActivityType    `json:"activity_type"`
	Quality       EvidenceQuality `json:"evidence_quality"`
	KSBCodes      []string        `json:"ksb_codes"`
	Tags          []string        `json:"tags"`
	IsRecurring   bool            `json:"is_recurring"`
	RecurrenceDay *int            `json:"recurrence_day"`
}
