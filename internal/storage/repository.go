package storage

import (
	"context"
	"errors"
	"time"

	"github.com/otjlab/otj-engine/internal/models"
)

// ErrNotFound is returned when a row targeted by an update or delete
// does not exist (or is owned by another user).
var ErrNotFound = errors.New("not found")

// Repository defines the persistence interface for the OTJ log
type Repository interface {
	// Users
	GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error)
	UpdateUserLastUsed(ctx context.Context, apiKey string) error
	SetSelectedSpec(ctx context.Context, userID, specCode string) error

	// Activities
	CreateActivity(ctx context.Context, a *models.Activity) error
	GetActivity(ctx context.Context, userID, id string) (*models.Activity, error)
	UpdateActivity(ctx context.Context, a *models.Activity) error
	DeleteActivity(ctx context.Context, userID, id string) error
	ListActivities(ctx context.Context, userID string, filters models.ActivityFilters) ([]*models.Activity, error)
	// SnapshotActivities returns the complete unscoped-by-page activity
	// log for one user, with KSB links, resources and tags loaded. This
	// is the input snapshot for dashboard aggregation and gap analysis.
	SnapshotActivities(ctx context.Context, userID string) ([]models.Activity, error)

	// Dashboard aggregates
	TotalHours(ctx context.Context, userID string) (float64, error)
	HoursByType(ctx context.Context, userID string) ([]models.TypeHours, error)
	CountActivities(ctx context.Context, userID string) (int, error)
	RecentActivities(ctx context.Context, userID string, limit int) ([]models.Activity, error)

	// Tags
	ListTags(ctx context.Context, userID string) ([]*models.Tag, error)

	// Activity templates
	CreateTemplate(ctx context.Context, t *models.ActivityTemplate) error
	GetTemplate(ctx context.Context, userID, id string) (*models.ActivityTemplate, error)
	UpdateTemplate(ctx context.Context, t *models.ActivityTemplate) error
	DeleteTemplate(ctx context.Context, userID, id string) error
	ListTemplates(ctx context.Context, userID string) ([]*models.ActivityTemplate, error)
	ListRecurringTemplates(ctx context.Context) ([]*models.ActivityTemplate, error)
	MarkTemplateGenerated(ctx context.Context, id string, generated time.Time) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}
