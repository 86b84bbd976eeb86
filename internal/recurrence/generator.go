// Package recurrence materialises recurring activity templates into
// draft activities on their configured weekday.
package recurrence

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/otjlab/otj-engine/internal/events"
	"github.com/otjlab/otj-engine/internal/models"
	"github.com/otjlab/otj-engine/internal/storage"
)

// EventPublisher is the slice of the event broker the worker needs
type EventPublisher interface {
	Publish(ctx context.Context, userID, eventType string, payload interface{})
}

// Generator is the periodic worker behind recurring templates
type Generator struct {
	repo     storage.Repository
	broker   EventPublisher
	interval time.Duration
}

// NewGenerator creates a new recurrence worker
func NewGenerator(repo storage.Repository, broker EventPublisher, interval time.Duration) *Generator {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &Generator{
		repo:     repo,
		broker:   broker,
		interval: interval,
	}
}

// Start begins the worker in a goroutine
func (g *Generator) Start(ctx context.Context) {
	go g.run(ctx)
}

func (g *Generator) run(ctx context.Context) {
	slog.Info("recurrence worker started", "interval", g.interval)

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	// Run immediately on start
	g.generate(ctx, time.Now().UTC())

	for {
		select {
		case <-ctx.Done():
			slog.Info("recurrence worker stopped")
			return
		case <-ticker.C:
			g.generate(ctx, time.Now().UTC())
		}
	}
}

// generate creates a draft activity for every recurring template whose
// weekday matches today and that has not fired yet this week
func (g *Generator) generate(ctx context.Context, now time.Time) {
	slog.Debug("running recurrence cycle")

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	// Templates store Monday=0 .. Sunday=6; time.Weekday has Sunday=0
	weekday := (int(now.Weekday()) + 6) % 7

	templates, err := g.repo.ListRecurringTemplates(ctx)
	if err != nil {
		slog.Error("failed to list recurring templates", "error", err)
		return
	}

	generated := 0
	for _, tmpl := range templates {
		if tmpl.RecurrenceDay == nil || *tmpl.RecurrenceDay != weekday {
			continue
		}

		// Already fired this week
		if tmpl.LastGenerated != nil && !tmpl.LastGenerated.Before(today) {
			continue
		}

		activity := &models.Activity{
			ID:            uuid.NewString(),
			UserID:        tmpl.UserID,
			Title:         tmpl.Title,
			Description:   tmpl.Description,
			ActivityDate:  today,
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

		if err := g.repo.CreateActivity(ctx, activity); err != nil {
			slog.Error("failed to generate recurring activity",
				"error", err,
				"template", tmpl.ID,
			)
			continue
		}

		if err := g.repo.MarkTemplateGenerated(ctx, tmpl.ID, today); err != nil {
			slog.Error("failed to mark template generated", "error", err, "template", tmpl.ID)
		}

		g.broker.Publish(ctx, tmpl.UserID, events.TemplateGenerated, map[string]string{
			"template_id": tmpl.ID,
			"activity_id": activity.ID,
			"title":       activity.Title,
		})

		slog.Info("recurring activity generated",
			"template", tmpl.ID,
			"activity", activity.ID,
			"user", tmpl.UserID,
		)
		generated++
	}

	if generated > 0 {
		slog.Info("recurrence cycle finished", "generated", generated)
	}
}
