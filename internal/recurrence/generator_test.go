package recurrence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otjlab/otj-engine/internal/events"
	"github.com/otjlab/otj-engine/internal/models"
	"github.com/otjlab/otj-engine/internal/storage"
)

// templateStore is the slice of storage.Repository the worker touches
type templateStore struct {
	storage.Repository

	mu        sync.Mutex
	templates []*models.ActivityTemplate
	created   []*models.Activity
}

func (s *templateStore) ListRecurringTemplates(ctx context.Context) ([]*models.ActivityTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.ActivityTemplate, len(s.templates))
	copy(out, s.templates)
	return out, nil
}

func (s *templateStore) CreateActivity(ctx context.Context, a *models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *a
	s.created = append(s.created, &copied)
	return nil
}

func (s *templateStore) MarkTemplateGenerated(ctx context.Context, id string, generated time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.templates {
		if t.ID == id {
			g := generated
			t.LastGenerated = &g
			return nil
		}
	}
	return storage.ErrNotFound
}

type recordingPublisher struct {
	mu    sync.Mutex
	types []string
}

func (p *recordingPublisher) Publish(ctx context.Context, userID, eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, eventType)
}

func intPtr(v int) *int { return &v }

func TestGenerateMatchingWeekday(t *testing.T) {
	// 2026-08-24 is a Monday (recurrence day 0)
	monday := time.Date(2026, 8, 24, 9, 30, 0, 0, time.UTC)

	store := &templateStore{templates: []*models.ActivityTemplate{
		{
			ID:            "tmpl-1",
			UserID:        "user-1",
			Title:         "Weekly mentoring",
			DurationHours: 1.5,
			ActivityType:  models.TypeMentoring,
			KSBCodes:      []string{"S1"},
			IsRecurring:   true,
			RecurrenceDay: intPtr(0),
		},
		{
			ID:            "tmpl-2",
			UserID:        "user-1",
			Title:         "Friday writing",
			DurationHours: 1,
			ActivityType:  models.TypeWriting,
			IsRecurring:   true,
			RecurrenceDay: intPtr(4),
		},
	}}
	pub := &recordingPublisher{}

	g := NewGenerator(store, pub, time.Hour)
	g.generate(context.Background(), monday)

	require.Len(t, store.created, 1)
	created := store.created[0]
	assert.Equal(t, "Weekly mentoring", created.Title)
	assert.Equal(t, models.QualityDraft, created.Quality)
	assert.Equal(t, 1.5, created.DurationHours)
	assert.Equal(t, time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC), created.ActivityDate)

	require.NotNil(t, store.templates[0].LastGenerated)
	assert.Nil(t, store.templates[1].LastGenerated)

	require.Len(t, pub.types, 1)
	assert.Equal(t, events.TemplateGenerated, pub.types[0])
}

func TestGenerateFiresOncePerDay(t *testing.T) {
	monday := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)

	store := &templateStore{templates: []*models.ActivityTemplate{
		{
			ID:            "tmpl-1",
			UserID:        "user-1",
			Title:         "Weekly mentoring",
			DurationHours: 1,
			ActivityType:  models.TypeMentoring,
			IsRecurring:   true,
			RecurrenceDay: intPtr(0),
		},
	}}
	pub := &recordingPublisher{}

	g := NewGenerator(store, pub, time.Hour)
	g.generate(context.Background(), monday)
	g.generate(context.Background(), monday.Add(2*time.Hour))

	assert.Len(t, store.created, 1)

	// A week later it fires again
	g.generate(context.Background(), monday.AddDate(0, 0, 7))
	assert.Len(t, store.created, 2)
}

func TestGenerateDurationFallback(t *testing.T) {
	monday := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)

	store := &templateStore{templates: []*models.ActivityTemplate{
		{
			ID:            "tmpl-1",
			UserID:        "user-1",
			Title:         "Quick reflection",
			DurationHours: 0,
			ActivityType:  models.TypeWriting,
			IsRecurring:   true,
			RecurrenceDay: intPtr(0),
		},
	}}

	g := NewGenerator(store, &recordingPublisher{}, time.Hour)
	g.generate(context.Background(), monday)

	require.Len(t, store.created, 1)
	assert.Equal(t, 1.0, store.created[0].DurationHours)
}

func TestGenerateSundayUsesDaySix(t *testing.T) {
	// 2026-08-30 is a Sunday; stored as day 6, not Go's Weekday 0
	sunday := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)

	store := &templateStore{templates: []*models.ActivityTemplate{
		{
			ID:            "tmpl-1",
			UserID:        "user-1",
			Title:         "Sunday reading",
			DurationHours: 1,
			ActivityType:  models.TypeSelfStudy,
			IsRecurring:   true,
			RecurrenceDay: intPtr(6),
		},
	}}

	g := NewGenerator(store, &recordingPublisher{}, time.Hour)
	g.generate(context.Background(), sunday)

	assert.Len(t, store.created, 1)
}
