package api

import (
	"context"
	"sync"
	"time"

	"github.com/otjlab/otj-engine/internal/catalog"
	"github.com/otjlab/otj-engine/internal/events"
	"github.com/otjlab/otj-engine/internal/models"
	"github.com/otjlab/otj-engine/internal/storage"
)

// fakeRepo is an in-memory storage.Repository for handler tests
type fakeRepo struct {
	mu         sync.Mutex
	users      map[string]*models.User // api key -> user
	activities map[string]*models.Activity
	templates  map[string]*models.ActivityTemplate
	tags       map[string]*models.Tag
	pingErr    error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:      make(map[string]*models.User),
		activities: make(map[string]*models.Activity),
		templates:  make(map[string]*models.ActivityTemplate),
		tags:       make(map[string]*models.Tag),
	}
}

func (f *fakeRepo) GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[apiKey]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (f *fakeRepo) UpdateUserLastUsed(ctx context.Context, apiKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[apiKey]; ok {
		now := time.Now().UTC()
		u.LastUsedAt = &now
	}
	return nil
}

func (f *fakeRepo) SetSelectedSpec(ctx context.Context, userID, specCode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == userID {
			u.SelectedSpec = specCode
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeRepo) CreateActivity(ctx context.Context, a *models.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *a
	f.activities[a.ID] = &copied
	return nil
}

func (f *fakeRepo) GetActivity(ctx context.Context, userID, id string) (*models.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.activities[id]
	if !ok || a.UserID != userID {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (f *fakeRepo) UpdateActivity(ctx context.Context, a *models.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.activities[a.ID]
	if !ok || existing.UserID != a.UserID {
		return storage.ErrNotFound
	}
	copied := *a
	copied.CreatedAt = existing.CreatedAt
	f.activities[a.ID] = &copied
	return nil
}

func (f *fakeRepo) DeleteActivity(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.activities[id]
	if !ok || a.UserID != userID {
		return storage.ErrNotFound
	}
	delete(f.activities, id)
	return nil
}

func (f *fakeRepo) ListActivities(ctx context.Context, userID string, filters models.ActivityFilters) ([]*models.Activity, error) {
	snapshot, err := f.SnapshotActivities(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Activity, 0, len(snapshot))
	for i := range snapshot {
		a := snapshot[i]
		if filters.ActivityType != "" && a.ActivityType != filters.ActivityType {
			continue
		}
		if filters.KSBCode != "" && !contains(a.KSBCodes, filters.KSBCode) {
			continue
		}
		if filters.Tag != "" && !contains(a.Tags, filters.Tag) {
			continue
		}
		out = append(out, &snapshot[i])
	}
	return out, nil
}

func (f *fakeRepo) SnapshotActivities(ctx context.Context, userID string) ([]models.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Activity, 0, len(f.activities))
	for _, a := range f.activities {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRepo) TotalHours(ctx context.Context, userID string) (float64, error) {
	snapshot, _ := f.SnapshotActivities(ctx, userID)
	total := 0.0
	for _, a := range snapshot {
		total += a.DurationHours
	}
	return total, nil
}

func (f *fakeRepo) HoursByType(ctx context.Context, userID string) ([]models.TypeHours, error) {
	snapshot, _ := f.SnapshotActivities(ctx, userID)
	byType := make(map[models.ActivityType]float64)
	for _, a := range snapshot {
		byType[a.ActivityType] += a.DurationHours
	}
	out := make([]models.TypeHours, 0, len(byType))
	for t, h := range byType {
		out = append(out, models.TypeHours{Type: t, Label: models.ActivityTypeLabel(t), Hours: h})
	}
	return out, nil
}

func (f *fakeRepo) CountActivities(ctx context.Context, userID string) (int, error) {
	snapshot, _ := f.SnapshotActivities(ctx, userID)
	return len(snapshot), nil
}

func (f *fakeRepo) RecentActivities(ctx context.Context, userID string, limit int) ([]models.Activity, error) {
	snapshot, _ := f.SnapshotActivities(ctx, userID)
	if len(snapshot) > limit {
		snapshot = snapshot[:limit]
	}
	return snapshot, nil
}

func (f *fakeRepo) ListTags(ctx context.Context, userID string) ([]*models.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Tag, 0, len(f.tags))
	for _, tag := range f.tags {
		if tag.UserID == userID {
			copied := *tag
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateTemplate(ctx context.Context, t *models.ActivityTemplate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *t
	f.templates[t.ID] = &copied
	return nil
}

func (f *fakeRepo) GetTemplate(ctx context.Context, userID, id string) (*models.ActivityTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.templates[id]
	if !ok || t.UserID != userID {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (f *fakeRepo) UpdateTemplate(ctx context.Context, t *models.ActivityTemplate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.templates[t.ID]
	if !ok || existing.UserID != t.UserID {
		return storage.ErrNotFound
	}
	copied := *t
	copied.CreatedAt = existing.CreatedAt
	f.templates[t.ID] = &copied
	return nil
}

func (f *fakeRepo) DeleteTemplate(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.templates[id]
	if !ok || t.UserID != userID {
		return storage.ErrNotFound
	}
	delete(f.templates, id)
	return nil
}

func (f *fakeRepo) ListTemplates(ctx context.Context, userID string) ([]*models.ActivityTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.ActivityTemplate, 0, len(f.templates))
	for _, t := range f.templates {
		if t.UserID == userID {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListRecurringTemplates(ctx context.Context) ([]*models.ActivityTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.ActivityTemplate, 0)
	for _, t := range f.templates {
		if t.IsRecurring {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeRepo) MarkTemplateGenerated(ctx context.Context, id string, generated time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.templates[id]
	if !ok {
		return storage.ErrNotFound
	}
	t.LastGenerated = &generated
	return nil
}

func (f *fakeRepo) Ping(ctx context.Context) error { return f.pingErr }
func (f *fakeRepo) Close() error                   { return nil }

func contains(items []string, v string) bool {
	for _, it := range items {
		if it == v {
			return true
		}
	}
	return false
}

// fakeBroker records published events
type fakeBroker struct {
	mu        sync.Mutex
	published []publishedEvent
	healthErr error
}

type publishedEvent struct {
	UserID string
	Type   string
}

func (b *fakeBroker) Publish(ctx context.Context, userID, eventType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, publishedEvent{UserID: userID, Type: eventType})
}

func (b *fakeBroker) Subscribe(ctx context.Context, userID string) (<-chan events.Event, func()) {
	ch := make(chan events.Event)
	return ch, func() { close(ch) }
}

func (b *fakeBroker) HealthCheck(ctx context.Context) error { return b.healthErr }

func (b *fakeBroker) events() []publishedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]publishedEvent, len(b.published))
	copy(out, b.published)
	return out
}

func testCatalog() *catalog.Loader {
	cat := catalog.NewLoader()
	cat.Add(
		&models.Spec{Code: "ST0787", Name: "Systems Thinking Practitioner", Level: 7, Available: true},
		[]models.KSB{
			{Code: "K1", Category: models.CategoryKnowledge, Title: "Systems thinking"},
			{Code: "S1", Category: models.CategorySkill, Title: "Applying systems knowledge"},
			{Code: "B1", Category: models.CategoryBehaviour, Title: "Develops self and practice"},
		},
	)
	cat.Add(
		&models.Spec{Code: "ST0763", Name: "AI Data Specialist", Level: 7, KSBPrefix: "A", Available: true},
		[]models.KSB{
			{Code: "AK1", Category: models.CategoryKnowledge, Title: "AI and ML methodologies"},
		},
	)
	cat.Add(
		&models.Spec{Code: "ST0999", Name: "Coming Soon", Level: 7, Available: false},
		[]models.KSB{
			{Code: "X1", Category: models.CategoryKnowledge, Title: "Placeholder"},
		},
	)
	return cat
}
