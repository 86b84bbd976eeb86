package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/otjlab/otj-engine/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// --- Users ---

// GetUserByAPIKey retrieves a user by API key, nil when unknown
func (r *PostgresRepository) GetUserByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	query := `
		SELECT id, email, name, api_key, is_active, selected_spec, created_at, last_used_at
		FROM users
		WHERE api_key = $1
	`

	var u models.User
	var name, selectedSpec sql.NullString
	var lastUsedAt sql.NullTime

	err := r.pool.QueryRow(ctx, query, apiKey).Scan(
		&u.ID,
		&u.Email,
		&name,
		&u.APIKey,
		&u.IsActive,
		&selectedSpec,
		&u.CreatedAt,
		&lastUsedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.Name = name.String
	u.SelectedSpec = selectedSpec.String
	if lastUsedAt.Valid {
		u.LastUsedAt = &lastUsedAt.Time
	}

	return &u, nil
}

// UpdateUserLastUsed stamps last_used_at for the key's owner
func (r *PostgresRepository) UpdateUserLastUsed(ctx context.Context, apiKey string) error {
	query := `UPDATE users SET last_used_at = NOW() WHERE api_key = $1`

	if _, err := r.pool.Exec(ctx, query, apiKey); err != nil {
		return fmt.Errorf("failed to update user last_used_at: %w", err)
	}

	return nil
}

// SetSelectedSpec records the user's active apprenticeship standard
func (r *PostgresRepository) SetSelectedSpec(ctx context.Context, userID, specCode string) error {
	query := `UPDATE users SET selected_spec = $2 WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, userID, specCode)
	if err != nil {
		return fmt.Errorf("failed to set selected spec: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}

	return nil
}

// --- Activities ---

// CreateActivity inserts an activity with its KSB links, resources and
// tags in a single transaction
func (r *PostgresRepository) CreateActivity(ctx context.Context, a *models.Activity) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO activities (id, user_id, title, description, activity_date, duration_hours, activity_type, evidence_quality, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = tx.Exec(ctx, query,
		a.ID,
		a.UserID,
		a.Title,
		a.Description,
		a.ActivityDate,
		a.DurationHours,
		string(a.ActivityType),
		string(a.Quality),
		a.Notes,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}

	if err := r.writeRelations(ctx, tx, a); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit activity: %w", err)
	}

	return nil
}

// UpdateActivity rewrites an activity and replaces its KSB links,
// resources and tag assignments
func (r *PostgresRepository) UpdateActivity(ctx context.Context, a *models.Activity) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE activities
		SET title = $3, description = $4, activity_date = $5, duration_hours = $6, activity_type = $7, evidence_quality = $8, notes = $9, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`

	result, err := tx.Exec(ctx, query,
		a.ID,
		a.UserID,
		a.Title,
		a.Description,
		a.ActivityDate,
		a.DurationHours,
		string(a.ActivityType),
		string(a.Quality),
		a.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: activity %s", ErrNotFound, a.ID)
	}

	for _, del := range []string{
		`DELETE FROM activity_ksbs WHERE activity_id = $1`,
		`DELETE FROM resource_links WHERE activity_id = $1`,
		`DELETE FROM activity_tags WHERE activity_id = $1`,
	} {
		if _, err := tx.Exec(ctx, del, a.ID); err != nil {
			return fmt.Errorf("failed to clear activity relations: %w", err)
		}
	}

	if err := r.writeRelations(ctx, tx, a); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit activity update: %w", err)
	}

	return nil
}

// writeRelations inserts KSB links, resource links and tags for an
// activity inside the caller's transaction
func (r *PostgresRepository) writeRelations(ctx context.Context, tx pgx.Tx, a *models.Activity) error {
	seen := make(map[string]struct{}, len(a.KSBCodes))
	for _, code := range a.KSBCodes {
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		if _, err := tx.Exec(ctx,
			`INSERT INTO activity_ksbs (activity_id, ksb_code) VALUES ($1, $2)`,
			a.ID, code); err != nil {
			return fmt.Errorf("failed to link KSB %s: %w", code, err)
		}
	}

	for _, res := range a.Resources {
		if _, err := tx.Exec(ctx,
			`INSERT INTO resource_links (id, activity_id, url, title, source_type, description, workflow_stage)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			res.ID, a.ID, res.URL, res.Title, res.SourceType, res.Description, string(res.Stage)); err != nil {
			return fmt.Errorf("failed to insert resource link: %w", err)
		}
	}

	for _, name := range a.Tags {
		var tagID string
		err := tx.QueryRow(ctx, `
			INSERT INTO tags (user_id, name)
			VALUES ($1, $2)
			ON CONFLICT (user_id, name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, a.UserID, name).Scan(&tagID)
		if err != nil {
			return fmt.Errorf("failed to upsert tag %q: %w", name, err)
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO activity_tags (activity_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			a.ID, tagID); err != nil {
			return fmt.Errorf("failed to assign tag %q: %w", name, err)
		}
	}

	return nil
}

// GetActivity retrieves one of the user's activities, nil when absent
func (r *PostgresRepository) GetActivity(ctx context.Context, userID, id string) (*models.Activity, error) {
	query := `
		SELECT id, user_id, title, description, activity_date, duration_hours, activity_type, evidence_quality, notes, created_at, updated_at
		FROM activities
		WHERE id = $1 AND user_id = $2
	`

	a, err := r.scanActivity(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}

	if err := r.loadRelations(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

// DeleteActivity removes an activity; child rows cascade
func (r *PostgresRepository) DeleteActivity(ctx context.Context, userID, id string) error {
	query := `DELETE FROM activities WHERE id = $1 AND user_id = $2`

	result, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: activity %s", ErrNotFound, id)
	}

	return nil
}

// ListActivities returns the user's activities matching the filters,
// newest first
func (r *PostgresRepository) ListActivities(ctx context.Context, userID string, filters models.ActivityFilters) ([]*models.Activity, error) {
	query := `
		SELECT id, user_id, title, description, activity_date, duration_hours, activity_type, evidence_quality, notes, created_at, updated_at
		FROM activities a
		WHERE user_id = $1
	`
	args := []interface{}{userID}
	argNum := 2

	if filters.KSBCode != "" {
		query += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM activity_ksbs ak WHERE ak.activity_id = a.id AND ak.ksb_code = $%d)", argNum)
		args = append(args, filters.KSBCode)
		argNum++
	}

	if filters.ActivityType != "" {
		query += fmt.Sprintf(" AND a.activity_type = $%d", argNum)
		args = append(args, string(filters.ActivityType))
		argNum++
	}

	if filters.Tag != "" {
		query += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM activity_tags at JOIN tags t ON t.id = at.tag_id WHERE at.activity_id = a.id AND t.name = $%d)", argNum)
		args = append(args, filters.Tag)
		argNum++
	}

	query += " ORDER BY activity_date DESC, created_at DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filters.Limit)
		argNum++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filters.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		a, err := r.scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}

	for _, a := range activities {
		if err := r.loadRelations(ctx, a); err != nil {
			return nil, err
		}
	}

	return activities, nil
}

// SnapshotActivities loads the user's full activity log with relations
func (r *PostgresRepository) SnapshotActivities(ctx context.Context, userID string) ([]models.Activity, error) {
	list, err := r.ListActivities(ctx, userID, models.ActivityFilters{})
	if err != nil {
		return nil, err
	}

	snapshot := make([]models.Activity, 0, len(list))
	for _, a := range list {
		snapshot = append(snapshot, *a)
	}
	return snapshot, nil
}

// rowScanner covers both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *PostgresRepository) scanActivity(row rowScanner) (*models.Activity, error) {
	var a models.Activity
	var description, notes sql.NullString
	var activityType, quality string

	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Title,
		&description,
		&a.ActivityDate,
		&a.DurationHours,
		&activityType,
		&quality,
		&notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Description = description.String
	a.Notes = notes.String
	a.ActivityType = models.ActivityType(activityType)
	a.Quality = models.EvidenceQuality(quality)
	return &a, nil
}

// loadRelations fills KSB codes, resource links and tag names
func (r *PostgresRepository) loadRelations(ctx context.Context, a *models.Activity) error {
	a.KSBCodes = []string{}
	a.Resources = []models.ResourceLink{}
	a.Tags = []string{}

	rows, err := r.pool.Query(ctx,
		`SELECT ksb_code FROM activity_ksbs WHERE activity_id = $1 ORDER BY ksb_code`, a.ID)
	if err != nil {
		return fmt.Errorf("failed to get KSB links: %w", err)
	}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan KSB link: %w", err)
		}
		a.KSBCodes = append(a.KSBCodes, code)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating KSB links: %w", err)
	}

	rows, err = r.pool.Query(ctx, `
		SELECT id, url, title, source_type, description, workflow_stage
		FROM resource_links
		WHERE activity_id = $1
		ORDER BY id
	`, a.ID)
	if err != nil {
		return fmt.Errorf("failed to get resource links: %w", err)
	}
	for rows.Next() {
		var res models.ResourceLink
		var description sql.NullString
		var stage string
		if err := rows.Scan(&res.ID, &res.URL, &res.Title, &res.SourceType, &description, &stage); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan resource link: %w", err)
		}
		res.ActivityID = a.ID
		res.Description = description.String
		res.Stage = models.WorkflowStage(stage)
		a.Resources = append(a.Resources, res)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating resource links: %w", err)
	}

	rows, err = r.pool.Query(ctx, `
		SELECT t.name
		FROM activity_tags at
		JOIN tags t ON t.id = at.tag_id
		WHERE at.activity_id = $1
		ORDER BY t.name
	`, a.ID)
	if err != nil {
		return fmt.Errorf("failed to get tags: %w", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan tag: %w", err)
		}
		a.Tags = append(a.Tags, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating tags: %w", err)
	}

	return nil
}

// --- Dashboard aggregates ---

// TotalHours sums all logged hours for the user
func (r *PostgresRepository) TotalHours(ctx context.Context, userID string) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(duration_hours), 0) FROM activities WHERE user_id = $1`,
		userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum hours: %w", err)
	}
	return total, nil
}

// HoursByType groups logged hours by activity type
func (r *PostgresRepository) HoursByType(ctx context.Context, userID string) ([]models.TypeHours, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT activity_type, SUM(duration_hours)
		FROM activities
		WHERE user_id = $1
		GROUP BY activity_type
		ORDER BY activity_type
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to group hours by type: %w", err)
	}
	defer rows.Close()

	var result []models.TypeHours
	for rows.Next() {
		var th models.TypeHours
		var typ string
		if err := rows.Scan(&typ, &th.Hours); err != nil {
			return nil, fmt.Errorf("failed to scan hours by type: %w", err)
		}
		th.Type = models.ActivityType(typ)
		th.Label = models.ActivityTypeLabel(th.Type)
		result = append(result, th)
	}

	return result, rows.Err()
}

// CountActivities counts the user's activities
func (r *PostgresRepository) CountActivities(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM activities WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}
	return count, nil
}

// RecentActivities returns the newest activities with relations loaded
func (r *PostgresRepository) RecentActivities(ctx context.Context, userID string, limit int) ([]models.Activity, error) {
	list, err := r.ListActivities(ctx, userID, models.ActivityFilters{Limit: limit})
	if err != nil {
		return nil, err
	}

	recent := make([]models.Activity, 0, len(list))
	for _, a := range list {
		recent = append(recent, *a)
	}
	return recent, nil
}

// --- Tags ---

// ListTags returns the user's tags sorted by name
func (r *PostgresRepository) ListTags(ctx context.Context, userID string) ([]*models.Tag, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, name FROM tags WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, &t)
	}

	return tags, rows.Err()
}

// --- Activity templates ---

// CreateTemplate inserts an activity template
func (r *PostgresRepository) CreateTemplate(ctx context.Context, t *models.ActivityTemplate) error {
	query := `
		INSERT INTO activity_templates (id, user_id, title, description, duration_hours, activity_type, evidence_quality, ksb_codes, tags, is_recurring, recurrence_day, last_generated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		t.ID,
		t.UserID,
		t.Title,
		t.Description,
		t.DurationHours,
		string(t.ActivityType),
		string(t.Quality),
		t.KSBCodes,
		t.Tags,
		t.IsRecurring,
		t.RecurrenceDay,
		nullTime(t.LastGenerated),
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	return nil
}

// GetTemplate retrieves one of the user's templates, nil when absent
func (r *PostgresRepository) GetTemplate(ctx context.Context, userID, id string) (*models.ActivityTemplate, error) {
	query := `
		SELECT id, user_id, title, description, duration_hours, activity_type, evidence_quality, ksb_codes, tags, is_recurring, recurrence_day, last_generated, created_at
		FROM activity_templates
		WHERE id = $1 AND user_id = $2
	`

	t, err := r.scanTemplate(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return t, nil
}

// UpdateTemplate rewrites a template
func (r *PostgresRepository) UpdateTemplate(ctx context.Context, t *models.ActivityTemplate) error {
	query := `
		UPDATE activity_templates
		SET title = $3, description = $4, duration_hours = $5, activity_type = $6, evidence_quality = $7, ksb_codes = $8, tags = $9, is_recurring = $10, recurrence_day = $11
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		t.ID,
		t.UserID,
		t.Title,
		t.Description,
		t.DurationHours,
		string(t.ActivityType),
		string(t.Quality),
		t.KSBCodes,
		t.Tags,
		t.IsRecurring,
		t.RecurrenceDay,
	)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: template %s", ErrNotFound, t.ID)
	}

	return nil
}

// DeleteTemplate removes a template
func (r *PostgresRepository) DeleteTemplate(ctx context.Context, userID, id string) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM activity_templates WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: template %s", ErrNotFound, id)
	}

	return nil
}

// ListTemplates returns the user's templates, newest first
func (r *PostgresRepository) ListTemplates(ctx context.Context, userID string) ([]*models.ActivityTemplate, error) {
	query := `
		SELECT id, user_id, title, description, duration_hours, activity_type, evidence_quality, ksb_codes, tags, is_recurring, recurrence_day, last_generated, created_at
		FROM activity_templates
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	return r.queryTemplates(ctx, query, userID)
}

// ListRecurringTemplates returns every recurring template across users,
// for the recurrence worker
func (r *PostgresRepository) ListRecurringTemplates(ctx context.Context) ([]*models.ActivityTemplate, error) {
	query := `
		SELECT id, user_id, title, description, duration_hours, activity_type, evidence_quality, ksb_codes, tags, is_recurring, recurrence_day, last_generated, created_at
		FROM activity_templates
		WHERE is_recurring = TRUE AND recurrence_day IS NOT NULL
		ORDER BY created_at
	`

	return r.queryTemplates(ctx, query)
}

func (r *PostgresRepository) queryTemplates(ctx context.Context, query string, args ...interface{}) ([]*models.ActivityTemplate, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []*models.ActivityTemplate
	for rows.Next() {
		t, err := r.scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, t)
	}

	return templates, rows.Err()
}

func (r *PostgresRepository) scanTemplate(row rowScanner) (*models.ActivityTemplate, error) {
	var t models.ActivityTemplate
	var description sql.NullString
	var activityType, quality string
	var recurrenceDay sql.NullInt32
	var lastGenerated sql.NullTime

	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&description,
		&t.DurationHours,
		&activityType,
		&quality,
		&t.KSBCodes,
		&t.Tags,
		&t.IsRecurring,
		&recurrenceDay,
		&lastGenerated,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Description = description.String
	t.ActivityType = models.ActivityType(activityType)
	t.Quality = models.EvidenceQuality(quality)
	if recurrenceDay.Valid {
		day := int(recurrenceDay.Int32)
		t.RecurrenceDay = &day
	}
	if lastGenerated.Valid {
		t.LastGenerated = &lastGenerated.Time
	}
	if t.KSBCodes == nil {
		t.KSBCodes = []string{}
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return &t, nil
}

// MarkTemplateGenerated stamps the date a recurring template last fired
func (r *PostgresRepository) MarkTemplateGenerated(ctx context.Context, id string, generated time.Time) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE activity_templates SET last_generated = $2 WHERE id = $1`, id, generated)
	if err != nil {
		return fmt.Errorf("failed to mark template generated: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: template %s", ErrNotFound, id)
	}

	return nil
}

// Helper for nullable values

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
