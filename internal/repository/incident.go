package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/wittawat/incident_map_system/internal/models"
	"github.com/wittawat/incident_map_system/internal/service"
)

const incidentColumns = `
	id,
	type,
	description,
	latitude,
	longitude,
	reporter,
	reporter_contact,
	status,
	severity,
	officer_notes,
	image_url,
	edit_token,
	created_at,
	updated_at
`

type IncidentRepository struct {
	db          *pgxpool.Pool
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewIncidentRepository(db *pgxpool.Pool, redisClient *redis.Client, cacheTTL time.Duration) service.IncidentRepository {
	return &IncidentRepository{
		db:          db,
		redisClient: redisClient,
		cacheTTL:    cacheTTL,
	}
}

// Create inserts a new incident row.
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	query := `
		INSERT INTO incidents (type, description, latitude, longitude, reporter, reporter_contact,
			status, severity, officer_notes, image_url, edit_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id;
	`
	err := r.db.QueryRow(ctx, query,
		incident.Type,
		incident.Description,
		incident.Latitude,
		incident.Longitude,
		incident.Reporter,
		incident.ReporterContact,
		incident.Status,
		incident.Severity,
		incident.OfficerNotes,
		incident.ImageURL,
		incident.EditToken,
		incident.CreatedAt,
		incident.UpdatedAt,
	).Scan(&incident.ID)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// GetByID returns an incident by its UUID.
func (r *IncidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1;`
	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident with id %s: %w", id, service.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get incident by id: %w", err)
	}
	return incident, nil
}

// Update persists all mutable incident fields and bumps updated_at.
func (r *IncidentRepository) Update(ctx context.Context, incident *models.Incident) error {
	query := `
		UPDATE incidents SET
			status = $1,
			severity = $2,
			officer_notes = $3,
			description = $4,
			updated_at = $5
		WHERE id = $6;
	`
	cmdTag, err := r.db.Exec(ctx, query,
		incident.Status,
		incident.Severity,
		incident.OfficerNotes,
		incident.Description,
		incident.UpdatedAt,
		incident.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update incident: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("incident with id %s for update: %w", incident.ID, service.ErrNotFound)
	}
	return nil
}

// Delete removes the incident row. Messages go with it via the foreign
// key's ON DELETE CASCADE.
func (r *IncidentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM incidents WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("failed to delete incident: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("incident with id %s for delete: %w", id, service.ErrNotFound)
	}
	return nil
}

// ListAll returns every incident, newest first.
func (r *IncidentRepository) ListAll(ctx context.Context) ([]*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents ORDER BY created_at DESC;`
	return r.queryIncidents(ctx, query)
}

// ListActive returns incidents still needing attention, newest first.
func (r *IncidentRepository) ListActive(ctx context.Context) ([]*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents
		WHERE status IN ($1, $2) ORDER BY created_at DESC;`
	return r.queryIncidents(ctx, query, models.StatusPending, models.StatusInProgress)
}

// ListByType returns incidents of one type, newest first.
func (r *IncidentRepository) ListByType(ctx context.Context, incidentType string) ([]*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE type = $1 ORDER BY created_at DESC;`
	return r.queryIncidents(ctx, query, incidentType)
}

// ListByStatus returns incidents in one status, newest first.
func (r *IncidentRepository) ListByStatus(ctx context.Context, status string) ([]*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE status = $1 ORDER BY created_at DESC;`
	return r.queryIncidents(ctx, query, status)
}

// FindInBounds returns incidents inside the axis-aligned bounding box.
func (r *IncidentRepository) FindInBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents
		WHERE latitude BETWEEN $1 AND $2 AND longitude BETWEEN $3 AND $4
		ORDER BY created_at DESC;`
	return r.queryIncidents(ctx, query, minLat, maxLat, minLng, maxLng)
}

// CountByStatus returns incident counts grouped by status.
func (r *IncidentRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	return r.countGrouped(ctx, `SELECT status, COUNT(*) FROM incidents GROUP BY status;`)
}

// CountByType returns incident counts grouped by type.
func (r *IncidentRepository) CountByType(ctx context.Context) (map[string]int, error) {
	return r.countGrouped(ctx, `SELECT type, COUNT(*) FROM incidents GROUP BY type;`)
}

func (r *IncidentRepository) countGrouped(ctx context.Context, query string) (map[string]int, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count incidents: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[key] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error in count iteration: %w", err)
	}
	return counts, nil
}

func (r *IncidentRepository) queryIncidents(ctx context.Context, query string, args ...any) ([]*models.Incident, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error in incident iteration: %w", err)
	}
	return incidents, nil
}

func scanIncident(row pgx.Row) (*models.Incident, error) {
	incident := &models.Incident{}
	err := row.Scan(
		&incident.ID,
		&incident.Type,
		&incident.Description,
		&incident.Latitude,
		&incident.Longitude,
		&incident.Reporter,
		&incident.ReporterContact,
		&incident.Status,
		&incident.Severity,
		&incident.OfficerNotes,
		&incident.ImageURL,
		&incident.EditToken,
		&incident.CreatedAt,
		&incident.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return incident, nil
}

// GetIncidentFromCache tries Redis before the database. A miss returns
// (nil, nil).
func (r *IncidentRepository) GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	key := cacheKey(id)
	val, err := r.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get incident from cache: %w", err)
	}

	incident := &models.Incident{}
	if err := json.Unmarshal(val, incident); err != nil {
		return nil, fmt.Errorf("failed to unmarshal incident from cache: %w", err)
	}
	return incident, nil
}

// SetIncidentCache stores the incident in Redis with the configured TTL.
func (r *IncidentRepository) SetIncidentCache(ctx context.Context, incident *models.Incident) error {
	val, err := json.Marshal(incident)
	if err != nil {
		return fmt.Errorf("failed to marshal incident for cache: %w", err)
	}
	if err := r.redisClient.Set(ctx, cacheKey(incident.ID), val, r.cacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to set incident in cache: %w", err)
	}
	return nil
}

// InvalidateIncidentCache drops the cached incident.
func (r *IncidentRepository) InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error {
	if err := r.redisClient.Del(ctx, cacheKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate incident cache: %w", err)
	}
	return nil
}

func cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("incident:%s", id.String())
}
