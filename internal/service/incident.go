package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wittawat/incident_map_system/internal/access"
	"github.com/wittawat/incident_map_system/internal/events"
	"github.com/wittawat/incident_map_system/internal/hotspot"
	"github.com/wittawat/incident_map_system/internal/models"
	"github.com/wittawat/incident_map_system/internal/webhook"
)

// IncidentRepository is the persistence contract for incidents.
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	Update(ctx context.Context, incident *models.Incident) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListAll(ctx context.Context) ([]*models.Incident, error)
	ListActive(ctx context.Context) ([]*models.Incident, error)
	ListByType(ctx context.Context, incidentType string) ([]*models.Incident, error)
	ListByStatus(ctx context.Context, status string) ([]*models.Incident, error)
	FindInBounds(ctx context.Context, minLat, maxLat, minLng, maxLng float64) ([]*models.Incident, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
	CountByType(ctx context.Context) (map[string]int, error)
	GetIncidentFromCache(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	SetIncidentCache(ctx context.Context, incident *models.Incident) error
	InvalidateIncidentCache(ctx context.Context, id uuid.UUID) error
}

// MessageRepository is the persistence contract for chat messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	ListByIncident(ctx context.Context, incidentID uuid.UUID) ([]*models.Message, error)
	LatestByIncident(ctx context.Context, incidentID uuid.UUID) (*models.Message, error)
}

// Actor describes the caller of a guarded operation: which surface the
// request came from, the verified role claims attached to it, and any
// presented edit token.
type Actor struct {
	OfficerChannel bool
	Roles          []access.Role
	Token          string
}

// IncidentStats is the aggregate view for the dashboard header.
type IncidentStats struct {
	StatusCounts map[string]int `json:"statusStats"`
	TypeCounts   map[string]int `json:"typeStats"`
	Total        int            `json:"totalIncidents"`
	Active       int            `json:"activeIncidents"`
}

// IncidentService is the business-logic contract for incident management.
type IncidentService interface {
	CreateIncident(ctx context.Context, incident *models.Incident) error
	GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	ListIncidents(ctx context.Context) ([]*models.Incident, error)
	ListActiveIncidents(ctx context.Context) ([]*models.Incident, error)
	ListIncidentsByType(ctx context.Context, incidentType string) ([]*models.Incident, error)
	ListIncidentsByStatus(ctx context.Context, status string) ([]*models.Incident, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status, notes string, actor Actor) (*models.Incident, error)
	DeleteIncident(ctx context.Context, id uuid.UUID) error
	ListMessages(ctx context.Context, incidentID uuid.UUID, actor Actor) ([]*models.Message, error)
	PostMessage(ctx context.Context, incidentID uuid.UUID, content string, actor Actor) (*models.Message, error)
	LatestMessage(ctx context.Context, incidentID uuid.UUID, actor Actor) (*models.Message, error)
	Stats(ctx context.Context) (*IncidentStats, error)
	Hotspots(ctx context.Context, params hotspot.Params) (*hotspot.Result, error)
}

type incidentService struct {
	repo     IncidentRepository
	messages MessageRepository
	hub      events.Publisher
	alerts   webhook.AlertPublisher
	logger   *logrus.Logger
	now      func() time.Time
}

func NewIncidentService(
	repo IncidentRepository,
	messages MessageRepository,
	hub events.Publisher,
	alerts webhook.AlertPublisher,
	logger *logrus.Logger,
) IncidentService {
	return &incidentService{
		repo:     repo,
		messages: messages,
		hub:      hub,
		alerts:   alerts,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateIncident validates and persists a new report, mints its edit
// token, and announces it to live subscribers.
func (s *incidentService) CreateIncident(ctx context.Context, incident *models.Incident) error {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "CreateIncident",
		"type":    incident.Type,
	})
	log.Info("Attempting to create a new incident")

	if err := validateNewIncident(incident); err != nil {
		log.WithError(err).Warn("Incident validation failed")
		return err
	}

	incident.Status = models.StatusPending
	if incident.Severity == "" {
		incident.Severity = models.SeverityNormal
	}
	incident.EditToken = mintEditToken()
	incident.CreatedAt = s.now()
	incident.UpdatedAt = incident.CreatedAt

	if err := s.repo.Create(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return fmt.Errorf("service: could not create incident: %w", err)
	}

	s.hub.Publish(events.EventIncidentCreated, incident)
	s.publishAlert(ctx, incident)

	log.WithField("incident_id", incident.ID).Info("Incident created successfully")
	return nil
}

// GetIncident returns an incident by id, cache-aside through Redis.
func (s *incidentService) GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "GetIncident",
		"incident_id": id,
	})

	cached, err := s.repo.GetIncidentFromCache(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Incident cache lookup failed")
	}
	if cached != nil {
		return cached, nil
	}

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to get incident from repository")
		return nil, fmt.Errorf("service: could not get incident: %w", err)
	}

	if err := s.repo.SetIncidentCache(ctx, incident); err != nil {
		log.WithError(err).Warn("Failed to cache incident")
	}
	return incident, nil
}

func (s *incidentService) ListIncidents(ctx context.Context) ([]*models.Incident, error) {
	incidents, err := s.repo.ListAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list incidents from repository")
		return nil, fmt.Errorf("service: could not list incidents: %w", err)
	}
	return incidents, nil
}

func (s *incidentService) ListActiveIncidents(ctx context.Context) ([]*models.Incident, error) {
	incidents, err := s.repo.ListActive(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list active incidents from repository")
		return nil, fmt.Errorf("service: could not list active incidents: %w", err)
	}
	return incidents, nil
}

func (s *incidentService) ListIncidentsByType(ctx context.Context, incidentType string) ([]*models.Incident, error) {
	if !models.ValidType(incidentType) {
		return nil, fmt.Errorf("service: unknown incident type %q: %w", incidentType, ErrValidation)
	}
	incidents, err := s.repo.ListByType(ctx, incidentType)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list incidents by type from repository")
		return nil, fmt.Errorf("service: could not list incidents by type: %w", err)
	}
	return incidents, nil
}

func (s *incidentService) ListIncidentsByStatus(ctx context.Context, status string) ([]*models.Incident, error) {
	if !validStatus(status) {
		return nil, fmt.Errorf("service: unknown status %q: %w", status, ErrValidation)
	}
	incidents, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list incidents by status from repository")
		return nil, fmt.Errorf("service: could not list incidents by status: %w", err)
	}
	return incidents, nil
}

// UpdateStatus changes the incident status after the access guard admits
// the actor. Notes are only overwritten when non-blank.
func (s *incidentService) UpdateStatus(ctx context.Context, id uuid.UUID, status, notes string, actor Actor) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "UpdateStatus",
		"incident_id": id,
		"status":      status,
	})
	log.Info("Attempting to update incident status")

	if !validStatus(status) {
		return nil, fmt.Errorf("service: unknown status %q: %w", status, ErrValidation)
	}

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to update a non-existent incident")
		return nil, fmt.Errorf("service: incident %s not found for update: %w", id, err)
	}

	decision := access.Authorize(actor.OfficerChannel, actor.Roles, actor.Token, incident.EditToken)
	if !decision.Permitted {
		log.Warn("Status update denied by access guard")
		return nil, fmt.Errorf("service: not allowed to update incident status: %w", ErrForbidden)
	}

	incident.Status = status
	if strings.TrimSpace(notes) != "" {
		incident.OfficerNotes = notes
	}
	incident.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to update incident in repository")
		return nil, fmt.Errorf("service: could not update incident: %w", err)
	}
	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	s.hub.Publish(events.EventIncidentUpdated, incident)

	log.Info("Incident status updated successfully")
	return incident, nil
}

// DeleteIncident removes an incident. Route-level middleware restricts
// this to the officer dashboard.
func (s *incidentService) DeleteIncident(ctx context.Context, id uuid.UUID) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "DeleteIncident",
		"incident_id": id,
	})
	log.Info("Attempting to delete incident")

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		log.WithError(err).Warn("Attempted to delete a non-existent incident")
		return fmt.Errorf("service: incident %s not found for delete: %w", id, err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		log.WithError(err).Error("Failed to delete incident in repository")
		return fmt.Errorf("service: could not delete incident: %w", err)
	}
	if err := s.repo.InvalidateIncidentCache(ctx, id); err != nil {
		log.WithError(err).Warn("Failed to invalidate incident cache")
	}

	// Deletion events carry only the bare identifier.
	s.hub.Publish(events.EventIncidentDeleted, id)

	log.Info("Incident deleted successfully")
	return nil
}

// Stats aggregates incident counts for the dashboard.
func (s *incidentService) Stats(ctx context.Context) (*IncidentStats, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "Stats",
	})

	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to count incidents by status")
		return nil, fmt.Errorf("service: could not count incidents by status: %w", err)
	}
	byType, err := s.repo.CountByType(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to count incidents by type")
		return nil, fmt.Errorf("service: could not count incidents by type: %w", err)
	}

	stats := &IncidentStats{
		StatusCounts: byStatus,
		TypeCounts:   byType,
	}
	for _, n := range byStatus {
		stats.Total += n
	}
	stats.Active = byStatus[models.StatusPending] + byStatus[models.StatusInProgress]
	return stats, nil
}

// Hotspots runs the clustering engine over a read-only snapshot from the
// repository. The engine is pure; it may run fully in parallel with any
// hub activity.
func (s *incidentService) Hotspots(ctx context.Context, params hotspot.Params) (*hotspot.Result, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "Hotspots",
	})

	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	incidents, err := s.repo.FindInBounds(ctx, params.MinLat, params.MaxLat, params.MinLng, params.MaxLng)
	if err != nil {
		log.WithError(err).Error("Failed to load incidents in bounds")
		return nil, fmt.Errorf("service: could not load incidents for hotspot analysis: %w", err)
	}

	result, err := hotspot.ComputeHotspots(incidents, params, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	log.WithFields(logrus.Fields{
		"total_considered": result.TotalIncidents,
		"hotspots":         len(result.Hotspots),
	}).Info("Hotspot analysis completed")
	return result, nil
}

// publishAlert queues a webhook alert for urgent and emergency reports.
// Delivery is best-effort; a queue failure never fails the mutation.
func (s *incidentService) publishAlert(ctx context.Context, incident *models.Incident) {
	if incident.Severity != models.SeverityUrgent && incident.Severity != models.SeverityEmergency {
		return
	}
	event := webhook.AlertEvent{
		IncidentID: incident.ID,
		Type:       incident.Type,
		Severity:   incident.Severity,
		Latitude:   incident.Latitude,
		Longitude:  incident.Longitude,
		Timestamp:  s.now(),
	}
	if err := s.alerts.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithField("incident_id", incident.ID).
			Error("Failed to queue incident alert webhook")
	}
}

func validateNewIncident(incident *models.Incident) error {
	if !models.ValidType(incident.Type) {
		return fmt.Errorf("service: unknown incident type %q: %w", incident.Type, ErrValidation)
	}
	if incident.Latitude < -90 || incident.Latitude > 90 {
		return fmt.Errorf("service: latitude out of range: %w", ErrValidation)
	}
	if incident.Longitude < -180 || incident.Longitude > 180 {
		return fmt.Errorf("service: longitude out of range: %w", ErrValidation)
	}
	if strings.TrimSpace(incident.Description) == "" {
		return fmt.Errorf("service: description must not be empty: %w", ErrValidation)
	}
	if incident.Severity != "" && !validSeverity(incident.Severity) {
		return fmt.Errorf("service: unknown severity %q: %w", incident.Severity, ErrValidation)
	}
	return nil
}

func validStatus(status string) bool {
	switch status {
	case models.StatusPending, models.StatusInProgress, models.StatusResolved:
		return true
	}
	return false
}

func validSeverity(severity string) bool {
	switch severity {
	case models.SeverityNormal, models.SeverityUrgent, models.SeverityEmergency:
		return true
	}
	return false
}

// mintEditToken creates the reporter's capability credential: unique,
// unguessable, issued exactly once per incident.
func mintEditToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
