package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wittawat/incident_map_system/internal/access"
	"github.com/wittawat/incident_map_system/internal/events"
	"github.com/wittawat/incident_map_system/internal/models"
)

// ListMessages returns an incident's thread, oldest first. The access
// guard applies the same rule as for posting and status updates.
func (s *incidentService) ListMessages(ctx context.Context, incidentID uuid.UUID, actor Actor) ([]*models.Message, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "ListMessages",
		"incident_id": incidentID,
	})

	incident, err := s.repo.GetByID(ctx, incidentID)
	if err != nil {
		log.WithError(err).Warn("Incident not found for message listing")
		return nil, fmt.Errorf("service: incident %s not found: %w", incidentID, err)
	}

	decision := access.Authorize(actor.OfficerChannel, actor.Roles, actor.Token, incident.EditToken)
	if !decision.Permitted {
		log.Warn("Message listing denied by access guard")
		return nil, fmt.Errorf("service: not allowed to read messages: %w", ErrForbidden)
	}

	messages, err := s.messages.ListByIncident(ctx, incidentID)
	if err != nil {
		log.WithError(err).Error("Failed to list messages from repository")
		return nil, fmt.Errorf("service: could not list messages: %w", err)
	}
	return messages, nil
}

// PostMessage appends to an incident's thread. The author tag comes from
// the guard decision, never from the client.
func (s *incidentService) PostMessage(ctx context.Context, incidentID uuid.UUID, content string, actor Actor) (*models.Message, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "PostMessage",
		"incident_id": incidentID,
	})

	incident, err := s.repo.GetByID(ctx, incidentID)
	if err != nil {
		log.WithError(err).Warn("Incident not found for message post")
		return nil, fmt.Errorf("service: incident %s not found: %w", incidentID, err)
	}

	decision := access.Authorize(actor.OfficerChannel, actor.Roles, actor.Token, incident.EditToken)
	if !decision.Permitted {
		log.Warn("Message post denied by access guard")
		return nil, fmt.Errorf("service: not allowed to post messages: %w", ErrForbidden)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("service: message content must not be empty: %w", ErrValidation)
	}

	msg := &models.Message{
		IncidentID: incidentID,
		Author:     decision.ActingAs,
		Content:    content,
		CreatedAt:  s.now(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		log.WithError(err).Error("Failed to create message in repository")
		return nil, fmt.Errorf("service: could not create message: %w", err)
	}

	s.hub.Publish(events.EventMessageCreated, msg)

	log.WithField("author", msg.Author).Info("Message posted successfully")
	return msg, nil
}

// LatestMessage returns the newest message in an incident's thread, or
// ErrNotFound for an empty thread.
func (s *incidentService) LatestMessage(ctx context.Context, incidentID uuid.UUID, actor Actor) (*models.Message, error) {
	incident, err := s.repo.GetByID(ctx, incidentID)
	if err != nil {
		return nil, fmt.Errorf("service: incident %s not found: %w", incidentID, err)
	}

	decision := access.Authorize(actor.OfficerChannel, actor.Roles, actor.Token, incident.EditToken)
	if !decision.Permitted {
		return nil, fmt.Errorf("service: not allowed to read messages: %w", ErrForbidden)
	}

	msg, err := s.messages.LatestByIncident(ctx, incidentID)
	if err != nil {
		return nil, fmt.Errorf("service: could not get latest message: %w", err)
	}
	return msg, nil
}
