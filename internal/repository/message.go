package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wittawat/incident_map_system/internal/models"
	"github.com/wittawat/incident_map_system/internal/service"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) service.MessageRepository {
	return &MessageRepository{db: db}
}

// Create appends a message to an incident's thread.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (incident_id, author, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id;
	`
	err := r.db.QueryRow(ctx, query,
		msg.IncidentID,
		msg.Author,
		msg.Content,
		msg.CreatedAt,
	).Scan(&msg.ID)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListByIncident returns the thread oldest first.
func (r *MessageRepository) ListByIncident(ctx context.Context, incidentID uuid.UUID) ([]*models.Message, error) {
	query := `
		SELECT id, incident_id, author, content, created_at
		FROM messages
		WHERE incident_id = $1
		ORDER BY created_at ASC;
	`
	rows, err := r.db.Query(ctx, query, incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.Message, 0)
	for rows.Next() {
		msg := &models.Message{}
		if err := rows.Scan(&msg.ID, &msg.IncidentID, &msg.Author, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error in message iteration: %w", err)
	}
	return messages, nil
}

// LatestByIncident returns the newest message of the thread.
func (r *MessageRepository) LatestByIncident(ctx context.Context, incidentID uuid.UUID) (*models.Message, error) {
	query := `
		SELECT id, incident_id, author, content, created_at
		FROM messages
		WHERE incident_id = $1
		ORDER BY created_at DESC
		LIMIT 1;
	`
	msg := &models.Message{}
	err := r.db.QueryRow(ctx, query, incidentID).Scan(&msg.ID, &msg.IncidentID, &msg.Author, &msg.Content, &msg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("no messages for incident %s: %w", incidentID, service.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get latest message: %w", err)
	}
	return msg, nil
}
