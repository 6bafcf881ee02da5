package v1

import (
	"time"

	"github.com/google/uuid"
)

// CreateIncidentRequest is the payload for reporting a new incident.
// @Description payload for reporting a new incident
type CreateIncidentRequest struct {
	Type            string  `json:"type" validate:"required,oneof=accident medical conflict fire help other"`
	Description     string  `json:"description" validate:"required"`
	Latitude        float64 `json:"latitude" validate:"required,latitude"`
	Longitude       float64 `json:"longitude" validate:"required,longitude"`
	Reporter        string  `json:"reporter,omitempty"`
	ReporterContact string  `json:"reporter_contact,omitempty"`
	Severity        string  `json:"severity,omitempty" validate:"omitempty,oneof=normal urgent emergency"`
	ImageURL        string  `json:"image_url,omitempty"`
}

// UpdateStatusRequest is the payload for a triage status change.
// @Description payload for a triage status change
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in-progress resolved"`
	Notes  string `json:"notes,omitempty"`
}

// PostMessageRequest is the payload for a chat message.
// @Description payload for a chat message
type PostMessageRequest struct {
	Content string `json:"content" validate:"required"`
}

// HotspotsRequest carries optional clustering overrides; omitted fields
// use the documented defaults. Pointers distinguish "absent" from an
// explicit zero, which is rejected for cellSize.
// @Description optional clustering parameter overrides
type HotspotsRequest struct {
	MinLat    *float64 `json:"minLat,omitempty"`
	MaxLat    *float64 `json:"maxLat,omitempty"`
	MinLng    *float64 `json:"minLng,omitempty"`
	MaxLng    *float64 `json:"maxLng,omitempty"`
	SinceDays *int     `json:"sinceDays,omitempty"`
	CellSize  *float64 `json:"cellSize,omitempty"`
	MinCount  *int     `json:"minCount,omitempty"`
}

// ClassifyRequest is free text to pre-classify.
// @Description free text to pre-classify
type ClassifyRequest struct {
	Text string `json:"text"`
}

// IncidentResponse is the public view of an incident. The edit token is
// never included here; it is returned exactly once at creation.
// @Description public view of an incident
type IncidentResponse struct {
	ID              uuid.UUID `json:"id"`
	Type            string    `json:"type"`
	Description     string    `json:"description"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	Reporter        string    `json:"reporter,omitempty"`
	ReporterContact string    `json:"reporter_contact,omitempty"`
	Status          string    `json:"status"`
	Severity        string    `json:"severity"`
	OfficerNotes    string    `json:"officer_notes,omitempty"`
	ImageURL        string    `json:"image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateIncidentResponse wraps the created incident together with its
// one-time edit token.
// @Description created incident plus its one-time edit token
type CreateIncidentResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Incident  *IncidentResponse `json:"incident"`
	EditToken string            `json:"editToken"`
}

// MessageResponse is one chat message in an incident thread.
// @Description one chat message in an incident thread
type MessageResponse struct {
	ID         uuid.UUID `json:"id"`
	IncidentID uuid.UUID `json:"incident_id"`
	Author     string    `json:"author"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
