package models

import (
	"time"

	"github.com/google/uuid"
)

// Closed set of incident types reporters can choose from.
const (
	TypeAccident = "accident"
	TypeMedical  = "medical"
	TypeConflict = "conflict"
	TypeFire     = "fire"
	TypeHelp     = "help"
	TypeOther    = "other"
)

// Incident statuses. StatusPending is the initial state.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusResolved   = "resolved"
)

// Severity levels. SeverityNormal is the default.
const (
	SeverityNormal    = "normal"
	SeverityUrgent    = "urgent"
	SeverityEmergency = "emergency"
)

type Incident struct {
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
	// EditToken is the reporter's capability credential, minted once at
	// creation. It is never serialized in regular responses.
	EditToken string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidType reports whether t belongs to the closed incident-type set.
func ValidType(t string) bool {
	switch t {
	case TypeAccident, TypeMedical, TypeConflict, TypeFire, TypeHelp, TypeOther:
		return true
	}
	return false
}

// IsActive reports whether the incident still needs officer attention.
func (i *Incident) IsActive() bool {
	return i.Status == StatusPending || i.Status == StatusInProgress
}
