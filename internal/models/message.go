package models

import (
	"time"

	"github.com/google/uuid"
)

// Message author tags. The tag is derived from the authorization outcome
// at write time, never taken from the client.
const (
	AuthorReporter = "REPORTER"
	AuthorOfficer  = "OFFICER"
)

// Message is one entry in an incident's chat thread. Messages are
// append-only; this system never mutates or deletes them.
type Message struct {
	ID         uuid.UUID `json:"id"`
	IncidentID uuid.UUID `json:"incident_id"`
	Author     string    `json:"author"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
