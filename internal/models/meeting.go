package models

import (
	"time"

	"github.com/google/uuid"
)

// Meeting is a scheduled club meeting. TermAcceptedBy is the append-only
// set of members who accepted the confidentiality term; acceptance doubles
// as RSVP.
type Meeting struct {
	ID             uuid.UUID   `json:"id"`
	Date           string      `json:"date"` // YYYY-MM-DD
	Time           string      `json:"time"` // HH:MM
	Location       string      `json:"location"`
	Description    string      `json:"description"`
	TermAcceptedBy []uuid.UUID `json:"term_accepted_by"`
	CreatedAt      time.Time   `json:"created_at"`
}
