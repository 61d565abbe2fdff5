package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailLog records a transactional email attempt.
type EmailLog struct {
	ID        uuid.UUID `json:"id"`
	EmailType string    `json:"email_type"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Status    string    `json:"status"` // pending, sent, failed
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
