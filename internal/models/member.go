package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a member's role in the club.
type Role string

const (
	RoleMaster      Role = "MASTER"
	RoleAdmin       Role = "ADMIN"
	RoleParticipant Role = "PARTICIPANT"
)

// Valid reports whether r is one of the closed set of roles.
func (r Role) Valid() bool {
	switch r {
	case RoleMaster, RoleAdmin, RoleParticipant:
		return true
	}
	return false
}

// MemberStatus represents a member's standing in the club.
type MemberStatus string

const (
	StatusActive          MemberStatus = "ACTIVE"
	StatusPendingApproval MemberStatus = "PENDING_APPROVAL"
	StatusSuspended       MemberStatus = "SUSPENDED"
)

// Member is a club member. Only ACTIVE members count toward the
// candidate approval quorum.
type Member struct {
	ID           uuid.UUID    `json:"id"`
	AccountID    uuid.UUID    `json:"account_id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Phone        string       `json:"phone,omitempty"`
	Company      string       `json:"company"`
	Companies    []string     `json:"companies"`
	Role         Role         `json:"role"`
	Status       MemberStatus `json:"status"`
	Bio          string       `json:"bio,omitempty"`
	RevenueRange string       `json:"revenue_range,omitempty"`
	AvatarKey    string       `json:"-"`
	AvatarURL    string       `json:"avatar_url,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
