package models

import (
	"time"

	"github.com/google/uuid"
)

// ChallengeStatus is the lifecycle state of a challenge.
// Transitions are one-directional: OPEN -> CLOSED, OPEN|CLOSED -> DELETED.
type ChallengeStatus string

const (
	ChallengeOpen    ChallengeStatus = "OPEN"
	ChallengeClosed  ChallengeStatus = "CLOSED"
	ChallengeDeleted ChallengeStatus = "DELETED"
)

// ContributionType tags a contribution as a contact referral or advice.
type ContributionType string

const (
	ContributionContact ContributionType = "CONTACT"
	ContributionAdvice  ContributionType = "ADVICE"
)

// Challenge is a member-authored request for help from the community.
// ContactCount and AdviceCount always equal the number of contributions
// of the respective type.
type Challenge struct {
	ID            uuid.UUID       `json:"id"`
	AuthorID      uuid.UUID       `json:"author_id"`
	AuthorName    string          `json:"author_name"`
	Company       string          `json:"company"`
	Content       string          `json:"content"`
	Status        ChallengeStatus `json:"status"`
	ContactCount  int             `json:"contact_count"`
	AdviceCount   int             `json:"advice_count"`
	Contributions []Contribution  `json:"contributions,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Contribution is an immutable tagged response attached to a challenge.
type Contribution struct {
	ID          uuid.UUID        `json:"id"`
	ChallengeID uuid.UUID        `json:"challenge_id"`
	AuthorID    uuid.UUID        `json:"author_id"`
	AuthorName  string           `json:"author_name"`
	Content     string           `json:"content"`
	Type        ContributionType `json:"type"`
	CreatedAt   time.Time        `json:"created_at"`
}
