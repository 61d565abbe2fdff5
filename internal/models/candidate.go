package models

import (
	"time"

	"github.com/google/uuid"
)

// VoteValue is a member's vote on a candidate.
type VoteValue string

const (
	VoteApprove VoteValue = "APPROVE"
	VoteVeto    VoteValue = "VETO"
)

// Valid reports whether v is APPROVE or VETO.
func (v VoteValue) Valid() bool {
	return v == VoteApprove || v == VoteVeto
}

// CandidateStatus is the lifecycle state of a nomination.
// PROMOTING is a transient state held only while credential issuance
// and member creation run; exactly one vote wins the transition into it.
type CandidateStatus string

const (
	CandidateEvaluating CandidateStatus = "EVALUATING"
	CandidatePromoting  CandidateStatus = "PROMOTING"
	CandidateApproved   CandidateStatus = "APPROVED"
	CandidateRejected   CandidateStatus = "REJECTED"
)

// Candidate is a pending nomination for club membership.
// Votes maps member ID to vote value; each member holds at most one entry.
type Candidate struct {
	ID           uuid.UUID               `json:"id"`
	NominatorID  uuid.UUID               `json:"nominator_id"`
	Name         string                  `json:"name"`
	Email        string                  `json:"email"`
	Phone        string                  `json:"phone,omitempty"`
	Company      string                  `json:"company"`
	Companies    []string                `json:"companies"`
	Role         string                  `json:"role"`
	RevenueRange string                  `json:"revenue_range,omitempty"`
	Bio          string                  `json:"bio,omitempty"`
	Votes        map[uuid.UUID]VoteValue `json:"votes"`
	Status       CandidateStatus         `json:"status"`
	CreatedAt    time.Time               `json:"created_at"`
}

// ApproveCount returns the number of APPROVE entries in the vote map.
func (c *Candidate) ApproveCount() int {
	n := 0
	for _, v := range c.Votes {
		if v == VoteApprove {
			n++
		}
	}
	return n
}
