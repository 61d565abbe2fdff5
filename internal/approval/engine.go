// Package approval implements the candidate approval workflow: vote
// tallying against the active-member quorum and at-most-once promotion
// of approved candidates.
package approval

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/confraria/backend/internal/auth"
	"github.com/confraria/backend/internal/models"
)

var (
	// ErrCandidateNotFound is returned when the candidate does not exist.
	ErrCandidateNotFound = errors.New("candidate not found")
	// ErrMemberNotFound is returned when the voting member does not exist.
	ErrMemberNotFound = errors.New("member not found")
	// ErrPromotionFailed is returned when the candidate crossed the quorum
	// but credential issuance or member creation failed. The candidate is
	// reverted to EVALUATING with votes intact, so the operation is
	// retryable without re-asking members to vote.
	ErrPromotionFailed = errors.New("approved but credential issuance failed")
)

// CandidateStore persists candidates and their vote maps. Implementations
// must serialize vote mutations per candidate and make BeginPromotion an
// atomic check-and-set so only one caller wins the EVALUATING -> PROMOTING
// transition.
type CandidateStore interface {
	// ToggleVote applies toggle semantics for (candidateID, memberID):
	// same value removes the entry, a different value overwrites it.
	// When the candidate is not EVALUATING the vote map is left untouched
	// and the candidate is returned as-is.
	ToggleVote(ctx context.Context, candidateID, memberID uuid.UUID, value models.VoteValue) (*models.Candidate, error)
	// BeginPromotion atomically transitions EVALUATING -> PROMOTING.
	// Returns false when the candidate was not EVALUATING (another vote
	// won the race, or the candidate is already resolved).
	BeginPromotion(ctx context.Context, candidateID uuid.UUID) (bool, error)
	// AbortPromotion reverts PROMOTING -> EVALUATING after a failed
	// promotion, leaving the vote map intact.
	AbortPromotion(ctx context.Context, candidateID uuid.UUID) error
	// CompletePromotion creates the member record from the candidate's
	// fields and marks the candidate APPROVED in a single transaction.
	CompletePromotion(ctx context.Context, candidateID, accountID uuid.UUID) (*models.Member, error)
}

// MemberDirectory supplies member identity and the active-member count.
type MemberDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	ActiveCount(ctx context.Context) (int, error)
}

// CredentialIssuer creates a login for a promoted candidate. Must be safe
// to retry for the same email without issuing duplicate accounts.
type CredentialIssuer interface {
	IssueCredential(ctx context.Context, email, displayName string) (*auth.Credential, error)
}

// Result is the outcome of a vote.
type Result struct {
	Votes        map[uuid.UUID]models.VoteValue `json:"votes"`
	Status       models.CandidateStatus         `json:"status"`
	Promoted     bool                           `json:"promoted"`
	Member       *models.Member                 `json:"member,omitempty"`
	TempPassword string                         `json:"temp_password,omitempty"`
}

// Engine decides, after every vote, whether a candidate crosses the
// approval quorum, and if so performs promotion exactly once.
type Engine struct {
	store     CandidateStore
	directory MemberDirectory
	issuer    CredentialIssuer
	threshold float64
	logger    *zap.Logger
}

// NewEngine creates an approval engine. Threshold is the fraction of
// active members whose APPROVE vote promotes a candidate.
func NewEngine(store CandidateStore, directory MemberDirectory, issuer CredentialIssuer, threshold float64, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, directory: directory, issuer: issuer, threshold: threshold, logger: logger}
}

// Threshold returns the configured approval quorum.
func (e *Engine) Threshold() float64 { return e.threshold }

// CastVote registers a vote and evaluates the approval quorum.
//
// Toggle semantics: re-casting the same value withdraws the vote; casting
// the opposite value replaces it. VETO entries are tracked but do not block
// promotion; only the APPROVE ratio is evaluated.
//
// Voting on a candidate that is no longer EVALUATING is a no-op: the
// current vote map is returned unchanged with no error.
func (e *Engine) CastVote(ctx context.Context, candidateID, memberID uuid.UUID, value models.VoteValue) (*Result, error) {
	if _, err := e.directory.GetByID(ctx, memberID); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
	}

	candidate, err := e.store.ToggleVote(ctx, candidateID, memberID, value)
	if err != nil {
		return nil, err
	}
	result := &Result{Votes: candidate.Votes, Status: candidate.Status}
	if candidate.Status != models.CandidateEvaluating {
		return result, nil
	}

	activeMembers, err := e.directory.ActiveCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("active member count: %w", err)
	}
	if activeMembers == 0 {
		return result, nil
	}
	ratio := float64(candidate.ApproveCount()) / float64(activeMembers)
	if ratio < e.threshold {
		return result, nil
	}

	member, tempPassword, err := e.promote(ctx, candidate)
	if err != nil {
		return result, err
	}
	if member == nil {
		// Lost the promotion race; the winning vote performs it.
		return result, nil
	}
	result.Promoted = true
	result.Status = models.CandidateApproved
	result.Member = member
	result.TempPassword = tempPassword
	return result, nil
}

// promote performs the EVALUATING -> PROMOTING -> APPROVED transition.
// Returns (nil, "", nil) when another caller already holds the promotion.
func (e *Engine) promote(ctx context.Context, candidate *models.Candidate) (*models.Member, string, error) {
	won, err := e.store.BeginPromotion(ctx, candidate.ID)
	if err != nil {
		return nil, "", fmt.Errorf("begin promotion: %w", err)
	}
	if !won {
		return nil, "", nil
	}

	cred, err := e.issuer.IssueCredential(ctx, candidate.Email, candidate.Name)
	if err != nil {
		e.revert(ctx, candidate.ID)
		e.logger.Error("credential issuance failed",
			zap.String("candidate_id", candidate.ID.String()), zap.Error(err))
		return nil, "", fmt.Errorf("%w: %v", ErrPromotionFailed, err)
	}

	member, err := e.store.CompletePromotion(ctx, candidate.ID, cred.AccountID)
	if err != nil {
		// The account may already exist; issuance is idempotent, so a
		// retry reissues against the same account.
		e.revert(ctx, candidate.ID)
		e.logger.Error("promotion completion failed",
			zap.String("candidate_id", candidate.ID.String()), zap.Error(err))
		return nil, "", fmt.Errorf("%w: %v", ErrPromotionFailed, err)
	}

	e.logger.Info("candidate promoted",
		zap.String("candidate_id", candidate.ID.String()),
		zap.String("member_id", member.ID.String()))
	return member, cred.TempPassword, nil
}

func (e *Engine) revert(ctx context.Context, candidateID uuid.UUID) {
	if err := e.store.AbortPromotion(ctx, candidateID); err != nil {
		e.logger.Error("abort promotion failed; candidate may be stuck in PROMOTING",
			zap.String("candidate_id", candidateID.String()), zap.Error(err))
	}
}
