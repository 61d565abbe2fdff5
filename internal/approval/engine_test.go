package approval

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/confraria/backend/internal/auth"
	"github.com/confraria/backend/internal/models"
)

// fakeStore is an in-memory CandidateStore with the same serialization
// guarantees the SQL implementation provides.
type fakeStore struct {
	mu          sync.Mutex
	candidate   *models.Candidate
	completed   int
	completeErr error
}

func newFakeStore(c *models.Candidate) *fakeStore {
	if c.Votes == nil {
		c.Votes = make(map[uuid.UUID]models.VoteValue)
	}
	return &fakeStore{candidate: c}
}

func (s *fakeStore) ToggleVote(_ context.Context, candidateID, memberID uuid.UUID, value models.VoteValue) (*models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.candidate == nil || s.candidate.ID != candidateID {
		return nil, ErrCandidateNotFound
	}
	if s.candidate.Status == models.CandidateEvaluating {
		if s.candidate.Votes[memberID] == value {
			delete(s.candidate.Votes, memberID)
		} else {
			s.candidate.Votes[memberID] = value
		}
	}
	return s.snapshot(), nil
}

func (s *fakeStore) BeginPromotion(_ context.Context, candidateID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.candidate == nil || s.candidate.ID != candidateID {
		return false, ErrCandidateNotFound
	}
	if s.candidate.Status != models.CandidateEvaluating {
		return false, nil
	}
	s.candidate.Status = models.CandidatePromoting
	return true, nil
}

func (s *fakeStore) AbortPromotion(_ context.Context, candidateID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.candidate == nil || s.candidate.ID != candidateID {
		return ErrCandidateNotFound
	}
	if s.candidate.Status == models.CandidatePromoting {
		s.candidate.Status = models.CandidateEvaluating
	}
	return nil
}

func (s *fakeStore) CompletePromotion(_ context.Context, candidateID, accountID uuid.UUID) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completeErr != nil {
		return nil, s.completeErr
	}
	if s.candidate == nil || s.candidate.ID != candidateID {
		return nil, ErrCandidateNotFound
	}
	s.candidate.Status = models.CandidateApproved
	s.completed++
	return &models.Member{
		ID:        uuid.New(),
		AccountID: accountID,
		Name:      s.candidate.Name,
		Email:     s.candidate.Email,
		Role:      models.RoleParticipant,
		Status:    models.StatusActive,
	}, nil
}

func (s *fakeStore) snapshot() *models.Candidate {
	c := *s.candidate
	c.Votes = make(map[uuid.UUID]models.VoteValue, len(s.candidate.Votes))
	for k, v := range s.candidate.Votes {
		c.Votes[k] = v
	}
	return &c
}

type fakeDirectory struct {
	members map[uuid.UUID]*models.Member
	active  int
}

func (d *fakeDirectory) GetByID(_ context.Context, id uuid.UUID) (*models.Member, error) {
	if m, ok := d.members[id]; ok {
		return m, nil
	}
	return nil, errors.New("not found")
}

func (d *fakeDirectory) ActiveCount(_ context.Context) (int, error) {
	return d.active, nil
}

type fakeIssuer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (i *fakeIssuer) IssueCredential(_ context.Context, email, _ string) (*auth.Credential, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.calls++
	if i.err != nil {
		return nil, i.err
	}
	return &auth.Credential{AccountID: uuid.New(), TempPassword: "w3lcome1Aa1!"}, nil
}

func fixture(active int) (*Engine, *fakeStore, *fakeDirectory, *fakeIssuer, *models.Candidate, []uuid.UUID) {
	voters := make([]uuid.UUID, active)
	dir := &fakeDirectory{members: make(map[uuid.UUID]*models.Member), active: active}
	for i := range voters {
		voters[i] = uuid.New()
		dir.members[voters[i]] = &models.Member{ID: voters[i], Status: models.StatusActive}
	}
	candidate := &models.Candidate{
		ID:     uuid.New(),
		Name:   "Jane Prospect",
		Email:  "jane@example.com",
		Status: models.CandidateEvaluating,
	}
	store := newFakeStore(candidate)
	issuer := &fakeIssuer{}
	engine := NewEngine(store, dir, issuer, 0.6, zap.NewNop())
	return engine, store, dir, issuer, candidate, voters
}

func TestCastVote_ToggleSemantics(t *testing.T) {
	engine, _, _, _, candidate, voters := fixture(10)
	ctx := context.Background()
	voter := voters[0]

	res, err := engine.CastVote(ctx, candidate.ID, voter, models.VoteApprove)
	require.NoError(t, err)
	assert.Equal(t, models.VoteApprove, res.Votes[voter])

	// Opposite value overwrites.
	res, err = engine.CastVote(ctx, candidate.ID, voter, models.VoteVeto)
	require.NoError(t, err)
	assert.Equal(t, models.VoteVeto, res.Votes[voter])
	assert.Len(t, res.Votes, 1, "a member holds at most one vote entry")

	// Same value toggles off (abstain).
	res, err = engine.CastVote(ctx, candidate.ID, voter, models.VoteVeto)
	require.NoError(t, err)
	assert.NotContains(t, res.Votes, voter)
	assert.Empty(t, res.Votes)
}

func TestCastVote_UnknownCandidate(t *testing.T) {
	engine, _, _, _, _, voters := fixture(5)
	_, err := engine.CastVote(context.Background(), uuid.New(), voters[0], models.VoteApprove)
	assert.ErrorIs(t, err, ErrCandidateNotFound)
}

func TestCastVote_UnknownMember(t *testing.T) {
	engine, _, _, _, candidate, _ := fixture(5)
	_, err := engine.CastVote(context.Background(), candidate.ID, uuid.New(), models.VoteApprove)
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestCastVote_QuorumScenario(t *testing.T) {
	// 5 active members, threshold 0.6: two APPROVEs (0.4) must not
	// promote, the third (0.6) must.
	engine, store, _, issuer, candidate, voters := fixture(5)
	ctx := context.Background()

	res, err := engine.CastVote(ctx, candidate.ID, voters[0], models.VoteApprove)
	require.NoError(t, err)
	assert.False(t, res.Promoted)

	res, err = engine.CastVote(ctx, candidate.ID, voters[1], models.VoteApprove)
	require.NoError(t, err)
	assert.False(t, res.Promoted)
	assert.Equal(t, 0, issuer.calls)

	res, err = engine.CastVote(ctx, candidate.ID, voters[2], models.VoteApprove)
	require.NoError(t, err)
	assert.True(t, res.Promoted)
	assert.Equal(t, models.CandidateApproved, res.Status)
	require.NotNil(t, res.Member)
	assert.Equal(t, models.RoleParticipant, res.Member.Role)
	assert.Equal(t, models.StatusActive, res.Member.Status)
	assert.Equal(t, "jane@example.com", res.Member.Email)
	assert.NotEmpty(t, res.TempPassword)
	assert.Equal(t, 1, issuer.calls)
	assert.Equal(t, 1, store.completed)
}

func TestCastVote_VetoDoesNotBlock(t *testing.T) {
	// VETO entries never count toward approval but do not block it either:
	// 3 APPROVEs promote even with 2 VETOs on record.
	engine, _, _, _, candidate, voters := fixture(5)
	ctx := context.Background()

	for _, v := range voters[3:] {
		_, err := engine.CastVote(ctx, candidate.ID, v, models.VoteVeto)
		require.NoError(t, err)
	}
	for i, v := range voters[:3] {
		res, err := engine.CastVote(ctx, candidate.ID, v, models.VoteApprove)
		require.NoError(t, err)
		assert.Equal(t, i == 2, res.Promoted)
	}
}

func TestCastVote_NoActiveMembers(t *testing.T) {
	engine, _, dir, issuer, candidate, voters := fixture(1)
	dir.active = 0

	res, err := engine.CastVote(context.Background(), candidate.ID, voters[0], models.VoteApprove)
	require.NoError(t, err)
	assert.False(t, res.Promoted)
	assert.Equal(t, 0, issuer.calls)
}

func TestCastVote_ResolvedCandidateIsNoOp(t *testing.T) {
	engine, store, _, _, candidate, voters := fixture(5)
	store.candidate.Status = models.CandidateApproved
	store.candidate.Votes[voters[1]] = models.VoteApprove

	res, err := engine.CastVote(context.Background(), candidate.ID, voters[0], models.VoteApprove)
	require.NoError(t, err)
	assert.Equal(t, models.CandidateApproved, res.Status)
	assert.False(t, res.Promoted)
	assert.NotContains(t, res.Votes, voters[0], "vote map unchanged for resolved candidate")
}

func TestCastVote_PromotionAtMostOnceUnderConcurrency(t *testing.T) {
	// Pre-load votes one short of quorum, then race many crossing votes.
	engine, store, _, issuer, candidate, voters := fixture(10)
	ctx := context.Background()
	for _, v := range voters[:5] {
		_, err := engine.CastVote(ctx, candidate.ID, v, models.VoteApprove)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for _, v := range voters[5:] {
		wg.Add(1)
		go func(voter uuid.UUID) {
			defer wg.Done()
			_, _ = engine.CastVote(ctx, candidate.ID, voter, models.VoteApprove)
		}(v)
	}
	wg.Wait()

	assert.Equal(t, 1, issuer.calls, "credential issued exactly once")
	assert.Equal(t, 1, store.completed, "promotion completed exactly once")
	assert.Equal(t, models.CandidateApproved, store.candidate.Status)
}

func TestCastVote_IssuanceFailureIsRetryable(t *testing.T) {
	engine, store, _, issuer, candidate, voters := fixture(5)
	ctx := context.Background()
	issuer.err = errors.New("identity provider down")

	for _, v := range voters[:2] {
		_, err := engine.CastVote(ctx, candidate.ID, v, models.VoteApprove)
		require.NoError(t, err)
	}

	res, err := engine.CastVote(ctx, candidate.ID, voters[2], models.VoteApprove)
	require.ErrorIs(t, err, ErrPromotionFailed)
	assert.Len(t, res.Votes, 3, "vote map preserved on issuance failure")
	assert.Equal(t, models.CandidateEvaluating, store.candidate.Status, "candidate reverted for retry")
	assert.Equal(t, 0, store.completed)

	// Issuer recovers; toggling a vote off and on re-crosses the quorum.
	issuer.err = nil
	_, err = engine.CastVote(ctx, candidate.ID, voters[2], models.VoteApprove) // toggle off
	require.NoError(t, err)
	res, err = engine.CastVote(ctx, candidate.ID, voters[2], models.VoteApprove)
	require.NoError(t, err)
	assert.True(t, res.Promoted)
	assert.Equal(t, 1, store.completed)
}

func TestCastVote_CompletionFailureReverts(t *testing.T) {
	engine, store, _, _, candidate, voters := fixture(5)
	ctx := context.Background()
	store.completeErr = errors.New("db write failed")

	for _, v := range voters[:2] {
		_, err := engine.CastVote(ctx, candidate.ID, v, models.VoteApprove)
		require.NoError(t, err)
	}
	_, err := engine.CastVote(ctx, candidate.ID, voters[2], models.VoteApprove)
	require.ErrorIs(t, err, ErrPromotionFailed)
	assert.Equal(t, models.CandidateEvaluating, store.candidate.Status)
	assert.Equal(t, 0, store.completed)
}
