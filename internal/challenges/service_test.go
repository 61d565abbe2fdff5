package challenges

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confraria/backend/internal/models"
)

// fakeChallengeStore mirrors the repository's atomicity guarantees in memory.
type fakeChallengeStore struct {
	mu         sync.Mutex
	challenges map[uuid.UUID]*models.Challenge
}

func newFakeChallengeStore() *fakeChallengeStore {
	return &fakeChallengeStore{challenges: make(map[uuid.UUID]*models.Challenge)}
}

func (s *fakeChallengeStore) add(status models.ChallengeStatus) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.challenges[id] = &models.Challenge{ID: id, Status: status}
	return id
}

func (s *fakeChallengeStore) close(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[id].Status = models.ChallengeClosed
}

func (s *fakeChallengeStore) AppendContribution(_ context.Context, contribution *models.Contribution) (*models.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.challenges[contribution.ChallengeID]
	if !ok {
		return nil, ErrChallengeNotFound
	}
	if ch.Status != models.ChallengeOpen {
		return nil, ErrChallengeNotOpen
	}
	contribution.ID = uuid.New()
	ch.Contributions = append(ch.Contributions, *contribution)
	if contribution.Type == models.ContributionContact {
		ch.ContactCount++
	} else {
		ch.AdviceCount++
	}
	snapshot := *ch
	return &snapshot, nil
}

func (s *fakeChallengeStore) counts(id uuid.UUID) (contact, advice int, contributions []models.Contribution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := s.challenges[id]
	return ch.ContactCount, ch.AdviceCount, ch.Contributions
}

func assertCounterInvariant(t *testing.T, store *fakeChallengeStore, id uuid.UUID) {
	t.Helper()
	contact, advice, contributions := store.counts(id)
	gotContact, gotAdvice := 0, 0
	for _, c := range contributions {
		if c.Type == models.ContributionContact {
			gotContact++
		} else {
			gotAdvice++
		}
	}
	assert.Equal(t, gotContact, contact, "contactCount matches type-filtered count")
	assert.Equal(t, gotAdvice, advice, "adviceCount matches type-filtered count")
	assert.Equal(t, len(contributions), contact+advice)
}

func TestRecordContribution_ClassifiesAndCounts(t *testing.T) {
	store := newFakeChallengeStore()
	svc := NewService(store, NewClassifier(5))
	ctx := context.Background()
	id := store.add(models.ChallengeOpen)
	author := uuid.New()

	contribution, challenge, err := svc.RecordContribution(ctx, id, author, "reach me at jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.ContributionContact, contribution.Type)
	assert.Equal(t, 1, challenge.ContactCount)
	assert.Equal(t, 0, challenge.AdviceCount)

	contribution, challenge, err = svc.RecordContribution(ctx, id, author, "Talk to their CFO first, budget is tight")
	require.NoError(t, err)
	assert.Equal(t, models.ContributionAdvice, contribution.Type)
	assert.Equal(t, 1, challenge.ContactCount)
	assert.Equal(t, 1, challenge.AdviceCount)

	assertCounterInvariant(t, store, id)
}

func TestRecordContribution_InsertionOrderPreserved(t *testing.T) {
	store := newFakeChallengeStore()
	svc := NewService(store, NewClassifier(5))
	ctx := context.Background()
	id := store.add(models.ChallengeOpen)
	author := uuid.New()

	texts := []string{
		"first piece of advice here",
		"second: call 99999-8888",
		"third piece of advice here",
	}
	for _, text := range texts {
		_, _, err := svc.RecordContribution(ctx, id, author, text)
		require.NoError(t, err)
	}

	_, _, contributions := store.counts(id)
	require.Len(t, contributions, 3)
	for i, text := range texts {
		assert.Equal(t, text, contributions[i].Content)
	}
}

func TestRecordContribution_ArbitrarySequenceWithClosure(t *testing.T) {
	store := newFakeChallengeStore()
	svc := NewService(store, NewClassifier(5))
	ctx := context.Background()
	id := store.add(models.ChallengeOpen)
	author := uuid.New()

	for i := 0; i < 20; i++ {
		text := fmt.Sprintf("advice number %d for you", i)
		if i%3 == 0 {
			text = fmt.Sprintf("call me on 9999%d-8888", i%10)
		}
		_, _, err := svc.RecordContribution(ctx, id, author, text)
		require.NoError(t, err)
		assertCounterInvariant(t, store, id)
	}

	store.close(id)
	_, _, err := svc.RecordContribution(ctx, id, author, "too late but still advice")
	assert.ErrorIs(t, err, ErrChallengeNotOpen)
	assertCounterInvariant(t, store, id)
}

func TestRecordContribution_ClosedChallengeCountersUnchanged(t *testing.T) {
	store := newFakeChallengeStore()
	svc := NewService(store, NewClassifier(5))
	id := store.add(models.ChallengeClosed)

	_, _, err := svc.RecordContribution(context.Background(), id, uuid.New(), "some good advice")
	assert.ErrorIs(t, err, ErrChallengeNotOpen)

	contact, advice, contributions := store.counts(id)
	assert.Zero(t, contact)
	assert.Zero(t, advice)
	assert.Empty(t, contributions)
}

func TestRecordContribution_UndeterminedWithheld(t *testing.T) {
	store := newFakeChallengeStore()
	svc := NewService(store, NewClassifier(5))
	id := store.add(models.ChallengeOpen)

	_, _, err := svc.RecordContribution(context.Background(), id, uuid.New(), "ok")
	assert.ErrorIs(t, err, ErrUndetermined)

	contact, advice, contributions := store.counts(id)
	assert.Zero(t, contact+advice)
	assert.Empty(t, contributions)
}

func TestRecordContribution_UnknownChallenge(t *testing.T) {
	store := newFakeChallengeStore()
	svc := NewService(store, NewClassifier(5))

	_, _, err := svc.RecordContribution(context.Background(), uuid.New(), uuid.New(), "some good advice")
	assert.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestRecordContribution_ConcurrentContributionsDoNotLoseUpdates(t *testing.T) {
	store := newFakeChallengeStore()
	svc := NewService(store, NewClassifier(5))
	ctx := context.Background()
	id := store.add(models.ChallengeOpen)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := fmt.Sprintf("concurrent advice %d", i)
			if i%2 == 0 {
				text = "ping 99999-8888"
			}
			_, _, err := svc.RecordContribution(ctx, id, uuid.New(), text)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	contact, advice, contributions := store.counts(id)
	assert.Equal(t, 50, contact+advice)
	assert.Equal(t, 25, contact)
	assert.Equal(t, 25, advice)
	assert.Len(t, contributions, 50)
	assertCounterInvariant(t, store, id)
}
