package challenges

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/confraria/backend/internal/models"
)

var (
	// ErrChallengeNotFound is returned when the challenge does not exist.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrChallengeNotOpen is returned when a contribution targets a
	// CLOSED or DELETED challenge.
	ErrChallengeNotOpen = errors.New("challenge is not open for contributions")
	// ErrUndetermined is returned when the text is too short to classify.
	ErrUndetermined = errors.New("contribution too short to classify")
)

// Store persists challenges and contributions. AppendContribution must
// perform the open-status check, the append and the counter increment
// atomically per challenge so concurrent contributions never lose updates.
type Store interface {
	AppendContribution(ctx context.Context, contribution *models.Contribution) (*models.Challenge, error)
}

// Service records contributions: classify, append, count.
type Service struct {
	store      Store
	classifier Classifier
}

// NewService creates a contribution recording service.
func NewService(store Store, classifier Classifier) *Service {
	return &Service{store: store, classifier: classifier}
}

// Classify exposes the pure classification rule.
func (s *Service) Classify(text string) (models.ContributionType, bool) {
	return s.classifier.Classify(text)
}

// RecordContribution classifies text and appends an immutable contribution
// to the challenge, incrementing exactly the matching counter. The
// challenge must be OPEN. Returns the updated challenge.
func (s *Service) RecordContribution(ctx context.Context, challengeID, authorID uuid.UUID, text string) (*models.Contribution, *models.Challenge, error) {
	tag, ok := s.classifier.Classify(text)
	if !ok {
		return nil, nil, ErrUndetermined
	}
	contribution := &models.Contribution{
		ChallengeID: challengeID,
		AuthorID:    authorID,
		Content:     text,
		Type:        tag,
	}
	challenge, err := s.store.AppendContribution(ctx, contribution)
	if err != nil {
		return nil, nil, fmt.Errorf("append contribution: %w", err)
	}
	return contribution, challenge, nil
}
