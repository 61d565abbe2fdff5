package challenges

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/confraria/backend/internal/models"
)

// Repository handles challenge and contribution persistence. It implements
// Store: appends hold the challenge row lock so the status check, the
// insert and the counter increment are atomic per challenge.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a challenges repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const challengeColumns = `c.id, c.author_id, m.name, m.company, c.content, c.status,
	c.contact_count, c.advice_count, c.created_at`

func scanChallenge(row pgx.Row) (*models.Challenge, error) {
	var ch models.Challenge
	err := row.Scan(&ch.ID, &ch.AuthorID, &ch.AuthorName, &ch.Company, &ch.Content, &ch.Status,
		&ch.ContactCount, &ch.AdviceCount, &ch.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// Create inserts an OPEN challenge with zeroed counters.
func (r *Repository) Create(ctx context.Context, ch *models.Challenge) error {
	const q = `INSERT INTO challenges (author_id, content) VALUES ($1, $2)
		RETURNING id, status, contact_count, advice_count, created_at`
	return r.pool.QueryRow(ctx, q, ch.AuthorID, ch.Content).
		Scan(&ch.ID, &ch.Status, &ch.ContactCount, &ch.AdviceCount, &ch.CreatedAt)
}

// List returns non-deleted challenges, newest first, with contributions in
// insertion order.
func (r *Repository) List(ctx context.Context) ([]models.Challenge, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+challengeColumns+` FROM challenges c
		JOIN members m ON m.id = c.author_id
		WHERE c.status <> $1 ORDER BY c.created_at DESC`, models.ChallengeDeleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Challenge
	for rows.Next() {
		ch, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *ch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Contributions, err = r.listContributions(ctx, list[i].ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// GetByID returns a challenge with its contributions.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Challenge, error) {
	ch, err := scanChallenge(r.pool.QueryRow(ctx, `SELECT `+challengeColumns+` FROM challenges c
		JOIN members m ON m.id = c.author_id WHERE c.id = $1`, id))
	if err != nil {
		return nil, err
	}
	if ch.Contributions, err = r.listContributions(ctx, id); err != nil {
		return nil, err
	}
	return ch, nil
}

func (r *Repository) listContributions(ctx context.Context, challengeID uuid.UUID) ([]models.Contribution, error) {
	rows, err := r.pool.Query(ctx, `SELECT co.id, co.challenge_id, co.author_id, m.name, co.content, co.type, co.created_at
		FROM contributions co JOIN members m ON m.id = co.author_id
		WHERE co.challenge_id = $1 ORDER BY co.created_at, co.id`, challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Contribution
	for rows.Next() {
		var c models.Contribution
		if err := rows.Scan(&c.ID, &c.ChallengeID, &c.AuthorID, &c.AuthorName, &c.Content, &c.Type, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// Close transitions OPEN -> CLOSED. The transition is one-directional.
func (r *Repository) Close(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id,
		`UPDATE challenges SET status = $2 WHERE id = $1 AND status = $3`,
		models.ChallengeClosed, models.ChallengeOpen)
}

// SoftDelete transitions OPEN or CLOSED -> DELETED. Deleted challenges are
// excluded from listings but never removed from storage.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id,
		`UPDATE challenges SET status = $2 WHERE id = $1 AND status <> $3`,
		models.ChallengeDeleted, models.ChallengeDeleted)
}

func (r *Repository) transition(ctx context.Context, id uuid.UUID, q string, to, guard models.ChallengeStatus) error {
	tag, err := r.pool.Exec(ctx, q, id, to, guard)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM challenges WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrChallengeNotFound
		}
		return ErrChallengeNotOpen
	}
	return nil
}

// AppendContribution inserts the contribution and increments the matching
// counter in one transaction with the challenge row locked. The challenge
// must be OPEN.
func (r *Repository) AppendContribution(ctx context.Context, contribution *models.Contribution) (*models.Challenge, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var status models.ChallengeStatus
	err = tx.QueryRow(ctx, `SELECT status FROM challenges WHERE id = $1 FOR UPDATE`,
		contribution.ChallengeID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, err
	}
	if status != models.ChallengeOpen {
		return nil, ErrChallengeNotOpen
	}

	err = tx.QueryRow(ctx, `INSERT INTO contributions (challenge_id, author_id, content, type)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		contribution.ChallengeID, contribution.AuthorID, contribution.Content, string(contribution.Type)).
		Scan(&contribution.ID, &contribution.CreatedAt)
	if err != nil {
		return nil, err
	}

	counter := "advice_count"
	if contribution.Type == models.ContributionContact {
		counter = "contact_count"
	}
	var ch models.Challenge
	err = tx.QueryRow(ctx, `UPDATE challenges SET `+counter+` = `+counter+` + 1 WHERE id = $1
		RETURNING id, author_id, content, status, contact_count, advice_count, created_at`,
		contribution.ChallengeID).
		Scan(&ch.ID, &ch.AuthorID, &ch.Content, &ch.Status, &ch.ContactCount, &ch.AdviceCount, &ch.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &ch, nil
}
