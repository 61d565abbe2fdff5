package candidates

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/confraria/backend/internal/approval"
	"github.com/confraria/backend/internal/models"
)

const candidateColumns = `id, nominator_id, name, email, COALESCE(phone,''), company, companies,
	role, COALESCE(revenue_range,''), COALESCE(bio,''), status, created_at`

// Repository handles candidate persistence. It implements
// approval.CandidateStore: vote mutations take a row lock on the candidate
// so concurrent votes are serialized, and the EVALUATING -> PROMOTING
// transition is a conditional single-row update.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a candidates repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanCandidate(row pgx.Row) (*models.Candidate, error) {
	var c models.Candidate
	err := row.Scan(&c.ID, &c.NominatorID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Companies,
		&c.Role, &c.RevenueRange, &c.Bio, &c.Status, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, approval.ErrCandidateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a nomination in EVALUATING status with an empty vote map.
func (r *Repository) Create(ctx context.Context, c *models.Candidate) error {
	const q = `INSERT INTO candidates (nominator_id, name, email, phone, company, companies, role, revenue_range, bio)
		VALUES ($1, $2, LOWER($3), NULLIF($4,''), $5, $6, $7, NULLIF($8,''), NULLIF($9,''))
		RETURNING id, status, created_at`
	companies := c.Companies
	if companies == nil {
		companies = []string{}
	}
	err := r.pool.QueryRow(ctx, q, c.NominatorID, c.Name, c.Email, c.Phone, c.Company, companies,
		c.Role, c.RevenueRange, c.Bio).Scan(&c.ID, &c.Status, &c.CreatedAt)
	if err != nil {
		return err
	}
	c.Votes = make(map[uuid.UUID]models.VoteValue)
	return nil
}

// GetByID returns a candidate with its vote map.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Candidate, error) {
	c, err := scanCandidate(r.pool.QueryRow(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if c.Votes, err = r.loadVotes(ctx, r.pool, id); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns all pending (EVALUATING) candidates with vote maps, oldest first.
func (r *Repository) List(ctx context.Context) ([]models.Candidate, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+candidateColumns+` FROM candidates
		WHERE status = $1 ORDER BY created_at`, models.CandidateEvaluating)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Votes, err = r.loadVotes(ctx, r.pool, list[i].ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *Repository) loadVotes(ctx context.Context, q querier, candidateID uuid.UUID) (map[uuid.UUID]models.VoteValue, error) {
	rows, err := q.Query(ctx, `SELECT member_id, vote FROM candidate_votes WHERE candidate_id = $1`, candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	votes := make(map[uuid.UUID]models.VoteValue)
	for rows.Next() {
		var memberID uuid.UUID
		var vote models.VoteValue
		if err := rows.Scan(&memberID, &vote); err != nil {
			return nil, err
		}
		votes[memberID] = vote
	}
	return votes, rows.Err()
}

// ToggleVote applies toggle vote semantics inside a transaction holding the
// candidate's row lock. Votes on a non-EVALUATING candidate leave the map
// untouched.
func (r *Repository) ToggleVote(ctx context.Context, candidateID, memberID uuid.UUID, value models.VoteValue) (*models.Candidate, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	c, err := scanCandidate(tx.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1 FOR UPDATE`, candidateID))
	if err != nil {
		return nil, err
	}

	if c.Status == models.CandidateEvaluating {
		var existing models.VoteValue
		err := tx.QueryRow(ctx,
			`SELECT vote FROM candidate_votes WHERE candidate_id = $1 AND member_id = $2`,
			candidateID, memberID).Scan(&existing)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			_, err = tx.Exec(ctx,
				`INSERT INTO candidate_votes (candidate_id, member_id, vote) VALUES ($1, $2, $3)`,
				candidateID, memberID, string(value))
		case err != nil:
			return nil, err
		case existing == value:
			_, err = tx.Exec(ctx,
				`DELETE FROM candidate_votes WHERE candidate_id = $1 AND member_id = $2`,
				candidateID, memberID)
		default:
			_, err = tx.Exec(ctx,
				`UPDATE candidate_votes SET vote = $3, cast_at = NOW() WHERE candidate_id = $1 AND member_id = $2`,
				candidateID, memberID, string(value))
		}
		if err != nil {
			return nil, fmt.Errorf("toggle vote: %w", err)
		}
	}

	if c.Votes, err = r.loadVotes(ctx, tx, candidateID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// BeginPromotion atomically transitions EVALUATING -> PROMOTING. Only the
// caller that wins this check-and-set performs the promotion.
func (r *Repository) BeginPromotion(ctx context.Context, candidateID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE candidates SET status = $2 WHERE id = $1 AND status = $3`,
		candidateID, models.CandidatePromoting, models.CandidateEvaluating)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// AbortPromotion reverts PROMOTING -> EVALUATING, preserving the vote map.
func (r *Repository) AbortPromotion(ctx context.Context, candidateID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE candidates SET status = $2 WHERE id = $1 AND status = $3`,
		candidateID, models.CandidateEvaluating, models.CandidatePromoting)
	return err
}

// CompletePromotion creates the member record from the candidate's fields
// and marks the candidate APPROVED in one transaction, so both changes are
// durably visible together or not at all.
func (r *Repository) CompletePromotion(ctx context.Context, candidateID, accountID uuid.UUID) (*models.Member, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	c, err := scanCandidate(tx.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1 AND status = $2 FOR UPDATE`,
		candidateID, models.CandidatePromoting))
	if err != nil {
		return nil, err
	}

	const insertMember = `INSERT INTO members (account_id, name, email, phone, company, companies, role, status, bio, revenue_range)
		VALUES ($1, $2, LOWER($3), NULLIF($4,''), $5, $6, $7, $8, NULLIF($9,''), NULLIF($10,''))
		RETURNING id, account_id, name, email, COALESCE(phone,''), company, companies,
			role, status, COALESCE(bio,''), COALESCE(revenue_range,''), COALESCE(avatar_key,''),
			created_at, updated_at`
	var m models.Member
	err = tx.QueryRow(ctx, insertMember,
		accountID, c.Name, c.Email, c.Phone, c.Company, c.Companies,
		string(models.RoleParticipant), string(models.StatusActive), c.Bio, c.RevenueRange).
		Scan(&m.ID, &m.AccountID, &m.Name, &m.Email, &m.Phone, &m.Company, &m.Companies,
			&m.Role, &m.Status, &m.Bio, &m.RevenueRange, &m.AvatarKey, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE candidates SET status = $2 WHERE id = $1`,
		candidateID, models.CandidateApproved); err != nil {
		return nil, fmt.Errorf("approve candidate: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &m, nil
}

// Reject flips an EVALUATING candidate to REJECTED. Returns
// ErrCandidateNotFound when the candidate does not exist or is already
// resolved.
func (r *Repository) Reject(ctx context.Context, candidateID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE candidates SET status = $2 WHERE id = $1 AND status = $3`,
		candidateID, models.CandidateRejected, models.CandidateEvaluating)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return approval.ErrCandidateNotFound
	}
	return nil
}
