package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAccountNotFound is returned when no account matches the lookup.
var ErrAccountNotFound = errors.New("account not found")

// Account is a login credential record, separate from the member profile.
type Account struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
}

// Repository handles account persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByEmail returns an account by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	const q = `SELECT id, email, password_hash FROM accounts WHERE LOWER(email) = LOWER($1)`
	var a Account
	err := r.pool.QueryRow(ctx, q, email).Scan(&a.ID, &a.Email, &a.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Upsert inserts an account or, when the email already exists, resets its
// password hash and returns the existing account ID. Retrying credential
// issuance for the same candidate therefore never creates a duplicate.
func (r *Repository) Upsert(ctx context.Context, email, passwordHash string) (uuid.UUID, error) {
	const q = `INSERT INTO accounts (email, password_hash) VALUES (LOWER($1), $2)
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, updated_at = NOW()
		RETURNING id`
	var id uuid.UUID
	if err := r.pool.QueryRow(ctx, q, email, passwordHash).Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// UpdatePassword sets a new password hash for an account.
func (r *Repository) UpdatePassword(ctx context.Context, accountID uuid.UUID, passwordHash string) error {
	const q = `UPDATE accounts SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, accountID, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}
