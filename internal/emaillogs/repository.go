package emaillogs

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/confraria/backend/internal/models"
)

// Repository handles email_logs persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record inserts an email log entry. Status is "sent" or "failed"; errMsg is
// empty on success.
func (r *Repository) Record(ctx context.Context, emailType, recipient, subject, status, errMsg string) error {
	const q = `INSERT INTO email_logs (email_type, recipient, subject, status, error)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))`
	_, err := r.pool.Exec(ctx, q, emailType, recipient, subject, status, errMsg)
	return err
}

// List returns email logs, newest first.
func (r *Repository) List(ctx context.Context, limit int) ([]*models.EmailLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	const q = `SELECT id, email_type, recipient, subject, status, COALESCE(error, ''), created_at
		FROM email_logs
		ORDER BY created_at DESC
		LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.EmailLog
	for rows.Next() {
		var el models.EmailLog
		if err := rows.Scan(&el.ID, &el.EmailType, &el.Recipient, &el.Subject, &el.Status, &el.Error, &el.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &el)
	}
	return list, rows.Err()
}
