package meetings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/confraria/backend/internal/models"
)

// ErrMeetingNotFound is returned when no meeting matches the given ID.
var ErrMeetingNotFound = errors.New("meeting not found")

// Repository handles meeting and term-acceptance persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a meetings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a meeting. New meetings start with no term acceptances.
func (r *Repository) Create(ctx context.Context, m *models.Meeting) error {
	const q = `INSERT INTO meetings (date, time, location, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	if err := r.pool.QueryRow(ctx, q, m.Date, m.Time, m.Location, m.Description).
		Scan(&m.ID, &m.CreatedAt); err != nil {
		return err
	}
	m.TermAcceptedBy = []uuid.UUID{}
	return nil
}

// GetByID returns a meeting with its accepted-term member set.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Meeting, error) {
	const q = `SELECT m.id, m.date, m.time, m.location, m.description, m.created_at,
			COALESCE(array_agg(a.member_id ORDER BY a.accepted_at) FILTER (WHERE a.member_id IS NOT NULL), '{}')
		FROM meetings m
		LEFT JOIN meeting_term_acceptances a ON a.meeting_id = m.id
		WHERE m.id = $1
		GROUP BY m.id`
	var m models.Meeting
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&m.ID, &m.Date, &m.Time, &m.Location, &m.Description, &m.CreatedAt, &m.TermAcceptedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMeetingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns all meetings, upcoming first, with their accepted-term member sets.
func (r *Repository) List(ctx context.Context) ([]models.Meeting, error) {
	const q = `SELECT m.id, m.date, m.time, m.location, m.description, m.created_at,
			COALESCE(array_agg(a.member_id ORDER BY a.accepted_at) FILTER (WHERE a.member_id IS NOT NULL), '{}')
		FROM meetings m
		LEFT JOIN meeting_term_acceptances a ON a.meeting_id = m.id
		GROUP BY m.id
		ORDER BY m.date DESC, m.time DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Meeting
	for rows.Next() {
		var m models.Meeting
		if err := rows.Scan(&m.ID, &m.Date, &m.Time, &m.Location, &m.Description, &m.CreatedAt, &m.TermAcceptedBy); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// AcceptTerm records that a member accepted the confidentiality term for a
// meeting. Acceptances are append-only: repeating is a no-op and there is no
// way to retract one.
func (r *Repository) AcceptTerm(ctx context.Context, meetingID, memberID uuid.UUID) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM meetings WHERE id = $1)`, meetingID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrMeetingNotFound
	}
	const q = `INSERT INTO meeting_term_acceptances (meeting_id, member_id)
		VALUES ($1, $2)
		ON CONFLICT (meeting_id, member_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, q, meetingID, memberID)
	return err
}

// Update rewrites a meeting's schedule fields. Term acceptances are kept:
// members who confirmed presence stay confirmed after a reschedule.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, date, timeOfDay, location, description string) error {
	const q = `UPDATE meetings SET date = $2, time = $3, location = $4, description = $5 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, id, date, timeOfDay, location, description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMeetingNotFound
	}
	return nil
}

// Delete removes a meeting; its term acceptances cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM meetings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMeetingNotFound
	}
	return nil
}
