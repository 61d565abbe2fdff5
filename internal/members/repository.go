package members

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/confraria/backend/internal/models"
)

// ErrMemberNotFound is returned when no member matches the lookup.
var ErrMemberNotFound = errors.New("member not found")

const memberColumns = `id, account_id, name, email, COALESCE(phone,''), company, companies,
	role, status, COALESCE(bio,''), COALESCE(revenue_range,''), COALESCE(avatar_key,''),
	created_at, updated_at`

// Repository handles member persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a members repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanMember(row pgx.Row) (*models.Member, error) {
	var m models.Member
	err := row.Scan(&m.ID, &m.AccountID, &m.Name, &m.Email, &m.Phone, &m.Company, &m.Companies,
		&m.Role, &m.Status, &m.Bio, &m.RevenueRange, &m.AvatarKey, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByID returns a member by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	return scanMember(r.pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id))
}

// GetByAccountID returns the member profile attached to an account.
func (r *Repository) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*models.Member, error) {
	return scanMember(r.pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE account_id = $1`, accountID))
}

// List returns all members ordered by name.
func (r *Repository) List(ctx context.Context) ([]models.Member, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+memberColumns+` FROM members ORDER BY name, email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *m)
	}
	return list, rows.Err()
}

// ActiveCount returns the number of ACTIVE members. Only these count
// toward the candidate approval quorum.
func (r *Repository) ActiveCount(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM members WHERE status = $1`, models.StatusActive).Scan(&n)
	return n, err
}

// CreateParams holds the profile fields for creating a member.
type CreateParams struct {
	AccountID    uuid.UUID
	Name         string
	Email        string
	Phone        string
	Company      string
	Companies    []string
	Role         models.Role
	Status       models.MemberStatus
	Bio          string
	RevenueRange string
}

// Create inserts a new member.
func (r *Repository) Create(ctx context.Context, p CreateParams) (*models.Member, error) {
	const q = `INSERT INTO members (account_id, name, email, phone, company, companies, role, status, bio, revenue_range)
		VALUES ($1, $2, LOWER($3), NULLIF($4,''), $5, $6, $7, $8, NULLIF($9,''), NULLIF($10,''))
		RETURNING ` + memberColumns
	companies := p.Companies
	if companies == nil {
		companies = []string{}
	}
	return scanMember(r.pool.QueryRow(ctx, q,
		p.AccountID, p.Name, p.Email, p.Phone, p.Company, companies,
		string(p.Role), string(p.Status), p.Bio, p.RevenueRange))
}

// UpdateParams holds mutable profile fields.
type UpdateParams struct {
	Name         string
	Phone        string
	Company      string
	Companies    []string
	Bio          string
	RevenueRange string
}

// UpdateProfile updates a member's profile fields.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, p UpdateParams) (*models.Member, error) {
	const q = `UPDATE members SET name = $2, phone = NULLIF($3,''), company = $4, companies = $5,
		bio = NULLIF($6,''), revenue_range = NULLIF($7,''), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + memberColumns
	companies := p.Companies
	if companies == nil {
		companies = []string{}
	}
	return scanMember(r.pool.QueryRow(ctx, q, id, p.Name, p.Phone, p.Company, companies, p.Bio, p.RevenueRange))
}

// SetStatus transitions a member's status (suspend / reactivate / approve pending).
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status models.MemberStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE members SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// SetRole changes a member's role.
func (r *Repository) SetRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	tag, err := r.pool.Exec(ctx, `UPDATE members SET role = $2, updated_at = NOW() WHERE id = $1`, id, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// SetAvatarKey records the S3 object key of a member's avatar.
func (r *Repository) SetAvatarKey(ctx context.Context, id uuid.UUID, key string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE members SET avatar_key = $2, updated_at = NOW() WHERE id = $1`, id, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMemberNotFound
	}
	return nil
}
