package stats

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Engagement points per activity.
const (
	pointsPerMeeting      = 100
	pointsPerChallenge    = 50
	pointsPerContribution = 30
)

// MemberStats summarizes one member's activity.
type MemberStats struct {
	Challenges     int `json:"challenges"`
	Contributions  int `json:"contributions"`
	AttendanceRate int `json:"attendance"` // percent of meetings attended, rounded
}

// LeaderboardEntry is one row of the engagement ranking.
type LeaderboardEntry struct {
	MemberID uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Points   int       `json:"points"`
}

// Repository computes activity aggregates straight from SQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a stats repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// MemberStats returns challenge, contribution and attendance aggregates for
// one member. Soft-deleted challenges do not count.
func (r *Repository) MemberStats(ctx context.Context, memberID uuid.UUID) (*MemberStats, error) {
	const q = `SELECT
			(SELECT COUNT(*) FROM challenges WHERE author_id = $1 AND status <> 'DELETED'),
			(SELECT COUNT(*) FROM contributions WHERE author_id = $1),
			(SELECT COUNT(*) FROM meetings),
			(SELECT COUNT(*) FROM meeting_term_acceptances WHERE member_id = $1)`
	var challenges, contributions, totalMeetings, attended int
	if err := r.pool.QueryRow(ctx, q, memberID).
		Scan(&challenges, &contributions, &totalMeetings, &attended); err != nil {
		return nil, err
	}
	rate := 0
	if totalMeetings > 0 {
		rate = int(math.Round(float64(attended) / float64(totalMeetings) * 100))
	}
	return &MemberStats{
		Challenges:     challenges,
		Contributions:  contributions,
		AttendanceRate: rate,
	}, nil
}

// Leaderboard ranks members by engagement points: meetings attended weigh
// 100, challenges created 50, contributions 30.
func (r *Repository) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	const q = `SELECT m.id, m.name,
			COALESCE(att.n, 0) * $1 + COALESCE(ch.n, 0) * $2 + COALESCE(co.n, 0) * $3 AS points
		FROM members m
		LEFT JOIN (SELECT member_id, COUNT(*) AS n FROM meeting_term_acceptances GROUP BY member_id) att ON att.member_id = m.id
		LEFT JOIN (SELECT author_id, COUNT(*) AS n FROM challenges WHERE status <> 'DELETED' GROUP BY author_id) ch ON ch.author_id = m.id
		LEFT JOIN (SELECT author_id, COUNT(*) AS n FROM contributions GROUP BY author_id) co ON co.author_id = m.id
		ORDER BY points DESC, m.name`
	rows, err := r.pool.Query(ctx, q, pointsPerMeeting, pointsPerChallenge, pointsPerContribution)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.MemberID, &e.Name, &e.Points); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
