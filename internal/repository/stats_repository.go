package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/taskboard/internal/domain"
)

// StatsRepository aggregates dashboard counters.
type StatsRepository interface {
	// Overview counts tickets in every project when scopeUserID is nil, or in the
	// projects the user belongs to otherwise. Personal counters are always for userID.
	Overview(ctx context.Context, userID string, scopeUserID *string, now time.Time) (*domain.Stats, error)
}

type statsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository builds repository.
func NewStatsRepository(pool *pgxpool.Pool) StatsRepository {
	return &statsRepository{pool: pool}
}

func (r *statsRepository) Overview(ctx context.Context, userID string, scopeUserID *string, now time.Time) (*domain.Stats, error) {
	const query = `
        WITH scoped AS (
            SELECT t.id, t.created_by, t.due_date, t.created_at, t.updated_at, s.name AS status_name
            FROM tickets t
            JOIN ticket_statuses s ON s.id = t.ticket_status_id
            WHERE $1::uuid IS NULL
               OR t.project_id IN (SELECT project_id FROM project_members WHERE user_id = $1::uuid)
        ),
        mine AS (
            SELECT sc.* FROM scoped sc JOIN ticket_users tu ON tu.ticket_id = sc.id AND tu.user_id = $2::uuid
        )
        SELECT
            (SELECT COUNT(*) FROM projects p
                WHERE $1::uuid IS NULL
                   OR p.id IN (SELECT project_id FROM project_members WHERE user_id = $1::uuid)),
            (SELECT COUNT(*) FROM scoped),
            (SELECT COUNT(*) FROM scoped WHERE created_at >= $3),
            (SELECT COUNT(*) FROM scoped sc
                WHERE NOT EXISTS (SELECT 1 FROM ticket_users tu WHERE tu.ticket_id = sc.id)),
            (SELECT COUNT(*) FROM scoped WHERE due_date < $4::date AND status_name <> ALL($5)),
            (SELECT COUNT(*) FROM mine),
            (SELECT COUNT(*) FROM scoped WHERE created_by = $2::uuid),
            (SELECT COUNT(*) FROM mine WHERE due_date < $4::date AND status_name <> ALL($5)),
            (SELECT COUNT(*) FROM mine WHERE updated_at >= $3 AND status_name = ANY($5)),
            (SELECT COUNT(*) FROM users)`

	var stats domain.Stats
	if err := r.pool.QueryRow(ctx, query,
		scopeUserID,
		userID,
		startOfWeek(now),
		now,
		domain.DoneStatusNames,
	).Scan(
		&stats.Projects,
		&stats.Tickets,
		&stats.NewThisWeek,
		&stats.Unassigned,
		&stats.Overdue,
		&stats.MyAssigned,
		&stats.MyCreated,
		&stats.MyOverdue,
		&stats.MyCompletedInWeek,
		&stats.Users,
	); err != nil {
		return nil, err
	}
	return &stats, nil
}

// startOfWeek returns Monday 00:00 of the week containing t.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
