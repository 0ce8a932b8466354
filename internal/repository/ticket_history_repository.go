package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/taskboard/internal/domain"
)

// TicketHistoryRepository reads the status audit trail. Rows are only ever
// written by TicketRepository inside its transactions.
type TicketHistoryRepository interface {
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{pool: pool}
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	const query = `
        SELECT id, ticket_id, user_id, ticket_status_id, created_at
        FROM ticket_histories WHERE ticket_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.TicketHistory{}
	for rows.Next() {
		var history domain.TicketHistory
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&history.UserID,
			&history.TicketStatusID,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}

func insertHistory(ctx context.Context, q querier, ticketID, userID, statusID string) (*domain.TicketHistory, error) {
	history := &domain.TicketHistory{
		TicketID:       ticketID,
		UserID:         userID,
		TicketStatusID: statusID,
	}
	err := q.QueryRow(ctx, `
        INSERT INTO ticket_histories (ticket_id, user_id, ticket_status_id)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`,
		ticketID, userID, statusID,
	).Scan(&history.ID, &history.CreatedAt)
	if err != nil {
		return nil, err
	}
	return history, nil
}
