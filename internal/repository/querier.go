package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so read helpers can
// run inside or outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func loadAssigneeIDs(ctx context.Context, q querier, ticketID string) ([]string, error) {
	rows, err := q.Query(ctx, `SELECT user_id FROM ticket_users WHERE ticket_id=$1 ORDER BY user_id`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func replaceAssignees(ctx context.Context, q querier, ticketID string, userIDs []string) error {
	if _, err := q.Exec(ctx, `DELETE FROM ticket_users WHERE ticket_id=$1`, ticketID); err != nil {
		return err
	}
	return insertAssignees(ctx, q, ticketID, userIDs)
}

func insertAssignees(ctx context.Context, q querier, ticketID string, userIDs []string) error {
	for _, userID := range userIDs {
		if _, err := q.Exec(ctx,
			`INSERT INTO ticket_users (ticket_id, user_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
			ticketID, userID,
		); err != nil {
			return err
		}
	}
	return nil
}
