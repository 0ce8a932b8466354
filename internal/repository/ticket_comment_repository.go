package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/taskboard/internal/domain"
)

// TicketCommentRepository manages ticket discussion entries.
type TicketCommentRepository interface {
	Create(ctx context.Context, comment *domain.TicketComment) error
	Update(ctx context.Context, comment *domain.TicketComment) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.TicketComment, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketComment, error)
}

type ticketCommentRepository struct {
	pool *pgxpool.Pool
}

// NewTicketCommentRepository builds repository.
func NewTicketCommentRepository(pool *pgxpool.Pool) TicketCommentRepository {
	return &ticketCommentRepository{pool: pool}
}

func (r *ticketCommentRepository) Create(ctx context.Context, comment *domain.TicketComment) error {
	const query = `
        INSERT INTO ticket_comments (ticket_id, user_id, body)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.UserID,
		comment.Body,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
}

func (r *ticketCommentRepository) Update(ctx context.Context, comment *domain.TicketComment) error {
	return r.pool.QueryRow(ctx,
		`UPDATE ticket_comments SET body=$1, updated_at=NOW() WHERE id=$2 RETURNING updated_at`,
		comment.Body, comment.ID,
	).Scan(&comment.UpdatedAt)
}

func (r *ticketCommentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM ticket_comments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketCommentRepository) GetByID(ctx context.Context, id string) (*domain.TicketComment, error) {
	const query = `
        SELECT id, ticket_id, user_id, body, created_at, updated_at
        FROM ticket_comments WHERE id=$1`
	return scanComment(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketCommentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketComment, error) {
	const query = `
        SELECT id, ticket_id, user_id, body, created_at, updated_at
        FROM ticket_comments WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.TicketComment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *comment)
	}
	return result, rows.Err()
}

func scanComment(row pgx.Row) (*domain.TicketComment, error) {
	var comment domain.TicketComment
	if err := row.Scan(
		&comment.ID,
		&comment.TicketID,
		&comment.UserID,
		&comment.Body,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &comment, nil
}
