package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/taskboard/internal/domain"
)

// ProjectRepository exposes projects with their members, statuses and epics.
type ProjectRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	ListMemberIDs(ctx context.Context, projectID string) ([]string, error)
	ListStatuses(ctx context.Context, projectID string) ([]domain.TicketStatus, error)
	GetStatus(ctx context.Context, id string) (*domain.TicketStatus, error)
	CreateStatus(ctx context.Context, status *domain.TicketStatus, appendLast bool) error
	GetEpic(ctx context.Context, id string) (*domain.Epic, error)
	GetPriority(ctx context.Context, id string) (*domain.TicketPriority, error)
}

type projectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository builds repository.
func NewProjectRepository(pool *pgxpool.Pool) ProjectRepository {
	return &projectRepository{pool: pool}
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	const query = `
        SELECT id, name, chat_id, thread_id, created_at, updated_at
        FROM projects WHERE id=$1`

	var project domain.Project
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&project.ID,
		&project.Name,
		&project.ChatID,
		&project.ThreadID,
		&project.CreatedAt,
		&project.UpdatedAt,
	); err != nil {
		return nil, err
	}

	members, err := r.ListMemberIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	project.Members = members
	return &project, nil
}

// ListMemberIDs always hits the database so callers see the current membership.
func (r *projectRepository) ListMemberIDs(ctx context.Context, projectID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id FROM project_members WHERE project_id=$1 ORDER BY user_id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

func (r *projectRepository) ListStatuses(ctx context.Context, projectID string) ([]domain.TicketStatus, error) {
	const query = `
        SELECT id, project_id, name, color, sort_order, created_at
        FROM ticket_statuses WHERE project_id=$1 ORDER BY sort_order ASC, created_at ASC`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statuses := []domain.TicketStatus{}
	for rows.Next() {
		status, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, *status)
	}
	return statuses, rows.Err()
}

func (r *projectRepository) GetStatus(ctx context.Context, id string) (*domain.TicketStatus, error) {
	const query = `
        SELECT id, project_id, name, color, sort_order, created_at
        FROM ticket_statuses WHERE id=$1`
	return scanStatus(r.pool.QueryRow(ctx, query, id))
}

// CreateStatus inserts the status. With appendLast the sort order becomes one
// past the project's current maximum (0 for the first column) and
// status.SortOrder is ignored.
func (r *projectRepository) CreateStatus(ctx context.Context, status *domain.TicketStatus, appendLast bool) error {
	const query = `
        INSERT INTO ticket_statuses (project_id, name, color, sort_order)
        VALUES ($1, $2, $3, CASE WHEN $5::boolean
            THEN (SELECT COALESCE(MAX(sort_order) + 1, 0) FROM ticket_statuses WHERE project_id=$1)
            ELSE $4::integer END)
        RETURNING id, sort_order, created_at`
	return r.pool.QueryRow(ctx, query,
		status.ProjectID,
		status.Name,
		status.Color,
		status.SortOrder,
		appendLast,
	).Scan(&status.ID, &status.SortOrder, &status.CreatedAt)
}

func (r *projectRepository) GetEpic(ctx context.Context, id string) (*domain.Epic, error) {
	var epic domain.Epic
	if err := r.pool.QueryRow(ctx, `SELECT id, project_id, name FROM epics WHERE id=$1`, id).Scan(
		&epic.ID,
		&epic.ProjectID,
		&epic.Name,
	); err != nil {
		return nil, err
	}
	return &epic, nil
}

func (r *projectRepository) GetPriority(ctx context.Context, id string) (*domain.TicketPriority, error) {
	var priority domain.TicketPriority
	if err := r.pool.QueryRow(ctx, `SELECT id, name, color FROM ticket_priorities WHERE id=$1`, id).Scan(
		&priority.ID,
		&priority.Name,
		&priority.Color,
	); err != nil {
		return nil, err
	}
	return &priority, nil
}

func scanStatus(row pgx.Row) (*domain.TicketStatus, error) {
	var status domain.TicketStatus
	if err := row.Scan(
		&status.ID,
		&status.ProjectID,
		&status.Name,
		&status.Color,
		&status.SortOrder,
		&status.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &status, nil
}
