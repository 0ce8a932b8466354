package repository

import (
	"context"
	"errors"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/taskboard/internal/domain"
)

// ErrStatusNotInProject is returned when a write would point a ticket at a
// status owned by another project.
var ErrStatusNotInProject = errors.New("status does not belong to the ticket project")

// TicketMutator edits a locked ticket in place. Returning recordHistory=true
// appends a history row for the resulting status in the same transaction.
// Returning an error rolls everything back.
type TicketMutator func(ticket *domain.Ticket) (recordHistory bool, err error)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	// Create inserts the ticket, its assignees and the initial history row atomically.
	Create(ctx context.Context, ticket *domain.Ticket, actorID string) (*domain.TicketHistory, error)
	// Mutate locks the ticket row, applies fn and persists the result atomically.
	Mutate(ctx context.Context, ticketID, actorID string, fn TicketMutator) (*domain.Ticket, *domain.TicketHistory, error)
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetDetails(ctx context.Context, id string) (*domain.TicketDetails, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, key, project_id, ticket_status_id, priority_id, epic_id, created_by,
               name, description, due_date, file, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket, actorID string) (*domain.TicketHistory, error) {
	const query = `
        INSERT INTO tickets (key, project_id, ticket_status_id, priority_id, epic_id, created_by, name, description, due_date, file)
        SELECT $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
        WHERE EXISTS (SELECT 1 FROM ticket_statuses WHERE id=$3 AND project_id=$2)
        RETURNING id, created_at, updated_at`

	var history *domain.TicketHistory
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query,
			ticket.Key,
			ticket.ProjectID,
			ticket.StatusID,
			ticket.PriorityID,
			ticket.EpicID,
			ticket.CreatedBy,
			ticket.Name,
			ticket.Description,
			ticket.DueDate,
			ticket.File,
		).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStatusNotInProject
		}
		if err != nil {
			return err
		}

		if err := insertAssignees(ctx, tx, ticket.ID, ticket.AssigneeIDs); err != nil {
			return err
		}

		history, err = insertHistory(ctx, tx, ticket.ID, actorID, ticket.StatusID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

func (r *ticketRepository) Mutate(ctx context.Context, ticketID, actorID string, fn TicketMutator) (*domain.Ticket, *domain.TicketHistory, error) {
	const update = `
        UPDATE tickets SET ticket_status_id=$1, priority_id=$2, epic_id=$3, name=$4, description=$5,
            due_date=$6, file=$7, updated_at=NOW()
        WHERE id=$8
          AND EXISTS (SELECT 1 FROM ticket_statuses s WHERE s.id=$1 AND s.project_id=tickets.project_id)
        RETURNING updated_at`

	var (
		result  *domain.Ticket
		history *domain.TicketHistory
	)
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := fetchTicket(ctx, tx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1 FOR UPDATE`, ticketID)
		if err != nil {
			return err
		}
		locked := *current
		previousAssignees := slices.Clone(current.AssigneeIDs)

		record, err := fn(current)
		if err != nil {
			return err
		}
		current.ID, current.ProjectID, current.CreatedBy = locked.ID, locked.ProjectID, locked.CreatedBy

		err = tx.QueryRow(ctx, update,
			current.StatusID,
			current.PriorityID,
			current.EpicID,
			current.Name,
			current.Description,
			current.DueDate,
			current.File,
			current.ID,
		).Scan(&current.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStatusNotInProject
		}
		if err != nil {
			return err
		}

		if !sameMembers(previousAssignees, current.AssigneeIDs) {
			if err := replaceAssignees(ctx, tx, current.ID, current.AssigneeIDs); err != nil {
				return err
			}
		}

		if record {
			history, err = insertHistory(ctx, tx, current.ID, actorID, current.StatusID)
			if err != nil {
				return err
			}
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return result, history, nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return fetchTicket(ctx, r.pool, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id)
}

func (r *ticketRepository) GetDetails(ctx context.Context, id string) (*domain.TicketDetails, error) {
	const query = `
        SELECT p.id, p.name, p.chat_id, p.thread_id,
               s.id, s.project_id, s.name, s.color, s.sort_order, s.created_at,
               u.id, u.name, u.email, u.chat_id,
               e.id, e.name, pr.id, pr.name, pr.color
        FROM tickets t
        JOIN projects p ON p.id = t.project_id
        JOIN ticket_statuses s ON s.id = t.ticket_status_id
        JOIN users u ON u.id = t.created_by
        LEFT JOIN epics e ON e.id = t.epic_id
        LEFT JOIN ticket_priorities pr ON pr.id = t.priority_id
        WHERE t.id=$1`

	ticket, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	details := domain.TicketDetails{Ticket: *ticket}
	var epicID, epicName *string
	var priorityID, priorityName, priorityColor *string
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&details.Project.ID,
		&details.Project.Name,
		&details.Project.ChatID,
		&details.Project.ThreadID,
		&details.Status.ID,
		&details.Status.ProjectID,
		&details.Status.Name,
		&details.Status.Color,
		&details.Status.SortOrder,
		&details.Status.CreatedAt,
		&details.Creator.ID,
		&details.Creator.Name,
		&details.Creator.Email,
		&details.Creator.ChatID,
		&epicID,
		&epicName,
		&priorityID,
		&priorityName,
		&priorityColor,
	); err != nil {
		return nil, err
	}
	if epicID != nil {
		details.Epic = &domain.Epic{ID: *epicID, ProjectID: ticket.ProjectID, Name: deref(epicName)}
	}
	if priorityID != nil {
		details.Priority = &domain.TicketPriority{ID: *priorityID, Name: deref(priorityName), Color: deref(priorityColor)}
	}

	rows, err := r.pool.Query(ctx, `
        SELECT u.id, u.name, u.email, u.chat_id
        FROM ticket_users tu JOIN users u ON u.id = tu.user_id
        WHERE tu.ticket_id=$1 ORDER BY u.name`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details.Assignees = []domain.User{}
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.ChatID); err != nil {
			return nil, err
		}
		details.Assignees = append(details.Assignees, user)
	}
	return &details, rows.Err()
}

func (r *ticketRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE project_id=$1 ORDER BY created_at ASC`, projectID)
	if err != nil {
		return nil, err
	}
	tickets, err := scanTickets(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return tickets, nil
	}

	ids := make([]string, len(tickets))
	index := make(map[string]int, len(tickets))
	for i := range tickets {
		ids[i] = tickets[i].ID
		index[tickets[i].ID] = i
	}

	assignees, err := r.pool.Query(ctx,
		`SELECT ticket_id, user_id FROM ticket_users WHERE ticket_id = ANY($1) ORDER BY user_id`, ids)
	if err != nil {
		return nil, err
	}
	defer assignees.Close()
	for assignees.Next() {
		var ticketID, userID string
		if err := assignees.Scan(&ticketID, &userID); err != nil {
			return nil, err
		}
		i := index[ticketID]
		tickets[i].AssigneeIDs = append(tickets[i].AssigneeIDs, userID)
	}
	return tickets, assignees.Err()
}

func fetchTicket(ctx context.Context, q querier, query string, id string) (*domain.Ticket, error) {
	ticket, err := scanTicket(q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	ticket.AssigneeIDs, err = loadAssigneeIDs(ctx, q, ticket.ID)
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Key,
		&ticket.ProjectID,
		&ticket.StatusID,
		&ticket.PriorityID,
		&ticket.EpicID,
		&ticket.CreatedBy,
		&ticket.Name,
		&ticket.Description,
		&ticket.DueDate,
		&ticket.File,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		ticket.AssigneeIDs = []string{}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
