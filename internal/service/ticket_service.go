package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/taskboard/internal/auth"
	"github.com/spec-kit/taskboard/internal/domain"
	"github.com/spec-kit/taskboard/internal/events"
	"github.com/spec-kit/taskboard/internal/lock"
	"github.com/spec-kit/taskboard/internal/observability"
	"github.com/spec-kit/taskboard/internal/repository"
	"github.com/spec-kit/taskboard/internal/workflow"
	apperrors "github.com/spec-kit/taskboard/pkg/util/errorutil"
)

// Transition paths, used for metrics and events.
const (
	PathEdit  = "edit"
	PathBoard = "board"
)

const defaultStatusColor = "#3490dc"

// TicketService is the ticket state engine: create, edit and status transitions.
type TicketService struct {
	tickets     repository.TicketRepository
	projects    repository.ProjectRepository
	history     repository.TicketHistoryRepository
	assignments *AssignmentService
	authority   auth.Authority
	policy      *workflow.Policy
	locker      lock.Locker
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger

	enforceBoardPermission bool
	now                    func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	ProjectRepo repository.ProjectRepository
	HistoryRepo repository.TicketHistoryRepository
	Assignments *AssignmentService
	Authority   auth.Authority
	Policy      *workflow.Policy
	Locker      lock.Locker
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger

	// EnforceBoardPermission applies CanAct to board moves.
	EnforceBoardPermission bool
}

// CreateTicketInput describes ticket creation payload. A nil StatusID selects
// the project's first status.
type CreateTicketInput struct {
	ProjectID   string
	StatusID    *string
	EpicID      *string
	PriorityID  *string
	Name        string
	Description string
	DueDate     *time.Time
	File        *string
	AssigneeIDs []string
}

// UpdateTicketInput describes an edit. Nil fields are left unchanged; the
// Clear flags unset optional relations.
type UpdateTicketInput struct {
	Name          *string
	Description   *string
	StatusID      *string
	EpicID        *string
	ClearEpic     bool
	PriorityID    *string
	ClearPriority bool
	DueDate       *time.Time
	ClearDueDate  bool
	File          *string
	AssigneeIDs   *[]string
}

// TransitionOptions tune a status move.
type TransitionOptions struct {
	Path string
	// ProjectID, when set, must match the ticket's project.
	ProjectID      string
	SkipPermission bool
}

// WriteResult is a committed ticket plus any warnings for the caller.
type WriteResult struct {
	Ticket   *domain.Ticket
	History  *domain.TicketHistory
	Warnings []ValidationWarning
}

// TicketView is a ticket with resolved relations and its status trail.
type TicketView struct {
	Details domain.TicketDetails
	History []domain.TicketHistory
}

// BoardColumn is one status with the tickets currently in it.
type BoardColumn struct {
	Status  domain.TicketStatus
	Tickets []domain.Ticket
}

// Board is a project's tickets grouped by status in sort order.
type Board struct {
	Project domain.Project
	Columns []BoardColumn
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	locker := deps.Locker
	if locker == nil {
		locker = lock.NewMemoryLocker()
	}
	policy := deps.Policy
	if policy == nil {
		policy = workflow.Unconstrained()
	}
	return &TicketService{
		tickets:                deps.TicketRepo,
		projects:               deps.ProjectRepo,
		history:                deps.HistoryRepo,
		assignments:            deps.Assignments,
		authority:              deps.Authority,
		policy:                 policy,
		locker:                 locker,
		dispatcher:             deps.Dispatcher,
		metrics:                deps.Metrics,
		logger:                 logger,
		enforceBoardPermission: deps.EnforceBoardPermission,
		now:                    time.Now,
	}
}

// Create creates a ticket in a project the actor belongs to.
func (s *TicketService) Create(ctx context.Context, actor *domain.User, input CreateTicketInput) (*WriteResult, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}

	project, err := s.projects.GetByID(ctx, input.ProjectID)
	if err != nil {
		return nil, apperrors.MapError(err, "project", map[string]any{"project_id": input.ProjectID})
	}
	if !s.authority.IsProjectMember(actor, project) {
		return nil, apperrors.NewPermissionDenied("not a member of this project", map[string]any{"project_id": project.ID})
	}

	statusID, err := s.resolveInitialStatus(ctx, project.ID, input.StatusID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEpic(ctx, project.ID, input.EpicID); err != nil {
		return nil, err
	}
	if err := s.checkPriority(ctx, input.PriorityID); err != nil {
		return nil, err
	}

	assignees, warnings, err := s.assignments.ResolveForCreate(ctx, actor, project.ID, input.AssigneeIDs)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Key:         generateTicketKey(),
		ProjectID:   project.ID,
		StatusID:    statusID,
		PriorityID:  input.PriorityID,
		EpicID:      input.EpicID,
		CreatedBy:   actor.ID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		DueDate:     input.DueDate,
		File:        input.File,
		AssigneeIDs: assignees,
	}
	history, err := s.tickets.Create(ctx, ticket, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrStatusNotInProject) {
			return nil, apperrors.NewInvalidStatusForProject(statusID, project.ID)
		}
		return nil, apperrors.MapError(err, "ticket", nil)
	}

	s.publishTicketEvent(ctx, events.EventTicketCreated, actor, ticket.ID, nil)
	return &WriteResult{Ticket: ticket, History: history, Warnings: warnings}, nil
}

// Update edits a ticket. The actor must be able to act on it.
func (s *TicketService) Update(ctx context.Context, actor *domain.User, ticketID string, input UpdateTicketInput) (*WriteResult, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, apperrors.NewValidationError("name cannot be empty", map[string]any{"field": "name"})
	}

	current, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	if !s.authority.CanAct(actor, current) {
		return nil, permissionDenied(ticketID)
	}

	if input.StatusID != nil {
		if _, err := s.statusInProject(ctx, *input.StatusID, current.ProjectID); err != nil {
			return nil, err
		}
	}
	if !input.ClearEpic {
		if err := s.checkEpic(ctx, current.ProjectID, input.EpicID); err != nil {
			return nil, err
		}
	}
	if !input.ClearPriority {
		if err := s.checkPriority(ctx, input.PriorityID); err != nil {
			return nil, err
		}
	}

	var assignees []string
	warnings := []ValidationWarning{}
	if input.AssigneeIDs != nil {
		assignees, warnings, err = s.assignments.ResolveForEdit(ctx, current.ProjectID, *input.AssigneeIDs)
		if err != nil {
			return nil, err
		}
	}

	var fromStatusID string
	ticket, history, err := s.mutateLocked(ctx, actor, ticketID, func(t *domain.Ticket) (bool, error) {
		if !s.authority.CanAct(actor, t) {
			return false, permissionDenied(t.ID)
		}
		fromStatusID = t.StatusID
		statusChanged := input.StatusID != nil && *input.StatusID != t.StatusID
		if statusChanged && !s.policy.Allows(t.ProjectID, t.StatusID, *input.StatusID) {
			return false, apperrors.NewTransitionNotAllowed(t.StatusID, *input.StatusID)
		}

		applyUpdate(t, input, assignees)
		return statusChanged, nil
	})
	if err != nil {
		return nil, err
	}
	if history != nil {
		s.metrics.RecordTransition(PathEdit)
		s.logger.Info("ticket status changed",
			zap.String("ticket_id", ticket.ID),
			zap.String("from_status_id", fromStatusID),
			zap.String("to_status_id", ticket.StatusID),
			zap.String("path", PathEdit),
		)
	}

	s.publishTicketEvent(ctx, events.EventTicketUpdated, actor, ticket.ID, nil)
	return &WriteResult{Ticket: ticket, History: history, Warnings: warnings}, nil
}

// Transition moves a ticket to statusID and appends one history row, atomically.
func (s *TicketService) Transition(ctx context.Context, actor *domain.User, ticketID, statusID string, opts TransitionOptions) (*WriteResult, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if opts.Path == "" {
		opts.Path = PathEdit
	}

	status, err := s.projects.GetStatus(ctx, statusID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewInvalidStatusForProject(statusID, opts.ProjectID)
		}
		return nil, apperrors.MapError(err, "status", nil)
	}

	var from string
	ticket, history, err := s.mutateLocked(ctx, actor, ticketID, func(t *domain.Ticket) (bool, error) {
		if opts.ProjectID != "" && t.ProjectID != opts.ProjectID {
			return false, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": t.ID, "project_id": opts.ProjectID})
		}
		if status.ProjectID != t.ProjectID {
			return false, apperrors.NewInvalidStatusForProject(status.ID, t.ProjectID)
		}
		if !opts.SkipPermission && !s.authority.CanAct(actor, t) {
			return false, permissionDenied(t.ID)
		}
		if !s.policy.Allows(t.ProjectID, t.StatusID, status.ID) {
			return false, apperrors.NewTransitionNotAllowed(t.StatusID, status.ID)
		}
		from = t.StatusID
		t.StatusID = status.ID
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(opts.Path)
	s.logger.Info("ticket status changed",
		zap.String("ticket_id", ticket.ID),
		zap.String("from_status_id", from),
		zap.String("to_status_id", ticket.StatusID),
		zap.String("path", opts.Path),
		zap.String("actor_id", actor.ID),
	)

	s.publishTicketEvent(ctx, events.EventTicketStatusChanged, actor, ticket.ID, &statusChange{from: from, path: opts.Path})
	return &WriteResult{Ticket: ticket, History: history, Warnings: []ValidationWarning{}}, nil
}

// MoveOnBoard is the drag-and-drop path. The ticket must belong to projectID.
func (s *TicketService) MoveOnBoard(ctx context.Context, actor *domain.User, projectID, ticketID, statusID string) (*WriteResult, error) {
	return s.Transition(ctx, actor, ticketID, statusID, TransitionOptions{
		Path:           PathBoard,
		ProjectID:      projectID,
		SkipPermission: !s.enforceBoardPermission,
	})
}

// Get returns a ticket with relations and history if the actor may view it.
func (s *TicketService) Get(ctx context.Context, actor *domain.User, ticketID string) (*TicketView, error) {
	details, err := s.loadViewable(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	history, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err, "ticket history", nil)
	}
	return &TicketView{Details: *details, History: history}, nil
}

// History lists the status trail of a ticket, oldest first.
func (s *TicketService) History(ctx context.Context, actor *domain.User, ticketID string) ([]domain.TicketHistory, error) {
	if _, err := s.loadViewable(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	history, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err, "ticket history", nil)
	}
	return history, nil
}

// Board returns the project's tickets grouped by status.
func (s *TicketService) Board(ctx context.Context, actor *domain.User, projectID string) (*Board, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, apperrors.MapError(err, "project", map[string]any{"project_id": projectID})
	}
	if !s.authority.IsProjectMember(actor, project) {
		return nil, apperrors.NewPermissionDenied("not a member of this project", map[string]any{"project_id": projectID})
	}

	statuses, err := s.projects.ListStatuses(ctx, projectID)
	if err != nil {
		return nil, apperrors.MapError(err, "statuses", nil)
	}
	tickets, err := s.tickets.ListByProject(ctx, projectID)
	if err != nil {
		return nil, apperrors.MapError(err, "tickets", nil)
	}

	board := &Board{Project: *project, Columns: make([]BoardColumn, len(statuses))}
	index := make(map[string]int, len(statuses))
	for i, status := range statuses {
		board.Columns[i] = BoardColumn{Status: status, Tickets: []domain.Ticket{}}
		index[status.ID] = i
	}
	for _, ticket := range tickets {
		if i, ok := index[ticket.StatusID]; ok {
			board.Columns[i].Tickets = append(board.Columns[i].Tickets, ticket)
		}
	}
	return board, nil
}

// CreateStatus adds a board column. Only super admins may configure statuses.
// A nil sortOrder places the column after the current last one.
func (s *TicketService) CreateStatus(ctx context.Context, actor *domain.User, projectID, name, color string, sortOrder *int) (*domain.TicketStatus, error) {
	if !actor.IsSuperAdmin() {
		return nil, apperrors.NewPermissionDenied("only administrators can manage statuses", nil)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	if sortOrder != nil && *sortOrder < 0 {
		return nil, apperrors.NewValidationError("sort_order must not be negative", map[string]any{"field": "sort_order"})
	}
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, apperrors.MapError(err, "project", map[string]any{"project_id": projectID})
	}
	if color == "" {
		color = defaultStatusColor
	}

	status := &domain.TicketStatus{ProjectID: projectID, Name: name, Color: color}
	if sortOrder != nil {
		status.SortOrder = *sortOrder
	}
	if err := s.projects.CreateStatus(ctx, status, sortOrder == nil); err != nil {
		return nil, apperrors.MapError(err, "status", nil)
	}
	return status, nil
}

func (s *TicketService) mutateLocked(ctx context.Context, actor *domain.User, ticketID string, fn repository.TicketMutator) (*domain.Ticket, *domain.TicketHistory, error) {
	release, err := s.locker.Lock(ctx, lock.TicketKey(ticketID))
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	defer release()

	ticket, history, err := s.tickets.Mutate(ctx, ticketID, actor.ID, fn)
	if err != nil {
		if errors.Is(err, repository.ErrStatusNotInProject) {
			return nil, nil, apperrors.NewDomainError(apperrors.CodeInvalidStatusForProject,
				"status does not belong to project", http.StatusUnprocessableEntity, map[string]any{"ticket_id": ticketID})
		}
		return nil, nil, apperrors.MapError(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, history, nil
}

func (s *TicketService) loadViewable(ctx context.Context, actor *domain.User, ticketID string) (*domain.TicketDetails, error) {
	details, err := s.tickets.GetDetails(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	project, err := s.projects.GetByID(ctx, details.Ticket.ProjectID)
	if err != nil {
		return nil, apperrors.MapError(err, "project", nil)
	}
	if !s.authority.CanView(actor, &details.Ticket, project) {
		return nil, permissionDenied(ticketID)
	}
	details.Project = *project
	return details, nil
}

func (s *TicketService) resolveInitialStatus(ctx context.Context, projectID string, statusID *string) (string, error) {
	if statusID != nil && *statusID != "" {
		status, err := s.statusInProject(ctx, *statusID, projectID)
		if err != nil {
			return "", err
		}
		return status.ID, nil
	}

	statuses, err := s.projects.ListStatuses(ctx, projectID)
	if err != nil {
		return "", apperrors.MapError(err, "statuses", nil)
	}
	if len(statuses) == 0 {
		return "", apperrors.NewValidationError("project has no statuses", map[string]any{"project_id": projectID})
	}
	return statuses[0].ID, nil
}

func (s *TicketService) statusInProject(ctx context.Context, statusID, projectID string) (*domain.TicketStatus, error) {
	status, err := s.projects.GetStatus(ctx, statusID)
	if apperrors.IsNotFound(err) || (err == nil && status.ProjectID != projectID) {
		return nil, apperrors.NewInvalidStatusForProject(statusID, projectID)
	}
	if err != nil {
		return nil, apperrors.MapError(err, "status", nil)
	}
	return status, nil
}

func (s *TicketService) checkEpic(ctx context.Context, projectID string, epicID *string) error {
	if epicID == nil {
		return nil
	}
	epic, err := s.projects.GetEpic(ctx, *epicID)
	if apperrors.IsNotFound(err) || (err == nil && epic.ProjectID != projectID) {
		return apperrors.NewValidationError("epic does not belong to project", map[string]any{"epic_id": *epicID})
	}
	if err != nil {
		return apperrors.MapError(err, "epic", nil)
	}
	return nil
}

func (s *TicketService) checkPriority(ctx context.Context, priorityID *string) error {
	if priorityID == nil {
		return nil
	}
	_, err := s.projects.GetPriority(ctx, *priorityID)
	if apperrors.IsNotFound(err) {
		return apperrors.NewValidationError("unknown priority", map[string]any{"priority_id": *priorityID})
	}
	if err != nil {
		return apperrors.MapError(err, "priority", nil)
	}
	return nil
}

func applyUpdate(t *domain.Ticket, input UpdateTicketInput, assignees []string) {
	if input.Name != nil {
		t.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		t.Description = strings.TrimSpace(*input.Description)
	}
	if input.StatusID != nil {
		t.StatusID = *input.StatusID
	}
	switch {
	case input.ClearEpic:
		t.EpicID = nil
	case input.EpicID != nil:
		t.EpicID = input.EpicID
	}
	switch {
	case input.ClearPriority:
		t.PriorityID = nil
	case input.PriorityID != nil:
		t.PriorityID = input.PriorityID
	}
	switch {
	case input.ClearDueDate:
		t.DueDate = nil
	case input.DueDate != nil:
		t.DueDate = input.DueDate
	}
	if input.File != nil {
		t.File = input.File
	}
	if input.AssigneeIDs != nil {
		t.AssigneeIDs = assignees
	}
}

type statusChange struct {
	from string
	path string
}

// publishTicketEvent loads the committed snapshot and publishes it. The write
// already succeeded, so failures here are only logged, and a cancelled request
// no longer stops the notification.
func (s *TicketService) publishTicketEvent(ctx context.Context, eventType events.EventType, actor *domain.User, ticketID string, change *statusChange) {
	if s.dispatcher == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	details, err := s.tickets.GetDetails(ctx, ticketID)
	if err != nil {
		s.logger.Warn("load ticket snapshot for event", zap.String("ticket_id", ticketID), zap.Error(err))
		return
	}

	var payload any = events.TicketPayload{Details: *details, Actor: *actor}
	if change != nil {
		payload = events.TicketStatusChangedPayload{
			Details:      *details,
			Actor:        *actor,
			FromStatusID: change.from,
			Path:         change.path,
		}
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		ActorID:   actor.ID,
		Timestamp: s.now(),
		Payload:   payload,
	})
}

func permissionDenied(ticketID string) error {
	return apperrors.NewPermissionDenied("only the creator, an assignee or an administrator can change this ticket",
		map[string]any{"ticket_id": ticketID})
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
