package handlers

import (
	"time"

	"github.com/spec-kit/taskboard/internal/api/dto"
	"github.com/spec-kit/taskboard/internal/domain"
	"github.com/spec-kit/taskboard/internal/service"
	apperrors "github.com/spec-kit/taskboard/pkg/util/errorutil"
)

func userResponse(user *domain.User) dto.UserResponse {
	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, string(r))
	}
	return dto.UserResponse{ID: user.ID, Name: user.Name, Email: user.Email, Roles: roles, ChatID: user.ChatID}
}

func ticketResponse(t *domain.Ticket) dto.TicketResponse {
	assignees := t.AssigneeIDs
	if assignees == nil {
		assignees = []string{}
	}
	var due *string
	if t.DueDate != nil {
		s := t.DueDate.Format(dto.DueDateLayout)
		due = &s
	}
	return dto.TicketResponse{
		ID:          t.ID,
		Key:         t.Key,
		ProjectID:   t.ProjectID,
		StatusID:    t.StatusID,
		PriorityID:  t.PriorityID,
		EpicID:      t.EpicID,
		CreatedBy:   t.CreatedBy,
		Name:        t.Name,
		Description: t.Description,
		DueDate:     due,
		File:        t.File,
		AssigneeIDs: assignees,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func ticketDetail(view *service.TicketView) dto.TicketDetailResponse {
	d := view.Details
	resp := dto.TicketDetailResponse{
		TicketResponse: ticketResponse(&d.Ticket),
		Project:        dto.ProjectRef{ID: d.Project.ID, Name: d.Project.Name},
		Status:         statusResponse(&d.Status),
		Creator:        dto.UserRef{ID: d.Creator.ID, Name: d.Creator.Name},
		Assignees:      make([]dto.UserRef, 0, len(d.Assignees)),
		History:        historyResponses(view.History),
	}
	if d.Epic != nil {
		resp.Epic = &dto.NamedRef{ID: d.Epic.ID, Name: d.Epic.Name}
	}
	if d.Priority != nil {
		resp.Priority = &dto.NamedRef{ID: d.Priority.ID, Name: d.Priority.Name}
	}
	for _, u := range d.Assignees {
		resp.Assignees = append(resp.Assignees, dto.UserRef{ID: u.ID, Name: u.Name})
	}
	return resp
}

func historyResponse(h *domain.TicketHistory) dto.TicketHistoryResponse {
	return dto.TicketHistoryResponse{ID: h.ID, UserID: h.UserID, TicketStatusID: h.TicketStatusID, CreatedAt: h.CreatedAt}
}

func historyResponses(entries []domain.TicketHistory) []dto.TicketHistoryResponse {
	resp := make([]dto.TicketHistoryResponse, 0, len(entries))
	for i := range entries {
		resp = append(resp, historyResponse(&entries[i]))
	}
	return resp
}

func warningResponses(warnings []service.ValidationWarning) []dto.WarningResponse {
	resp := make([]dto.WarningResponse, 0, len(warnings))
	for _, w := range warnings {
		resp = append(resp, dto.WarningResponse{Code: w.Code, Message: w.Message, UserIDs: w.UserIDs})
	}
	return resp
}

func statusResponse(s *domain.TicketStatus) dto.StatusResponse {
	return dto.StatusResponse{ID: s.ID, ProjectID: s.ProjectID, Name: s.Name, Color: s.Color, SortOrder: s.SortOrder}
}

func boardResponse(board *service.Board) dto.BoardResponse {
	resp := dto.BoardResponse{
		Project: dto.ProjectRef{ID: board.Project.ID, Name: board.Project.Name},
		Columns: make([]dto.BoardColumnResponse, 0, len(board.Columns)),
	}
	for i := range board.Columns {
		col := &board.Columns[i]
		tickets := make([]dto.TicketResponse, 0, len(col.Tickets))
		for j := range col.Tickets {
			tickets = append(tickets, ticketResponse(&col.Tickets[j]))
		}
		resp.Columns = append(resp.Columns, dto.BoardColumnResponse{Status: statusResponse(&col.Status), Tickets: tickets})
	}
	return resp
}

func commentResponse(c *domain.TicketComment) dto.CommentResponse {
	return dto.CommentResponse{ID: c.ID, TicketID: c.TicketID, UserID: c.UserID, Body: c.Body, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

func statsResponse(s *domain.Stats) dto.StatsResponse {
	return dto.StatsResponse{
		Projects:          s.Projects,
		Tickets:           s.Tickets,
		NewThisWeek:       s.NewThisWeek,
		Unassigned:        s.Unassigned,
		Overdue:           s.Overdue,
		MyAssigned:        s.MyAssigned,
		MyCreated:         s.MyCreated,
		MyOverdue:         s.MyOverdue,
		MyCompletedInWeek: s.MyCompletedInWeek,
		Users:             s.Users,
	}
}

func parseDueDate(val *string) (*time.Time, error) {
	if val == nil || *val == "" {
		return nil, nil
	}
	t, err := time.Parse(dto.DueDateLayout, *val)
	if err != nil {
		return nil, apperrors.NewValidationError("due_date must be YYYY-MM-DD", map[string]any{"field": "due_date"})
	}
	return &t, nil
}
