package dto

import "time"

// DueDateLayout is the wire format for due dates.
const DueDateLayout = "2006-01-02"

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	ProjectID   string   `json:"project_id"`
	StatusID    *string  `json:"status_id"`
	EpicID      *string  `json:"epic_id"`
	PriorityID  *string  `json:"priority_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	DueDate     *string  `json:"due_date"`
	File        *string  `json:"file"`
	AssigneeIDs []string `json:"assignee_ids"`
}

// UpdateTicketRequest payload. Omitted fields stay unchanged; the clear_*
// flags unset optional relations.
type UpdateTicketRequest struct {
	Name          *string   `json:"name"`
	Description   *string   `json:"description"`
	StatusID      *string   `json:"status_id"`
	EpicID        *string   `json:"epic_id"`
	ClearEpic     bool      `json:"clear_epic"`
	PriorityID    *string   `json:"priority_id"`
	ClearPriority bool      `json:"clear_priority"`
	DueDate       *string   `json:"due_date"`
	ClearDueDate  bool      `json:"clear_due_date"`
	File          *string   `json:"file"`
	AssigneeIDs   *[]string `json:"assignee_ids"`
}

// TransitionRequest moves a ticket to another status.
type TransitionRequest struct {
	StatusID string `json:"status_id"`
}

// TicketResponse is the flat ticket representation.
type TicketResponse struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	ProjectID   string    `json:"project_id"`
	StatusID    string    `json:"status_id"`
	PriorityID  *string   `json:"priority_id"`
	EpicID      *string   `json:"epic_id"`
	CreatedBy   string    `json:"created_by"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	DueDate     *string   `json:"due_date"`
	File        *string   `json:"file"`
	AssigneeIDs []string  `json:"assignee_ids"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TicketDetailResponse is a ticket with resolved relations and history.
type TicketDetailResponse struct {
	TicketResponse
	Project   ProjectRef              `json:"project"`
	Status    StatusResponse          `json:"status"`
	Creator   UserRef                 `json:"creator"`
	Epic      *NamedRef               `json:"epic"`
	Priority  *NamedRef               `json:"priority"`
	Assignees []UserRef               `json:"assignees"`
	History   []TicketHistoryResponse `json:"history"`
}

// TicketHistoryResponse is one status trail entry.
type TicketHistoryResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	TicketStatusID string    `json:"ticket_status_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// WarningResponse is a non-fatal notice attached to a successful write.
type WarningResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	UserIDs []string `json:"user_ids,omitempty"`
}

// ProjectRef identifies a project.
type ProjectRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserRef identifies a user.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NamedRef identifies an epic or priority.
type NamedRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
