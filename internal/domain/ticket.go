package domain

import (
	"slices"
	"time"
)

// Ticket is a unit of trackable work within a project.
type Ticket struct {
	ID          string
	Key         string
	ProjectID   string
	StatusID    string
	PriorityID  *string
	EpicID      *string
	CreatedBy   string
	Name        string
	Description string
	DueDate     *time.Time
	File        *string
	AssigneeIDs []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsAssignee reports whether userID is currently assigned.
func (t *Ticket) IsAssignee(userID string) bool {
	if t == nil {
		return false
	}
	return slices.Contains(t.AssigneeIDs, userID)
}

// TicketDetails is a ticket with its relations resolved to display values.
type TicketDetails struct {
	Ticket    Ticket
	Project   Project
	Status    TicketStatus
	Creator   User
	Epic      *Epic
	Priority  *TicketPriority
	Assignees []User
}
