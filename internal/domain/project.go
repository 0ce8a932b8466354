package domain

import (
	"slices"
	"time"
)

// Project groups tickets, statuses, epics and members.
type Project struct {
	ID        string
	Name      string
	ChatID    *string
	ThreadID  *string
	Members   []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasMember reports whether userID is in the member set.
func (p *Project) HasMember(userID string) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.Members, userID)
}

// TicketStatus is a board column configured per project.
type TicketStatus struct {
	ID        string
	ProjectID string
	Name      string
	Color     string
	SortOrder int
	CreatedAt time.Time
}

// Epic groups related tickets inside a project.
type Epic struct {
	ID        string
	ProjectID string
	Name      string
}

// TicketPriority is a global urgency label.
type TicketPriority struct {
	ID    string
	Name  string
	Color string
}
