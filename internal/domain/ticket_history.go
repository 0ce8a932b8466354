package domain

import "time"

// TicketHistory is an immutable audit trail entry for a status assignment.
type TicketHistory struct {
	ID             string
	TicketID       string
	UserID         string
	TicketStatusID string
	CreatedAt      time.Time
}
