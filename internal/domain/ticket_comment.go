package domain

import "time"

// TicketComment is a discussion entry on a ticket.
type TicketComment struct {
	ID        string
	TicketID  string
	UserID    string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
