package events

import (
	"time"

	"github.com/spec-kit/taskboard/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketUpdated       EventType = "ticket_updated"
	EventTicketStatusChanged EventType = "ticket_status_changed"
)

// Event represents a domain event emitted by services after a commit.
type Event struct {
	ID        string
	Type      EventType
	TicketID  string
	ActorID   string
	Timestamp time.Time
	Payload   any
}

// TicketPayload carries the committed ticket snapshot.
type TicketPayload struct {
	Details domain.TicketDetails
	Actor   domain.User
}

// TicketStatusChangedPayload adds the status the ticket moved away from.
type TicketStatusChangedPayload struct {
	Details      domain.TicketDetails
	Actor        domain.User
	FromStatusID string
	Path         string
}
