package notify

import "time"

// Kind names the ticket event a notification describes.
type Kind string

const (
	KindCreated       Kind = "created"
	KindUpdated       Kind = "updated"
	KindStatusChanged Kind = "status_changed"
)

// Audience distinguishes the project channel from a personal assignee chat.
type Audience string

const (
	AudienceChannel  Audience = "channel"
	AudienceAssignee Audience = "assignee"
)

// ChatAddress identifies a Telegram destination. ThreadID selects a forum
// topic inside the chat and is optional.
type ChatAddress struct {
	ChatID   string `cbor:"chat_id"`
	ThreadID string `cbor:"thread_id,omitempty"`
}

// Messages holds the two rendered variants of one event.
type Messages struct {
	Channel  string
	Assignee string
}

// Job is one message to one destination. Jobs are independent of each other.
type Job struct {
	ID         string      `cbor:"id"`
	TicketID   string      `cbor:"ticket_id"`
	Kind       Kind        `cbor:"kind"`
	Audience   Audience    `cbor:"audience"`
	Chat       ChatAddress `cbor:"chat"`
	Text       string      `cbor:"text"`
	Attempt    int         `cbor:"attempt"`
	EnqueuedAt time.Time   `cbor:"enqueued_at"`
}
