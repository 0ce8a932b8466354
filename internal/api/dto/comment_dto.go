package dto

import "time"

// CommentRequest creates or edits a comment.
type CommentRequest struct {
	Body string `json:"body"`
}

// CommentResponse is a ticket comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
