package dto

// BoardMoveRequest is a drag-and-drop move.
type BoardMoveRequest struct {
	TicketID string `json:"ticket_id"`
	StatusID string `json:"status_id"`
}

// CreateStatusRequest adds a board column. Omit sort_order to append it last.
type CreateStatusRequest struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	SortOrder *int   `json:"sort_order"`
}

// StatusResponse is a board column.
type StatusResponse struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	SortOrder int    `json:"sort_order"`
}

// BoardColumnResponse is a status with its tickets.
type BoardColumnResponse struct {
	Status  StatusResponse   `json:"status"`
	Tickets []TicketResponse `json:"tickets"`
}

// BoardResponse is a project board.
type BoardResponse struct {
	Project ProjectRef            `json:"project"`
	Columns []BoardColumnResponse `json:"columns"`
}
