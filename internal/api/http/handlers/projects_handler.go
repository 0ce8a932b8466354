package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/taskboard/internal/api/dto"
	"github.com/spec-kit/taskboard/internal/service"
	apperrors "github.com/spec-kit/taskboard/pkg/util/errorutil"
)

// ProjectsHandler serves the board and its columns.
type ProjectsHandler struct {
	tickets *service.TicketService
}

// NewProjectsHandler constructs handler.
func NewProjectsHandler(ticketService *service.TicketService) *ProjectsHandler {
	return &ProjectsHandler{tickets: ticketService}
}

// Board GET /projects/:id/board.
func (h *ProjectsHandler) Board(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	board, err := h.tickets.Board(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": boardResponse(board)})
}

// Move POST /projects/:id/board/move.
func (h *ProjectsHandler) Move(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.BoardMoveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TicketID == "" || req.StatusID == "" {
		return apperrors.NewValidationError("ticket_id and status_id required", nil)
	}

	res, err := h.tickets.MoveOnBoard(c.UserContext(), user, c.Params("id"), req.TicketID, req.StatusID)
	if err != nil {
		return err
	}
	return c.JSON(writeResponse(res))
}

// CreateStatus POST /projects/:id/statuses.
func (h *ProjectsHandler) CreateStatus(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	status, err := h.tickets.CreateStatus(c.UserContext(), user, c.Params("id"), req.Name, req.Color, req.SortOrder)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": statusResponse(status)})
}
