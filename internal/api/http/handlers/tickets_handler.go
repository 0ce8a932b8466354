package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/taskboard/internal/api/dto"
	"github.com/spec-kit/taskboard/internal/service"
	apperrors "github.com/spec-kit/taskboard/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ProjectID == "" {
		return apperrors.NewValidationError("project_id required", map[string]any{"field": "project_id"})
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		return err
	}

	res, err := h.service.Create(c.UserContext(), user, service.CreateTicketInput{
		ProjectID:   req.ProjectID,
		StatusID:    req.StatusID,
		EpicID:      req.EpicID,
		PriorityID:  req.PriorityID,
		Name:        req.Name,
		Description: req.Description,
		DueDate:     due,
		File:        req.File,
		AssigneeIDs: req.AssigneeIDs,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(writeResponse(res))
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	view, err := h.service.Get(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(view)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		return err
	}

	res, err := h.service.Update(c.UserContext(), user, c.Params("id"), service.UpdateTicketInput{
		Name:          req.Name,
		Description:   req.Description,
		StatusID:      req.StatusID,
		EpicID:        req.EpicID,
		ClearEpic:     req.ClearEpic,
		PriorityID:    req.PriorityID,
		ClearPriority: req.ClearPriority,
		DueDate:       due,
		ClearDueDate:  req.ClearDueDate,
		File:          req.File,
		AssigneeIDs:   req.AssigneeIDs,
	})
	if err != nil {
		return err
	}
	return c.JSON(writeResponse(res))
}

// TransitionTicket POST /tickets/:id/status.
func (h *TicketsHandler) TransitionTicket(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.StatusID == "" {
		return apperrors.NewValidationError("status_id required", map[string]any{"field": "status_id"})
	}

	res, err := h.service.Transition(c.UserContext(), user, c.Params("id"), req.StatusID, service.TransitionOptions{Path: service.PathEdit})
	if err != nil {
		return err
	}
	return c.JSON(writeResponse(res))
}

// ListHistory GET /tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	history, err := h.service.History(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(history)})
}

func writeResponse(res *service.WriteResult) fiber.Map {
	body := fiber.Map{
		"data":     ticketResponse(res.Ticket),
		"warnings": warningResponses(res.Warnings),
	}
	if res.History != nil {
		body["history"] = historyResponse(res.History)
	}
	return body
}
