package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/taskboard/internal/service"
)

// StatsHandler serves the dashboard overview.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Overview GET /stats.
func (h *StatsHandler) Overview(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	stats, err := h.stats.Overview(c.UserContext(), user)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": statsResponse(stats)})
}
