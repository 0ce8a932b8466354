package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/taskboard/internal/api/http/handlers"
	"github.com/spec-kit/taskboard/internal/auth"
	"github.com/spec-kit/taskboard/internal/domain"
	"github.com/spec-kit/taskboard/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Projects       *handlers.ProjectsHandler
	Comments       *handlers.CommentsHandler
	Stats          *handlers.StatsHandler
	Metrics        *observability.Metrics
	AuthMiddleware fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	app.Post("/auth/login", cfg.Users.Login)

	// Auth runs only under known prefixes so unmatched paths still 404.
	authenticated := []fiber.Handler{cfg.AuthMiddleware, auth.RequireUser()}
	app.Get("/auth/me", append(authenticated, cfg.Users.Me)...)
	app.Get("/stats", append(authenticated, cfg.Stats.Overview)...)

	tickets := app.Group("/tickets", authenticated...)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Post("/:id/status", cfg.Tickets.TransitionTicket)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)
	tickets.Get("/:id/comments", cfg.Comments.List)
	tickets.Post("/:id/comments", cfg.Comments.Add)

	comments := app.Group("/comments", authenticated...)
	comments.Patch("/:id", cfg.Comments.Edit)
	comments.Delete("/:id", cfg.Comments.Delete)

	projects := app.Group("/projects", authenticated...)
	projects.Get("/:id/board", cfg.Projects.Board)
	projects.Post("/:id/board/move", cfg.Projects.Move)
	projects.Post("/:id/statuses", auth.RequireRole(domain.RoleSuperAdmin), cfg.Projects.CreateStatus)
}
