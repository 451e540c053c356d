package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/lifecycle"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Technician     *handlers.TechnicianHandler
	Categories     *handlers.CategoriesHandler
	AuthMiddleware *auth.AuthMiddleware
	Policy         lifecycle.Policy
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	requireAuth := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAuthenticated()}

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", append(requireAuth, cfg.Auth.Logout)...)
	authGroup.Get("/me", append(requireAuth, cfg.Auth.Me)...)

	app.Get("/categories", append(requireAuth, cfg.Categories.List)...)
	app.Get("/dashboard", append(requireAuth, cfg.Tickets.UserDashboard)...)

	tickets := app.Group("/tickets", requireAuth...)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("/history", cfg.Tickets.History)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/timeline", cfg.Tickets.Timeline)
	tickets.Post("/:id/cancel", cfg.Tickets.CancelTicket)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Post("/:id/attachments", cfg.Tickets.AddAttachment)
	tickets.Post("/:id/evaluation", cfg.Tickets.Evaluate)

	technician := app.Group("/technician", append(requireAuth, auth.RequireTechnician(cfg.Policy))...)
	technician.Get("/dashboard", cfg.Technician.Dashboard)
	technician.Post("/tickets/:id/accept", cfg.Technician.Accept)
	technician.Patch("/tickets/:id/status", cfg.Technician.UpdateStatus)
	technician.Post("/tickets/:id/resolve", cfg.Technician.Resolve)
}
