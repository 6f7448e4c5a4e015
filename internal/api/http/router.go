package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/policy"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Staff          *handlers.StaffHandler
	Tickets        *handlers.TicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
	// MetricsPath is left unregistered when empty.
	MetricsPath string
}

// RegisterRoutes wires HTTP routes. Literal ticket routes are registered ahead of /:id.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.MetricsPath != "" && cfg.Metrics != nil {
		app.Get(cfg.MetricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	users := app.Group("/users", cfg.AuthMiddleware.Handle)
	users.Post("", auth.RequireRole("users", domain.RoleAdmin), cfg.Staff.ProvisionUser)
	users.Get("/technicians", auth.RequireStaff("technicians"), cfg.Staff.ListTechnicians)
	users.Get("/:id", cfg.Staff.GetUser)

	tickets := app.Group("/api/tickets", cfg.AuthMiddleware.Handle)
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("/my-tickets", cfg.Tickets.ListMyTickets)
	tickets.Get("/unassigned", cfg.StaffTickets.ListUnassigned)
	tickets.Get("/my-assigned", auth.RequireStaff(policy.ResourceAssignedTickets), cfg.StaffTickets.ListMyAssigned)
	tickets.Get("/technician/:technicianId", cfg.StaffTickets.ListTechnicianTickets)
	tickets.Get("/client/:clientId", cfg.Tickets.ListClientTickets)
	tickets.Get("/by-number/:ticketNumber", cfg.Tickets.GetTicketByNumber)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id/assign", cfg.StaffTickets.AssignTicket)
	tickets.Put("/:id/status", cfg.StaffTickets.ChangeStatus)
	tickets.Put("/:id/close", cfg.Tickets.CloseTicket)
	tickets.Put("/:id/reopen", cfg.Tickets.ReopenTicket)
	tickets.Post("/:id/messages", cfg.Tickets.AddMessage)
	tickets.Get("/:id/messages", cfg.Tickets.ListMessages)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)
}
