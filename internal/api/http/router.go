package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/estatepro/leadsync/internal/api/http/handlers"
	"github.com/estatepro/leadsync/internal/auth"
	"github.com/estatepro/leadsync/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Session           *handlers.SessionHandler
	Staff             *handlers.StaffHandler
	Leads             *handlers.LeadsHandler
	Notifications     *handlers.NotificationsHandler
	Activity          *handlers.ActivityHandler
	SessionMiddleware *auth.SessionMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/session", cfg.Session.Open)

	protected := app.Group("", cfg.SessionMiddleware.Handle)
	protected.Put("/session/context", cfg.Session.UpdateContext)
	protected.Delete("/session", cfg.Session.Close)

	staffOnly := protected.Group("", auth.RequireActor())
	staffOnly.Get("/staff", cfg.Staff.List)

	leads := staffOnly.Group("/leads")
	leads.Get("/", cfg.Leads.List)
	leads.Get("/board", cfg.Leads.Board)
	leads.Post("/refresh", cfg.Leads.Refresh)
	leads.Post("/drag/over", cfg.Leads.DragOver)
	leads.Post("/drag/drop", cfg.Leads.Drop)
	leads.Delete("/drag", cfg.Leads.EndDrag)
	leads.Patch("/:id", cfg.Leads.Update)
	leads.Post("/:id/drag", cfg.Leads.BeginDrag)
	leads.Post("/:id/assign", auth.RequireStaffRole(domain.StaffRoleAdmin, domain.StaffRoleManager), cfg.Leads.Assign)
	leads.Post("/:id/follow-ups", cfg.Leads.AddFollowUp)

	notifications := protected.Group("/notifications")
	notifications.Get("/", cfg.Notifications.List)
	notifications.Post("/", cfg.Notifications.Create)
	notifications.Post("/refresh", cfg.Notifications.Refresh)
	notifications.Patch("/read-all", cfg.Notifications.MarkAllRead)
	notifications.Patch("/:id/read", cfg.Notifications.MarkRead)
	notifications.Delete("/:id", cfg.Notifications.Delete)

	activity := staffOnly.Group("/activity")
	activity.Get("/", cfg.Activity.Page)
	activity.Get("/feed", cfg.Activity.Feed)
}
