package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Notifications  *handlers.NotificationsHandler
	Feedback       *handlers.FeedbackHandler
	Analytics      *handlers.AnalyticsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)
	authGroup.Post("/password/reset/request", cfg.Users.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Users.ConfirmPasswordReset)

	protectedAuth := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole())
	protectedAuth.Post("/password/change", cfg.Users.ChangePassword)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireRole())
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id/status", auth.RequireRole(domain.RoleAdmin), cfg.Tickets.UpdateStatus)
	tickets.Get("/:id/feedback/exists", cfg.Feedback.Exists)
	tickets.Post("/:id/feedback", cfg.Feedback.Submit)

	notifications := app.Group("/notifications", cfg.AuthMiddleware.Handle, auth.RequireRole())
	notifications.Get("", cfg.Notifications.List)
	notifications.Get("/unread-count", cfg.Notifications.UnreadCount)
	notifications.Get("/stream", cfg.Notifications.Stream)
	notifications.Post("/:id/read", cfg.Notifications.MarkRead)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/notifications", cfg.Notifications.ListAdmin)
	admin.Get("/notifications/unread-count", cfg.Notifications.UnreadCountAdmin)
	admin.Get("/notifications/stream", cfg.Notifications.StreamAdmin)
	admin.Post("/sweep", cfg.Tickets.TriggerSweep)

	analytics := app.Group("/analytics", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleManager, domain.RoleAdmin))
	analytics.Get("/summary", cfg.Analytics.Summary)
}
