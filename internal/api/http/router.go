package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/membership-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health       *handlers.HealthHandler
	Members      *handlers.MembersHandler
	Confirmation *handlers.ConfirmationHandler
	Admin        *handlers.AdminHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	members := app.Group("/members")
	members.Post("/", cfg.Members.Register)
	members.Get("/", cfg.Members.List)
	members.Post("/password", cfg.Confirmation.SetPassword)
	members.Get("/:id", cfg.Members.Get)
	members.Put("/:id", cfg.Members.Update)
	members.Delete("/:id", cfg.Members.Delete)
	members.Post("/:id/confirm", cfg.Confirmation.Confirm)
	members.Post("/:id/confirm/resend", cfg.Confirmation.Resend)
	members.Post("/:id/activation-token", cfg.Confirmation.ActivationToken)

	admin := app.Group("/admin")
	admin.Post("/confirmation-codes/sweep", cfg.Confirmation.SweepCodes)
	admin.Get("/metrics", cfg.Admin.Metrics)
}
