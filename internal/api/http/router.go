package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/hospital-auth/internal/api/http/handlers"
	"github.com/spec-kit/hospital-auth/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", cfg.Auth.Me)
	authGroup.Post("/logout", cfg.Auth.Logout)

	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)
	authGroup.Post("/email/verify/request", cfg.Auth.RequestEmailVerification)
	authGroup.Post("/email/verify/confirm", cfg.Auth.ConfirmEmailVerification)

	protected := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	protected.Post("/password/change", cfg.Auth.ChangePassword)
}
