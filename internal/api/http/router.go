package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/contest-service/internal/api/http/handlers"
	"github.com/spec-kit/contest-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Metrics        *handlers.MetricsHandler
	Contests       *handlers.ContestsHandler
	Contestants    *handlers.ContestantsHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Show)

	read := auth.RequireRole(auth.RoleOrganizer, auth.RoleViewer)
	write := auth.RequireRole(auth.RoleOrganizer)

	users := app.Group("/users", cfg.AuthMiddleware.Handle)
	users.Post("/", write, cfg.Users.Register)

	contests := app.Group("/contests", cfg.AuthMiddleware.Handle)
	contests.Post("/", write, cfg.Contests.Create)
	contests.Get("/:id", read, cfg.Contests.Get)
	contests.Put("/:id", write, cfg.Contests.Update)
	contests.Post("/:id/publish", write, cfg.Contests.Publish)
	contests.Post("/:id/finalize", write, cfg.Contests.Finalize)
	contests.Delete("/:id", write, cfg.Contests.Delete)
	contests.Post("/:id/contestants", write, cfg.Contestants.Enroll)
	contests.Get("/:id/contestants/count", read, cfg.Contestants.Count)

	contestants := app.Group("/contestants", cfg.AuthMiddleware.Handle)
	contestants.Delete("/:id", write, cfg.Contestants.Withdraw)
}
