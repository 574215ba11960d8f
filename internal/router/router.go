package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/akademia-app/exam-api/internal/config"
	"github.com/akademia-app/exam-api/internal/handler"
	"github.com/akademia-app/exam-api/internal/middleware"
	"github.com/akademia-app/exam-api/internal/observability"
	"github.com/akademia-app/exam-api/internal/service"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ExamHandler       *handler.ExamHandler
	AssignmentHandler *handler.AssignmentHandler
	AttemptHandler    *handler.AttemptHandler
	GradingHandler    *handler.GradingHandler
	StatsHandler      *handler.StatsHandler
	MonitorHandler    *handler.MonitorHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/api/v1/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	staffOnly := middleware.RequireRole(service.RoleAdmin, service.RoleTeacher)

	api := app.Group("/api/v1", jwtMiddleware, func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})

	exams := api.Group("/exams")
	if deps.ExamHandler != nil {
		deps.ExamHandler.Register(exams, staffOnly)
	}

	assignments := api.Group("/assignments")
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(assignments.Group("", staffOnly), exams.Group("", staffOnly))
	}

	if deps.AttemptHandler != nil {
		attempts := api.Group("/attempts", middleware.RateLimit("attempts", 30, time.Second))
		deps.AttemptHandler.Register(assignments, attempts)
	}

	if deps.GradingHandler != nil {
		answers := api.Group("/answers", staffOnly)
		deps.GradingHandler.Register(answers)
	}

	if deps.StatsHandler != nil {
		deps.StatsHandler.Register(exams.Group("", staffOnly))
	}

	if deps.MonitorHandler != nil {
		monitor := api.Group("/monitor", staffOnly)
		deps.MonitorHandler.Register(monitor)
	}
}
