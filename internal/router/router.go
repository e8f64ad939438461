package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kelasku/kelasku-go-api/internal/config"
	"github.com/kelasku/kelasku-go-api/internal/handler"
	"github.com/kelasku/kelasku-go-api/internal/middleware"
	"github.com/kelasku/kelasku-go-api/internal/models"
	"github.com/kelasku/kelasku-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	CourseHandler     *handler.CourseHandler
	CurriculumHandler *handler.CurriculumHandler
	CategoryHandler   *handler.CategoryHandler
	ProgressHandler   *handler.ProgressHandler
	QuizHandler       *handler.QuizHandler
	AssignmentHandler *handler.AssignmentHandler
	ReviewHandler     *handler.ReviewHandler
	DashboardHandler  *handler.DashboardHandler
	UploadHandler     *handler.UploadHandler
}

// Register wires the HTTP routes into the fiber application.
//
// Registration order is load-bearing: public routes must be attached before
// the authenticated Use below, because fiber matches handlers in the order
// they were registered.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	authenticated := middleware.JWTProtected(cfg.JWTSecret)
	maybeAuthenticated := middleware.JWTOptional(cfg.JWTSecret)
	instructorOnly := middleware.RequireRole(models.RoleInstructor, models.RoleAdmin)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	if deps.AuthHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("auth", 30, time.Minute))
		deps.AuthHandler.RegisterPublic(auth)
	}

	// Public catalog. Optional auth lets the course list flag courses a
	// logged-in student already enrolled in.
	if deps.CourseHandler != nil {
		deps.CourseHandler.RegisterPublic(api.Group("/courses", maybeAuthenticated))
	}
	if deps.CategoryHandler != nil {
		deps.CategoryHandler.RegisterPublic(api.Group("/categories"))
	}
	if deps.ReviewHandler != nil {
		deps.ReviewHandler.RegisterPublic(api)
	}

	// Everything past this point requires a valid token.
	api.Use(authenticated)

	if deps.AuthHandler != nil {
		deps.AuthHandler.RegisterProtected(api.Group("/auth"))
	}

	if deps.CourseHandler != nil {
		deps.CourseHandler.RegisterStudent(api.Group("/courses"))
	}
	if deps.ReviewHandler != nil {
		deps.ReviewHandler.RegisterStudent(api)
	}

	// Learning surface: lesson completion, progress, quizzes, assignments.
	if deps.ProgressHandler != nil {
		deps.ProgressHandler.Register(api)
	}
	if deps.QuizHandler != nil {
		deps.QuizHandler.RegisterStudent(api)
	}
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.RegisterStudent(api)
	}

	if deps.DashboardHandler != nil {
		deps.DashboardHandler.RegisterStudent(api.Group("/dashboard/student"))
		deps.DashboardHandler.RegisterInstructor(api.Group("/dashboard/instructor", instructorOnly))
		deps.DashboardHandler.RegisterAdmin(api.Group("/dashboard/admin", adminOnly))
	}

	if deps.UploadHandler != nil {
		deps.UploadHandler.Register(api.Group("/uploads", instructorOnly))
	}

	instructor := api.Group("/instructor", instructorOnly)
	if deps.CourseHandler != nil {
		deps.CourseHandler.RegisterInstructor(instructor.Group("/courses"))
	}
	if deps.CurriculumHandler != nil {
		deps.CurriculumHandler.Register(instructor)
	}
	if deps.QuizHandler != nil {
		deps.QuizHandler.RegisterInstructor(instructor)
	}
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.RegisterInstructor(instructor)
	}

	if deps.CategoryHandler != nil {
		deps.CategoryHandler.RegisterAdmin(api.Group("/admin/categories", adminOnly))
	}
}
