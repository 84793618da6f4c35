package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"academy_backend/internals/features/exams/attempts/controller"
	"academy_backend/internals/middlewares"
)

// AttemptUserRoutes mounts under /api/u.
func AttemptUserRoutes(r fiber.Router, db *gorm.DB) {
	ctl := controller.NewAttemptUserController(db)
	writes := middlewares.AttemptWriteRateLimiter()

	r.Post("/exams/:id/attempts", writes, ctl.Start)

	g := r.Group("/attempts")
	g.Get("/", ctl.ListOwn)
	g.Patch("/:id/draft", writes, ctl.SaveDraft)
	g.Post("/:id/submit", writes, ctl.Submit)
}

// AttemptAdminRoutes mounts under /api/a.
func AttemptAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctl := controller.NewAttemptAdminController(db)

	r.Get("/submissions", ctl.ListSubmissions)

	g := r.Group("/attempts")
	g.Get("/:id", ctl.Get)
	g.Put("/:id/essays/:questionId", ctl.GradeEssay)
}
