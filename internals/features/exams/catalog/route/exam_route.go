package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"academy_backend/internals/features/exams/catalog/controller"
)

// ExamAdminRoutes mounts under /api/a (staff only).
func ExamAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctl := controller.NewExamAdminController(db)

	g := r.Group("/exams")
	g.Post("/", ctl.Create)
	g.Get("/", ctl.List)
	g.Get("/:id", ctl.Get)
	g.Patch("/:id", ctl.Patch)
	g.Post("/:id/publish", ctl.Publish)
	g.Post("/:id/archive", ctl.Archive)
}

// ExamUserRoutes mounts under /api/u.
func ExamUserRoutes(r fiber.Router, db *gorm.DB) {
	ctl := controller.NewExamUserController(db)

	g := r.Group("/exams")
	g.Get("/", ctl.List)
	g.Get("/:id", ctl.Get)
}
