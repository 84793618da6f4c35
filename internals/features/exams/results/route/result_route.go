package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"academy_backend/internals/features/exams/results/controller"
)

// ResultUserRoutes mounts under /api/u.
func ResultUserRoutes(r fiber.Router, db *gorm.DB) {
	ctl := controller.NewResultController(db)
	r.Get("/results", ctl.ListOwn)
}

// ResultAdminRoutes mounts under /api/a.
func ResultAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctl := controller.NewResultController(db)

	r.Post("/exams/:id/students/:studentId/finalize", ctl.Finalize)
	r.Get("/exams/:id/students/:studentId/result", ctl.Get)
	r.Get("/results", ctl.List)
}
