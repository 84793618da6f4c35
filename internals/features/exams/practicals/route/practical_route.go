package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"academy_backend/internals/features/exams/practicals/controller"
)

// PracticalAdminRoutes mounts under /api/a.
func PracticalAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctl := controller.NewPracticalController(db)

	r.Post("/exams/:id/students/:studentId/practical", ctl.Record)
	r.Get("/exams/:id/students/:studentId/practical", ctl.Get)
	r.Get("/practicals", ctl.List)
}
