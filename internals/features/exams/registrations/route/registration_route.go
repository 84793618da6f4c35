package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"academy_backend/internals/features/exams/registrations/controller"
)

// RegistrationUserRoutes mounts under /api/u.
func RegistrationUserRoutes(r fiber.Router, db *gorm.DB) {
	ctl := controller.NewRegistrationController(db)

	r.Post("/exams/:id/registrations", ctl.Register)
	r.Get("/registrations", ctl.ListOwn)
}

// RegistrationAdminRoutes mounts under /api/a.
func RegistrationAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctl := controller.NewRegistrationController(db)

	g := r.Group("/registrations")
	g.Get("/", ctl.List)
	g.Post("/:id/approve", ctl.Approve)
	g.Post("/:id/reject", ctl.Reject)
}
