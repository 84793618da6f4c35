package route

import (
	"github.com/gofiber/fiber/v2"

	"academy_backend/internals/features/exams/certificates/controller"
	"academy_backend/internals/features/exams/certificates/service"
)

// CertificateUserRoutes mounts under /api/u; the pair is always the caller's.
func CertificateUserRoutes(r fiber.Router, svc *service.CertificateService) {
	ctl := controller.NewCertificateController(svc)
	g := r.Group("/certificates")
	g.Get("/:examId", ctl.Exists)
	g.Get("/:examId/pdf", ctl.PDF)
}

// CertificateAdminRoutes mounts under /api/a.
func CertificateAdminRoutes(r fiber.Router, svc *service.CertificateService) {
	ctl := controller.NewCertificateController(svc)
	g := r.Group("/certificates")
	g.Get("/:examId/:studentId", ctl.Exists)
	g.Get("/:examId/:studentId/pdf", ctl.PDF)
}
