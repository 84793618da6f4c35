// internals/route/details/exam_routes.go
package details

import (
	attemptRoutes "academy_backend/internals/features/exams/attempts/route"
	catalogRoutes "academy_backend/internals/features/exams/catalog/route"
	certificateRoutes "academy_backend/internals/features/exams/certificates/route"
	certificateService "academy_backend/internals/features/exams/certificates/service"
	practicalRoutes "academy_backend/internals/features/exams/practicals/route"
	registrationRoutes "academy_backend/internals/features/exams/registrations/route"
	resultRoutes "academy_backend/internals/features/exams/results/route"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

/* ===================== USER (PRIVATE) ===================== */
// Any authenticated caller; ownership is checked per operation.
func ExamUserRoutes(r fiber.Router, db *gorm.DB, certs *certificateService.CertificateService) {
	catalogRoutes.ExamUserRoutes(r, db)
	registrationRoutes.RegistrationUserRoutes(r, db)
	attemptRoutes.AttemptUserRoutes(r, db)
	resultRoutes.ResultUserRoutes(r, db)
	certificateRoutes.CertificateUserRoutes(r, certs)
}

/* ===================== ADMIN ===================== */
// Instructors and admins (token + role guard)
func ExamAdminRoutes(r fiber.Router, db *gorm.DB, certs *certificateService.CertificateService) {
	catalogRoutes.ExamAdminRoutes(r, db)
	registrationRoutes.RegistrationAdminRoutes(r, db)
	attemptRoutes.AttemptAdminRoutes(r, db)
	practicalRoutes.PracticalAdminRoutes(r, db)
	resultRoutes.ResultAdminRoutes(r, db)
	certificateRoutes.CertificateAdminRoutes(r, certs)
}
