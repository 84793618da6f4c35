// file: internals/route/index.go
package routes

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"academy_backend/internals/configs"
	"academy_backend/internals/constants"
	certificateService "academy_backend/internals/features/exams/certificates/service"
	authMiddleware "academy_backend/internals/middlewares/auth"
	routeDetails "academy_backend/internals/route/details"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, db *gorm.DB, certs *certificateService.CertificateService) {
	startTime = time.Now()

	log.Println("[INFO] Setting up BaseRoutes...")
	BaseRoutes(app, db)

	jwtOpts := authMiddleware.AuthJWTOpts{
		Secret:              configs.JWTSecret,
		AllowCookieFallback: true,
	}

	// ===================== PRIVATE (USER) =====================
	log.Println("[INFO] Setting up PRIVATE group...")
	private := app.Group("/api/u", authMiddleware.AuthJWT(jwtOpts))

	// ===================== ADMIN (staff) =====================
	log.Println("[INFO] Setting up ADMIN group (Auth + RoleCheck)...")
	admin := app.Group("/api/a",
		authMiddleware.AuthJWT(jwtOpts),
		authMiddleware.OnlyRoles(constants.RoleErrorStaff("exam administration"), constants.StaffRoles...),
	)

	// ===================== MOUNT ROUTES =====================
	log.Println("[INFO] Mounting Exam routes...")
	routeDetails.ExamUserRoutes(private, db, certs)
	routeDetails.ExamAdminRoutes(admin, db, certs)
}
