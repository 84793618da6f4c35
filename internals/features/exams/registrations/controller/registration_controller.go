// file: internals/features/exams/registrations/controller/registration_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"academy_backend/internals/features/exams/registrations/dto"
	"academy_backend/internals/features/exams/registrations/service"
	helper "academy_backend/internals/helpers"
	helperAuth "academy_backend/internals/helpers/auth"
)

type RegistrationController struct {
	Svc *service.RegistrationService
}

func NewRegistrationController(db *gorm.DB) *RegistrationController {
	return &RegistrationController{Svc: service.NewRegistrationService(db)}
}

// POST /api/u/exams/:id/registrations
// 201 on first call, 200 with the stored row on repeats.
func (ctl *RegistrationController) Register(c *fiber.Ctx) error {
	who, err := helperAuth.CurrentIdentity(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	examID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}

	m, created, err := ctl.Svc.Register(c.UserContext(), examID, who.UserID)
	if err != nil {
		return helper.WriteError(c, err)
	}
	if created {
		return helper.JsonCreated(c, "registration submitted", m)
	}
	return helper.JsonOK(c, "registration already submitted", m)
}

// GET /api/u/registrations
func (ctl *RegistrationController) ListOwn(c *fiber.Ctx) error {
	who, err := helperAuth.CurrentIdentity(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	p := helper.ResolvePaging(c, helper.DefaultPerPage, helper.MaxPerPage)
	rows, total, err := ctl.Svc.ListOwn(c.UserContext(), who.UserID, p)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonList(c, "ok", rows, helper.BuildPaginationFromOffset(total, p.Offset, p.Limit))
}

// GET /api/a/registrations?exam_id=&student_id=&status=
func (ctl *RegistrationController) List(c *fiber.Ctx) error {
	var q dto.ListRegistrationQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid query")
	}
	if err := helper.Validate.Struct(&q); err != nil {
		return helper.WriteError(c, err)
	}
	p := helper.ResolvePaging(c, helper.DefaultPerPage, helper.MaxPerPage)
	rows, total, err := ctl.Svc.List(c.UserContext(), q, p)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonList(c, "ok", rows, helper.BuildPaginationFromOffset(total, p.Offset, p.Limit))
}

// POST /api/a/registrations/:id/approve
func (ctl *RegistrationController) Approve(c *fiber.Ctx) error {
	return ctl.decide(c, true)
}

// POST /api/a/registrations/:id/reject
func (ctl *RegistrationController) Reject(c *fiber.Ctx) error {
	return ctl.decide(c, false)
}

func (ctl *RegistrationController) decide(c *fiber.Ctx, approve bool) error {
	who, err := helperAuth.CurrentIdentity(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}

	decide := ctl.Svc.Reject
	msg := "registration rejected"
	if approve {
		decide = ctl.Svc.Approve
		msg = "registration approved"
	}
	m, err := decide(c.UserContext(), id, who.UserID)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonUpdated(c, msg, m)
}
