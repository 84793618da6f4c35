// file: internals/features/exams/catalog/controller/exam_admin_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"academy_backend/internals/features/exams/catalog/dto"
	"academy_backend/internals/features/exams/catalog/service"
	helper "academy_backend/internals/helpers"
	helperAuth "academy_backend/internals/helpers/auth"
)

type ExamAdminController struct {
	Svc *service.ExamService
}

func NewExamAdminController(db *gorm.DB) *ExamAdminController {
	return &ExamAdminController{Svc: service.NewExamService(db)}
}

// POST /api/a/exams
func (ctl *ExamAdminController) Create(c *fiber.Ctx) error {
	who, err := helperAuth.CurrentIdentity(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	var req dto.CreateExamRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.WriteError(c, err)
	}

	m, err := ctl.Svc.Create(c.UserContext(), who.UserID, req)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonCreated(c, "exam created", m)
}

// GET /api/a/exams?status=&belt_level=&q=&page=&per_page=
func (ctl *ExamAdminController) List(c *fiber.Ctx) error {
	var q dto.ListExamQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid query")
	}
	if err := helper.Validate.Struct(&q); err != nil {
		return helper.WriteError(c, err)
	}
	p := helper.ResolvePaging(c, helper.DefaultPerPage, helper.MaxPerPage)

	rows, total, err := ctl.Svc.ListAdmin(c.UserContext(), q, p)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonList(c, "ok", rows, helper.BuildPaginationFromOffset(total, p.Offset, p.Limit))
}

// GET /api/a/exams/:id
func (ctl *ExamAdminController) Get(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	m, err := ctl.Svc.Get(c.UserContext(), id)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonOK(c, "ok", m)
}

// PATCH /api/a/exams/:id
func (ctl *ExamAdminController) Patch(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	var req dto.PatchExamRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.WriteError(c, err)
	}

	m, err := ctl.Svc.Update(c.UserContext(), id, req)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonUpdated(c, "exam updated", m)
}

// POST /api/a/exams/:id/publish
func (ctl *ExamAdminController) Publish(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	m, err := ctl.Svc.Publish(c.UserContext(), id)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonUpdated(c, "exam published", m)
}

// POST /api/a/exams/:id/archive
func (ctl *ExamAdminController) Archive(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	m, err := ctl.Svc.Archive(c.UserContext(), id)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonUpdated(c, "exam archived", m)
}
