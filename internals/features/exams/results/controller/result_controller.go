package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"academy_backend/internals/features/exams/results/dto"
	"academy_backend/internals/features/exams/results/service"
	helper "academy_backend/internals/helpers"
	helperAuth "academy_backend/internals/helpers/auth"
)

type ResultController struct {
	Svc *service.ResultService
}

func NewResultController(db *gorm.DB) *ResultController {
	return &ResultController{Svc: service.NewResultService(db)}
}

// POST /api/a/exams/:id/students/:studentId/finalize
func (ctl *ResultController) Finalize(c *fiber.Ctx) error {
	who, err := helperAuth.CurrentIdentity(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	examID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	studentID, err := helper.ParseUUIDParam(c, "studentId")
	if err != nil {
		return helper.WriteError(c, err)
	}

	m, err := ctl.Svc.Finalize(c.UserContext(), examID, studentID, who.UserID)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonCreated(c, "exam finalized", m)
}

// GET /api/u/results
func (ctl *ResultController) ListOwn(c *fiber.Ctx) error {
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

// GET /api/a/results?exam_id=&student_id=&passed=
func (ctl *ResultController) List(c *fiber.Ctx) error {
	var q dto.ListResultQuery
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

// GET /api/a/exams/:id/students/:studentId/result
func (ctl *ResultController) Get(c *fiber.Ctx) error {
	examID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	studentID, err := helper.ParseUUIDParam(c, "studentId")
	if err != nil {
		return helper.WriteError(c, err)
	}
	m, err := ctl.Svc.Get(c.UserContext(), examID, studentID)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonOK(c, "ok", m)
}
