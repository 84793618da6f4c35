package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"academy_backend/internals/features/exams/practicals/dto"
	"academy_backend/internals/features/exams/practicals/service"
	helper "academy_backend/internals/helpers"
	helperAuth "academy_backend/internals/helpers/auth"
)

type PracticalController struct {
	Svc *service.PracticalService
}

func NewPracticalController(db *gorm.DB) *PracticalController {
	return &PracticalController{Svc: service.NewPracticalService(db)}
}

// POST /api/a/exams/:id/students/:studentId/practical
func (ctl *PracticalController) Record(c *fiber.Ctx) error {
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
	var req dto.RecordPracticalRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.WriteError(c, err)
	}

	m, err := ctl.Svc.Record(c.UserContext(), examID, studentID, req.Scores(), req.Note, who.UserID)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonCreated(c, "practical evaluation recorded", m)
}

// GET /api/a/exams/:id/students/:studentId/practical
func (ctl *PracticalController) Get(c *fiber.Ctx) error {
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

// GET /api/a/practicals?exam_id=&student_id=
func (ctl *PracticalController) List(c *fiber.Ctx) error {
	var q dto.ListPracticalQuery
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
