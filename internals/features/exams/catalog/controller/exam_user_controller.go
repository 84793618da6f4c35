// file: internals/features/exams/catalog/controller/exam_user_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"academy_backend/internals/features/exams/catalog/dto"
	"academy_backend/internals/features/exams/catalog/service"
	helper "academy_backend/internals/helpers"
	helperAuth "academy_backend/internals/helpers/auth"
)

// ExamUserController serves the student view: published only, no answer keys.
type ExamUserController struct {
	Svc *service.ExamService
}

func NewExamUserController(db *gorm.DB) *ExamUserController {
	return &ExamUserController{Svc: service.NewExamService(db)}
}

// GET /api/u/exams
func (ctl *ExamUserController) List(c *fiber.Ctx) error {
	who, err := helperAuth.CurrentIdentity(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	p := helper.ResolvePaging(c, helper.DefaultPerPage, helper.MaxPerPage)

	rows, total, err := ctl.Svc.ListForStudent(c.UserContext(), who.UserID, who.BeltLevel, p)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonList(c, "ok", dto.ToStudentExams(rows), helper.BuildPaginationFromOffset(total, p.Offset, p.Limit))
}

// GET /api/u/exams/:id
func (ctl *ExamUserController) Get(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	m, err := ctl.Svc.GetForStudent(c.UserContext(), id)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonOK(c, "ok", dto.ToStudentExam(m, false))
}
