// file: internals/features/exams/attempts/controller/attempt_admin_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"academy_backend/internals/features/exams/attempts/dto"
	"academy_backend/internals/features/exams/attempts/service"
	helper "academy_backend/internals/helpers"
	helperAuth "academy_backend/internals/helpers/auth"
)

type AttemptAdminController struct {
	Svc *service.AttemptService
}

func NewAttemptAdminController(db *gorm.DB) *AttemptAdminController {
	return &AttemptAdminController{Svc: service.NewAttemptService(db)}
}

// GET /api/a/submissions?exam_id=&student_id=
func (ctl *AttemptAdminController) ListSubmissions(c *fiber.Ctx) error {
	var q dto.ListSubmissionQuery
	if err := c.QueryParser(&q); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid query")
	}
	if err := helper.Validate.Struct(&q); err != nil {
		return helper.WriteError(c, err)
	}
	p := helper.ResolvePaging(c, helper.DefaultPerPage, helper.MaxPerPage)
	rows, total, err := ctl.Svc.ListSubmissions(c.UserContext(), q, p)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonList(c, "ok", dto.ToAttemptSummaries(rows), helper.BuildPaginationFromOffset(total, p.Offset, p.Limit))
}

// GET /api/a/attempts/:id
func (ctl *AttemptAdminController) Get(c *fiber.Ctx) error {
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	detail, err := ctl.Svc.Get(c.UserContext(), id)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonOK(c, "ok", detail)
}

// PUT /api/a/attempts/:id/essays/:questionId
func (ctl *AttemptAdminController) GradeEssay(c *fiber.Ctx) error {
	who, err := helperAuth.CurrentIdentity(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	questionID, err := helper.ParseUUIDParam(c, "questionId")
	if err != nil {
		return helper.WriteError(c, err)
	}
	var req dto.GradeEssayRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.WriteError(c, err)
	}

	g, err := ctl.Svc.GradeEssay(c.UserContext(), id, questionID, *req.Score, who.UserID)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonUpdated(c, "essay graded", g)
}
