// file: internals/features/exams/attempts/controller/attempt_user_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"academy_backend/internals/features/exams/attempts/dto"
	"academy_backend/internals/features/exams/attempts/service"
	helper "academy_backend/internals/helpers"
	helperAuth "academy_backend/internals/helpers/auth"
)

type AttemptUserController struct {
	Svc *service.AttemptService
}

func NewAttemptUserController(db *gorm.DB) *AttemptUserController {
	return &AttemptUserController{Svc: service.NewAttemptService(db)}
}

// POST /api/u/exams/:id/attempts
// Starts an attempt, or resumes the open one.
func (ctl *AttemptUserController) Start(c *fiber.Ctx) error {
	who, err := helperAuth.CurrentIdentity(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	examID, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}

	a, err := ctl.Svc.Start(c.UserContext(), examID, who.UserID)
	if err != nil {
		return helper.WriteError(c, err)
	}
	view, err := dto.ToAttemptView(a, ctl.Svc.Now())
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonOK(c, "attempt ready", view)
}

// PATCH /api/u/attempts/:id/draft
func (ctl *AttemptUserController) SaveDraft(c *fiber.Ctx) error {
	who, err := helperAuth.CurrentIdentity(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	var req dto.SaveDraftRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.WriteError(c, err)
	}

	a, err := ctl.Svc.SaveDraft(c.UserContext(), id, who.UserID, req.Answers, req.VisibilityLossCount)
	if err != nil {
		return helper.WriteError(c, err)
	}
	view, err := dto.ToAttemptView(a, ctl.Svc.Now())
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonUpdated(c, "draft saved", view)
}

// POST /api/u/attempts/:id/submit
func (ctl *AttemptUserController) Submit(c *fiber.Ctx) error {
	who, err := helperAuth.CurrentIdentity(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	id, err := helper.ParseUUIDParam(c, "id")
	if err != nil {
		return helper.WriteError(c, err)
	}
	var req dto.SubmitAttemptRequest
	if err := helper.BindAndValidate(c, &req); err != nil {
		return helper.WriteError(c, err)
	}

	a, err := ctl.Svc.Submit(c.UserContext(), id, who.UserID, req.Answers, service.AntiCheat{
		VisibilityLossCount: req.VisibilityLossCount,
		ForcedSubmit:        req.ForcedSubmit,
		ForcedReason:        req.Reason(),
	})
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonOK(c, "attempt submitted", dto.ToAttemptSummary(a))
}

// GET /api/u/attempts
func (ctl *AttemptUserController) ListOwn(c *fiber.Ctx) error {
	who, err := helperAuth.CurrentIdentity(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	p := helper.ResolvePaging(c, helper.DefaultPerPage, helper.MaxPerPage)
	rows, total, err := ctl.Svc.ListOwn(c.UserContext(), who.UserID, p)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonList(c, "ok", dto.ToAttemptSummaries(rows), helper.BuildPaginationFromOffset(total, p.Offset, p.Limit))
}
