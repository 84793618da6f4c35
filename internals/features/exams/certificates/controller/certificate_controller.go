package controller

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"academy_backend/internals/features/exams/certificates/service"
	helper "academy_backend/internals/helpers"
	helperAuth "academy_backend/internals/helpers/auth"
)

type CertificateController struct {
	Svc *service.CertificateService
}

func NewCertificateController(svc *service.CertificateService) *CertificateController {
	return &CertificateController{Svc: svc}
}

type existsResponse struct {
	ExamID    uuid.UUID `json:"exam_id"`
	StudentID uuid.UUID `json:"student_id"`
	Exists    bool      `json:"exists"`
}

// pair resolves the exam and student; students always get themselves.
func pair(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	who, err := helperAuth.CurrentIdentity(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	examID, err := helper.ParseUUIDParam(c, "examId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	if c.Params("studentId") == "" {
		return examID, who.UserID, nil
	}
	studentID, err := helper.ParseUUIDParam(c, "studentId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	if !who.IsStaff() && studentID != who.UserID {
		return uuid.Nil, uuid.Nil, helper.ErrForbidden("certificate belongs to another student")
	}
	return examID, studentID, nil
}

// GET /certificates/:examId[/:studentId]
func (ctl *CertificateController) Exists(c *fiber.Ctx) error {
	examID, studentID, err := pair(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	ok, err := ctl.Svc.Exists(c.UserContext(), examID, studentID)
	if err != nil {
		return helper.WriteError(c, err)
	}
	return helper.JsonOK(c, "ok", existsResponse{ExamID: examID, StudentID: studentID, Exists: ok})
}

// GET /certificates/:examId[/:studentId]/pdf
func (ctl *CertificateController) PDF(c *fiber.Ctx) error {
	examID, studentID, err := pair(c)
	if err != nil {
		return helper.WriteError(c, err)
	}
	pdf, err := ctl.Svc.Render(c.UserContext(), examID, studentID)
	if err != nil {
		return helper.WriteError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="certificate-%s.pdf"`, examID))
	return c.Send(pdf)
}
