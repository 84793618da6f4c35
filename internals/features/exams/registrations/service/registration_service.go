// file: internals/features/exams/registrations/service/registration_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	catalogService "academy_backend/internals/features/exams/catalog/service"
	"academy_backend/internals/features/exams/registrations/dto"
	"academy_backend/internals/features/exams/registrations/model"
	resultModel "academy_backend/internals/features/exams/results/model"
	helper "academy_backend/internals/helpers"
)

type RegistrationService struct {
	DB *gorm.DB
}

func NewRegistrationService(db *gorm.DB) *RegistrationService {
	return &RegistrationService{DB: db}
}

func findPair(ctx context.Context, db *gorm.DB, examID, studentID uuid.UUID) (*model.ExamRegistrationModel, error) {
	var m model.ExamRegistrationModel
	err := db.WithContext(ctx).
		Where("exam_registration_exam_id = ? AND exam_registration_student_id = ?", examID, studentID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// IsApproved reports whether the pair holds an approved registration.
func IsApproved(ctx context.Context, db *gorm.DB, examID, studentID uuid.UUID) (bool, error) {
	m, err := findPair(ctx, db, examID, studentID)
	if err != nil || m == nil {
		return false, err
	}
	return m.IsApproved(), nil
}

/* =========================================================
   Register: get-or-create
========================================================= */

// Register returns the pair's row and whether this call created it.
func (s *RegistrationService) Register(ctx context.Context, examID, studentID uuid.UUID) (*model.ExamRegistrationModel, bool, error) {
	exam, err := catalogService.LoadHeader(ctx, s.DB, examID)
	if err != nil {
		return nil, false, err
	}
	if !exam.IsPublished() {
		return nil, false, helper.ErrBadRequest("exam is not published")
	}

	done, err := resultModel.Exists(s.DB.WithContext(ctx), examID, studentID)
	if err != nil {
		return nil, false, err
	}
	if done {
		return nil, false, helper.ErrConflict("exam already finalized")
	}

	row := &model.ExamRegistrationModel{
		ExamRegistrationID:          uuid.New(),
		ExamRegistrationExamID:      examID,
		ExamRegistrationStudentID:   studentID,
		ExamRegistrationStatus:      model.RegistrationPending,
		ExamRegistrationRequestedAt: time.Now().UTC(),
	}
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return nil, false, fmt.Errorf("insert registration: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		log.Printf("[RegistrationService] registered exam=%s student=%s", examID, studentID)
		return row, true, nil
	}

	existing, err := findPair(ctx, s.DB, examID, studentID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("registration conflict without a stored row (exam=%s student=%s)", examID, studentID)
	}
	return existing, false, nil
}

/* =========================================================
   Decide: pending -> approved | rejected
========================================================= */

func (s *RegistrationService) Approve(ctx context.Context, id, actor uuid.UUID) (*model.ExamRegistrationModel, error) {
	return s.decide(ctx, id, actor, model.RegistrationApproved)
}

func (s *RegistrationService) Reject(ctx context.Context, id, actor uuid.UUID) (*model.ExamRegistrationModel, error) {
	return s.decide(ctx, id, actor, model.RegistrationRejected)
}

func (s *RegistrationService) decide(ctx context.Context, id, actor uuid.UUID, to model.RegistrationStatus) (*model.ExamRegistrationModel, error) {
	now := time.Now().UTC()
	set := map[string]any{
		"exam_registration_status":     to,
		"exam_registration_decided_by": actor,
		"exam_registration_updated_at": now,
	}
	if to == model.RegistrationApproved {
		set["exam_registration_approved_at"] = now
	} else {
		set["exam_registration_rejected_at"] = now
	}

	res := s.DB.WithContext(ctx).Model(&model.ExamRegistrationModel{}).
		Where("exam_registration_id = ? AND exam_registration_status = ?", id, model.RegistrationPending).
		Updates(set)
	if res.Error != nil {
		return nil, fmt.Errorf("decide registration: %w", res.Error)
	}

	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, helper.ErrConflict("registration already %s", m.ExamRegistrationStatus)
	}
	log.Printf("[RegistrationService] registration=%s -> %s by=%s", id, to, actor)
	return m, nil
}

/* =========================================================
   Reads
========================================================= */

func (s *RegistrationService) Get(ctx context.Context, id uuid.UUID) (*model.ExamRegistrationModel, error) {
	var m model.ExamRegistrationModel
	err := s.DB.WithContext(ctx).First(&m, "exam_registration_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, helper.ErrNotFound("registration not found")
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *RegistrationService) ListOwn(ctx context.Context, studentID uuid.UUID, p helper.Paging) ([]model.ExamRegistrationModel, int64, error) {
	return s.List(ctx, dto.ListRegistrationQuery{StudentID: studentID.String()}, p)
}

func (s *RegistrationService) List(ctx context.Context, q dto.ListRegistrationQuery, p helper.Paging) ([]model.ExamRegistrationModel, int64, error) {
	base := s.DB.WithContext(ctx).Model(&model.ExamRegistrationModel{})
	if id, err := uuid.Parse(q.ExamID); err == nil {
		base = base.Where("exam_registration_exam_id = ?", id)
	}
	if id, err := uuid.Parse(q.StudentID); err == nil {
		base = base.Where("exam_registration_student_id = ?", id)
	}
	if q.Status != "" {
		base = base.Where("exam_registration_status = ?", q.Status)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.ExamRegistrationModel
	if err := base.Order("exam_registration_requested_at DESC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
