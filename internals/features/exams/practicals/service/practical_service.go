// file: internals/features/exams/practicals/service/practical_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	attemptService "academy_backend/internals/features/exams/attempts/service"
	catalogModel "academy_backend/internals/features/exams/catalog/model"
	"academy_backend/internals/features/exams/practicals/dto"
	"academy_backend/internals/features/exams/practicals/model"
	resultModel "academy_backend/internals/features/exams/results/model"
	helper "academy_backend/internals/helpers"
)

type PracticalService struct {
	DB *gorm.DB
}

func NewPracticalService(db *gorm.DB) *PracticalService {
	return &PracticalService{DB: db}
}

func inRange(v float64) bool {
	return v >= 0 && v <= catalogModel.PracticalComponentMax
}

// Record writes the pair's practical evaluation once; a second call is a 409.
func (s *PracticalService) Record(ctx context.Context, examID, studentID uuid.UUID, sc dto.Scores, note *string, actor uuid.UUID) (*model.ExamPracticalEvaluationModel, error) {
	for name, v := range map[string]float64{
		"morality": sc.Morality, "method": sc.Method, "technique": sc.Technique,
		"physical": sc.Physical, "mental": sc.Mental,
	} {
		if !inRange(v) {
			return nil, helper.ErrBadRequest("%s must be within [0, %g]", name, catalogModel.PracticalComponentMax)
		}
	}

	attempt, err := attemptService.FindSubmitted(ctx, s.DB, examID, studentID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, helper.ErrBadRequest("theory attempt not submitted")
	}

	done, err := resultModel.Exists(s.DB.WithContext(ctx), examID, studentID)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, helper.ErrConflict("exam already finalized")
	}

	if note != nil {
		t := strings.TrimSpace(*note)
		note = &t
		if t == "" {
			note = nil
		}
	}

	row := &model.ExamPracticalEvaluationModel{
		ExamPracticalID:          uuid.New(),
		ExamPracticalExamID:      examID,
		ExamPracticalStudentID:   studentID,
		ExamPracticalAttemptID:   attempt.ExamAttemptID,
		ExamPracticalMorality:    sc.Morality,
		ExamPracticalMethod:      sc.Method,
		ExamPracticalTechnique:   sc.Technique,
		ExamPracticalPhysical:    sc.Physical,
		ExamPracticalMental:      sc.Mental,
		ExamPracticalNote:        note,
		ExamPracticalEvaluatedBy: actor,
	}
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return nil, fmt.Errorf("insert practical: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, helper.ErrConflict("practical evaluation already recorded")
	}

	log.Printf("[PracticalService] recorded exam=%s student=%s sum=%.2f by=%s",
		examID, studentID, row.Sum(), actor)
	return row, nil
}

// Find returns the pair's evaluation or nil.
func Find(ctx context.Context, db *gorm.DB, examID, studentID uuid.UUID) (*model.ExamPracticalEvaluationModel, error) {
	var m model.ExamPracticalEvaluationModel
	err := db.WithContext(ctx).
		Where("exam_practical_exam_id = ? AND exam_practical_student_id = ?", examID, studentID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *PracticalService) Get(ctx context.Context, examID, studentID uuid.UUID) (*model.ExamPracticalEvaluationModel, error) {
	m, err := Find(ctx, s.DB, examID, studentID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, helper.ErrNotFound("practical evaluation not found")
	}
	return m, nil
}

func (s *PracticalService) List(ctx context.Context, q dto.ListPracticalQuery, p helper.Paging) ([]model.ExamPracticalEvaluationModel, int64, error) {
	base := s.DB.WithContext(ctx).Model(&model.ExamPracticalEvaluationModel{})
	if id, err := uuid.Parse(q.ExamID); err == nil {
		base = base.Where("exam_practical_exam_id = ?", id)
	}
	if id, err := uuid.Parse(q.StudentID); err == nil {
		base = base.Where("exam_practical_student_id = ?", id)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.ExamPracticalEvaluationModel
	if err := base.Order("exam_practical_created_at DESC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
