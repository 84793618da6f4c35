// file: internals/features/exams/results/service/result_service.go
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

	"academy_backend/internals/configs"
	attemptModel "academy_backend/internals/features/exams/attempts/model"
	attemptService "academy_backend/internals/features/exams/attempts/service"
	catalogModel "academy_backend/internals/features/exams/catalog/model"
	catalogService "academy_backend/internals/features/exams/catalog/service"
	practicalService "academy_backend/internals/features/exams/practicals/service"
	"academy_backend/internals/features/exams/results/dto"
	"academy_backend/internals/features/exams/results/model"
	helper "academy_backend/internals/helpers"
)

type ResultService struct {
	DB                  *gorm.DB
	RequireEssayGrading bool
	Now                 func() time.Time
}

func NewResultService(db *gorm.DB) *ResultService {
	return &ResultService{
		DB:                  db,
		RequireEssayGrading: configs.RequireEssayGrading,
		Now:                 func() time.Time { return time.Now().UTC() },
	}
}

// essayTotals sums manual grades over the snapshot's essay questions.
func essayTotals(a *attemptModel.ExamAttemptModel, grades []attemptModel.ExamEssayGradeModel) (score float64, pending int, err error) {
	qs, err := a.Questions()
	if err != nil {
		return 0, 0, err
	}
	byQuestion := make(map[uuid.UUID]float64, len(grades))
	for _, g := range grades {
		byQuestion[g.ExamEssayGradeQuestionID] = g.ExamEssayGradeScore
	}
	for _, q := range qs {
		if q.Type != catalogModel.QuestionTypeEssay {
			continue
		}
		if v, ok := byQuestion[q.QuestionID]; ok {
			score += v
		} else {
			pending++
		}
	}
	return score, pending, nil
}

/* =========================================================
   Finalize: exactly once per exam × student
========================================================= */

func (s *ResultService) Finalize(ctx context.Context, examID, studentID, actor uuid.UUID) (*model.ExamFinalResultModel, error) {
	attempt, err := attemptService.FindSubmitted(ctx, s.DB, examID, studentID)
	if err != nil {
		return nil, err
	}
	if attempt == nil {
		return nil, helper.ErrBadRequest("theory attempt not submitted")
	}
	practical, err := practicalService.Find(ctx, s.DB, examID, studentID)
	if err != nil {
		return nil, err
	}
	if practical == nil {
		return nil, helper.ErrBadRequest("practical evaluation not recorded")
	}

	done, err := model.Exists(s.DB.WithContext(ctx), examID, studentID)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, helper.ErrConflict("exam already finalized")
	}

	exam, err := catalogService.LoadHeader(ctx, s.DB, examID)
	if err != nil {
		return nil, err
	}

	grades, err := attemptService.EssayGrades(ctx, s.DB, attempt.ExamAttemptID)
	if err != nil {
		return nil, err
	}
	essayScore, pending, err := essayTotals(attempt, grades)
	if err != nil {
		return nil, err
	}
	if pending > 0 && s.RequireEssayGrading {
		return nil, helper.ErrBadRequest("essay grading incomplete")
	}

	out := Combine(attempt.ExamAttemptAutoScore+essayScore, exam.ExamTheoryPassMark, Practical{
		Morality:  practical.ExamPracticalMorality,
		Method:    practical.ExamPracticalMethod,
		Technique: practical.ExamPracticalTechnique,
		Physical:  practical.ExamPracticalPhysical,
		Mental:    practical.ExamPracticalMental,
	}, exam.ExamFinalPassMark)

	row := &model.ExamFinalResultModel{
		ExamResultID:              uuid.New(),
		ExamResultExamID:          examID,
		ExamResultStudentID:       studentID,
		ExamResultAttemptID:       attempt.ExamAttemptID,
		ExamResultPracticalID:     practical.ExamPracticalID,
		ExamResultAutoTheoryScore: attempt.ExamAttemptAutoScore,
		ExamResultEssayScore:      essayScore,
		ExamResultPendingEssays:   pending,
		ExamResultTheoryScore:     out.TheoryScore,
		ExamResultTheoryPassMark:  out.TheoryPassMark,
		ExamResultTheoryPass:      out.TheoryPass,
		ExamResultMorality:        practical.ExamPracticalMorality,
		ExamResultMethod:          practical.ExamPracticalMethod,
		ExamResultTechnique:       practical.ExamPracticalTechnique,
		ExamResultPhysical:        practical.ExamPracticalPhysical,
		ExamResultMental:          practical.ExamPracticalMental,
		ExamResultMethodTotal:     out.MethodTotal,
		ExamResultTotalScore:      out.TotalScore,
		ExamResultFinalPassMark:   out.FinalPassMark,
		ExamResultPassed:          out.Passed,
		ExamResultFinalizedBy:     actor,
		ExamResultFinalizedAt:     s.Now(),
	}

	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return nil, fmt.Errorf("insert final result: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, helper.ErrConflict("exam already finalized")
	}

	log.Printf("[ResultService] finalized exam=%s student=%s theory=%.2f/%.2f method_total=%.2f total=%.2f/%.2f passed=%v pending_essays=%d",
		examID, studentID, out.TheoryScore, out.TheoryPassMark, out.MethodTotal, out.TotalScore, out.FinalPassMark, out.Passed, pending)

	// best effort; the result row is the source of truth
	if err := s.DB.WithContext(ctx).Model(&attemptModel.ExamAttemptModel{}).
		Where("exam_attempt_id = ? AND exam_attempt_final_passed IS NULL", attempt.ExamAttemptID).
		Updates(map[string]any{
			"exam_attempt_final_passed":      out.Passed,
			"exam_attempt_final_total_score": out.TotalScore,
		}).Error; err != nil {
		log.Printf("[ResultService] annotate attempt=%s failed: %v", attempt.ExamAttemptID, err)
	}
	return row, nil
}

/* =========================================================
   Reads
========================================================= */

// Find returns the pair's result or nil.
func Find(ctx context.Context, db *gorm.DB, examID, studentID uuid.UUID) (*model.ExamFinalResultModel, error) {
	var m model.ExamFinalResultModel
	err := db.WithContext(ctx).
		Where("exam_result_exam_id = ? AND exam_result_student_id = ?", examID, studentID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *ResultService) Get(ctx context.Context, examID, studentID uuid.UUID) (*model.ExamFinalResultModel, error) {
	m, err := Find(ctx, s.DB, examID, studentID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, helper.ErrNotFound("result not found")
	}
	return m, nil
}

func (s *ResultService) ListOwn(ctx context.Context, studentID uuid.UUID, p helper.Paging) ([]model.ExamFinalResultModel, int64, error) {
	return s.List(ctx, dto.ListResultQuery{StudentID: studentID.String()}, p)
}

func (s *ResultService) List(ctx context.Context, q dto.ListResultQuery, p helper.Paging) ([]model.ExamFinalResultModel, int64, error) {
	base := s.DB.WithContext(ctx).Model(&model.ExamFinalResultModel{})
	if id, err := uuid.Parse(q.ExamID); err == nil {
		base = base.Where("exam_result_exam_id = ?", id)
	}
	if id, err := uuid.Parse(q.StudentID); err == nil {
		base = base.Where("exam_result_student_id = ?", id)
	}
	if q.Passed != nil {
		base = base.Where("exam_result_passed = ?", *q.Passed)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.ExamFinalResultModel
	if err := base.Order("exam_result_finalized_at DESC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
