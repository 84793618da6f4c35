// file: internals/features/exams/catalog/service/exam_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"academy_backend/internals/features/exams/catalog/dto"
	"academy_backend/internals/features/exams/catalog/model"
	resultModel "academy_backend/internals/features/exams/results/model"
	helper "academy_backend/internals/helpers"
)

const DefaultTimeLimitMinutes = 60

type ExamService struct {
	DB *gorm.DB
}

func NewExamService(db *gorm.DB) *ExamService {
	return &ExamService{DB: db}
}

/* =========================================================
   Loaders (shared with the other exam stages)
========================================================= */

func orderedQuestions(db *gorm.DB) *gorm.DB {
	return db.Order("exam_question_position ASC")
}

// Load reads one exam with its questions. Missing -> 404.
func Load(ctx context.Context, db *gorm.DB, id uuid.UUID) (*model.ExamModel, error) {
	var m model.ExamModel
	err := db.WithContext(ctx).
		Preload("Questions", orderedQuestions).
		First(&m, "exam_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, helper.ErrNotFound("exam not found")
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadHeader reads the exam row without questions.
func LoadHeader(ctx context.Context, db *gorm.DB, id uuid.UUID) (*model.ExamModel, error) {
	var m model.ExamModel
	err := db.WithContext(ctx).First(&m, "exam_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, helper.ErrNotFound("exam not found")
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

/* =========================================================
   Normalization
========================================================= */

func buildQuestions(in []dto.QuestionInput) ([]model.ExamQuestionModel, error) {
	out := make([]model.ExamQuestionModel, 0, len(in))
	for i, q := range in {
		m := q.ToModel(i + 1)
		if err := m.ValidateShape(); err != nil {
			return nil, helper.ErrBadRequest("question %d: %v", i+1, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func checkMarks(m *model.ExamModel) error {
	if m.ExamMaxTheoryScore < 0 {
		return helper.ErrBadRequest("max_theory_score must not be negative")
	}
	if m.ExamTheoryPassMark > m.ExamMaxTheoryScore && m.ExamMaxTheoryScore > 0 {
		return helper.ErrBadRequest("theory_pass_mark %.2f exceeds max_theory_score %.2f",
			m.ExamTheoryPassMark, m.ExamMaxTheoryScore)
	}
	if max := m.ExamMaxTheoryScore + m.ExamMaxPracticalScore; m.ExamFinalPassMark > max {
		return helper.ErrBadRequest("final_pass_mark %.2f exceeds the maximum total %.2f",
			m.ExamFinalPassMark, max)
	}
	return nil
}

/* =========================================================
   Create
========================================================= */

func (s *ExamService) Create(ctx context.Context, actor uuid.UUID, req dto.CreateExamRequest) (*model.ExamModel, error) {
	title := strings.TrimSpace(req.Title)
	belt := strings.TrimSpace(req.BeltLevel)
	if title == "" {
		return nil, helper.ErrBadRequest("title is required")
	}
	if belt == "" {
		return nil, helper.ErrBadRequest("belt_level is required")
	}

	questions, err := buildQuestions(req.Questions)
	if err != nil {
		return nil, err
	}

	limit := req.TimeLimitMinutes
	if limit <= 0 {
		limit = DefaultTimeLimitMinutes
	}

	m := &model.ExamModel{
		ExamID:                     uuid.New(),
		ExamTitle:                  title,
		ExamDescription:            trimPtr(req.Description),
		ExamBeltLevel:              belt,
		ExamStatus:                 model.ExamStatusDraft,
		ExamTimeLimitMinutes:       limit,
		ExamMaxTheoryScoreOverride: req.MaxTheoryScore,
		ExamTheoryPassMarkOverride: req.TheoryPassMark,
		ExamFinalPassMarkOverride:  req.FinalPassMark,
		ExamCreatedBy:              actor,
		Questions:                  questions,
	}
	for i := range m.Questions {
		m.Questions[i].ExamQuestionExamID = m.ExamID
	}
	m.RecomputeMarks()
	if err := checkMarks(m); err != nil {
		return nil, err
	}

	if req.Publish {
		if len(m.Questions) == 0 {
			return nil, helper.ErrBadRequest("exam has no questions")
		}
		now := time.Now().UTC()
		m.ExamStatus = model.ExamStatusPublished
		m.ExamPublishedAt = &now
	}

	if err := s.DB.WithContext(ctx).Create(m).Error; err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}
	log.Printf("[ExamService] created exam=%s status=%s questions=%d max_theory=%.2f",
		m.ExamID, m.ExamStatus, len(m.Questions), m.ExamMaxTheoryScore)
	return m, nil
}

/* =========================================================
   Update
========================================================= */

func (s *ExamService) Update(ctx context.Context, id uuid.UUID, req dto.PatchExamRequest) (*model.ExamModel, error) {
	var out *model.ExamModel
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := Load(ctx, tx, id)
		if err != nil {
			return err
		}

		switch {
		case m.IsArchived():
			return helper.ErrConflict("exam already archived")
		case m.IsPublished():
			if req.Questions != nil {
				return helper.ErrConflict("exam already published")
			}
			// belt and theory maximum are fixed once students can sit the exam
			if req.BeltLevel.ShouldUpdate() || req.MaxTheoryScore.ShouldUpdate() {
				return helper.ErrConflict("exam already published")
			}
		}

		if req.Title.ShouldUpdate() {
			t := strings.TrimSpace(req.Title.Val())
			if t == "" {
				return helper.ErrBadRequest("title is required")
			}
			m.ExamTitle = t
		}
		if req.Description.ShouldUpdate() {
			if req.Description.IsNull() {
				m.ExamDescription = nil
			} else {
				v := req.Description.Val()
				m.ExamDescription = trimPtr(&v)
			}
		}
		if req.BeltLevel.ShouldUpdate() {
			b := strings.TrimSpace(req.BeltLevel.Val())
			if b == "" {
				return helper.ErrBadRequest("belt_level is required")
			}
			m.ExamBeltLevel = b
		}
		if req.TimeLimitMinutes.ShouldUpdate() {
			v := req.TimeLimitMinutes.Val()
			if req.TimeLimitMinutes.IsNull() || v <= 0 {
				v = DefaultTimeLimitMinutes
			}
			m.ExamTimeLimitMinutes = v
		}
		applyOverride(&m.ExamMaxTheoryScoreOverride, req.MaxTheoryScore)
		applyOverride(&m.ExamTheoryPassMarkOverride, req.TheoryPassMark)
		applyOverride(&m.ExamFinalPassMarkOverride, req.FinalPassMark)

		if req.Questions != nil {
			qs, err := buildQuestions(*req.Questions)
			if err != nil {
				return err
			}
			if err := tx.Where("exam_question_exam_id = ?", m.ExamID).
				Delete(&model.ExamQuestionModel{}).Error; err != nil {
				return fmt.Errorf("replace questions: %w", err)
			}
			for i := range qs {
				qs[i].ExamQuestionExamID = m.ExamID
			}
			if len(qs) > 0 {
				if err := tx.Create(&qs).Error; err != nil {
					return fmt.Errorf("insert questions: %w", err)
				}
			}
			m.Questions = qs
		}

		m.RecomputeMarks()
		if err := checkMarks(m); err != nil {
			return err
		}

		if err := tx.Model(m).Omit("Questions").Select(
			"exam_title", "exam_description", "exam_belt_level", "exam_time_limit_minutes",
			"exam_max_theory_score", "exam_theory_pass_mark", "exam_max_practical_score", "exam_final_pass_mark",
			"exam_max_theory_score_override", "exam_theory_pass_mark_override", "exam_final_pass_mark_override",
			"exam_updated_at",
		).Updates(m).Error; err != nil {
			return fmt.Errorf("update exam: %w", err)
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func applyOverride(dst **float64, f dto.UpdateField[float64]) {
	if !f.ShouldUpdate() {
		return
	}
	if f.IsNull() {
		*dst = nil
		return
	}
	v := f.Val()
	*dst = &v
}

/* =========================================================
   Publish / Archive
========================================================= */

func (s *ExamService) Publish(ctx context.Context, id uuid.UUID) (*model.ExamModel, error) {
	m, err := Load(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	switch {
	case m.IsPublished():
		return nil, helper.ErrConflict("exam already published")
	case m.IsArchived():
		return nil, helper.ErrConflict("exam already archived")
	}
	if len(m.Questions) == 0 {
		return nil, helper.ErrBadRequest("exam has no questions")
	}

	now := time.Now().UTC()
	res := s.DB.WithContext(ctx).Model(&model.ExamModel{}).
		Where("exam_id = ? AND exam_status = ?", id, model.ExamStatusDraft).
		Updates(map[string]any{
			"exam_status":       model.ExamStatusPublished,
			"exam_published_at": now,
			"exam_updated_at":   now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("publish exam: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, helper.ErrConflict("exam already published")
	}
	m.ExamStatus = model.ExamStatusPublished
	m.ExamPublishedAt = &now
	log.Printf("[ExamService] published exam=%s", id)
	return m, nil
}

func (s *ExamService) Archive(ctx context.Context, id uuid.UUID) (*model.ExamModel, error) {
	m, err := LoadHeader(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	switch {
	case m.IsArchived():
		return nil, helper.ErrConflict("exam already archived")
	case m.IsDraft():
		return nil, helper.ErrBadRequest("exam is not published")
	}

	now := time.Now().UTC()
	res := s.DB.WithContext(ctx).Model(&model.ExamModel{}).
		Where("exam_id = ? AND exam_status = ?", id, model.ExamStatusPublished).
		Updates(map[string]any{
			"exam_status":      model.ExamStatusArchived,
			"exam_archived_at": now,
			"exam_updated_at":  now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("archive exam: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, helper.ErrConflict("exam already archived")
	}
	m.ExamStatus = model.ExamStatusArchived
	m.ExamArchivedAt = &now
	log.Printf("[ExamService] archived exam=%s", id)
	return m, nil
}

/* =========================================================
   Reads
========================================================= */

func (s *ExamService) Get(ctx context.Context, id uuid.UUID) (*model.ExamModel, error) {
	return Load(ctx, s.DB, id)
}

func (s *ExamService) ListAdmin(ctx context.Context, q dto.ListExamQuery, p helper.Paging) ([]model.ExamModel, int64, error) {
	base := s.DB.WithContext(ctx).Model(&model.ExamModel{})
	if q.Status != "" {
		base = base.Where("exam_status = ?", q.Status)
	}
	if b := strings.TrimSpace(q.BeltLevel); b != "" {
		base = base.Where("exam_belt_level = ?", b)
	}
	if t := strings.TrimSpace(q.Q); t != "" {
		base = base.Where("LOWER(exam_title) LIKE ?", "%"+strings.ToLower(t)+"%")
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.ExamModel
	if err := base.Preload("Questions", orderedQuestions).
		Order("exam_created_at DESC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListForStudent returns published exams of the belt, minus the ones already finalized for the student.
func (s *ExamService) ListForStudent(ctx context.Context, studentID uuid.UUID, belt string, p helper.Paging) ([]model.ExamModel, int64, error) {
	finalized := s.DB.Model(&resultModel.ExamFinalResultModel{}).
		Select("exam_result_exam_id").
		Where("exam_result_student_id = ?", studentID)

	base := s.DB.WithContext(ctx).Model(&model.ExamModel{}).
		Where("exam_status = ?", model.ExamStatusPublished).
		Where("exam_belt_level = ?", strings.TrimSpace(belt)).
		Where("exam_id NOT IN (?)", finalized)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.ExamModel
	if err := base.Preload("Questions", orderedQuestions).
		Order("exam_published_at DESC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// GetForStudent only exposes published exams.
func (s *ExamService) GetForStudent(ctx context.Context, id uuid.UUID) (*model.ExamModel, error) {
	m, err := Load(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	if !m.IsPublished() {
		return nil, helper.ErrNotFound("exam not found")
	}
	return m, nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
