// file: internals/features/exams/attempts/service/attempt_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"academy_backend/internals/configs"
	"academy_backend/internals/features/exams/attempts/dto"
	"academy_backend/internals/features/exams/attempts/model"
	catalogModel "academy_backend/internals/features/exams/catalog/model"
	catalogService "academy_backend/internals/features/exams/catalog/service"
	registrationService "academy_backend/internals/features/exams/registrations/service"
	resultModel "academy_backend/internals/features/exams/results/model"
	helper "academy_backend/internals/helpers"
)

/* =========================================================
   SERVICE
========================================================= */

type AttemptService struct {
	DB    *gorm.DB
	Grace time.Duration
	Now   func() time.Time
}

func NewAttemptService(db *gorm.DB) *AttemptService {
	return &AttemptService{
		DB:    db,
		Grace: configs.AttemptGrace,
		Now:   func() time.Time { return time.Now().UTC() },
	}
}

// AntiCheat is what the client reports about the session.
type AntiCheat struct {
	VisibilityLossCount int
	ForcedSubmit        bool
	ForcedReason        *model.ForcedReason
}

/* =========================================================
   Loaders
========================================================= */

func (s *AttemptService) load(ctx context.Context, id uuid.UUID) (*model.ExamAttemptModel, error) {
	var a model.ExamAttemptModel
	err := s.DB.WithContext(ctx).First(&a, "exam_attempt_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, helper.ErrNotFound("attempt not found")
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AttemptService) loadOwned(ctx context.Context, id, studentID uuid.UUID) (*model.ExamAttemptModel, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.ExamAttemptStudentID != studentID {
		return nil, helper.ErrForbidden("attempt does not belong to you")
	}
	return a, nil
}

func findOpen(ctx context.Context, db *gorm.DB, examID, studentID uuid.UUID) (*model.ExamAttemptModel, error) {
	var a model.ExamAttemptModel
	err := db.WithContext(ctx).
		Where("exam_attempt_exam_id = ? AND exam_attempt_student_id = ? AND exam_attempt_submitted_at IS NULL", examID, studentID).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindSubmitted returns the pair's submitted attempt or nil.
func FindSubmitted(ctx context.Context, db *gorm.DB, examID, studentID uuid.UUID) (*model.ExamAttemptModel, error) {
	var a model.ExamAttemptModel
	err := db.WithContext(ctx).
		Where("exam_attempt_exam_id = ? AND exam_attempt_student_id = ? AND exam_attempt_submitted_at IS NOT NULL", examID, studentID).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

/* =========================================================
   Start: get-or-create the open attempt
========================================================= */

func (s *AttemptService) Start(ctx context.Context, examID, studentID uuid.UUID) (*model.ExamAttemptModel, error) {
	exam, err := catalogService.Load(ctx, s.DB, examID)
	if err != nil {
		return nil, err
	}
	if !exam.IsPublished() {
		return nil, helper.ErrBadRequest("exam is not published")
	}

	approved, err := registrationService.IsApproved(ctx, s.DB, examID, studentID)
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, helper.ErrForbidden("registration not approved")
	}

	done, err := resultModel.Exists(s.DB.WithContext(ctx), examID, studentID)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, helper.ErrConflict("exam already finalized")
	}

	if sub, err := FindSubmitted(ctx, s.DB, examID, studentID); err != nil {
		return nil, err
	} else if sub != nil {
		return nil, helper.ErrBadRequest("attempt already submitted")
	}

	now := s.Now()
	row := &model.ExamAttemptModel{
		ExamAttemptID:                     uuid.New(),
		ExamAttemptExamID:                 examID,
		ExamAttemptStudentID:              studentID,
		ExamAttemptStartedAt:              now,
		ExamAttemptExpiresAt:              now.Add(time.Duration(exam.ExamTimeLimitMinutes) * time.Minute),
		ExamAttemptMaxTheoryScoreSnapshot: exam.ExamMaxTheoryScore,
		ExamAttemptTheoryPassMarkSnapshot: exam.ExamTheoryPassMark,
	}
	if err := row.SetQuestions(Snapshot(exam)); err != nil {
		return nil, err
	}

	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return nil, fmt.Errorf("insert attempt: %w", res.Error)
	}

	if res.RowsAffected == 1 {
		// a submit may have landed between the check above and the insert
		sub, err := FindSubmitted(ctx, s.DB, examID, studentID)
		if err != nil {
			log.Printf("[AttemptService] exam=%s student=%s submitted check after insert failed: %v", examID, studentID, err)
		} else if sub != nil {
			_ = s.dropOrphan(ctx, row.ExamAttemptID)
			return nil, helper.ErrBadRequest("attempt already submitted")
		}
		log.Printf("[AttemptService] started attempt=%s exam=%s student=%s expires_at=%s",
			row.ExamAttemptID, examID, studentID, row.ExamAttemptExpiresAt.Format(time.RFC3339))
		return row, nil
	}

	open, err := findOpen(ctx, s.DB, examID, studentID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return open, nil
	}
	// the open row was submitted after our insert lost
	sub, err := FindSubmitted(ctx, s.DB, examID, studentID)
	if err != nil {
		return nil, fmt.Errorf("find submitted attempt: %w", err)
	}
	if sub != nil {
		return nil, helper.ErrBadRequest("attempt already submitted")
	}
	return nil, fmt.Errorf("attempt conflict without a stored row (exam=%s student=%s)", examID, studentID)
}

/* =========================================================
   Draft autosave
========================================================= */

func (s *AttemptService) SaveDraft(ctx context.Context, attemptID, studentID uuid.UUID, answers []model.AnswerInput, visibilityLoss int) (*model.ExamAttemptModel, error) {
	a, err := s.loadOwned(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}
	if a.IsSubmitted() {
		return nil, helper.ErrConflict("attempt already submitted")
	}
	if s.Now().After(a.ExamAttemptExpiresAt.Add(s.Grace)) {
		return nil, helper.ErrConflict("attempt already expired")
	}

	if answers == nil {
		answers = []model.AnswerInput{}
	}
	raw, err := json.Marshal(answers)
	if err != nil {
		return nil, err
	}

	res := s.DB.WithContext(ctx).Model(&model.ExamAttemptModel{}).
		Where("exam_attempt_id = ? AND exam_attempt_submitted_at IS NULL", attemptID).
		Updates(map[string]any{
			"exam_attempt_draft_answers": datatypes.JSON(raw),
			// the counter never goes down
			"exam_attempt_visibility_loss_count": gorm.Expr(
				"CASE WHEN exam_attempt_visibility_loss_count > ? THEN exam_attempt_visibility_loss_count ELSE ? END",
				visibilityLoss, visibilityLoss),
			"exam_attempt_updated_at": s.Now(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("save draft: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, helper.ErrConflict("attempt already submitted")
	}
	return s.load(ctx, attemptID)
}

/* =========================================================
   Submit
========================================================= */

func (s *AttemptService) Submit(ctx context.Context, attemptID, studentID uuid.UUID, answers []model.AnswerInput, ac AntiCheat) (*model.ExamAttemptModel, error) {
	a, err := s.loadOwned(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}
	if a.IsSubmitted() {
		return nil, helper.ErrConflict("attempt already submitted")
	}

	done, err := resultModel.Exists(s.DB.WithContext(ctx), a.ExamAttemptExamID, a.ExamAttemptStudentID)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, helper.ErrConflict("exam already finalized")
	}

	if err := s.finish(ctx, a, answers, ac); err != nil {
		return nil, err
	}
	return s.load(ctx, attemptID)
}

// finish grades and closes an open attempt with one conditional update.
func (s *AttemptService) finish(ctx context.Context, a *model.ExamAttemptModel, answers []model.AnswerInput, ac AntiCheat) error {
	qs, err := a.Questions()
	if err != nil {
		return err
	}
	sheet := Grade(qs, answers)

	passMark := a.ExamAttemptTheoryPassMarkSnapshot
	if exam, err := catalogService.LoadHeader(ctx, s.DB, a.ExamAttemptExamID); err == nil {
		passMark = exam.ExamTheoryPassMark
	} else {
		log.Printf("[AttemptService] exam=%s unreadable, using snapshot pass mark: %v", a.ExamAttemptExamID, err)
	}

	now := s.Now()
	late := now.After(a.ExamAttemptExpiresAt.Add(s.Grace))

	forced, reason := ac.ForcedSubmit, ac.ForcedReason
	if reason != nil {
		forced = true
	}
	if late && reason == nil {
		r := model.ForcedReasonTimeExpired
		forced, reason = true, &r
	}

	count := ac.VisibilityLossCount
	if a.ExamAttemptVisibilityLossCount > count {
		count = a.ExamAttemptVisibilityLossCount
	}

	raw, err := json.Marshal(sheet.Answers)
	if err != nil {
		return err
	}

	res := s.DB.WithContext(ctx).Model(&model.ExamAttemptModel{}).
		Where("exam_attempt_id = ? AND exam_attempt_submitted_at IS NULL", a.ExamAttemptID).
		Updates(map[string]any{
			"exam_attempt_answers":               datatypes.JSON(raw),
			"exam_attempt_auto_score":            sheet.AutoScore,
			"exam_attempt_theory_score":          sheet.AutoScore,
			"exam_attempt_theory_pass":           TheoryPass(sheet.AutoScore, passMark),
			"exam_attempt_essay_max_score":       sheet.EssayMaxScore,
			"exam_attempt_submitted_at":          now,
			"exam_attempt_visibility_loss_count": count,
			"exam_attempt_forced_submit":         forced,
			"exam_attempt_forced_reason":         reason,
			"exam_attempt_submitted_late":        late,
			"exam_attempt_cheat_flagged":         count >= model.VisibilityLossLimit,
			"exam_attempt_updated_at":            now,
		})
	if res.Error != nil {
		if helper.IsUniqueViolation(res.Error) {
			return helper.ErrConflict("attempt already submitted")
		}
		return fmt.Errorf("submit attempt: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return helper.ErrConflict("attempt already submitted")
	}

	log.Printf("[AttemptService] submitted attempt=%s auto=%.2f pass_mark=%.2f essays=%d late=%v forced=%v visibility_loss=%d",
		a.ExamAttemptID, sheet.AutoScore, passMark, sheet.EssayCount, late, forced, count)
	return nil
}

/* =========================================================
   Expiry sweep
========================================================= */

const sweepBatch = 100

// SweepExpired force-submits open attempts past expires_at + grace using their drafts.
func (s *AttemptService) SweepExpired(ctx context.Context) (int, error) {
	cutoff := s.Now().Add(-s.Grace)

	var rows []model.ExamAttemptModel
	if err := s.DB.WithContext(ctx).
		Where("exam_attempt_submitted_at IS NULL AND exam_attempt_expires_at < ?", cutoff).
		Order("exam_attempt_expires_at ASC").
		Limit(sweepBatch).
		Find(&rows).Error; err != nil {
		return 0, err
	}

	closed := 0
	for i := range rows {
		a := &rows[i]
		drafts, err := a.DraftAnswers()
		if err != nil {
			log.Printf("[AttemptSweeper] attempt=%s bad drafts, grading empty sheet: %v", a.ExamAttemptID, err)
			drafts = nil
		}
		reason := model.ForcedReasonTimeExpired
		err = s.finish(ctx, a, drafts, AntiCheat{
			VisibilityLossCount: a.ExamAttemptVisibilityLossCount,
			ForcedSubmit:        true,
			ForcedReason:        &reason,
		})
		switch {
		case err == nil:
			closed++
		case helper.IsConflict(err):
			// a student submit won, or the pair already has its submitted attempt
			sub, err := FindSubmitted(ctx, s.DB, a.ExamAttemptExamID, a.ExamAttemptStudentID)
			if err != nil {
				log.Printf("[AttemptSweeper] attempt=%s submitted check failed: %v", a.ExamAttemptID, err)
				continue
			}
			if sub != nil && sub.ExamAttemptID != a.ExamAttemptID {
				if err := s.dropOrphan(ctx, a.ExamAttemptID); err == nil {
					log.Printf("[AttemptSweeper] dropped orphan open attempt=%s", a.ExamAttemptID)
				}
			}
		default:
			log.Printf("[AttemptSweeper] attempt=%s force submit failed: %v", a.ExamAttemptID, err)
		}
	}
	return closed, nil
}

// dropOrphan deletes an open attempt left behind for a pair that already has its submitted one.
func (s *AttemptService) dropOrphan(ctx context.Context, attemptID uuid.UUID) error {
	err := s.DB.WithContext(ctx).
		Where("exam_attempt_id = ? AND exam_attempt_submitted_at IS NULL", attemptID).
		Delete(&model.ExamAttemptModel{}).Error
	if err != nil {
		log.Printf("[AttemptService] drop orphan attempt=%s failed: %v", attemptID, err)
	}
	return err
}

/* =========================================================
   Essay grading
========================================================= */

func (s *AttemptService) GradeEssay(ctx context.Context, attemptID, questionID uuid.UUID, score float64, actor uuid.UUID) (*model.ExamEssayGradeModel, error) {
	a, err := s.load(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if !a.IsSubmitted() {
		return nil, helper.ErrConflict("attempt is still open")
	}

	q, err := a.FindQuestion(questionID)
	if err != nil {
		return nil, err
	}
	if q == nil || q.Type != catalogModel.QuestionTypeEssay {
		return nil, helper.ErrBadRequest("question is not an essay of this attempt")
	}
	if score < 0 || score > q.MaxScore {
		return nil, helper.ErrBadRequest("score must be within [0, %g]", q.MaxScore)
	}

	done, err := resultModel.Exists(s.DB.WithContext(ctx), a.ExamAttemptExamID, a.ExamAttemptStudentID)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, helper.ErrConflict("exam already finalized")
	}

	row := &model.ExamEssayGradeModel{
		ExamEssayGradeID:         uuid.New(),
		ExamEssayGradeAttemptID:  a.ExamAttemptID,
		ExamEssayGradeQuestionID: questionID,
		ExamEssayGradeExamID:     a.ExamAttemptExamID,
		ExamEssayGradeStudentID:  a.ExamAttemptStudentID,
		ExamEssayGradeScore:      score,
		ExamEssayGradeMaxScore:   q.MaxScore,
		ExamEssayGradeGradedBy:   actor,
		ExamEssayGradeGradedAt:   s.Now(),
	}
	if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "exam_essay_grade_attempt_id"},
			{Name: "exam_essay_grade_question_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"exam_essay_grade_score",
			"exam_essay_grade_graded_by",
			"exam_essay_grade_graded_at",
		}),
	}).Create(row).Error; err != nil {
		return nil, fmt.Errorf("upsert essay grade: %w", err)
	}

	var stored model.ExamEssayGradeModel
	if err := s.DB.WithContext(ctx).
		Where("exam_essay_grade_attempt_id = ? AND exam_essay_grade_question_id = ?", attemptID, questionID).
		First(&stored).Error; err != nil {
		return nil, err
	}
	log.Printf("[AttemptService] essay graded attempt=%s question=%s score=%.2f/%.2f by=%s",
		attemptID, questionID, score, q.MaxScore, actor)
	return &stored, nil
}

// EssayGrades lists the manual scores of one attempt.
func EssayGrades(ctx context.Context, db *gorm.DB, attemptID uuid.UUID) ([]model.ExamEssayGradeModel, error) {
	var rows []model.ExamEssayGradeModel
	err := db.WithContext(ctx).
		Where("exam_essay_grade_attempt_id = ?", attemptID).
		Find(&rows).Error
	return rows, err
}

/* =========================================================
   Reads
========================================================= */

func (s *AttemptService) Get(ctx context.Context, id uuid.UUID) (*dto.AttemptDetail, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	grades, err := EssayGrades(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}
	detail, err := dto.ToAttemptDetail(a, grades)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (s *AttemptService) ListOwn(ctx context.Context, studentID uuid.UUID, p helper.Paging) ([]model.ExamAttemptModel, int64, error) {
	base := s.DB.WithContext(ctx).Model(&model.ExamAttemptModel{}).
		Where("exam_attempt_student_id = ?", studentID)
	return pageAttempts(base, p)
}

func (s *AttemptService) ListSubmissions(ctx context.Context, q dto.ListSubmissionQuery, p helper.Paging) ([]model.ExamAttemptModel, int64, error) {
	base := s.DB.WithContext(ctx).Model(&model.ExamAttemptModel{}).
		Where("exam_attempt_submitted_at IS NOT NULL")
	if id, err := uuid.Parse(q.ExamID); err == nil {
		base = base.Where("exam_attempt_exam_id = ?", id)
	}
	if id, err := uuid.Parse(q.StudentID); err == nil {
		base = base.Where("exam_attempt_student_id = ?", id)
	}
	return pageAttempts(base, p)
}

func pageAttempts(base *gorm.DB, p helper.Paging) ([]model.ExamAttemptModel, int64, error) {
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.ExamAttemptModel
	if err := base.Order("exam_attempt_started_at DESC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
