// file: internals/features/exams/results/model/final_result_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/*
=========================================================

	FINAL RESULTS
	1 row = 1 exam × 1 student, inserted once and never updated.
	Its existence is the only certificate gate.

=========================================================
*/
type ExamFinalResultModel struct {
	ExamResultID          uuid.UUID `gorm:"column:exam_result_id;type:uuid;primaryKey" json:"exam_result_id"`
	ExamResultExamID      uuid.UUID `gorm:"column:exam_result_exam_id;type:uuid;not null;uniqueIndex:idx_exam_results_pair,priority:1" json:"exam_result_exam_id"`
	ExamResultStudentID   uuid.UUID `gorm:"column:exam_result_student_id;type:uuid;not null;uniqueIndex:idx_exam_results_pair,priority:2;index" json:"exam_result_student_id"`
	ExamResultAttemptID   uuid.UUID `gorm:"column:exam_result_attempt_id;type:uuid;not null" json:"exam_result_attempt_id"`
	ExamResultPracticalID uuid.UUID `gorm:"column:exam_result_practical_id;type:uuid;not null" json:"exam_result_practical_id"`

	// theory
	ExamResultAutoTheoryScore float64 `gorm:"column:exam_result_auto_theory_score;not null" json:"exam_result_auto_theory_score"`
	ExamResultEssayScore      float64 `gorm:"column:exam_result_essay_score;not null" json:"exam_result_essay_score"`
	ExamResultPendingEssays   int     `gorm:"column:exam_result_pending_essays;not null" json:"exam_result_pending_essays"`
	ExamResultTheoryScore     float64 `gorm:"column:exam_result_theory_score;not null" json:"exam_result_theory_score"`
	ExamResultTheoryPassMark  float64 `gorm:"column:exam_result_theory_pass_mark;not null" json:"exam_result_theory_pass_mark"`
	ExamResultTheoryPass      bool    `gorm:"column:exam_result_theory_pass;not null" json:"exam_result_theory_pass"`

	// practical
	ExamResultMorality  float64 `gorm:"column:exam_result_morality;not null" json:"exam_result_morality"`
	ExamResultMethod    float64 `gorm:"column:exam_result_method;not null" json:"exam_result_method"`
	ExamResultTechnique float64 `gorm:"column:exam_result_technique;not null" json:"exam_result_technique"`
	ExamResultPhysical  float64 `gorm:"column:exam_result_physical;not null" json:"exam_result_physical"`
	ExamResultMental    float64 `gorm:"column:exam_result_mental;not null" json:"exam_result_mental"`

	// combined
	ExamResultMethodTotal   float64 `gorm:"column:exam_result_method_total;not null" json:"exam_result_method_total"`
	ExamResultTotalScore    float64 `gorm:"column:exam_result_total_score;not null" json:"exam_result_total_score"`
	ExamResultFinalPassMark float64 `gorm:"column:exam_result_final_pass_mark;not null" json:"exam_result_final_pass_mark"`
	ExamResultPassed        bool    `gorm:"column:exam_result_passed;not null" json:"exam_result_passed"`

	ExamResultFinalizedBy uuid.UUID `gorm:"column:exam_result_finalized_by;type:uuid;not null" json:"exam_result_finalized_by"`
	ExamResultFinalizedAt time.Time `gorm:"column:exam_result_finalized_at;not null" json:"exam_result_finalized_at"`
}

func (ExamFinalResultModel) TableName() string { return "exam_final_results" }

func (m *ExamFinalResultModel) BeforeCreate(tx *gorm.DB) error {
	if m.ExamResultID == uuid.Nil {
		m.ExamResultID = uuid.New()
	}
	return nil
}

// Exists is the shared "already finalized" probe used by every earlier stage.
func Exists(tx *gorm.DB, examID, studentID uuid.UUID) (bool, error) {
	var n int64
	err := tx.Model(&ExamFinalResultModel{}).
		Where("exam_result_exam_id = ? AND exam_result_student_id = ?", examID, studentID).
		Count(&n).Error
	return n > 0, err
}
